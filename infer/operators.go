package infer

import "github.com/trb-lang/trbc/ast"

func numeric(name string) *ast.NamedType { return &ast.NamedType{Name: name} }

var (
	tInteger = numeric(ast.BuiltinInteger)
	tFloat   = numeric(ast.BuiltinFloat)
	tString  = numeric(ast.BuiltinString)
	tBoolean = numeric(ast.BuiltinBoolean)
	tSymbol  = numeric(ast.BuiltinSymbol)
	tNil     = numeric(ast.BuiltinNil)
	tVoid    = numeric(ast.BuiltinVoid)
	tAny     = numeric(ast.BuiltinAny)
)

// arithmeticResult widens Integer+Integer to Integer, but any Float
// operand widens the result to Float, matching Ruby-flavored numeric
// promotion and the literal-widening rule in SPEC_FULL.md §9.
func arithmeticResult(l, r ast.TypeExpr) (ast.TypeExpr, bool) {
	lb, lok := asBase(l)
	rb, rok := asBase(r)
	if !lok || !rok {
		return nil, false
	}
	if lb.Name == ast.BuiltinFloat || rb.Name == ast.BuiltinFloat {
		if lb.Name == ast.BuiltinInteger || lb.Name == ast.BuiltinFloat {
			if rb.Name == ast.BuiltinInteger || rb.Name == ast.BuiltinFloat {
				return tFloat, true
			}
		}
		return nil, false
	}
	if lb.Name == ast.BuiltinInteger && rb.Name == ast.BuiltinInteger {
		return tInteger, true
	}
	return nil, false
}

func asBase(t ast.TypeExpr) (*ast.NamedType, bool) {
	switch v := t.(type) {
	case *ast.NamedType:
		return v, true
	case *ast.LiteralType:
		return v.BaseType(), true
	default:
		return nil, false
	}
}

// operatorResult types a binary operator application given operand types
// already inferred, per spec §4.8's operator table. Returns ok=false when
// the operator has no defined typing for these operands, leaving the
// caller to fall back to a method-call lookup (user-overloaded operators
// like `+` on a custom class are methods, not built-ins).
func operatorResult(op string, l, r ast.TypeExpr) (ast.TypeExpr, bool) {
	switch op {
	case "+", "-", "*", "/", "%", "**":
		if op == "+" {
			if isStringy(l) && isStringy(r) {
				return tString, true
			}
		}
		return arithmeticResult(l, r)
	case "==", "!=", "<", ">", "<=", ">=", "<=>", "===":
		if op == "<=>" {
			return tInteger, true
		}
		if op == "===" {
			return tBoolean, true
		}
		return tBoolean, true
	case "&&", "and", "||", "or":
		return tBoolean, true
	case "|", "&":
		if isIntish(l) && isIntish(r) {
			return tInteger, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func isStringy(t ast.TypeExpr) bool {
	b, ok := asBase(t)
	return ok && b.Name == ast.BuiltinString
}

func isIntish(t ast.TypeExpr) bool {
	b, ok := asBase(t)
	return ok && (b.Name == ast.BuiltinInteger || b.Name == ast.BuiltinBoolean)
}

// unaryResult types a prefix unary operator.
func unaryResult(op string, operand ast.TypeExpr) (ast.TypeExpr, bool) {
	switch op {
	case "-":
		b, ok := asBase(operand)
		if ok && (b.Name == ast.BuiltinInteger || b.Name == ast.BuiltinFloat) {
			return b, true
		}
		return nil, false
	case "!", "not":
		return tBoolean, true
	default:
		return nil, false
	}
}
