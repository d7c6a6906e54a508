package optimize

import (
	"strconv"

	"github.com/trb-lang/trbc/ast"
)

// ConstantFold reduces literal-only arithmetic and string concatenation
// to a single literal (spec §4.10). It is safe because the runtime
// semantics of arithmetic/string operators on literal operands are
// defined identically at compile time and at run time.
func ConstantFold() *Pass {
	return &Pass{
		Name: "constant-fold",
		transform: func(prog *ast.Program) (*ast.Program, PassStats) {
			next, n := rewriteFunctionBodies(prog, foldStmts)
			return next, PassStats{Pass: "constant-fold", Rewritten: n}
		},
	}
}

func foldStmts(stmts []ast.Statement) ([]ast.Statement, int) {
	count := 0
	out, changed := ast.MapStatements(stmts, func(s ast.Statement) ast.Statement {
		return foldStmt(s, &count)
	})
	if !changed {
		return stmts, 0
	}
	return out, count
}

func foldStmt(s ast.Statement, count *int) ast.Statement {
	switch st := s.(type) {
	case *ast.ExprStmt:
		e := foldExpr(st.Expression, count)
		if e == st.Expression {
			return s
		}
		cp := *st
		cp.Expression = e
		return &cp
	case *ast.IfStmt:
		cond := foldExpr(st.Condition, count)
		body, bc := foldStmts(st.Body)
		elseBody, ec := foldStmts(st.ElseBody)
		elsifs, elc := foldElsifs(st.ElsifClauses, count)
		if cond == st.Condition && bc == 0 && ec == 0 && !elc {
			return s
		}
		cp := *st
		cp.Condition = cond
		cp.Body = body
		cp.ElseBody = elseBody
		cp.ElsifClauses = elsifs
		return &cp
	case *ast.CaseStmt:
		scrutinee := foldExpr(st.Scrutinee, count)
		whens, wc := foldWhens(st.Whens, count)
		elseBody, ec := foldStmts(st.ElseBody)
		if scrutinee == st.Scrutinee && !wc && ec == 0 {
			return s
		}
		cp := *st
		cp.Scrutinee = scrutinee
		cp.Whens = whens
		cp.ElseBody = elseBody
		return &cp
	case *ast.WhileStmt:
		cond := foldExpr(st.Condition, count)
		body, bc := foldStmts(st.Body)
		if cond == st.Condition && bc == 0 {
			return s
		}
		cp := *st
		cp.Condition = cond
		cp.Body = body
		return &cp
	case *ast.ReturnStmt:
		if st.Value == nil {
			return s
		}
		v := foldExpr(st.Value, count)
		if v == st.Value {
			return s
		}
		cp := *st
		cp.Value = v
		return &cp
	case *ast.RaiseStmt:
		if st.Exception == nil {
			return s
		}
		v := foldExpr(st.Exception, count)
		if v == st.Exception {
			return s
		}
		cp := *st
		cp.Exception = v
		return &cp
	default:
		return s
	}
}

func foldElsifs(clauses []ast.ElsifClause, count *int) ([]ast.ElsifClause, bool) {
	var out []ast.ElsifClause
	modified := false
	for i, ec := range clauses {
		cond := foldExpr(ec.Condition, count)
		body, bc := foldStmts(ec.Body)
		if cond != ec.Condition || bc != 0 {
			if !modified {
				out = make([]ast.ElsifClause, len(clauses))
				copy(out[:i], clauses[:i])
				modified = true
			}
		}
		if modified {
			out[i] = ast.ElsifClause{Condition: cond, Body: body}
		}
	}
	if !modified {
		return clauses, false
	}
	return out, true
}

func foldWhens(whens []ast.WhenClause, count *int) ([]ast.WhenClause, bool) {
	var out []ast.WhenClause
	modified := false
	for i, w := range whens {
		values, vc := ast.MapExprs(w.Values, func(e ast.Expr) ast.Expr { return foldExpr(e, count) })
		body, bc := foldStmts(w.Body)
		if vc || bc != 0 {
			if !modified {
				out = make([]ast.WhenClause, len(whens))
				copy(out[:i], whens[:i])
				modified = true
			}
		}
		if modified {
			out[i] = ast.WhenClause{Values: values, Body: body}
		}
	}
	if !modified {
		return whens, false
	}
	return out, true
}

// foldExpr recursively folds e's subexpressions, then tries to fold e
// itself if it is a BinaryOp/UnaryOp over literal operands.
func foldExpr(e ast.Expr, count *int) ast.Expr {
	switch v := e.(type) {
	case *ast.BinaryOp:
		l := foldExpr(v.Left, count)
		r := foldExpr(v.Right, count)
		if lit, ok := foldBinaryLiteral(v.Op, l, r); ok {
			*count++
			return lit
		}
		if l == v.Left && r == v.Right {
			return e
		}
		cp := *v
		cp.Left = l
		cp.Right = r
		return &cp
	case *ast.UnaryOp:
		operand := foldExpr(v.Operand, count)
		if lit, ok := foldUnaryLiteral(v.Op, operand); ok {
			*count++
			return lit
		}
		if operand == v.Operand {
			return e
		}
		cp := *v
		cp.Operand = operand
		return &cp
	case *ast.Assignment:
		val := foldExpr(v.Value, count)
		if val == v.Value {
			return e
		}
		cp := *v
		cp.Value = val
		return &cp
	case *ast.ArrayLiteral:
		elems, changed := ast.MapExprs(v.Elements, func(el ast.Expr) ast.Expr { return foldExpr(el, count) })
		if !changed {
			return e
		}
		cp := *v
		cp.Elements = elems
		return &cp
	default:
		return e
	}
}

func foldBinaryLiteral(op string, l, r ast.Expr) (*ast.Literal, bool) {
	ll, lok := l.(*ast.Literal)
	rl, rok := r.(*ast.Literal)
	if !lok || !rok {
		return nil, false
	}
	switch op {
	case "+":
		if ll.Kind == ast.LitExprString && rl.Kind == ast.LitExprString {
			lv, err1 := strconv.Unquote(ll.Value)
			rv, err2 := strconv.Unquote(rl.Value)
			if err1 != nil || err2 != nil {
				return nil, false
			}
			return &ast.Literal{Base: ll.Base, Kind: ast.LitExprString, Value: strconv.Quote(lv + rv)}, true
		}
		return foldIntArith(ll, rl, func(a, b int64) int64 { return a + b })
	case "-":
		return foldIntArith(ll, rl, func(a, b int64) int64 { return a - b })
	case "*":
		return foldIntArith(ll, rl, func(a, b int64) int64 { return a * b })
	default:
		return nil, false
	}
}

func foldIntArith(l, r *ast.Literal, fn func(a, b int64) int64) (*ast.Literal, bool) {
	if l.Kind != ast.LitExprInteger || r.Kind != ast.LitExprInteger {
		return nil, false
	}
	a, err1 := strconv.ParseInt(l.Value, 10, 64)
	b, err2 := strconv.ParseInt(r.Value, 10, 64)
	if err1 != nil || err2 != nil {
		return nil, false
	}
	return &ast.Literal{Base: l.Base, Kind: ast.LitExprInteger, Value: strconv.FormatInt(fn(a, b), 10)}, true
}

func foldUnaryLiteral(op string, operand ast.Expr) (*ast.Literal, bool) {
	lit, ok := operand.(*ast.Literal)
	if !ok {
		return nil, false
	}
	if op != "-" || lit.Kind != ast.LitExprInteger {
		return nil, false
	}
	n, err := strconv.ParseInt(lit.Value, 10, 64)
	if err != nil {
		return nil, false
	}
	return &ast.Literal{Base: lit.Base, Kind: ast.LitExprInteger, Value: strconv.FormatInt(-n, 10)}, true
}
