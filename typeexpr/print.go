package typeexpr

import (
	"fmt"
	"strings"

	"github.com/trb-lang/trbc/ast"
)

// surfaceNames maps a builtin's canonical internal name (ast.Builtin*)
// back to the spelling ParseType accepts and NormalizeBuiltinName
// prefers, so Print round-trips what a user would actually write.
var surfaceNames = map[string]string{
	ast.BuiltinString:  "String",
	ast.BuiltinInteger: "Integer",
	ast.BuiltinFloat:   "Float",
	ast.BuiltinBoolean: "Boolean",
	ast.BuiltinSymbol:  "Symbol",
	ast.BuiltinNil:     "Nil",
	ast.BuiltinVoid:    "Void",
	ast.BuiltinNever:   "Never",
	ast.BuiltinAny:     "Any",
	ast.BuiltinSelf:    "self",
}

// Print renders t in trb's own surface type syntax (spec §4.2/§4.6),
// the form used by the `.d.trb` declaration emitter and by the source
// type annotations the runtime emitter strips. nil prints as the empty
// string, matching an absent (permissive-mode) annotation.
func Print(t ast.TypeExpr) string {
	if t == nil {
		return ""
	}
	switch v := t.(type) {
	case *ast.NamedType:
		name := v.Name
		if surface, ok := surfaceNames[name]; ok {
			name = surface
		}
		if len(v.Args) == 0 {
			return name
		}
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = Print(a)
		}
		return name + "<" + strings.Join(parts, ", ") + ">"
	case *ast.Union:
		if nilT, rest, ok := asOptional(v); ok {
			_ = nilT
			return printOptionalMember(rest) + "?"
		}
		parts := make([]string, len(v.Members))
		for i, m := range v.Members {
			parts[i] = Print(m)
		}
		return strings.Join(parts, " | ")
	case *ast.Intersection:
		parts := make([]string, len(v.Members))
		for i, m := range v.Members {
			parts[i] = Print(m)
		}
		return strings.Join(parts, " & ")
	case *ast.GenericParamRef:
		return v.Name
	case *ast.LiteralType:
		return v.Value
	case *ast.FuncType:
		parts := make([]string, len(v.Params))
		for i, p := range v.Params {
			if p.Name != "" {
				parts[i] = p.Name + ": " + Print(p.Type)
			} else {
				parts[i] = Print(p.Type)
			}
		}
		ret := "void"
		if v.Return != nil {
			ret = Print(v.Return)
		}
		return fmt.Sprintf("^(%s) -> %s", strings.Join(parts, ", "), ret)
	default:
		return fmt.Sprintf("<unknown type %T>", t)
	}
}

// asOptional recognizes Union(T, nil) with exactly one non-nil member,
// the shape optionalOf builds, and reports the surviving member so
// Print can emit trb's `T?` sugar instead of the fully spelled union.
func asOptional(u *ast.Union) (nilMember ast.TypeExpr, rest ast.TypeExpr, ok bool) {
	if len(u.Members) != 2 {
		return nil, nil, false
	}
	for i, m := range u.Members {
		if n, isNamed := m.(*ast.NamedType); isNamed && n.Name == ast.BuiltinNil && len(n.Args) == 0 {
			other := u.Members[1-i]
			return m, other, true
		}
	}
	return nil, nil, false
}

// printOptionalMember parenthesizes a union/intersection member so `?`
// binds to the whole thing rather than just its last alternative.
func printOptionalMember(t ast.TypeExpr) string {
	switch t.(type) {
	case *ast.Union, *ast.Intersection:
		return "(" + Print(t) + ")"
	default:
		return Print(t)
	}
}
