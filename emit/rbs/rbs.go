// Package rbs implements the signature emitter (spec §4.12): walks a
// sig.Program and prints each declaration using the target dynamic
// language's standard external signature format.
package rbs

import (
	"fmt"
	"strings"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/sig"
)

// Emit renders every declaration prog holds as an .rbs document, one
// top-level declaration per entry, blank-line separated. Entries are
// grouped by kind (aliases, interfaces, classes, modules, functions,
// constants); source order holds only within each kind, not across them.
// Whether private members appear depends on the sig.Options prog was
// built with.
func Emit(prog *sig.Program) string {
	var b strings.Builder
	first := true
	sep := func() {
		if !first {
			b.WriteString("\n")
		}
		first = false
	}
	for _, alias := range prog.Aliases {
		sep()
		writeAlias(&b, alias)
	}
	for _, iface := range prog.Interfaces {
		sep()
		writeInterface(&b, iface, 0)
	}
	for _, cls := range prog.Classes {
		sep()
		writeClass(&b, cls, 0)
	}
	for _, mod := range prog.Modules {
		sep()
		writeModule(&b, mod, 0)
	}
	for _, fn := range prog.Functions {
		sep()
		b.WriteString(methodSig(fn) + "\n")
	}
	for _, c := range prog.Constants {
		sep()
		b.WriteString(c.Name + ": " + typeOrUntyped(c.Type) + "\n")
	}
	return b.String()
}

func indent(n int) string { return strings.Repeat("  ", n) }

func writeAlias(b *strings.Builder, a sig.Alias) {
	fmt.Fprintf(b, "type %s%s = %s\n", a.Name, generics(a.Generics), Type(a.Target))
}

func writeInterface(b *strings.Builder, i *sig.Interface, depth int) {
	fmt.Fprintf(b, "%sinterface %s%s\n", indent(depth), i.Name, generics(i.Generics))
	for _, p := range i.Parents {
		fmt.Fprintf(b, "%s  include %s\n", indent(depth), p)
	}
	for _, m := range i.Methods {
		fmt.Fprintf(b, "%s  %s\n", indent(depth), methodSig(m))
	}
	fmt.Fprintf(b, "%send\n", indent(depth))
}

func writeClass(b *strings.Builder, c *sig.Class, depth int) {
	header := "class " + c.Name + generics(c.Generics)
	if c.Parent != "" {
		header += " < " + c.Parent
	}
	fmt.Fprintf(b, "%s%s\n", indent(depth), header)
	for _, inc := range c.Includes {
		fmt.Fprintf(b, "%s  include %s\n", indent(depth), inc)
	}
	for _, impl := range c.Implements {
		// RBS has no `implements` keyword; an interface conformance is
		// expressed the same way a module mixin is, via `include`.
		fmt.Fprintf(b, "%s  include %s\n", indent(depth), impl)
	}
	for _, iv := range c.CVars {
		fmt.Fprintf(b, "%s  self.@@%s: %s\n", indent(depth), iv.Name, typeOrUntyped(iv.Type))
	}
	for _, iv := range c.IVars {
		fmt.Fprintf(b, "%s  @%s: %s\n", indent(depth), iv.Name, typeOrUntyped(iv.Type))
	}
	for _, m := range c.Methods {
		fmt.Fprintf(b, "%s  %s\n", indent(depth), methodSig(m))
	}
	for _, nested := range c.Classes {
		writeClass(b, nested, depth+1)
	}
	for _, nested := range c.Modules {
		writeModule(b, nested, depth+1)
	}
	fmt.Fprintf(b, "%send\n", indent(depth))
}

func writeModule(b *strings.Builder, m *sig.Module, depth int) {
	fmt.Fprintf(b, "%smodule %s\n", indent(depth), m.Name)
	for _, method := range m.Methods {
		fmt.Fprintf(b, "%s  %s\n", indent(depth), methodSig(method))
	}
	for _, nested := range m.Classes {
		writeClass(b, nested, depth+1)
	}
	for _, nested := range m.Modules {
		writeModule(b, nested, depth+1)
	}
	fmt.Fprintf(b, "%send\n", indent(depth))
}

// methodSig renders one `def name: (params) -> Return` signature line,
// per the spec §4.12 mapping table (keyword params `(name: T)`, optional
// params `(?T)`, block params `() { (T) -> R } -> R2`).
func methodSig(m sig.Method) string {
	var positional, keyword []string
	var block string
	for _, p := range m.Params {
		switch p.Kind {
		case sig.Keyword:
			keyword = append(keyword, p.Name+": "+typeOrUntyped(p.Type))
		case sig.OptionalKeyword:
			keyword = append(keyword, "?"+p.Name+": "+typeOrUntyped(p.Type))
		case sig.OptionalPositional:
			positional = append(positional, "?"+typeOrUntyped(p.Type))
		case sig.Splat:
			positional = append(positional, "*"+typeOrUntyped(p.Type))
		case sig.DoubleSplat:
			keyword = append(keyword, "**"+typeOrUntyped(p.Type))
		case sig.Block:
			block = blockSig(p.Type)
		default:
			positional = append(positional, typeOrUntyped(p.Type))
		}
	}
	params := append(append([]string{}, positional...), keyword...)
	ret := typeOrUntyped(m.ReturnType)
	if block != "" {
		return fmt.Sprintf("def %s%s: (%s) %s -> %s", m.Name, generics(m.Generics), strings.Join(params, ", "), block, ret)
	}
	return fmt.Sprintf("def %s%s: (%s) -> %s", m.Name, generics(m.Generics), strings.Join(params, ", "), ret)
}

func blockSig(t ast.TypeExpr) string {
	fn, ok := t.(*ast.FuncType)
	if !ok {
		return "{ (untyped) -> untyped }"
	}
	parts := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		parts[i] = typeOrUntyped(p.Type)
	}
	ret := "void"
	if fn.Return != nil {
		ret = Type(fn.Return)
	}
	return fmt.Sprintf("{ (%s) -> %s }", strings.Join(parts, ", "), ret)
}

func generics(gp []ast.GenericParam) string {
	if len(gp) == 0 {
		return ""
	}
	names := make([]string, len(gp))
	for i, g := range gp {
		names[i] = g.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func typeOrUntyped(t ast.TypeExpr) string {
	if t == nil {
		return "untyped"
	}
	return Type(t)
}

// Type renders one type expression in RBS form, per the spec §4.12
// mapping table: Union -> `(T | U)`, Optional(T) -> `T?`, Generic<T> ->
// bracket form `Name[T]`.
func Type(t ast.TypeExpr) string {
	switch v := t.(type) {
	case *ast.NamedType:
		return namedType(v)
	case *ast.Union:
		if nilT, rest, ok := asOptional(v); ok {
			_ = nilT
			return optionalForm(rest)
		}
		parts := make([]string, len(v.Members))
		for i, m := range v.Members {
			parts[i] = Type(m)
		}
		return "(" + strings.Join(parts, " | ") + ")"
	case *ast.Intersection:
		parts := make([]string, len(v.Members))
		for i, m := range v.Members {
			parts[i] = Type(m)
		}
		return "(" + strings.Join(parts, " & ") + ")"
	case *ast.GenericParamRef:
		return v.Name
	case *ast.LiteralType:
		return v.Value
	case *ast.FuncType:
		return blockSig(v)
	default:
		return "untyped"
	}
}

var rbsBuiltins = map[string]string{
	ast.BuiltinString:  "String",
	ast.BuiltinInteger: "Integer",
	ast.BuiltinFloat:   "Float",
	ast.BuiltinBoolean: "boolean",
	ast.BuiltinSymbol:  "Symbol",
	ast.BuiltinNil:     "nil",
	ast.BuiltinVoid:    "void",
	ast.BuiltinNever:   "bot",
	ast.BuiltinAny:     "untyped",
	ast.BuiltinSelf:    "self",
}

func namedType(n *ast.NamedType) string {
	name := n.Name
	if rbs, ok := rbsBuiltins[name]; ok {
		name = rbs
	}
	if len(n.Args) == 0 {
		return name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = Type(a)
	}
	return name + "[" + strings.Join(parts, ", ") + "]"
}

func optionalForm(t ast.TypeExpr) string {
	switch t.(type) {
	case *ast.Union, *ast.Intersection:
		return "(" + Type(t) + ")?"
	default:
		return Type(t) + "?"
	}
}

func asOptional(u *ast.Union) (nilMember ast.TypeExpr, rest ast.TypeExpr, ok bool) {
	if len(u.Members) != 2 {
		return nil, nil, false
	}
	for i, m := range u.Members {
		if n, isNamed := m.(*ast.NamedType); isNamed && n.Name == ast.BuiltinNil && len(n.Args) == 0 {
			return m, u.Members[1-i], true
		}
	}
	return nil, nil, false
}
