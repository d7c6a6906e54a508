// Package decltrb implements the declaration emitter (spec §4.13):
// walks a sig.Program built with Options{IncludePrivate: false} and
// prints each declaration with full type information but no method
// bodies, for publishing library type definitions as `.d.trb` files.
package decltrb

import (
	"fmt"
	"strings"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/sig"
	"github.com/trb-lang/trbc/typeexpr"
)

// Emit renders prog as a .d.trb document. Callers must build prog with
// sig.Options{IncludePrivate: false} so private members are already
// excluded, matching the "private declarations are omitted" rule.
func Emit(prog *sig.Program) string {
	var b strings.Builder
	for _, alias := range prog.Aliases {
		writeAlias(&b, alias)
		b.WriteString("\n")
	}
	for _, iface := range prog.Interfaces {
		writeInterface(&b, iface, 0)
		b.WriteString("\n")
	}
	for _, cls := range prog.Classes {
		writeClass(&b, cls, 0)
		b.WriteString("\n")
	}
	for _, mod := range prog.Modules {
		writeModule(&b, mod, 0)
		b.WriteString("\n")
	}
	for _, fn := range prog.Functions {
		b.WriteString(methodDecl(fn) + "\n")
	}
	for _, c := range prog.Constants {
		fmt.Fprintf(&b, "%s: %s\n", c.Name, typeexpr.Print(c.Type))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func indent(n int) string { return strings.Repeat("  ", n) }

func writeAlias(b *strings.Builder, a sig.Alias) {
	fmt.Fprintf(b, "type %s%s = %s\n", a.Name, generics(a.Generics), typeexpr.Print(a.Target))
}

func writeInterface(b *strings.Builder, i *sig.Interface, depth int) {
	header := "interface " + i.Name + generics(i.Generics)
	if len(i.Parents) > 0 {
		header += " < " + strings.Join(i.Parents, ", ")
	}
	fmt.Fprintf(b, "%s%s\n", indent(depth), header)
	for _, m := range i.Methods {
		fmt.Fprintf(b, "%s  %s\n", indent(depth), methodDecl(m))
	}
	fmt.Fprintf(b, "%send\n", indent(depth))
}

func writeClass(b *strings.Builder, c *sig.Class, depth int) {
	header := "class " + c.Name + generics(c.Generics)
	if c.Parent != "" {
		header += " < " + c.Parent
	}
	if len(c.Implements) > 0 {
		header += " implements " + strings.Join(c.Implements, ", ")
	}
	fmt.Fprintf(b, "%s%s\n", indent(depth), header)
	for _, inc := range c.Includes {
		fmt.Fprintf(b, "%s  include %s\n", indent(depth), inc)
	}
	for _, iv := range c.CVars {
		fmt.Fprintf(b, "%s  @@%s: %s\n", indent(depth), iv.Name, typeexpr.Print(iv.Type))
	}
	for _, iv := range c.IVars {
		fmt.Fprintf(b, "%s  @%s: %s\n", indent(depth), iv.Name, typeexpr.Print(iv.Type))
	}
	for _, m := range c.Methods {
		fmt.Fprintf(b, "%s  %s\n", indent(depth), methodDecl(m))
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
		fmt.Fprintf(b, "%s  %s\n", indent(depth), methodDecl(method))
	}
	for _, nested := range m.Classes {
		writeClass(b, nested, depth+1)
	}
	for _, nested := range m.Modules {
		writeModule(b, nested, depth+1)
	}
	fmt.Fprintf(b, "%send\n", indent(depth))
}

// methodDecl renders one bodyless `def name(params) -> Return` line in
// trb's own surface syntax — the declaration file is still trb source,
// just without implementations (spec §4.13).
func methodDecl(m sig.Method) string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = paramDecl(p)
	}
	ret := ""
	if m.ReturnType != nil {
		ret = " -> " + typeexpr.Print(m.ReturnType)
	}
	return fmt.Sprintf("def %s%s(%s)%s", m.Name, generics(m.Generics), strings.Join(params, ", "), ret)
}

func paramDecl(p sig.Param) string {
	prefix := ""
	switch p.Kind {
	case sig.Splat:
		prefix = "*"
	case sig.DoubleSplat:
		prefix = "**"
	case sig.Block:
		prefix = "&"
	}
	if p.Type == nil {
		return prefix + p.Name
	}
	return prefix + p.Name + ": " + typeexpr.Print(p.Type)
}

func generics(gp []ast.GenericParam) string {
	if len(gp) == 0 {
		return ""
	}
	names := make([]string, len(gp))
	for i, g := range gp {
		if g.Bound != nil {
			names[i] = g.Name + ": " + typeexpr.Print(g.Bound)
		} else {
			names[i] = g.Name
		}
	}
	return "<" + strings.Join(names, ", ") + ">"
}
