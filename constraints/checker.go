// Package constraints implements the constraint checker (spec §4.9):
// generic-parameter bound satisfaction and `implements`-clause
// conformance, run as a pass over the fully type-inferred IR.
package constraints

import (
	"fmt"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/internal/diag"
	"github.com/trb-lang/trbc/typesys"
)

// Mode controls whether a failed check is a fatal diagnostic (strict) or
// a recorded warning (permissive), mirroring the inferrer's two modes.
type Mode int

const (
	ModeStrict Mode = iota
	ModePermissive
)

// Checker holds the whole-program declaration tables a conformance check
// needs: classes (for `implements`/parent-chain lookup), interfaces (for
// bound/method-signature lookup), and the alias registry (for resolving
// annotations before comparing them structurally).
type Checker struct {
	Registry   *typesys.Registry
	Classes    map[string]*ast.Class
	Modules    map[string]*ast.Module
	Interfaces map[string]*ast.Interface
	Aliases    map[string]*ast.TypeAlias
	Mode       Mode

	diags *diag.Bag
}

// New creates a Checker over a fully-parsed program. Call BuildTables
// before running checks if the Checker wasn't constructed via
// CheckProgram.
func New(reg *typesys.Registry, mode Mode) *Checker {
	return &Checker{
		Registry:   reg,
		Classes:    map[string]*ast.Class{},
		Modules:    map[string]*ast.Module{},
		Interfaces: map[string]*ast.Interface{},
		Aliases:    map[string]*ast.TypeAlias{},
		Mode:       mode,
		diags:      &diag.Bag{},
	}
}

// CheckProgram builds the declaration tables from prog, then checks
// every class's `implements` clauses and every generic-parameter use
// site against its declared bound, returning the accumulated
// diagnostics.
func CheckProgram(prog *ast.Program, reg *typesys.Registry, mode Mode) *diag.Bag {
	c := New(reg, mode)
	c.BuildTables(prog)
	c.CheckImplementsClauses()
	c.CheckGenericBounds(prog)
	return c.diags
}

// BuildTables indexes every Class/Module/Interface declaration
// (including nested ones) by name, and every top-level TypeAlias from
// prog.TypeAliases.
func (c *Checker) BuildTables(prog *ast.Program) {
	var walk func(ast.Declaration)
	walk = func(d ast.Declaration) {
		switch v := d.(type) {
		case *ast.Class:
			c.Classes[v.Name] = v
			for _, m := range v.Members {
				walk(m.Decl)
			}
		case *ast.Module:
			c.Modules[v.Name] = v
			for _, m := range v.Members {
				walk(m.Decl)
			}
		case *ast.Interface:
			c.Interfaces[v.Name] = v
		case *ast.TypeAlias:
			c.Aliases[v.Name] = v
		}
	}
	for _, d := range prog.Declarations {
		walk(d)
	}
	for name, ta := range prog.TypeAliases {
		c.Aliases[name] = ta
	}
	for name, iface := range prog.Interfaces {
		c.Interfaces[name] = iface
	}
}

func (c *Checker) errorf(n ast.Node, cat diag.Category, format string, args ...any) {
	sev := diag.SeverityError
	if c.Mode == ModePermissive {
		sev = diag.SeverityWarning
	}
	c.diags.Add(diag.Diagnostic{
		Severity: sev,
		File:     n.Span().File,
		Span:     n.Span(),
		Category: cat,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *Checker) resolve(t ast.TypeExpr) ast.TypeExpr {
	if t == nil {
		return &ast.NamedType{Name: ast.BuiltinAny}
	}
	return c.Registry.Resolve(t)
}
