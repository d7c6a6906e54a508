// Package ast defines the intermediate representation shared by every
// stage of the compiler after parsing: declarations, type expressions,
// and the expression/statement tree that makes up method bodies.
//
// Nodes are created by the parser, may be replaced wholesale by the
// optimizer (which produces a new *Program), and are read by the
// emitters. Nodes are never mutated in place once inference completes;
// the per-node type cache (package infer) is the only mutable structure
// and is keyed by node identity, not by value.
package ast

import "github.com/trb-lang/trbc/internal/span"

// Node is implemented by every IR node, declaration or expression.
type Node interface {
	node()
	Span() span.Span
}

// Base embeds the source span every node carries.
type Base struct {
	Sp span.Span
}

func (b Base) Span() span.Span { return b.Sp }

// Visibility controls whether a declaration/member is emitted into the
// `.d.trb` declaration file and whether the RBS emitter includes it.
type Visibility int

const (
	Public Visibility = iota
	Private
	Protected
)

// Declaration is implemented by every top-level or class-level named
// entity: Function, Class, Module, Interface, TypeAlias, Constant.
type Declaration interface {
	Node
	decl()
	DeclName() string
}

// GenericParam is one entry of a declaration's generic-parameter list:
// `T`, `T: Bound`, or `T = Default`.
type GenericParam struct {
	Name    string
	Bound   TypeExpr // nil if unconstrained
	Default TypeExpr // nil if no default
}

// ParamKind classifies a function parameter.
type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamOptionalPositional
	ParamKeyword
	ParamOptionalKeyword
	ParamSplat
	ParamDoubleSplat
	ParamBlock
)

// Param is one function parameter.
type Param struct {
	Base
	Name    string
	Type    TypeExpr // nil when annotation is absent (permissive mode)
	Default Expr     // nil if no default value
	Kind    ParamKind
}

// Function is a top-level or class-level method/function declaration.
type Function struct {
	Base
	Name       string
	Generics   []GenericParam
	Params     []Param
	ReturnType TypeExpr // nil when not declared; inferrer fills TypeInfo, not this field
	Body       []Statement
	Visibility Visibility
}

func (*Function) node()              {}
func (*Function) decl()              {}
func (f *Function) DeclName() string { return f.Name }

// IsInitialize reports whether this function is a constructor, which
// always has return type void regardless of its body (spec §4.8).
func (f *Function) IsInitialize() bool { return f.Name == "initialize" }

// Member pairs a class/module-level declaration with its visibility.
// Classes and modules keep an ordered member list (not a map) so that
// emission can preserve source order, per the ordering guarantees in
// spec §5.
type Member struct {
	Decl       Declaration
	Visibility Visibility
}

// IVarBinding is an instance- or class-variable type declaration, e.g.
// `@name: String` or `@@count: Integer`.
type IVarBinding struct {
	Base
	Name string
	Type TypeExpr
}

// Class is a class declaration.
type Class struct {
	Base
	Name       string
	Parent     string // empty if no explicit superclass
	Includes   []string
	Implements []string
	Generics   []GenericParam
	IVars      []IVarBinding
	CVars      []IVarBinding
	Members    []Member
	Visibility Visibility
}

func (*Class) node()              {}
func (*Class) decl()              {}
func (c *Class) DeclName() string { return c.Name }

// Module is a module declaration (a namespace / mixin source).
type Module struct {
	Base
	Name       string
	Members    []Member
	Visibility Visibility
}

func (*Module) node()              {}
func (*Module) decl()              {}
func (m *Module) DeclName() string { return m.Name }

// MethodSig is one method signature inside an Interface — no body.
type MethodSig struct {
	Base
	Name       string
	Generics   []GenericParam
	Params     []Param
	ReturnType TypeExpr
}

// Interface is an interface declaration: a named record of method
// signatures with no implementations.
type Interface struct {
	Base
	Name       string
	Generics   []GenericParam
	Parents    []string
	Methods    []MethodSig
	Visibility Visibility
}

func (*Interface) node()              {}
func (*Interface) decl()              {}
func (i *Interface) DeclName() string { return i.Name }

// TypeAlias is a user-declared name for a type expression, transparent
// at the type level.
type TypeAlias struct {
	Base
	Name     string
	Generics []GenericParam
	Target   TypeExpr
}

func (*TypeAlias) node()              {}
func (*TypeAlias) decl()              {}
func (t *TypeAlias) DeclName() string { return t.Name }

// Constant is a top-level or class-level constant declaration.
type Constant struct {
	Base
	Name        string
	Type        TypeExpr // nil if undeclared
	Initializer Expr
	Visibility  Visibility
}

func (*Constant) node()              {}
func (*Constant) decl()              {}
func (c *Constant) DeclName() string { return c.Name }

// Program is the root IR node: an ordered sequence of declarations plus
// the tables later stages consume (type aliases, interfaces). Source
// order is preserved, which deterministic output (spec §5) depends on.
type Program struct {
	Base
	SourceFile  string
	Declarations []Declaration
	// TypeAliases and Interfaces index the same nodes that also appear
	// in Declarations, by name, for O(1) lookup during resolution.
	TypeAliases map[string]*TypeAlias
	Interfaces  map[string]*Interface
}

func (*Program) node()              {}
func (p *Program) DeclName() string { return p.SourceFile }

// WalkDeclarations visits every declaration in source order, recursing
// into class/module member lists (also in source order).
func WalkDeclarations(decls []Declaration, visit func(Declaration)) {
	for _, d := range decls {
		visit(d)
		switch v := d.(type) {
		case *Class:
			for _, m := range v.Members {
				visit(m.Decl)
			}
		case *Module:
			for _, m := range v.Members {
				visit(m.Decl)
			}
		}
	}
}
