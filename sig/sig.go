// Package sig defines a flattened signature IR used purely by the RBS
// and declaration emitters (spec §4.12/4.13): "what a declaration's
// public shape is", independent of how the ast package's tree spells
// it. Building a Program once into a sig.Program lets both emitters
// walk the same simple struct family instead of re-deriving visibility
// filtering and type rendering from ast.Declaration each time.
package sig

import "github.com/trb-lang/trbc/ast"

// ParamKind mirrors ast.ParamKind at the signature level.
type ParamKind int

const (
	Positional ParamKind = iota
	OptionalPositional
	Keyword
	OptionalKeyword
	Splat
	DoubleSplat
	Block
)

// Param is one parameter in a signature.
type Param struct {
	Name string
	Type ast.TypeExpr // nil in permissive mode
	Kind ParamKind
}

// Method is a flattened method signature: name, generics, params,
// return type. Used for Function declarations and for MethodSig
// entries inside an Interface.
type Method struct {
	Name       string
	Generics   []ast.GenericParam
	Params     []Param
	ReturnType ast.TypeExpr // nil in permissive mode
}

// IVar is one `@name: T` / `@@name: T` binding.
type IVar struct {
	Name string
	Type ast.TypeExpr
}

// Class is a flattened class signature.
type Class struct {
	Name       string
	Parent     string
	Includes   []string
	Implements []string
	Generics   []ast.GenericParam
	IVars      []IVar
	CVars      []IVar
	Methods    []Method
	Classes    []*Class  // nested classes, in source order
	Modules    []*Module // nested modules, in source order
}

// Module is a flattened module signature.
type Module struct {
	Name    string
	Methods []Method
	Classes []*Class
	Modules []*Module
}

// Interface is a flattened interface signature.
type Interface struct {
	Name     string
	Generics []ast.GenericParam
	Parents  []string
	Methods  []Method
}

// Alias is a flattened `type Name = …` alias.
type Alias struct {
	Name     string
	Generics []ast.GenericParam
	Target   ast.TypeExpr
}

// Constant is a flattened top-level constant.
type Constant struct {
	Name string
	Type ast.TypeExpr // nil if undeclared
}

// Program is the signature-level view of an ast.Program: every public
// (and, with Options.IncludePrivate, every) declaration in source order, flattened
// into the shapes above. Body statements never appear here — neither
// emitter that consumes sig.Program needs them.
type Program struct {
	SourceFile string
	Functions  []Method
	Classes    []*Class
	Modules    []*Module
	Interfaces []*Interface
	Aliases    []Alias
	Constants  []Constant
}
