package ast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TypeExpr is the interface implemented by every type-expression node in
// the IR (spec §3: NamedType, Union, Intersection, generic-parameter
// reference, literal type, function type, plus the Tuple/Hash/Proc sugars
// which desugar into these at construction time).
type TypeExpr interface {
	typeExpr()
	// Key returns a canonical string unique up to structural equality,
	// used for deduplication, sorting, and map keys by the smart
	// constructors in package typesys.
	Key() string
}

// Built-in type names. Both "Bool" and "Boolean" are accepted by the
// parser as spellings of BuiltinBoolean; see NormalizeBuiltinName.
const (
	BuiltinString  = "string"
	BuiltinInteger = "integer"
	BuiltinFloat   = "float"
	BuiltinBoolean = "boolean"
	BuiltinSymbol  = "symbol"
	BuiltinNil     = "nil"
	BuiltinVoid    = "void"
	BuiltinNever   = "never"
	BuiltinAny     = "any"
	BuiltinSelf    = "self"

	BuiltinArray = "Array"
	BuiltinHash  = "Hash"
)

// NormalizeBuiltinName maps alternate spellings documented inconsistently
// in the source corpus onto their canonical built-in name. Only "Bool"
// vs "Boolean" is currently ambiguous (spec §9 open question); both are
// accepted as input, canonical name is BuiltinBoolean.
func NormalizeBuiltinName(name string) string {
	switch name {
	case "Bool", "bool", "Boolean":
		return BuiltinBoolean
	case "String":
		return BuiltinString
	case "Integer", "Int", "int":
		return BuiltinInteger
	case "Float":
		return BuiltinFloat
	case "Symbol":
		return BuiltinSymbol
	case "Nil", "NilClass":
		return BuiltinNil
	case "Void":
		return BuiltinVoid
	case "Never":
		return BuiltinNever
	case "Any", "Untyped":
		return BuiltinAny
	case "Self":
		return BuiltinSelf
	default:
		return name
	}
}

// NamedType is a reference to a named type, optionally parameterized by
// generic arguments, e.g. "Array<T>" or the bare built-ins.
type NamedType struct {
	Name string
	Args []TypeExpr
}

func (*NamedType) typeExpr() {}

func (n *NamedType) Key() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.Key()
	}
	return n.Name + "<" + strings.Join(parts, ",") + ">"
}

// Union is a flattened, deduplicated set of alternative types. Smart
// constructors in package typesys guarantee a Union never nests another
// Union and always has at least two distinct members (spec invariant 3).
type Union struct {
	Members []TypeExpr
}

func (*Union) typeExpr() {}

func (u *Union) Key() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.Key()
	}
	sort.Strings(parts)
	return "(" + strings.Join(parts, "|") + ")"
}

// Intersection is a flattened, deduplicated set of types all of which a
// value must inhabit simultaneously.
type Intersection struct {
	Members []TypeExpr
}

func (*Intersection) typeExpr() {}

func (i *Intersection) Key() string {
	parts := make([]string, len(i.Members))
	for j, m := range i.Members {
		parts[j] = m.Key()
	}
	sort.Strings(parts)
	return "(" + strings.Join(parts, "&") + ")"
}

// GenericParamRef is a de Bruijn-style reference to a generic parameter
// bound by an enclosing declaration: Depth counts enclosing generic
// binders outward (0 = innermost), Index selects the parameter within
// that binder's parameter list.
type GenericParamRef struct {
	Name  string // surface name, for printing only
	Depth int
	Index int
}

func (*GenericParamRef) typeExpr() {}

func (g *GenericParamRef) Key() string {
	return fmt.Sprintf("#%d.%d(%s)", g.Depth, g.Index, g.Name)
}

// LiteralKind distinguishes the base type a literal type widens to.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralInteger
	LiteralSymbol
	LiteralBoolean
)

// LiteralType is a single-value type such as "active" | "pending" — the
// type inhabited only by that one literal. The inferrer widens these to
// their base type outside a "demanding" context (spec §9) but emitters
// print the literal form.
type LiteralType struct {
	Kind  LiteralKind
	Value string // textual form, e.g. `"active"`, `42`, `:ok`, `true`
}

func (*LiteralType) typeExpr() {}

func (l *LiteralType) Key() string {
	return "lit:" + strconv.Itoa(int(l.Kind)) + ":" + l.Value
}

// BaseType returns the NamedType a literal type widens to.
func (l *LiteralType) BaseType() *NamedType {
	switch l.Kind {
	case LiteralInteger:
		return &NamedType{Name: BuiltinInteger}
	case LiteralSymbol:
		return &NamedType{Name: BuiltinSymbol}
	case LiteralBoolean:
		return &NamedType{Name: BuiltinBoolean}
	default:
		return &NamedType{Name: BuiltinString}
	}
}

// FuncParam is one parameter of a FuncType.
type FuncParam struct {
	Name string // empty for positional-only function types
	Type TypeExpr
}

// FuncType is a function/proc/block type: parameters mapping to a return
// type. Tuple and Proc/block sugar both desugar to this or to NamedType
// at construction time (see ArrayOf/HashOf/ProcType below).
type FuncType struct {
	Params []FuncParam
	Return TypeExpr
}

func (*FuncType) typeExpr() {}

func (f *FuncType) Key() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.Type.Key()
	}
	ret := "void"
	if f.Return != nil {
		ret = f.Return.Key()
	}
	return "(" + strings.Join(parts, ",") + ")->" + ret
}

// ArrayOf builds the NamedType sugar for `[T]` syntax, using the same
// "Array" name as the spelled-out `Array<T>` generic form so the two
// spellings unify under Key().
func ArrayOf(elem TypeExpr) *NamedType {
	return &NamedType{Name: BuiltinArray, Args: []TypeExpr{elem}}
}

// HashOf builds the NamedType sugar for `Hash<K, V>` syntax.
func HashOf(key, value TypeExpr) *NamedType {
	return &NamedType{Name: BuiltinHash, Args: []TypeExpr{key, value}}
}

// ProcType builds a function-type sugar for `^(T) -> R` / block syntax.
func ProcType(params []FuncParam, ret TypeExpr) *FuncType {
	return &FuncType{Params: params, Return: ret}
}

// IsBuiltinName reports whether name denotes one of the fixed built-in
// type names (after NormalizeBuiltinName).
func IsBuiltinName(name string) bool {
	switch name {
	case BuiltinString, BuiltinInteger, BuiltinFloat, BuiltinBoolean, BuiltinSymbol,
		BuiltinNil, BuiltinVoid, BuiltinNever, BuiltinAny, BuiltinSelf:
		return true
	default:
		return false
	}
}
