// Package infer implements the type inferrer (spec §4.8): environment
// management, expression/statement typing, the implicit-return
// algorithm, and per-node memoization.
package infer

import "github.com/trb-lang/trbc/ast"

// Env is one lexical scope: a flat map of local bindings plus a link to
// the enclosing scope, mirroring the scope-linked-list the teacher's
// inferrer walks for name resolution.
type Env struct {
	parent *Env
	vars   map[string]ast.TypeExpr
	self   ast.TypeExpr // the type of `self` in this scope, inherited by children
}

// NewEnv creates a root scope with no parent.
func NewEnv() *Env {
	return &Env{vars: map[string]ast.TypeExpr{}}
}

// Child creates a nested scope (e.g. entering a block or method body).
func (e *Env) Child() *Env {
	return &Env{parent: e, vars: map[string]ast.TypeExpr{}, self: e.self}
}

// Define binds name to t in the current scope, shadowing any outer
// binding of the same name.
func (e *Env) Define(name string, t ast.TypeExpr) {
	e.vars[name] = t
}

// Lookup walks outward through parent scopes for name, returning the
// bound type and whether it was found.
func (e *Env) Lookup(name string) (ast.TypeExpr, bool) {
	for s := e; s != nil; s = s.parent {
		if t, ok := s.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Self returns the type bound to `self` for this scope.
func (e *Env) Self() ast.TypeExpr { return e.self }

// WithSelf returns a child scope with self rebound (used entering a
// method body, where self is the enclosing class/module).
func (e *Env) WithSelf(t ast.TypeExpr) *Env {
	child := e.Child()
	child.self = t
	return child
}
