package ast

// Transform rewrites a Program. Implementations must not mutate the
// input program; every changed node is replaced by a shallow copy so
// unchanged subtrees are shared between the input and output.
type Transform interface {
	Name() string
	Transform(prog *Program) (*Program, bool)
}

// TransformFunc adapts a named function to the Transform interface.
type TransformFunc struct {
	N string
	F func(*Program) (*Program, bool)
}

func (t TransformFunc) Name() string                          { return t.N }
func (t TransformFunc) Transform(prog *Program) (*Program, bool) { return t.F(prog) }

// Chain composes transforms left-to-right into a single Transform. The
// combined result reports changed=true if any stage changed the
// program.
func Chain(transforms ...Transform) Transform {
	return TransformFunc{
		N: "chain",
		F: func(prog *Program) (*Program, bool) {
			anyChanged := false
			for _, t := range transforms {
				next, changed := t.Transform(prog)
				if changed {
					anyChanged = true
					prog = next
				}
			}
			return prog, anyChanged
		},
	}
}

// mapSlice applies fn to each element, returning (newSlice, true) only
// if at least one element differs from the original (compared by
// identity, which is correct for pointer-backed interface values like
// Statement/Expr/Declaration). Returns (items, false) unchanged
// otherwise, so callers can skip reallocating a parent node.
func mapSlice[T comparable](items []T, fn func(T) T) ([]T, bool) {
	var out []T
	modified := false
	for i, item := range items {
		newItem := fn(item)
		if newItem != item {
			if !modified {
				out = make([]T, len(items))
				copy(out[:i], items[:i])
				modified = true
			}
		}
		if modified {
			out[i] = newItem
		}
	}
	if !modified {
		return items, false
	}
	return out, true
}

// MapStatements rewrites every top-level statement in body with fn,
// returning (newBody, true) only if fn changed at least one statement.
func MapStatements(body []Statement, fn func(Statement) Statement) ([]Statement, bool) {
	return mapSlice(body, fn)
}

// MapExprs rewrites every expression in exprs with fn.
func MapExprs(exprs []Expr, fn func(Expr) Expr) ([]Expr, bool) {
	return mapSlice(exprs, fn)
}

// MapDeclarations rewrites every top-level declaration in decls with
// fn, recursing into Class/Module member lists so a rewrite reaches
// nested methods too.
func MapDeclarations(decls []Declaration, fn func(Declaration) Declaration) ([]Declaration, bool) {
	return mapSlice(decls, func(d Declaration) Declaration {
		rewritten := fn(d)
		switch v := rewritten.(type) {
		case *Class:
			members, changed := mapMembers(v.Members, fn)
			if !changed {
				return rewritten
			}
			cp := *v
			cp.Members = members
			return &cp
		case *Module:
			members, changed := mapMembers(v.Members, fn)
			if !changed {
				return rewritten
			}
			cp := *v
			cp.Members = members
			return &cp
		default:
			return rewritten
		}
	})
}

func mapMembers(members []Member, fn func(Declaration) Declaration) ([]Member, bool) {
	var out []Member
	modified := false
	for i, m := range members {
		newDecl := fn(m.Decl)
		if newDecl != m.Decl {
			if !modified {
				out = make([]Member, len(members))
				copy(out[:i], members[:i])
				modified = true
			}
		}
		if modified {
			out[i] = Member{Decl: newDecl, Visibility: m.Visibility}
		}
	}
	if !modified {
		return members, false
	}
	return out, true
}
