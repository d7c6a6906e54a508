package typesys

import (
	"fmt"

	"github.com/trb-lang/trbc/ast"
)

// DuplicateAliasError is returned by Register when name is already
// registered.
type DuplicateAliasError struct{ Name string }

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("type alias %q already registered", e.Name)
}

// CyclicAliasError is returned by Register when the target's alias
// references form a cycle back to name.
type CyclicAliasError struct{ Cycle []string }

func (e *CyclicAliasError) Error() string {
	msg := "cyclic type alias: "
	for i, n := range e.Cycle {
		if i > 0 {
			msg += " -> "
		}
		msg += n
	}
	return msg
}

type aliasEntry struct {
	params []ast.GenericParam
	target ast.TypeExpr
}

// Registry stores user-declared type aliases (spec §4.5). It is owned by
// a single compilation session; per spec §5 it must be reset between
// independent compilation roots if a caller reuses a Registry across
// compilations (e.g. a watcher).
type Registry struct {
	entries map[string]aliasEntry
	// declared tracks names that have been pre-declared (phase one of
	// the two-phase registration protocol) so forward references
	// between aliases resolve during phase two.
	declared map[string]bool
}

// NewRegistry creates an empty alias registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]aliasEntry{}, declared: map[string]bool{}}
}

// Reset clears all registered aliases, as required before reusing a
// Registry for a new, independent compilation root.
func (r *Registry) Reset() {
	r.entries = map[string]aliasEntry{}
	r.declared = map[string]bool{}
}

// Declare performs phase one of registration: it records the alias name
// exists (so forward references resolve) without yet validating its
// target. Call Register for each alias after all names are declared.
func (r *Registry) Declare(name string) {
	r.declared[name] = true
}

// Register performs phase two: validates target against cycles and
// stores the alias. Declare must have been called for every alias name
// referenced transitively before Register runs its cycle check.
func (r *Registry) Register(name string, params []ast.GenericParam, target ast.TypeExpr) error {
	if _, exists := r.entries[name]; exists {
		return &DuplicateAliasError{Name: name}
	}
	r.declared[name] = true
	if cyc := r.findCycle(name, target, map[string]bool{name: true}, []string{name}); cyc != nil {
		return &CyclicAliasError{Cycle: cyc}
	}
	r.entries[name] = aliasEntry{params: params, target: target}
	return nil
}

// findCycle performs a DFS over the aliases referenced by expr, looking
// for a path back to origin.
func (r *Registry) findCycle(origin string, expr ast.TypeExpr, visiting map[string]bool, path []string) []string {
	for _, ref := range referencedAliasNames(expr) {
		if ref == origin {
			return append(append([]string{}, path...), ref)
		}
		if visiting[ref] {
			continue // cycle not involving origin; another Register call will catch it
		}
		entry, ok := r.entries[ref]
		if !ok {
			continue // not yet registered (forward reference) or not an alias at all
		}
		visiting[ref] = true
		if cyc := r.findCycle(origin, entry.target, visiting, append(path, ref)); cyc != nil {
			return cyc
		}
		delete(visiting, ref)
	}
	return nil
}

func referencedAliasNames(expr ast.TypeExpr) []string {
	var names []string
	var walk func(ast.TypeExpr)
	walk = func(t ast.TypeExpr) {
		switch v := t.(type) {
		case *ast.NamedType:
			names = append(names, v.Name)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.Union:
			for _, m := range v.Members {
				walk(m)
			}
		case *ast.Intersection:
			for _, m := range v.Members {
				walk(m)
			}
		case *ast.FuncType:
			for _, p := range v.Params {
				walk(p.Type)
			}
			walk(v.Return)
		}
	}
	walk(expr)
	return names
}

// IsAlias reports whether name is a registered alias.
func (r *Registry) IsAlias(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Resolve expands aliases transitively, returning the canonical type.
// Terminates for any well-formed registry since Register rejects cycles
// at registration time (spec testable property 4).
func (r *Registry) Resolve(t ast.TypeExpr) ast.TypeExpr {
	return r.resolve(t, map[string]bool{})
}

func (r *Registry) resolve(t ast.TypeExpr, seen map[string]bool) ast.TypeExpr {
	switch v := t.(type) {
	case *ast.NamedType:
		entry, ok := r.entries[v.Name]
		if !ok || seen[v.Name] {
			if len(v.Args) == 0 {
				return v
			}
			args := make([]ast.TypeExpr, len(v.Args))
			for i, a := range v.Args {
				args[i] = r.resolve(a, seen)
			}
			return &ast.NamedType{Name: v.Name, Args: args}
		}
		seen[v.Name] = true
		resolved := r.resolve(substituteGenerics(entry.params, v.Args, entry.target), seen)
		delete(seen, v.Name)
		return resolved
	case *ast.Union:
		members := make([]ast.TypeExpr, len(v.Members))
		for i, m := range v.Members {
			members[i] = r.resolve(m, seen)
		}
		return MakeUnion(members)
	case *ast.Intersection:
		members := make([]ast.TypeExpr, len(v.Members))
		for i, m := range v.Members {
			members[i] = r.resolve(m, seen)
		}
		return MakeIntersection(members)
	case *ast.FuncType:
		params := make([]ast.FuncParam, len(v.Params))
		for i, p := range v.Params {
			params[i] = ast.FuncParam{Name: p.Name, Type: r.resolve(p.Type, seen)}
		}
		return &ast.FuncType{Params: params, Return: r.resolve(v.Return, seen)}
	default:
		return t
	}
}

// substituteGenerics replaces GenericParamRef occurrences in target with
// the corresponding argument from args, positionally matched against
// params. Used when expanding a generic alias at a use site, e.g.
// `type Box<T> = Array<T>` resolved for `Box<Integer>`.
func substituteGenerics(params []ast.GenericParam, args []ast.TypeExpr, target ast.TypeExpr) ast.TypeExpr {
	if len(params) == 0 {
		return target
	}
	byIndex := map[int]ast.TypeExpr{}
	for i := range params {
		if i < len(args) {
			byIndex[i] = args[i]
		}
	}
	var sub func(ast.TypeExpr) ast.TypeExpr
	sub = func(t ast.TypeExpr) ast.TypeExpr {
		switch v := t.(type) {
		case *ast.GenericParamRef:
			if v.Depth == 0 {
				if a, ok := byIndex[v.Index]; ok {
					return a
				}
			}
			return v
		case *ast.NamedType:
			newArgs := make([]ast.TypeExpr, len(v.Args))
			for i, a := range v.Args {
				newArgs[i] = sub(a)
			}
			return &ast.NamedType{Name: v.Name, Args: newArgs}
		case *ast.Union:
			members := make([]ast.TypeExpr, len(v.Members))
			for i, m := range v.Members {
				members[i] = sub(m)
			}
			return &ast.Union{Members: members}
		case *ast.Intersection:
			members := make([]ast.TypeExpr, len(v.Members))
			for i, m := range v.Members {
				members[i] = sub(m)
			}
			return &ast.Intersection{Members: members}
		case *ast.FuncType:
			params := make([]ast.FuncParam, len(v.Params))
			for i, p := range v.Params {
				params[i] = ast.FuncParam{Name: p.Name, Type: sub(p.Type)}
			}
			return &ast.FuncType{Params: params, Return: sub(v.Return)}
		default:
			return t
		}
	}
	return sub(target)
}
