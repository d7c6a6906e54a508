// Package typesys implements the smart constructors for union and
// intersection types (spec §4.7), structural subtyping over them, and
// the type-alias registry (spec §4.5).
package typesys

import (
	"sort"

	"github.com/trb-lang/trbc/ast"
)

// MakeUnion flattens any Union members into the member list,
// deduplicates by structural equality (Key()), sorts into a canonical
// order, and collapses a single-element result to that element — the
// smart constructor used by every parser and inferrer that builds a
// union (spec §4.7, testable property 2).
func MakeUnion(members []ast.TypeExpr) ast.TypeExpr {
	flat := flattenUnion(members)
	dedup := dedupByKey(flat)
	if len(dedup) == 1 {
		return dedup[0]
	}
	sort.Slice(dedup, func(i, j int) bool { return dedup[i].Key() < dedup[j].Key() })
	return &ast.Union{Members: dedup}
}

func flattenUnion(members []ast.TypeExpr) []ast.TypeExpr {
	var out []ast.TypeExpr
	for _, m := range members {
		if u, ok := m.(*ast.Union); ok {
			out = append(out, flattenUnion(u.Members)...)
		} else {
			out = append(out, m)
		}
	}
	return out
}

func dedupByKey(members []ast.TypeExpr) []ast.TypeExpr {
	seen := make(map[string]bool, len(members))
	var out []ast.TypeExpr
	for _, m := range members {
		k := m.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}

// MakeIntersection flattens, deduplicates, and applies the absorption
// rules: an intersection containing `never` collapses to `never`; an
// intersection containing `any` collapses to the other member (spec
// §4.7, testable property 2). Only these structural rules apply: an
// intersection of two unrelated nominal class types is built like any
// other and is not rejected here or by any other package.
func MakeIntersection(members []ast.TypeExpr) ast.TypeExpr {
	flat := flattenIntersection(members)
	dedup := dedupByKey(flat)

	for _, m := range dedup {
		if isNever(m) {
			return &ast.NamedType{Name: ast.BuiltinNever}
		}
	}
	var nonAny []ast.TypeExpr
	for _, m := range dedup {
		if !isAny(m) {
			nonAny = append(nonAny, m)
		}
	}
	if len(nonAny) == 0 {
		return &ast.NamedType{Name: ast.BuiltinAny}
	}
	dedup = dedupByKey(nonAny)

	if len(dedup) == 1 {
		return dedup[0]
	}
	sort.Slice(dedup, func(i, j int) bool { return dedup[i].Key() < dedup[j].Key() })
	return &ast.Intersection{Members: dedup}
}

func flattenIntersection(members []ast.TypeExpr) []ast.TypeExpr {
	var out []ast.TypeExpr
	for _, m := range members {
		if i, ok := m.(*ast.Intersection); ok {
			out = append(out, flattenIntersection(i.Members)...)
		} else {
			out = append(out, m)
		}
	}
	return out
}

func isNever(t ast.TypeExpr) bool {
	n, ok := t.(*ast.NamedType)
	return ok && n.Name == ast.BuiltinNever && len(n.Args) == 0
}

func isAny(t ast.TypeExpr) bool {
	n, ok := t.(*ast.NamedType)
	return ok && n.Name == ast.BuiltinAny && len(n.Args) == 0
}

// Equal reports structural equality up to alias resolution (callers
// should resolve aliases first via Registry.Resolve).
func Equal(a, b ast.TypeExpr) bool {
	return a.Key() == b.Key()
}
