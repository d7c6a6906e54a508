package typesys

import "github.com/trb-lang/trbc/ast"

// IsSubtype reports whether t is a subtype of u, applying the union and
// intersection distribution rules from spec §4.7:
//
//	T <: Union(Ts)        iff T <: Ti for some i
//	Union(Ts) <: U         iff Ti <: U for all i
//	Intersection(Ts) <: U  iff Ti <: U for some i
//	T <: Intersection(Us)  iff T <: Ui for all i
//
// Aliases must already be resolved (package typesys's Registry.Resolve)
// before calling IsSubtype; this function operates purely structurally.
func IsSubtype(t, u ast.TypeExpr) bool {
	if t == nil || u == nil {
		return true
	}
	if isAny(t) || isAny(u) {
		return true
	}
	if isNever(t) {
		return true
	}

	switch tt := t.(type) {
	case *ast.Union:
		for _, m := range tt.Members {
			if !IsSubtype(m, u) {
				return false
			}
		}
		return true
	case *ast.Intersection:
		for _, m := range tt.Members {
			if IsSubtype(m, u) {
				return true
			}
		}
		return false
	}

	switch uu := u.(type) {
	case *ast.Union:
		for _, m := range uu.Members {
			if IsSubtype(t, m) {
				return true
			}
		}
		return false
	case *ast.Intersection:
		for _, m := range uu.Members {
			if !IsSubtype(t, m) {
				return false
			}
		}
		return true
	}

	if Equal(t, u) {
		return true
	}

	// Literal types are subtypes of their base type (and of themselves,
	// handled by Equal above).
	if lit, ok := t.(*ast.LiteralType); ok {
		return IsSubtype(lit.BaseType(), u)
	}

	// Covariant generic arguments on the same named type, e.g.
	// Array<Dog> <: Array<Animal>.
	tn, tok := t.(*ast.NamedType)
	un, uok := u.(*ast.NamedType)
	if tok && uok && tn.Name == un.Name && len(tn.Args) == len(un.Args) {
		for i := range tn.Args {
			if !IsSubtype(tn.Args[i], un.Args[i]) {
				return false
			}
		}
		return true
	}

	return false
}

// CompatibleSignature reports whether an implementation's parameter and
// return types are compatible with an interface method's declared
// signature per spec §4.9: implementation parameter types must be
// supertypes of the interface's (contravariance), and the return type
// must be a subtype (covariance).
func CompatibleSignature(implParams, ifaceParams []ast.TypeExpr, implReturn, ifaceReturn ast.TypeExpr) bool {
	if len(implParams) != len(ifaceParams) {
		return false
	}
	for i := range implParams {
		if !IsSubtype(ifaceParams[i], implParams[i]) {
			return false
		}
	}
	return IsSubtype(implReturn, ifaceReturn)
}
