package constraints

import (
	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/internal/diag"
	"github.com/trb-lang/trbc/typesys"
)

// CheckGenericBounds walks every type annotation reachable from prog's
// declarations and, for each generic argument applied to a class or
// interface with a declared bound, verifies the argument satisfies that
// bound (spec §4.9's "for each generic-parameter use").
func (c *Checker) CheckGenericBounds(prog *ast.Program) {
	var walkDecl func(ast.Declaration)
	walkDecl = func(d ast.Declaration) {
		switch v := d.(type) {
		case *ast.Function:
			for _, p := range v.Params {
				c.checkTypeUse(v, p.Type)
			}
			c.checkTypeUse(v, v.ReturnType)
		case *ast.Class:
			for _, iv := range v.IVars {
				c.checkTypeUse(v, iv.Type)
			}
			for _, cv := range v.CVars {
				c.checkTypeUse(v, cv.Type)
			}
			for _, m := range v.Members {
				walkDecl(m.Decl)
			}
		case *ast.Module:
			for _, m := range v.Members {
				walkDecl(m.Decl)
			}
		case *ast.Constant:
			c.checkTypeUse(v, v.Type)
		case *ast.TypeAlias:
			c.checkTypeUse(v, v.Target)
		case *ast.Interface:
			for _, sig := range v.Methods {
				for _, p := range sig.Params {
					c.checkTypeUse(v, p.Type)
				}
				c.checkTypeUse(v, sig.ReturnType)
			}
		}
	}
	for _, d := range prog.Declarations {
		walkDecl(d)
	}
}

// checkTypeUse recurses into t looking for NamedType applications of a
// generic class/interface/alias, checking each argument against the
// corresponding declared Bound.
func (c *Checker) checkTypeUse(site ast.Node, t ast.TypeExpr) {
	if t == nil {
		return
	}
	switch v := t.(type) {
	case *ast.NamedType:
		generics := c.genericsOf(v.Name)
		for i, arg := range v.Args {
			if i < len(generics) && generics[i].Bound != nil {
				if !c.satisfiesBound(arg, generics[i].Bound) {
					c.errorf(site, diag.CategoryResolution,
						"type argument %s does not satisfy bound %s for parameter %s of %s",
						arg.Key(), generics[i].Bound.Key(), generics[i].Name, v.Name)
				}
			}
			c.checkTypeUse(site, arg)
		}
	case *ast.Union:
		for _, m := range v.Members {
			c.checkTypeUse(site, m)
		}
	case *ast.Intersection:
		for _, m := range v.Members {
			c.checkTypeUse(site, m)
		}
	case *ast.FuncType:
		for _, p := range v.Params {
			c.checkTypeUse(site, p.Type)
		}
		c.checkTypeUse(site, v.Return)
	}
}

// genericsOf returns the declared generic parameter list for a class,
// interface, or type alias name, or nil if name isn't a known
// parameterized declaration.
func (c *Checker) genericsOf(name string) []ast.GenericParam {
	if cls, ok := c.Classes[name]; ok {
		return cls.Generics
	}
	if iface, ok := c.Interfaces[name]; ok {
		return iface.Generics
	}
	if alias, ok := c.Aliases[name]; ok {
		return alias.Generics
	}
	return nil
}

// satisfiesBound reports whether arg satisfies bound, combining
// structural subtyping (typesys.IsSubtype) with nominal class/interface
// subtyping (inheritance and `implements`), which typesys has no
// knowledge of since it operates purely over TypeExpr shapes.
func (c *Checker) satisfiesBound(arg, bound ast.TypeExpr) bool {
	arg = c.resolve(arg)
	bound = c.resolve(bound)

	if it, ok := bound.(*ast.Intersection); ok {
		for _, m := range it.Members {
			if !c.satisfiesBound(arg, m) {
				return false
			}
		}
		return true
	}

	an, aok := arg.(*ast.NamedType)
	bn, bok := bound.(*ast.NamedType)
	if aok && bok && c.nominallySatisfies(an.Name, bn.Name) {
		return true
	}
	return typesys.IsSubtype(arg, bound)
}

// nominallySatisfies reports whether the class or interface named sub
// is, inherits from, or implements the class/interface named sup.
func (c *Checker) nominallySatisfies(sub, sup string) bool {
	if sub == sup {
		return true
	}
	if cls, ok := c.Classes[sub]; ok {
		if cls.Parent != "" && c.nominallySatisfies(cls.Parent, sup) {
			return true
		}
		for _, ifaceName := range cls.Implements {
			if c.interfaceSatisfies(ifaceName, sup) {
				return true
			}
		}
		return false
	}
	if ok := c.interfaceSatisfies(sub, sup); ok {
		return true
	}
	return false
}

func (c *Checker) interfaceSatisfies(sub, sup string) bool {
	if sub == sup {
		return true
	}
	iface, ok := c.Interfaces[sub]
	if !ok {
		return false
	}
	for _, parent := range iface.Parents {
		if c.interfaceSatisfies(parent, sup) {
			return true
		}
	}
	return false
}
