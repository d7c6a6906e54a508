package constraints

import (
	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/internal/diag"
	"github.com/trb-lang/trbc/typesys"
)

// CheckImplementsClauses walks every known class's `implements` clauses
// and verifies the class defines a method matching each interface
// method's name with a compatible signature (spec §4.9: parameter types
// contravariant, return type covariant).
func (c *Checker) CheckImplementsClauses() {
	for _, cls := range c.Classes {
		for _, ifaceName := range cls.Implements {
			iface, ok := c.Interfaces[ifaceName]
			if !ok {
				c.errorf(cls, diag.CategoryResolution, "class %q implements undefined interface %q", cls.Name, ifaceName)
				continue
			}
			c.checkClassImplementsInterface(cls, iface)
		}
	}
}

func (c *Checker) checkClassImplementsInterface(cls *ast.Class, iface *ast.Interface) {
	for _, sig := range iface.Methods {
		fn := c.findMethod(cls, sig.Name)
		if fn == nil {
			c.errorf(cls, diag.CategoryResolution,
				"class %q does not implement method %q required by interface %q",
				cls.Name, sig.Name, iface.Name)
			continue
		}
		if !c.compatible(fn, sig) {
			c.errorf(fn, diag.CategoryType,
				"method %q on class %q is not compatible with interface %q's signature",
				fn.Name, cls.Name, iface.Name)
		}
	}
	for _, parentName := range iface.Parents {
		if parent, ok := c.Interfaces[parentName]; ok {
			c.checkClassImplementsInterface(cls, parent)
		}
	}
}

// findMethod walks a class's own members, then its included modules,
// then its parent chain, returning the first method matching name, the
// same three-tier lookup order the inferrer uses for method return
// types.
func (c *Checker) findMethod(cls *ast.Class, name string) *ast.Function {
	for _, m := range cls.Members {
		if fn, ok := m.Decl.(*ast.Function); ok && fn.Name == name {
			return fn
		}
	}
	for _, modName := range cls.Includes {
		if mod, ok := c.Modules[modName]; ok {
			for _, m := range mod.Members {
				if fn, ok := m.Decl.(*ast.Function); ok && fn.Name == name {
					return fn
				}
			}
		}
	}
	if cls.Parent != "" {
		if parent, ok := c.Classes[cls.Parent]; ok {
			return c.findMethod(parent, name)
		}
	}
	return nil
}

func (c *Checker) compatible(fn *ast.Function, sig ast.MethodSig) bool {
	if len(fn.Params) != len(sig.Params) {
		return false
	}
	implParams := make([]ast.TypeExpr, len(fn.Params))
	ifaceParams := make([]ast.TypeExpr, len(sig.Params))
	for i := range fn.Params {
		implParams[i] = c.resolve(fn.Params[i].Type)
		ifaceParams[i] = c.resolve(sig.Params[i].Type)
	}
	implReturn := c.resolve(fn.ReturnType)
	ifaceReturn := c.resolve(sig.ReturnType)
	return typesys.CompatibleSignature(implParams, ifaceParams, implReturn, ifaceReturn)
}
