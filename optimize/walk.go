package optimize

import "github.com/trb-lang/trbc/ast"

// rewriteFunctionBodies applies rewrite to every Function's body found
// anywhere in prog (top-level functions and methods nested in
// Class/Module declarations), returning a new Program only if at least
// one body changed, plus the total count rewrite reported.
func rewriteFunctionBodies(prog *ast.Program, rewrite func([]ast.Statement) ([]ast.Statement, int)) (*ast.Program, int) {
	total := 0
	decls, changed := ast.MapDeclarations(prog.Declarations, func(d ast.Declaration) ast.Declaration {
		fn, ok := d.(*ast.Function)
		if !ok {
			return d
		}
		body, n := rewrite(fn.Body)
		if n == 0 {
			return d
		}
		total += n
		cp := *fn
		cp.Body = body
		return &cp
	})
	if !changed {
		return prog, 0
	}
	cp := *prog
	cp.Declarations = decls
	return &cp, total
}
