package optimize

import "github.com/trb-lang/trbc/ast"

// BranchFold collapses `if true`/`if false` (and `while false`) to
// their live branch (spec §4.10). A false `if` arm cascades into its
// first elsif, recursively, exactly as the un-optimized IR would
// evaluate it at runtime.
func BranchFold() *Pass {
	return &Pass{
		Name: "branch-fold",
		transform: func(prog *ast.Program) (*ast.Program, PassStats) {
			next, n := rewriteFunctionBodies(prog, foldBranches)
			return next, PassStats{Pass: "branch-fold", Rewritten: n}
		},
	}
}

func foldBranches(stmts []ast.Statement) ([]ast.Statement, int) {
	count := 0
	var out []ast.Statement
	changed := false
	for _, s := range stmts {
		replaced, did := foldBranchStmt(s, &count)
		if did {
			changed = true
		}
		out = append(out, replaced...)
	}
	if !changed {
		return stmts, 0
	}
	return out, count
}

func literalBool(e ast.Expr) (bool, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Kind != ast.LitExprBoolean {
		return false, false
	}
	return lit.Value == "true", true
}

func foldBranchStmt(s ast.Statement, count *int) ([]ast.Statement, bool) {
	switch st := s.(type) {
	case *ast.IfStmt:
		if val, ok := literalBool(st.Condition); ok {
			*count++
			if val {
				folded, _ := foldBranches(st.Body)
				return folded, true
			}
			if len(st.ElsifClauses) > 0 {
				next := &ast.IfStmt{
					Base:         st.Base,
					Condition:    st.ElsifClauses[0].Condition,
					Body:         st.ElsifClauses[0].Body,
					ElsifClauses: st.ElsifClauses[1:],
					ElseBody:     st.ElseBody,
				}
				return foldBranchStmt(next, count)
			}
			folded, _ := foldBranches(st.ElseBody)
			return folded, true
		}
		body, bc := foldBranches(st.Body)
		elseBody, ec := foldBranches(st.ElseBody)
		elsifs, elc := foldBranchElsifs(st.ElsifClauses, count)
		if bc == 0 && ec == 0 && !elc {
			return []ast.Statement{s}, false
		}
		cp := *st
		cp.Body = body
		cp.ElseBody = elseBody
		cp.ElsifClauses = elsifs
		return []ast.Statement{&cp}, true
	case *ast.WhileStmt:
		if val, ok := literalBool(st.Condition); ok && !val {
			*count++
			return nil, true
		}
		body, bc := foldBranches(st.Body)
		if bc == 0 {
			return []ast.Statement{s}, false
		}
		cp := *st
		cp.Body = body
		return []ast.Statement{&cp}, true
	default:
		return []ast.Statement{s}, false
	}
}

func foldBranchElsifs(clauses []ast.ElsifClause, count *int) ([]ast.ElsifClause, bool) {
	var out []ast.ElsifClause
	modified := false
	for i, ec := range clauses {
		body, bc := foldBranches(ec.Body)
		if bc != 0 {
			if !modified {
				out = make([]ast.ElsifClause, len(clauses))
				copy(out[:i], clauses[:i])
				modified = true
			}
		}
		if modified {
			out[i] = ast.ElsifClause{Condition: ec.Condition, Body: body}
		}
	}
	if !modified {
		return clauses, false
	}
	return out, true
}
