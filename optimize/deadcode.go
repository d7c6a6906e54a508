package optimize

import "github.com/trb-lang/trbc/ast"

// DeadCodeEliminate drops statements unreachable after an unconditional
// return/raise (spec §4.10), recursing into every nested branch body so
// a terminating arm buried inside an if/case/while is also trimmed.
func DeadCodeEliminate() *Pass {
	return &Pass{
		Name: "dead-code-eliminate",
		transform: func(prog *ast.Program) (*ast.Program, PassStats) {
			next, n := rewriteFunctionBodies(prog, trimDeadCode)
			return next, PassStats{Pass: "dead-code-eliminate", Eliminated: n}
		},
	}
}

func trimDeadCode(stmts []ast.Statement) ([]ast.Statement, int) {
	eliminated := 0
	live := stmts
	for i, s := range stmts {
		if ast.Terminates(s) && i < len(stmts)-1 {
			eliminated += len(stmts) - i - 1
			live = stmts[:i+1]
			break
		}
	}
	rewritten, nested := ast.MapStatements(live, trimNestedStmt)
	eliminated += nested
	if eliminated == 0 {
		return stmts, 0
	}
	return rewritten, eliminated
}

func trimNestedStmt(s ast.Statement) ast.Statement {
	switch st := s.(type) {
	case *ast.IfStmt:
		body, bc := trimDeadCode(st.Body)
		elseBody, ec := trimDeadCode(st.ElseBody)
		elsifs, elc := trimElsifs(st.ElsifClauses)
		if bc == 0 && ec == 0 && !elc {
			return s
		}
		cp := *st
		cp.Body = body
		cp.ElseBody = elseBody
		cp.ElsifClauses = elsifs
		return &cp
	case *ast.CaseStmt:
		whens, wc := trimWhens(st.Whens)
		elseBody, ec := trimDeadCode(st.ElseBody)
		if !wc && ec == 0 {
			return s
		}
		cp := *st
		cp.Whens = whens
		cp.ElseBody = elseBody
		return &cp
	case *ast.WhileStmt:
		body, bc := trimDeadCode(st.Body)
		if bc == 0 {
			return s
		}
		cp := *st
		cp.Body = body
		return &cp
	default:
		return s
	}
}

func trimElsifs(clauses []ast.ElsifClause) ([]ast.ElsifClause, bool) {
	var out []ast.ElsifClause
	modified := false
	for i, ec := range clauses {
		body, bc := trimDeadCode(ec.Body)
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

func trimWhens(whens []ast.WhenClause) ([]ast.WhenClause, bool) {
	var out []ast.WhenClause
	modified := false
	for i, w := range whens {
		body, bc := trimDeadCode(w.Body)
		if bc != 0 {
			if !modified {
				out = make([]ast.WhenClause, len(whens))
				copy(out[:i], whens[:i])
				modified = true
			}
		}
		if modified {
			out[i] = ast.WhenClause{Values: w.Values, Body: body}
		}
	}
	if !modified {
		return whens, false
	}
	return out, true
}
