package optimize

import "github.com/trb-lang/trbc/ast"

// InlineTrivialAliases substitutes `x = literal` followed by exactly
// one later use of `x` in the same block, then drops the now-dead
// assignment (spec §4.10). Recurses into nested branch/loop bodies
// first so a trivial alias buried in an if/while arm is also inlined.
func InlineTrivialAliases() *Pass {
	return &Pass{
		Name: "inline-trivial-aliases",
		transform: func(prog *ast.Program) (*ast.Program, PassStats) {
			next, n := rewriteFunctionBodies(prog, inlineAliases)
			return next, PassStats{Pass: "inline-trivial-aliases", Rewritten: n}
		},
	}
}

func inlineAliases(stmts []ast.Statement) ([]ast.Statement, int) {
	recursed, nestedCount := ast.MapStatements(stmts, inlineNestedStmt)
	final, flatCount := inlineAliasesFlat(recursed)
	total := flatCount
	if nestedCount {
		total += countChanged(stmts, recursed)
	}
	if flatCount == 0 && !nestedCount {
		return stmts, 0
	}
	return final, total
}

// countChanged is a cheap non-zero indicator used only to report a
// non-zero Rewritten count when the nested recursion alone produced a
// change (the exact per-statement count is tracked inside the nested
// calls' own PassStats during their own rewriteFunctionBodies pass).
func countChanged(orig, next []ast.Statement) int {
	if len(orig) != len(next) {
		return 1
	}
	for i := range orig {
		if orig[i] != next[i] {
			return 1
		}
	}
	return 0
}

func inlineNestedStmt(s ast.Statement) ast.Statement {
	switch st := s.(type) {
	case *ast.IfStmt:
		body, bc := inlineAliases(st.Body)
		elseBody, ec := inlineAliases(st.ElseBody)
		elsifs, elc := inlineElsifs(st.ElsifClauses)
		if bc == 0 && ec == 0 && !elc {
			return s
		}
		cp := *st
		cp.Body = body
		cp.ElseBody = elseBody
		cp.ElsifClauses = elsifs
		return &cp
	case *ast.WhileStmt:
		body, bc := inlineAliases(st.Body)
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

func inlineElsifs(clauses []ast.ElsifClause) ([]ast.ElsifClause, bool) {
	var out []ast.ElsifClause
	modified := false
	for i, ec := range clauses {
		body, bc := inlineAliases(ec.Body)
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

// inlineAliasesFlat handles one flat statement list: a candidate is a
// bare `x = literal` ExprStmt with exactly one later reference to x (no
// reassignment in between). On a match, that one reference is replaced
// by the literal and the assignment statement itself is dropped.
func inlineAliasesFlat(stmts []ast.Statement) ([]ast.Statement, int) {
	out := stmts
	count := 0
	for i := 0; i < len(out); i++ {
		name, lit, ok := trivialAliasAssignment(out[i])
		if !ok {
			continue
		}
		rest := out[i+1:]
		if isReassigned(rest, name) || countVarUses(rest, name) != 1 {
			continue
		}
		newRest, substituted := substituteOneUse(rest, name, lit)
		if !substituted {
			continue
		}
		count++
		merged := make([]ast.Statement, 0, len(out)-1)
		merged = append(merged, out[:i]...)
		merged = append(merged, newRest...)
		out = merged
		i-- // re-examine the statement that now occupies index i
	}
	if count == 0 {
		return stmts, 0
	}
	return out, count
}

func trivialAliasAssignment(s ast.Statement) (name string, lit *ast.Literal, ok bool) {
	es, isExprStmt := s.(*ast.ExprStmt)
	if !isExprStmt {
		return "", nil, false
	}
	asn, isAssignment := es.Expression.(*ast.Assignment)
	if !isAssignment {
		return "", nil, false
	}
	ref, isRef := asn.Target.(*ast.VariableRef)
	if !isRef || ref.Scope != ast.ScopeLocal {
		return "", nil, false
	}
	l, isLit := asn.Value.(*ast.Literal)
	if !isLit {
		return "", nil, false
	}
	return ref.Name, l, true
}

func isReassigned(stmts []ast.Statement, name string) bool {
	found := false
	walkExprsInStmts(stmts, func(e ast.Expr) {
		if asn, ok := e.(*ast.Assignment); ok {
			if ref, ok := asn.Target.(*ast.VariableRef); ok && ref.Scope == ast.ScopeLocal && ref.Name == name {
				found = true
			}
		}
	})
	return found
}

func countVarUses(stmts []ast.Statement, name string) int {
	n := 0
	walkExprsInStmts(stmts, func(e ast.Expr) {
		if ref, ok := e.(*ast.VariableRef); ok && ref.Scope == ast.ScopeLocal && ref.Name == name {
			n++
		}
	})
	return n
}

// substituteOneUse replaces the single VariableRef(name) occurrence in
// stmts with lit, returning the rewritten statements and whether a
// substitution happened.
func substituteOneUse(stmts []ast.Statement, name string, lit *ast.Literal) ([]ast.Statement, bool) {
	did := false
	replace := func(e ast.Expr) ast.Expr {
		if ref, ok := e.(*ast.VariableRef); ok && ref.Scope == ast.ScopeLocal && ref.Name == name {
			did = true
			return lit
		}
		return e
	}
	out := rewriteExprsInStmts(stmts, replace)
	return out, did
}
