package optimize

import "github.com/trb-lang/trbc/ast"

// walkExpr calls visit on e and every expression reachable from it,
// post-order (children before parent), without mutating anything.
func walkExpr(e ast.Expr, visit func(ast.Expr)) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.Assignment:
		walkExpr(v.Target, visit)
		walkExpr(v.Value, visit)
	case *ast.BinaryOp:
		walkExpr(v.Left, visit)
		walkExpr(v.Right, visit)
	case *ast.UnaryOp:
		walkExpr(v.Operand, visit)
	case *ast.MethodCall:
		walkExpr(v.Receiver, visit)
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
		for _, kw := range v.KeywordArgs {
			walkExpr(kw.Value, visit)
		}
	case *ast.IndexExpr:
		walkExpr(v.Object, visit)
		walkExpr(v.Index, visit)
	case *ast.DotExpr:
		walkExpr(v.Object, visit)
	case *ast.SafeNavigation:
		walkExpr(v.Receiver, visit)
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	case *ast.Interpolation:
		for _, part := range v.Parts {
			if part.Expr != nil {
				walkExpr(part.Expr, visit)
			}
		}
	case *ast.ArrayLiteral:
		for _, el := range v.Elements {
			walkExpr(el, visit)
		}
	case *ast.HashLiteral:
		for _, pair := range v.Pairs {
			walkExpr(pair.Key, visit)
			walkExpr(pair.Value, visit)
		}
	case *ast.TypeAssertion:
		walkExpr(v.Expression, visit)
	}
	visit(e)
}

func walkExprsInStmt(s ast.Statement, visit func(ast.Expr)) {
	switch st := s.(type) {
	case *ast.ExprStmt:
		walkExpr(st.Expression, visit)
	case *ast.IfStmt:
		walkExpr(st.Condition, visit)
		walkExprsInStmts(st.Body, visit)
		for _, ec := range st.ElsifClauses {
			walkExpr(ec.Condition, visit)
			walkExprsInStmts(ec.Body, visit)
		}
		walkExprsInStmts(st.ElseBody, visit)
	case *ast.CaseStmt:
		walkExpr(st.Scrutinee, visit)
		for _, w := range st.Whens {
			for _, v := range w.Values {
				walkExpr(v, visit)
			}
			walkExprsInStmts(w.Body, visit)
		}
		walkExprsInStmts(st.ElseBody, visit)
	case *ast.WhileStmt:
		walkExpr(st.Condition, visit)
		walkExprsInStmts(st.Body, visit)
	case *ast.ReturnStmt:
		walkExpr(st.Value, visit)
	case *ast.RaiseStmt:
		walkExpr(st.Exception, visit)
	}
}

func walkExprsInStmts(stmts []ast.Statement, visit func(ast.Expr)) {
	for _, s := range stmts {
		walkExprsInStmt(s, visit)
	}
}

// rewriteExpr rewrites the subexpressions of e with fn, bottom-up, then
// applies fn to the (possibly already-rewritten) node itself. It descends
// into assignment values, binary and unary operands, method-call
// receivers and positional arguments, index and dot objects, and array
// elements; children of other node kinds are not rewritten.
func rewriteExpr(e ast.Expr, fn func(ast.Expr) ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.Assignment:
		val := rewriteExpr(v.Value, fn)
		if val != v.Value {
			cp := *v
			cp.Value = val
			e = &cp
		}
	case *ast.BinaryOp:
		l := rewriteExpr(v.Left, fn)
		r := rewriteExpr(v.Right, fn)
		if l != v.Left || r != v.Right {
			cp := *v
			cp.Left, cp.Right = l, r
			e = &cp
		}
	case *ast.UnaryOp:
		operand := rewriteExpr(v.Operand, fn)
		if operand != v.Operand {
			cp := *v
			cp.Operand = operand
			e = &cp
		}
	case *ast.MethodCall:
		recv := rewriteExpr(v.Receiver, fn)
		args, changed := ast.MapExprs(v.Args, func(a ast.Expr) ast.Expr { return rewriteExpr(a, fn) })
		if recv != v.Receiver || changed {
			cp := *v
			cp.Receiver = recv
			cp.Args = args
			e = &cp
		}
	case *ast.IndexExpr:
		obj := rewriteExpr(v.Object, fn)
		idx := rewriteExpr(v.Index, fn)
		if obj != v.Object || idx != v.Index {
			cp := *v
			cp.Object, cp.Index = obj, idx
			e = &cp
		}
	case *ast.DotExpr:
		obj := rewriteExpr(v.Object, fn)
		if obj != v.Object {
			cp := *v
			cp.Object = obj
			e = &cp
		}
	case *ast.ArrayLiteral:
		elems, changed := ast.MapExprs(v.Elements, func(el ast.Expr) ast.Expr { return rewriteExpr(el, fn) })
		if changed {
			cp := *v
			cp.Elements = elems
			e = &cp
		}
	}
	return fn(e)
}

func rewriteExprsInStmt(s ast.Statement, fn func(ast.Expr) ast.Expr) ast.Statement {
	switch st := s.(type) {
	case *ast.ExprStmt:
		e := rewriteExpr(st.Expression, fn)
		if e == st.Expression {
			return s
		}
		cp := *st
		cp.Expression = e
		return &cp
	case *ast.IfStmt:
		cond := rewriteExpr(st.Condition, fn)
		body := rewriteExprsInStmts(st.Body, fn)
		elseBody := rewriteExprsInStmts(st.ElseBody, fn)
		elsifs := rewriteExprsInElsifs(st.ElsifClauses, fn)
		cp := *st
		cp.Condition = cond
		cp.Body = body
		cp.ElseBody = elseBody
		cp.ElsifClauses = elsifs
		return &cp
	case *ast.CaseStmt:
		scrutinee := rewriteExpr(st.Scrutinee, fn)
		whens := make([]ast.WhenClause, len(st.Whens))
		for i, w := range st.Whens {
			values, _ := ast.MapExprs(w.Values, func(e ast.Expr) ast.Expr { return rewriteExpr(e, fn) })
			whens[i] = ast.WhenClause{Values: values, Body: rewriteExprsInStmts(w.Body, fn)}
		}
		elseBody := rewriteExprsInStmts(st.ElseBody, fn)
		cp := *st
		cp.Scrutinee = scrutinee
		cp.Whens = whens
		cp.ElseBody = elseBody
		return &cp
	case *ast.WhileStmt:
		cond := rewriteExpr(st.Condition, fn)
		body := rewriteExprsInStmts(st.Body, fn)
		cp := *st
		cp.Condition = cond
		cp.Body = body
		return &cp
	case *ast.ReturnStmt:
		if st.Value == nil {
			return s
		}
		v := rewriteExpr(st.Value, fn)
		if v == st.Value {
			return s
		}
		cp := *st
		cp.Value = v
		return &cp
	case *ast.RaiseStmt:
		if st.Exception == nil {
			return s
		}
		v := rewriteExpr(st.Exception, fn)
		if v == st.Exception {
			return s
		}
		cp := *st
		cp.Exception = v
		return &cp
	default:
		return s
	}
}

func rewriteExprsInElsifs(clauses []ast.ElsifClause, fn func(ast.Expr) ast.Expr) []ast.ElsifClause {
	if len(clauses) == 0 {
		return clauses
	}
	out := make([]ast.ElsifClause, len(clauses))
	for i, ec := range clauses {
		out[i] = ast.ElsifClause{
			Condition: rewriteExpr(ec.Condition, fn),
			Body:      rewriteExprsInStmts(ec.Body, fn),
		}
	}
	return out
}

func rewriteExprsInStmts(stmts []ast.Statement, fn func(ast.Expr) ast.Expr) []ast.Statement {
	out := make([]ast.Statement, len(stmts))
	for i, s := range stmts {
		out[i] = rewriteExprsInStmt(s, fn)
	}
	return out
}
