package infer

import (
	"fmt"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/internal/diag"
	"github.com/trb-lang/trbc/typesys"
)

// Mode controls whether an unresolvable type question is a hard
// TypeError (strict) or a recorded diagnostic that falls back to `any`
// so inference can keep going (permissive). The inferrer has these two
// levels only; the parser's third, standard mode has no counterpart here.
type Mode int

const (
	ModeStrict Mode = iota
	ModePermissive
)

// Inferrer holds the whole-program tables the type inferrer consults
// while walking one function body at a time: the class/module
// declaration tables used for method lookup, the alias registry, and the
// per-node memoization cache (spec §4.8's "cache consistency" property).
type Inferrer struct {
	Registry *typesys.Registry
	Classes  map[string]*ast.Class
	Modules  map[string]*ast.Module
	Mode     Mode

	cache map[ast.Node]ast.TypeExpr
	diags *diag.Bag
}

// New creates an Inferrer over a fully-parsed program. Call BuildTables
// before InferFunction or InferExpr if the Inferrer wasn't constructed
// via InferProgram.
func New(reg *typesys.Registry, mode Mode) *Inferrer {
	return &Inferrer{
		Registry: reg,
		Classes:  map[string]*ast.Class{},
		Modules:  map[string]*ast.Module{},
		Mode:     mode,
		cache:    map[ast.Node]ast.TypeExpr{},
		diags:    &diag.Bag{},
	}
}

// InferProgram builds the class/module tables from prog, then infers
// every function and constant in source order, returning the
// accumulated diagnostics. Methods declared inside a Class/Module are
// inferred with self bound to that enclosing type, so instance-variable
// and method-lookup rules in infer/expr.go see the right receiver.
func InferProgram(prog *ast.Program, reg *typesys.Registry, mode Mode) *diag.Bag {
	inf := New(reg, mode)
	inf.BuildTables(prog)

	var walk func(decls []ast.Declaration, selfType ast.TypeExpr)
	walk = func(decls []ast.Declaration, selfType ast.TypeExpr) {
		for _, d := range decls {
			switch v := d.(type) {
			case *ast.Function:
				inf.InferFunction(v, selfType)
			case *ast.Constant:
				if v.Initializer != nil {
					inf.InferExpr(v.Initializer, NewEnv())
				}
			case *ast.Class:
				members := make([]ast.Declaration, len(v.Members))
				for i, m := range v.Members {
					members[i] = m.Decl
				}
				walk(members, &ast.NamedType{Name: v.Name})
			case *ast.Module:
				members := make([]ast.Declaration, len(v.Members))
				for i, m := range v.Members {
					members[i] = m.Decl
				}
				walk(members, &ast.NamedType{Name: v.Name})
			}
		}
	}
	walk(prog.Declarations, nil)
	return inf.diags
}

// BuildTables indexes every Class/Module declaration (including nested
// ones) by name so method lookup can walk parents/includes.
func (inf *Inferrer) BuildTables(prog *ast.Program) {
	var walk func(ast.Declaration)
	walk = func(d ast.Declaration) {
		switch v := d.(type) {
		case *ast.Class:
			inf.Classes[v.Name] = v
			for _, m := range v.Members {
				walk(m.Decl)
			}
		case *ast.Module:
			inf.Modules[v.Name] = v
			for _, m := range v.Members {
				walk(m.Decl)
			}
		}
	}
	for _, d := range prog.Declarations {
		walk(d)
	}
}

// typeOf memoizes t against node, per spec §4.8's per-node cache, and
// returns t for chaining.
func (inf *Inferrer) typeOf(node ast.Node, t ast.TypeExpr) ast.TypeExpr {
	inf.cache[node] = t
	return t
}

// CachedType returns the memoized type for node, if inference already
// visited it.
func (inf *Inferrer) CachedType(node ast.Node) (ast.TypeExpr, bool) {
	t, ok := inf.cache[node]
	return t, ok
}

func (inf *Inferrer) errorf(n ast.Node, format string, args ...any) ast.TypeExpr {
	sev := diag.SeverityError
	if inf.Mode == ModePermissive {
		sev = diag.SeverityWarning
	}
	inf.diags.Add(diag.Diagnostic{
		Severity: sev,
		File:     n.Span().File,
		Span:     n.Span(),
		Category: diag.CategoryType,
		Message:  fmt.Sprintf(format, args...),
	})
	return tAny
}

// resolve expands aliases and normalizes a declared type annotation,
// defaulting to `any` when none was written (permissive mode).
func (inf *Inferrer) resolve(t ast.TypeExpr) ast.TypeExpr {
	if t == nil {
		return tAny
	}
	return inf.Registry.Resolve(t)
}

// InferFunction types one function body, binding parameters (and self,
// when selfType is non-nil) into a fresh scope, then infers the
// implicit-return/explicit-return type and checks it against the
// declared return type. `initialize` always has return type void
// regardless of its body (spec §4.8 invariant), enforced here rather
// than relying on the parser to have already resolved it.
func (inf *Inferrer) InferFunction(fn *ast.Function, selfType ast.TypeExpr) ast.TypeExpr {
	env := NewEnv()
	if selfType != nil {
		env = env.WithSelf(selfType)
	}
	for _, p := range fn.Params {
		env.Define(p.Name, inf.resolve(p.Type))
	}

	bodyType := inf.inferBlock(fn.Body, env)

	if fn.IsInitialize() {
		return inf.typeOf(fn, tVoid)
	}

	inferred := inf.unifyReturns(fn.Body, bodyType)

	declared := inf.resolve(fn.ReturnType)
	if fn.ReturnType == nil {
		// No declared return type demands a literal, so literal
		// contributions widen to their base types.
		members := []ast.TypeExpr{inferred}
		if u, ok := inferred.(*ast.Union); ok {
			members = u.Members
		}
		widened := make([]ast.TypeExpr, len(members))
		for i, m := range members {
			if lt, ok := m.(*ast.LiteralType); ok {
				m = lt.BaseType()
			}
			widened[i] = m
		}
		return inf.typeOf(fn, typesys.MakeUnion(widened))
	}
	if !typesys.IsSubtype(inferred, declared) {
		inf.errorf(fn, "function %q returns %s, declared return type is %s", fn.Name, inferred.Key(), declared.Key())
	}
	return inf.typeOf(fn, declared)
}

// unifyReturns joins bodyType (the implicit-return contribution from
// inferBlock's tail statement) with the type of every explicit `return`
// statement anywhere in body, including ones nested inside if/case/while
// blocks (spec §4.8 infer_method step (a) and implicit-return steps 1/3).
// Each ReturnStmt is already cached by inferStatement by the time this
// runs, since inferBlock has just walked the whole tree.
func (inf *Inferrer) unifyReturns(body []ast.Statement, bodyType ast.TypeExpr) ast.TypeExpr {
	contributions := []ast.TypeExpr{bodyType}
	for _, r := range collectReturnStmts(body) {
		if t, ok := inf.CachedType(r); ok {
			contributions = append(contributions, t)
		}
	}
	return typesys.MakeUnion(contributions)
}

// collectReturnStmts walks body and every nested if/case/while block
// looking for explicit `return` statements.
func collectReturnStmts(body []ast.Statement) []*ast.ReturnStmt {
	var out []*ast.ReturnStmt
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.ReturnStmt:
			out = append(out, s)
		case *ast.IfStmt:
			out = append(out, collectReturnStmts(s.Body)...)
			for _, ec := range s.ElsifClauses {
				out = append(out, collectReturnStmts(ec.Body)...)
			}
			out = append(out, collectReturnStmts(s.ElseBody)...)
		case *ast.CaseStmt:
			for _, w := range s.Whens {
				out = append(out, collectReturnStmts(w.Body)...)
			}
			out = append(out, collectReturnStmts(s.ElseBody)...)
		case *ast.WhileStmt:
			out = append(out, collectReturnStmts(s.Body)...)
		}
	}
	return out
}

// inferBlock infers every statement in body and returns the
// implicit-return value's type: the type of the last statement's
// expression if it is a bare ExprStmt (spec invariant 6); void if the
// block is empty or ends in a bare `return`; the returned value's type if
// it ends in `return expr`; otherwise the type inferStatement gave the
// tail If/Case/While/Raise statement.
func (inf *Inferrer) inferBlock(body []ast.Statement, env *Env) ast.TypeExpr {
	var last ast.TypeExpr = tVoid
	for i, stmt := range body {
		t := inf.inferStatement(stmt, env)
		if i == len(body)-1 {
			last = t
		}
	}
	if ast.LastValue(body) == nil {
		// Either empty, or the last statement doesn't produce a value
		// (Return/Raise/If/Case/While) — those already typed themselves
		// via inferStatement. A tail Return's value still contributes to
		// the implicit-return type here; every explicit return elsewhere
		// in the body is unified in by InferFunction's unifyReturns.
		if len(body) == 0 {
			return tVoid
		}
		if r, ok := body[len(body)-1].(*ast.ReturnStmt); ok {
			if r.Value == nil {
				return tVoid
			}
			return inf.InferExpr(r.Value, env)
		}
		return last
	}
	return last
}

func (inf *Inferrer) inferStatement(stmt ast.Statement, env *Env) ast.TypeExpr {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		t := inf.InferExpr(s.Expression, env)
		return inf.typeOf(s, t)
	case *ast.IfStmt:
		inf.InferExpr(s.Condition, env)
		bodyT := inf.inferBlock(s.Body, env.Child())
		for _, ec := range s.ElsifClauses {
			inf.InferExpr(ec.Condition, env)
			t := inf.inferBlock(ec.Body, env.Child())
			bodyT = joinTypes(bodyT, t)
		}
		if s.ElseBody != nil {
			t := inf.inferBlock(s.ElseBody, env.Child())
			bodyT = joinTypes(bodyT, t)
		} else {
			bodyT = joinTypes(bodyT, tNil)
		}
		return inf.typeOf(s, bodyT)
	case *ast.CaseStmt:
		inf.InferExpr(s.Scrutinee, env)
		var result ast.TypeExpr
		for _, w := range s.Whens {
			for _, v := range w.Values {
				inf.InferExpr(v, env)
			}
			t := inf.inferBlock(w.Body, env.Child())
			if result == nil {
				result = t
			} else {
				result = joinTypes(result, t)
			}
		}
		if s.ElseBody != nil {
			t := inf.inferBlock(s.ElseBody, env.Child())
			if result == nil {
				result = t
			} else {
				result = joinTypes(result, t)
			}
		} else if result != nil {
			result = joinTypes(result, tNil)
		}
		if result == nil {
			result = tVoid
		}
		return inf.typeOf(s, result)
	case *ast.WhileStmt:
		inf.InferExpr(s.Condition, env)
		inf.inferBlock(s.Body, env.Child())
		return inf.typeOf(s, tNil)
	case *ast.ReturnStmt:
		if s.Value != nil {
			return inf.typeOf(s, inf.InferExpr(s.Value, env))
		}
		return inf.typeOf(s, tVoid)
	case *ast.RaiseStmt:
		if s.Exception != nil {
			inf.InferExpr(s.Exception, env)
		}
		return inf.typeOf(s, &ast.NamedType{Name: ast.BuiltinNever})
	default:
		return tAny
	}
}

func joinTypes(a, b ast.TypeExpr) ast.TypeExpr {
	if typesys.Equal(a, b) {
		return a
	}
	return typesys.MakeUnion([]ast.TypeExpr{a, b})
}
