package infer

import (
	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/typesys"
)

// InferExpr types one expression node, memoizing the result against the
// node (spec §4.8 cache-consistency property: re-inferring the same node
// identity always returns the same type without re-walking children).
func (inf *Inferrer) InferExpr(e ast.Expr, env *Env) ast.TypeExpr {
	if e == nil {
		return tVoid
	}
	if t, ok := inf.CachedType(e); ok {
		return t
	}
	switch v := e.(type) {
	case *ast.Literal:
		return inf.typeOf(v, inf.inferLiteral(v))
	case *ast.VariableRef:
		return inf.typeOf(v, inf.inferVariableRef(v, env))
	case *ast.Assignment:
		return inf.typeOf(v, inf.inferAssignment(v, env))
	case *ast.BinaryOp:
		return inf.typeOf(v, inf.inferBinary(v, env))
	case *ast.UnaryOp:
		operand := inf.InferExpr(v.Operand, env)
		if t, ok := unaryResult(v.Op, operand); ok {
			return inf.typeOf(v, t)
		}
		return inf.typeOf(v, inf.errorf(v, "operator %q is not defined for %s", v.Op, operand.Key()))
	case *ast.MethodCall:
		return inf.typeOf(v, inf.inferMethodCall(v, env))
	case *ast.IndexExpr:
		objT := inf.InferExpr(v.Object, env)
		inf.InferExpr(v.Index, env)
		return inf.typeOf(v, inf.elementType(objT))
	case *ast.DotExpr:
		recvT := inf.InferExpr(v.Object, env)
		return inf.typeOf(v, inf.fieldType(v, recvT))
	case *ast.SafeNavigation:
		recvT := inf.InferExpr(v.Receiver, env)
		for _, a := range v.Args {
			inf.InferExpr(a, env)
		}
		result := inf.methodReturnType(v, recvT, v.Method, len(v.Args))
		return inf.typeOf(v, typesys.MakeUnion([]ast.TypeExpr{result, tNil}))
	case *ast.FnExpr:
		env2 := env.Child()
		for _, p := range v.Params {
			env2.Define(p.Name, inf.resolve(p.Type))
		}
		ret := inf.inferBlock(v.Body, env2)
		params := make([]ast.FuncParam, len(v.Params))
		for i, p := range v.Params {
			params[i] = ast.FuncParam{Name: p.Name, Type: inf.resolve(p.Type)}
		}
		return inf.typeOf(v, &ast.FuncType{Params: params, Return: ret})
	case *ast.Interpolation:
		for _, part := range v.Parts {
			if part.Expr != nil {
				inf.InferExpr(part.Expr, env)
			}
		}
		return inf.typeOf(v, tString)
	case *ast.ArrayLiteral:
		if len(v.Elements) == 0 {
			return inf.typeOf(v, ast.ArrayOf(tAny))
		}
		var elemT ast.TypeExpr
		for _, el := range v.Elements {
			t := inf.InferExpr(el, env)
			if elemT == nil {
				elemT = t
			} else {
				elemT = joinTypes(elemT, t)
			}
		}
		return inf.typeOf(v, ast.ArrayOf(elemT))
	case *ast.HashLiteral:
		if len(v.Pairs) == 0 {
			return inf.typeOf(v, ast.HashOf(tAny, tAny))
		}
		var kT, vT ast.TypeExpr
		for _, pair := range v.Pairs {
			k := inf.InferExpr(pair.Key, env)
			val := inf.InferExpr(pair.Value, env)
			if kT == nil {
				kT, vT = k, val
			} else {
				kT, vT = joinTypes(kT, k), joinTypes(vT, val)
			}
		}
		return inf.typeOf(v, ast.HashOf(kT, vT))
	case *ast.TypeAssertion:
		inf.InferExpr(v.Expression, env)
		return inf.typeOf(v, inf.resolve(v.Target))
	case *ast.RawExpr:
		return inf.typeOf(v, tAny)
	default:
		return tAny
	}
}

func (inf *Inferrer) inferLiteral(l *ast.Literal) ast.TypeExpr {
	switch l.Kind {
	case ast.LitExprString:
		return &ast.LiteralType{Kind: ast.LiteralString, Value: l.Value}
	case ast.LitExprInteger:
		return &ast.LiteralType{Kind: ast.LiteralInteger, Value: l.Value}
	case ast.LitExprFloat:
		return tFloat
	case ast.LitExprBoolean:
		return &ast.LiteralType{Kind: ast.LiteralBoolean, Value: l.Value}
	case ast.LitExprSymbol:
		return &ast.LiteralType{Kind: ast.LiteralSymbol, Value: l.Value}
	case ast.LitExprNil:
		return tNil
	default:
		return tAny
	}
}

func (inf *Inferrer) inferVariableRef(v *ast.VariableRef, env *Env) ast.TypeExpr {
	switch v.Scope {
	case ast.ScopeLocal:
		if v.Name == "self" {
			if s := env.Self(); s != nil {
				return s
			}
			return tAny
		}
		if t, ok := env.Lookup(v.Name); ok {
			return t
		}
		return inf.errorf(v, "undefined local variable %q", v.Name)
	case ast.ScopeInstance:
		if self := env.Self(); self != nil {
			if nt, ok := self.(*ast.NamedType); ok {
				if cls, ok := inf.Classes[nt.Name]; ok {
					for _, iv := range allIVars(cls, inf.Classes) {
						if iv.Name == v.Name {
							return inf.resolve(iv.Type)
						}
					}
				}
			}
		}
		return tAny
	case ast.ScopeClass:
		return tAny
	case ast.ScopeGlobal:
		return tAny
	case ast.ScopeConstant:
		if cls, ok := inf.Classes[v.Name]; ok {
			return &ast.NamedType{Name: cls.Name}
		}
		return tAny
	default:
		return tAny
	}
}

// allIVars collects a class's own instance-variable bindings plus its
// ancestors' (walking Parent), most-derived first.
func allIVars(cls *ast.Class, classes map[string]*ast.Class) []ast.IVarBinding {
	out := append([]ast.IVarBinding{}, cls.IVars...)
	if cls.Parent != "" {
		if parent, ok := classes[cls.Parent]; ok {
			out = append(out, allIVars(parent, classes)...)
		}
	}
	return out
}

func (inf *Inferrer) inferAssignment(a *ast.Assignment, env *Env) ast.TypeExpr {
	valueT := inf.InferExpr(a.Value, env)
	declared := valueT
	if a.DeclaredType != nil {
		declared = inf.resolve(a.DeclaredType)
		if !typesys.IsSubtype(valueT, declared) {
			inf.errorf(a, "cannot assign %s to declared type %s", valueT.Key(), declared.Key())
		}
	}
	if ref, ok := a.Target.(*ast.VariableRef); ok && ref.Scope == ast.ScopeLocal {
		env.Define(ref.Name, declared)
	}
	inf.InferExpr(a.Target, env)
	return declared
}

func (inf *Inferrer) inferBinary(b *ast.BinaryOp, env *Env) ast.TypeExpr {
	l := inf.InferExpr(b.Left, env)
	r := inf.InferExpr(b.Right, env)
	if t, ok := operatorResult(b.Op, l, r); ok {
		return t
	}
	// Not a built-in operator pairing: treat as sugar for `l.op(r)` and
	// fall back to a method-call lookup on l's class.
	if ret := inf.methodReturnType(b, l, b.Op, 1); ret != nil {
		return ret
	}
	return inf.errorf(b, "operator %q is not defined for %s and %s", b.Op, l.Key(), r.Key())
}

func (inf *Inferrer) elementType(t ast.TypeExpr) ast.TypeExpr {
	if nt, ok := t.(*ast.NamedType); ok {
		switch nt.Name {
		case ast.BuiltinArray:
			if len(nt.Args) == 1 {
				return nt.Args[0]
			}
		case ast.BuiltinHash:
			if len(nt.Args) == 2 {
				return nt.Args[1]
			}
		}
	}
	return tAny
}

func (inf *Inferrer) fieldType(d *ast.DotExpr, recvT ast.TypeExpr) ast.TypeExpr {
	if nt, ok := recvT.(*ast.NamedType); ok {
		if cls, ok := inf.Classes[nt.Name]; ok {
			for _, iv := range allIVars(cls, inf.Classes) {
				if iv.Name == d.Field {
					return inf.resolve(iv.Type)
				}
			}
			if ret := inf.lookupMethodReturn(cls, d.Field); ret != nil {
				return inf.resolve(ret)
			}
		}
	}
	return tAny
}

// inferMethodCall types a MethodCall node: infer all argument/receiver
// types (for their side effects on the cache and diagnostics), then look
// up the called method's declared return type by walking the receiver's
// class, its included modules, and its ancestor chain.
func (inf *Inferrer) inferMethodCall(mc *ast.MethodCall, env *Env) ast.TypeExpr {
	var recvT ast.TypeExpr
	if mc.Receiver != nil {
		recvT = inf.InferExpr(mc.Receiver, env)
	} else if env.Self() != nil {
		recvT = env.Self()
	}
	for _, a := range mc.Args {
		inf.InferExpr(a, env)
	}
	for _, kw := range mc.KeywordArgs {
		inf.InferExpr(kw.Value, env)
	}
	if mc.Block != nil {
		benv := env.Child()
		for _, p := range mc.Block.Params {
			benv.Define(p.Name, inf.resolve(p.Type))
		}
		inf.inferBlock(mc.Block.Body, benv)
	}
	if recvT == nil {
		return tAny
	}
	return inf.methodReturnType(mc, recvT, mc.Method, len(mc.Args))
}

// methodReturnType resolves method's declared return type against
// recvT's class (walking parent and includes); returns `any` if the
// method can't be found (permissive fallback — an undeclared method on a
// known class is a ResolutionError concern handled by the constraint
// checker, not the inferrer).
func (inf *Inferrer) methodReturnType(n ast.Node, recvT ast.TypeExpr, method string, _ int) ast.TypeExpr {
	nt, ok := recvT.(*ast.NamedType)
	if !ok {
		return tAny
	}
	if cls, ok := inf.Classes[nt.Name]; ok {
		if ret := inf.lookupMethodReturn(cls, method); ret != nil {
			return inf.resolve(ret)
		}
		return tAny
	}
	if mod, ok := inf.Modules[nt.Name]; ok {
		for _, m := range mod.Members {
			if fn, ok := m.Decl.(*ast.Function); ok && fn.Name == method {
				return inf.resolve(fn.ReturnType)
			}
		}
	}
	return tAny
}

// lookupMethodReturn walks cls's own members, then its included modules,
// then its parent chain, returning the first matching method's
// (unresolved) return type expression, or nil if not found anywhere.
func (inf *Inferrer) lookupMethodReturn(cls *ast.Class, method string) ast.TypeExpr {
	for _, m := range cls.Members {
		if fn, ok := m.Decl.(*ast.Function); ok && fn.Name == method {
			return fn.ReturnType
		}
	}
	for _, modName := range cls.Includes {
		if mod, ok := inf.Modules[modName]; ok {
			for _, m := range mod.Members {
				if fn, ok := m.Decl.(*ast.Function); ok && fn.Name == method {
					return fn.ReturnType
				}
			}
		}
	}
	if cls.Parent != "" {
		if parent, ok := inf.Classes[cls.Parent]; ok {
			return inf.lookupMethodReturn(parent, method)
		}
	}
	return nil
}
