package sig

import "github.com/trb-lang/trbc/ast"

// Options controls which declarations Build includes.
type Options struct {
	// IncludePrivate controls whether Private/Protected members are
	// kept. The declaration emitter (§4.13) omits them; the signature
	// emitter (§4.12) keeps everything, since an .rbs file documents a
	// class's full shape including its private surface for tooling.
	IncludePrivate bool
}

// Build flattens prog into a Program, in source order throughout.
func Build(prog *ast.Program, opts Options) *Program {
	b := &builder{opts: opts}
	out := &Program{SourceFile: prog.SourceFile}
	for _, d := range prog.Declarations {
		switch v := d.(type) {
		case *ast.Function:
			if !b.keep(v.Visibility) {
				continue
			}
			out.Functions = append(out.Functions, b.method(v))
		case *ast.Class:
			if !b.keep(v.Visibility) {
				continue
			}
			out.Classes = append(out.Classes, b.class(v))
		case *ast.Module:
			if !b.keep(v.Visibility) {
				continue
			}
			out.Modules = append(out.Modules, b.module(v))
		case *ast.Interface:
			if !b.keep(v.Visibility) {
				continue
			}
			out.Interfaces = append(out.Interfaces, b.iface(v))
		case *ast.TypeAlias:
			out.Aliases = append(out.Aliases, Alias{Name: v.Name, Generics: v.Generics, Target: v.Target})
		case *ast.Constant:
			if !b.keep(v.Visibility) {
				continue
			}
			out.Constants = append(out.Constants, Constant{Name: v.Name, Type: v.Type})
		}
	}
	return out
}

type builder struct {
	opts Options
}

func (b *builder) keep(vis ast.Visibility) bool {
	return b.opts.IncludePrivate || vis == ast.Public
}

func (b *builder) method(fn *ast.Function) Method {
	params := make([]Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = Param{Name: p.Name, Type: p.Type, Kind: ParamKind(p.Kind)}
	}
	return Method{Name: fn.Name, Generics: fn.Generics, Params: params, ReturnType: fn.ReturnType}
}

func (b *builder) methodSig(m ast.MethodSig) Method {
	params := make([]Param, len(m.Params))
	for i, p := range m.Params {
		params[i] = Param{Name: p.Name, Type: p.Type, Kind: ParamKind(p.Kind)}
	}
	return Method{Name: m.Name, Generics: m.Generics, Params: params, ReturnType: m.ReturnType}
}

func (b *builder) class(c *ast.Class) *Class {
	out := &Class{
		Name:       c.Name,
		Parent:     c.Parent,
		Includes:   c.Includes,
		Implements: c.Implements,
		Generics:   c.Generics,
	}
	for _, iv := range c.IVars {
		out.IVars = append(out.IVars, IVar{Name: iv.Name, Type: iv.Type})
	}
	for _, cv := range c.CVars {
		out.CVars = append(out.CVars, IVar{Name: cv.Name, Type: cv.Type})
	}
	for _, m := range c.Members {
		if !b.keep(m.Visibility) {
			continue
		}
		switch v := m.Decl.(type) {
		case *ast.Function:
			out.Methods = append(out.Methods, b.method(v))
		case *ast.Class:
			out.Classes = append(out.Classes, b.class(v))
		case *ast.Module:
			out.Modules = append(out.Modules, b.module(v))
		}
	}
	return out
}

func (b *builder) module(m *ast.Module) *Module {
	out := &Module{Name: m.Name}
	for _, member := range m.Members {
		if !b.keep(member.Visibility) {
			continue
		}
		switch v := member.Decl.(type) {
		case *ast.Function:
			out.Methods = append(out.Methods, b.method(v))
		case *ast.Class:
			out.Classes = append(out.Classes, b.class(v))
		case *ast.Module:
			out.Modules = append(out.Modules, b.module(v))
		}
	}
	return out
}

func (b *builder) iface(i *ast.Interface) *Interface {
	out := &Interface{Name: i.Name, Generics: i.Generics, Parents: i.Parents}
	for _, m := range i.Methods {
		out.Methods = append(out.Methods, b.methodSig(m))
	}
	return out
}
