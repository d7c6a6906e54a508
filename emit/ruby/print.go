package ruby

import (
	"fmt"
	"strings"

	"github.com/trb-lang/trbc/ast"
)

// Regenerate prints prog's runtime-relevant declarations with canonical
// formatting, dropping every piece of type syntax. It is used after the
// optimizer has produced a new *ast.Program, when the original source
// text no longer lines up with the tree closely enough for Strip.
func Regenerate(prog *ast.Program) string {
	p := &printer{}
	for _, d := range prog.Declarations {
		p.decl(d, 0)
	}
	return strings.TrimRight(p.b.String(), "\n") + "\n"
}

type printer struct {
	b strings.Builder
}

func indent(depth int) string { return strings.Repeat("  ", depth) }

func (p *printer) line(depth int, format string, args ...any) {
	fmt.Fprintf(&p.b, "%s%s\n", indent(depth), fmt.Sprintf(format, args...))
}

func (p *printer) decl(d ast.Declaration, depth int) {
	switch v := d.(type) {
	case *ast.Interface, *ast.TypeAlias:
		// No runtime output: types exist only for the checker and the
		// signature emitters.
	case *ast.Function:
		p.function(v, depth)
	case *ast.Constant:
		p.constant(v, depth)
	case *ast.Class:
		p.class(v, depth)
	case *ast.Module:
		p.module(v, depth)
	default:
		if w, ok := d.(statementDecl); ok {
			p.stmt(w.Statement(), depth)
		}
	}
}

func (p *printer) class(c *ast.Class, depth int) {
	header := "class " + c.Name
	if c.Parent != "" {
		header += " < " + c.Parent
	}
	p.line(depth, "%s", header)
	for _, inc := range c.Includes {
		p.line(depth+1, "include %s", inc)
	}
	lastVis := ast.Public
	for _, m := range c.Members {
		if m.Visibility != lastVis {
			p.line(depth+1, "%s", visKeyword(m.Visibility))
			lastVis = m.Visibility
		}
		p.decl(m.Decl, depth+1)
	}
	p.line(depth, "end")
}

func (p *printer) module(m *ast.Module, depth int) {
	p.line(depth, "module %s", m.Name)
	lastVis := ast.Public
	for _, mem := range m.Members {
		if mem.Visibility != lastVis {
			p.line(depth+1, "%s", visKeyword(mem.Visibility))
			lastVis = mem.Visibility
		}
		p.decl(mem.Decl, depth+1)
	}
	p.line(depth, "end")
}

func visKeyword(v ast.Visibility) string {
	switch v {
	case ast.Protected:
		return "protected"
	case ast.Private:
		return "private"
	default:
		return "public"
	}
}

func (p *printer) constant(c *ast.Constant, depth int) {
	if c.Initializer == nil {
		p.line(depth, "%s", c.Name)
		return
	}
	p.line(depth, "%s = %s", c.Name, printExpr(c.Initializer))
}

func (p *printer) function(fn *ast.Function, depth int) {
	params := make([]string, len(fn.Params))
	for i, prm := range fn.Params {
		params[i] = printParam(prm)
	}
	p.line(depth, "def %s(%s)", fn.Name, strings.Join(params, ", "))
	for _, st := range fn.Body {
		p.stmt(st, depth+1)
	}
	p.line(depth, "end")
}

func printParam(prm ast.Param) string {
	prefix := ""
	switch prm.Kind {
	case ast.ParamSplat:
		prefix = "*"
	case ast.ParamDoubleSplat:
		prefix = "**"
	case ast.ParamBlock:
		prefix = "&"
	}
	if prm.Kind == ast.ParamKeyword || prm.Kind == ast.ParamOptionalKeyword {
		if prm.Default != nil {
			return prm.Name + ": " + printExpr(prm.Default)
		}
		return prm.Name + ":"
	}
	name := prefix + prm.Name
	if prm.Default != nil {
		return name + " = " + printExpr(prm.Default)
	}
	return name
}

func (p *printer) stmt(st ast.Statement, depth int) {
	switch v := st.(type) {
	case *ast.ExprStmt:
		p.line(depth, "%s", printExpr(v.Expression))
	case *ast.IfStmt:
		kw := "if"
		if v.Negated {
			kw = "unless"
		}
		p.line(depth, "%s %s", kw, printExpr(v.Condition))
		for _, s := range v.Body {
			p.stmt(s, depth+1)
		}
		for _, ec := range v.ElsifClauses {
			p.line(depth, "elsif %s", printExpr(ec.Condition))
			for _, s := range ec.Body {
				p.stmt(s, depth+1)
			}
		}
		if len(v.ElseBody) > 0 {
			p.line(depth, "else")
			for _, s := range v.ElseBody {
				p.stmt(s, depth+1)
			}
		}
		p.line(depth, "end")
	case *ast.CaseStmt:
		p.line(depth, "case %s", printExpr(v.Scrutinee))
		for _, w := range v.Whens {
			vals := make([]string, len(w.Values))
			for i, val := range w.Values {
				vals[i] = printExpr(val)
			}
			p.line(depth, "when %s", strings.Join(vals, ", "))
			for _, s := range w.Body {
				p.stmt(s, depth+1)
			}
		}
		if len(v.ElseBody) > 0 {
			p.line(depth, "else")
			for _, s := range v.ElseBody {
				p.stmt(s, depth+1)
			}
		}
		p.line(depth, "end")
	case *ast.WhileStmt:
		kw := "while"
		if v.Negated {
			kw = "until"
		}
		p.line(depth, "%s %s", kw, printExpr(v.Condition))
		for _, s := range v.Body {
			p.stmt(s, depth+1)
		}
		p.line(depth, "end")
	case *ast.ReturnStmt:
		if v.Value == nil {
			p.line(depth, "return")
		} else {
			p.line(depth, "return %s", printExpr(v.Value))
		}
	case *ast.RaiseStmt:
		p.line(depth, "raise %s", printExpr(v.Exception))
	}
}

// printExpr renders one expression on a single line, dropping
// TypeAssertion and DeclaredType annotations entirely: they are
// compile-time-only sugar with no runtime counterpart.
func printExpr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Literal:
		return v.Value
	case *ast.VariableRef:
		return printVarRef(v)
	case *ast.Assignment:
		return printExpr(v.Target) + " = " + printExpr(v.Value)
	case *ast.BinaryOp:
		return printExpr(v.Left) + " " + v.Op + " " + printExpr(v.Right)
	case *ast.UnaryOp:
		return v.Op + printExpr(v.Operand)
	case *ast.MethodCall:
		return printMethodCall(v)
	case *ast.IndexExpr:
		return printExpr(v.Object) + "[" + printExpr(v.Index) + "]"
	case *ast.DotExpr:
		return printExpr(v.Object) + "." + v.Field
	case *ast.SafeNavigation:
		return printExpr(v.Receiver) + "&." + v.Method + "(" + joinExprs(v.Args) + ")"
	case *ast.FnExpr:
		return printFnExpr(v)
	case *ast.Interpolation:
		return printInterpolation(v)
	case *ast.ArrayLiteral:
		return "[" + joinExprs(v.Elements) + "]"
	case *ast.HashLiteral:
		return printHashLiteral(v)
	case *ast.TypeAssertion:
		return printExpr(v.Expression)
	case *ast.RawExpr:
		return v.Source
	default:
		return ""
	}
}

func printVarRef(v *ast.VariableRef) string {
	switch v.Scope {
	case ast.ScopeInstance:
		return "@" + v.Name
	case ast.ScopeClass:
		return "@@" + v.Name
	case ast.ScopeGlobal:
		return "$" + v.Name
	default:
		return v.Name
	}
}

func printMethodCall(v *ast.MethodCall) string {
	var b strings.Builder
	if v.Receiver != nil {
		b.WriteString(printExpr(v.Receiver))
		b.WriteString(".")
	}
	b.WriteString(v.Method)
	if len(v.Args) > 0 || len(v.KeywordArgs) > 0 {
		b.WriteString("(")
		parts := make([]string, 0, len(v.Args)+len(v.KeywordArgs))
		for _, a := range v.Args {
			parts = append(parts, printExpr(a))
		}
		for _, kw := range v.KeywordArgs {
			parts = append(parts, kw.Name+": "+printExpr(kw.Value))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	if v.Block != nil {
		b.WriteString(" ")
		b.WriteString(printBlock(v.Block))
	}
	return b.String()
}

func printBlock(blk *ast.BlockArg) string {
	var b strings.Builder
	b.WriteString("do")
	if len(blk.Params) > 0 {
		names := make([]string, len(blk.Params))
		for i, p := range blk.Params {
			names[i] = p.Name
		}
		b.WriteString(" |" + strings.Join(names, ", ") + "|")
	}
	b.WriteString("\n")
	inner := &printer{}
	for _, s := range blk.Body {
		inner.stmt(s, 1)
	}
	b.WriteString(inner.b.String())
	b.WriteString("end")
	return b.String()
}

func printFnExpr(v *ast.FnExpr) string {
	names := make([]string, len(v.Params))
	for i, p := range v.Params {
		names[i] = p.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "->(%s) {\n", strings.Join(names, ", "))
	inner := &printer{}
	for _, s := range v.Body {
		inner.stmt(s, 1)
	}
	b.WriteString(inner.b.String())
	b.WriteString("}")
	return b.String()
}

func printInterpolation(v *ast.Interpolation) string {
	var b strings.Builder
	b.WriteString(`"`)
	for _, part := range v.Parts {
		if part.Expr != nil {
			b.WriteString("#{" + printExpr(part.Expr) + "}")
		} else {
			b.WriteString(part.Str)
		}
	}
	b.WriteString(`"`)
	return b.String()
}

func printHashLiteral(v *ast.HashLiteral) string {
	parts := make([]string, len(v.Pairs))
	for i, pr := range v.Pairs {
		parts[i] = printExpr(pr.Key) + " => " + printExpr(pr.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func joinExprs(es []ast.Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = printExpr(e)
	}
	return strings.Join(parts, ", ")
}
