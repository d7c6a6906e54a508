// Package ruby implements the runtime-code emitter (spec §4.11): it
// produces the `.rb` file a compiled `.trb` source ships as, under
// either of two strategies.
//
// Strip operates on the original source text and removes only the
// byte ranges that hold type syntax — parameter and return-type
// annotations, ivar/cvar/constant annotations, inline declared-type
// assignments, `.as(T)` assertions, whole `type X = ...` aliases, and
// whole `interface ... end` blocks — so every comment, blank line, and
// piece of original formatting survives untouched. It is the
// emission path for a file the optimizer never touched.
//
// Regenerate instead walks the IR and prints canonical formatting; it
// is used once the optimizer has rewritten a *ast.Program, at which
// point the original source text no longer corresponds to the tree.
//
// Under both strategies, `type` and `interface` declarations produce
// no runtime output: they exist only for the type checker and the
// signature emitters.
package ruby

import (
	"sort"
	"strings"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/lexer"
	"github.com/trb-lang/trbc/typeexpr"
)

// cutRange is a half-open byte range [Start, End) of the source text to
// drop during Strip.
type cutRange struct {
	Start, End int
}

// Strip removes type syntax from source and returns the runtime text,
// preserving every byte outside the cut ranges it finds.
func Strip(file, source string, prog *ast.Program) (string, error) {
	s := &stripper{file: file, source: source}
	for _, d := range prog.Declarations {
		s.decl(d)
	}
	return s.apply(), nil
}

type stripper struct {
	file   string
	source string
	cuts   []cutRange
}

func (s *stripper) cut(start, end int) {
	if end <= start {
		return
	}
	s.cuts = append(s.cuts, cutRange{Start: start, End: end})
}

// apply sorts the collected cuts and copies every byte of source that
// falls outside of them.
func (s *stripper) apply() string {
	sort.Slice(s.cuts, func(i, j int) bool { return s.cuts[i].Start < s.cuts[j].Start })
	var b strings.Builder
	pos := 0
	for _, c := range s.cuts {
		if c.Start < pos {
			continue // overlaps a cut already applied (e.g. nested decl)
		}
		b.WriteString(s.source[pos:c.Start])
		pos = c.End
	}
	if pos < len(s.source) {
		b.WriteString(s.source[pos:])
	}
	return b.String()
}

func (s *stripper) decl(d ast.Declaration) {
	switch v := d.(type) {
	case *ast.Interface:
		s.cut(v.Sp.Start.Offset, v.Sp.End.Offset)
	case *ast.TypeAlias:
		s.cut(v.Sp.Start.Offset, v.Sp.End.Offset)
	case *ast.Function:
		s.function(v)
	case *ast.Constant:
		s.constant(v)
	case *ast.Class:
		s.class(v)
	case *ast.Module:
		for _, m := range v.Members {
			s.decl(m.Decl)
		}
	default:
		if w, ok := d.(statementDecl); ok {
			s.stmt(w.Statement())
		}
	}
}

// statementDecl is implemented by the parser's wrapper around a bare
// top-level statement (used for `require`-like side-effecting calls
// outside any def/class/module). The wrapper type itself is
// unexported; this interface lets emitters reach its payload without
// the parser needing to expose it by name.
type statementDecl interface {
	Statement() ast.Statement
}

func (s *stripper) class(c *ast.Class) {
	s.classHeader(c)
	for _, iv := range c.IVars {
		s.ivar(iv)
	}
	for _, iv := range c.CVars {
		s.ivar(iv)
	}
	for _, m := range c.Members {
		s.decl(m.Decl)
	}
}

// classHeader strips the `implements I1, I2` clause from a class
// declaration's header line, if present. `include M` lines are left
// alone: they are ordinary runtime-meaningful statements, not type
// syntax.
func (s *stripper) classHeader(c *ast.Class) {
	if len(c.Implements) == 0 {
		return
	}
	headerEnd := c.Sp.End.Offset
	switch {
	case len(c.IVars) > 0:
		headerEnd = c.IVars[0].Sp.Start.Offset
	case len(c.CVars) > 0:
		headerEnd = c.CVars[0].Sp.Start.Offset
	case len(c.Members) > 0:
		headerEnd = c.Members[0].Decl.Span().Start.Offset
	}
	region := s.source[c.Sp.Start.Offset:headerEnd]
	idx := strings.Index(region, "implements")
	if idx < 0 {
		return
	}
	start := c.Sp.Start.Offset + idx
	lineEnd := strings.IndexByte(region[idx:], '\n')
	var end int
	if lineEnd < 0 {
		end = headerEnd
	} else {
		end = c.Sp.Start.Offset + idx + lineEnd
	}
	s.cut(start, end)
}

func (s *stripper) function(fn *ast.Function) {
	for _, p := range fn.Params {
		s.param(p)
	}
	if fn.ReturnType != nil {
		searchStart := fn.Sp.Start.Offset
		if n := len(fn.Params); n > 0 {
			searchStart = fn.Params[n-1].Sp.End.Offset
		}
		searchEnd := fn.Sp.End.Offset
		if len(fn.Body) > 0 {
			searchEnd = fn.Body[0].Span().Start.Offset
		}
		if start, end, ok := findMarkedType(s.file, s.source, searchStart, searchEnd, "->", lexer.Operator); ok {
			s.cut(start, end)
		}
	}
	s.stmts(fn.Body)
}

func (s *stripper) param(p ast.Param) {
	if p.Type == nil {
		return
	}
	searchEnd := p.Sp.End.Offset
	if p.Default != nil {
		searchEnd = p.Default.Span().Start.Offset
	}
	if start, end, ok := findMarkedType(s.file, s.source, p.Sp.Start.Offset, searchEnd, ":", lexer.Punct); ok {
		s.cut(start, end)
	}
}

func (s *stripper) ivar(v ast.IVarBinding) {
	if v.Type == nil {
		return
	}
	if start, end, ok := findMarkedType(s.file, s.source, v.Sp.Start.Offset, v.Sp.End.Offset, ":", lexer.Punct); ok {
		s.cut(start, end)
	}
}

func (s *stripper) constant(c *ast.Constant) {
	if c.Type != nil {
		searchEnd := c.Sp.End.Offset
		if c.Initializer != nil {
			searchEnd = c.Initializer.Span().Start.Offset
		}
		if start, end, ok := findMarkedType(s.file, s.source, c.Sp.Start.Offset, searchEnd, ":", lexer.Punct); ok {
			s.cut(start, end)
		}
	}
	if c.Initializer != nil {
		s.expr(c.Initializer)
	}
}

func (s *stripper) stmts(body []ast.Statement) {
	for _, st := range body {
		s.stmt(st)
	}
}

func (s *stripper) stmt(st ast.Statement) {
	switch v := st.(type) {
	case *ast.ExprStmt:
		s.expr(v.Expression)
	case *ast.IfStmt:
		s.expr(v.Condition)
		s.stmts(v.Body)
		for _, ec := range v.ElsifClauses {
			s.expr(ec.Condition)
			s.stmts(ec.Body)
		}
		s.stmts(v.ElseBody)
	case *ast.CaseStmt:
		s.expr(v.Scrutinee)
		for _, w := range v.Whens {
			for _, val := range w.Values {
				s.expr(val)
			}
			s.stmts(w.Body)
		}
		s.stmts(v.ElseBody)
	case *ast.WhileStmt:
		s.expr(v.Condition)
		s.stmts(v.Body)
	case *ast.ReturnStmt:
		if v.Value != nil {
			s.expr(v.Value)
		}
	case *ast.RaiseStmt:
		if v.Exception != nil {
			s.expr(v.Exception)
		}
	}
}

func (s *stripper) expr(e ast.Expr) {
	switch v := e.(type) {
	case *ast.Assignment:
		if v.DeclaredType != nil {
			if start, end, ok := findMarkedType(s.file, s.source, v.Target.Span().End.Offset, v.Value.Span().Start.Offset, ":", lexer.Punct); ok {
				s.cut(start, end)
			}
		}
		s.expr(v.Target)
		s.expr(v.Value)
	case *ast.TypeAssertion:
		s.cut(v.Expression.Span().End.Offset, v.Sp.End.Offset)
		s.expr(v.Expression)
	case *ast.BinaryOp:
		s.expr(v.Left)
		s.expr(v.Right)
	case *ast.UnaryOp:
		s.expr(v.Operand)
	case *ast.MethodCall:
		if v.Receiver != nil {
			s.expr(v.Receiver)
		}
		for _, a := range v.Args {
			s.expr(a)
		}
		for _, kw := range v.KeywordArgs {
			s.expr(kw.Value)
		}
		if v.Block != nil {
			s.stmts(v.Block.Body)
		}
	case *ast.IndexExpr:
		s.expr(v.Object)
		s.expr(v.Index)
	case *ast.DotExpr:
		s.expr(v.Object)
	case *ast.SafeNavigation:
		s.expr(v.Receiver)
		for _, a := range v.Args {
			s.expr(a)
		}
	case *ast.FnExpr:
		s.stmts(v.Body)
	case *ast.Interpolation:
		for _, part := range v.Parts {
			if part.Expr != nil {
				s.expr(part.Expr)
			}
		}
	case *ast.ArrayLiteral:
		for _, el := range v.Elements {
			s.expr(el)
		}
	case *ast.HashLiteral:
		for _, pr := range v.Pairs {
			s.expr(pr.Key)
			if pr.Value != nil {
				s.expr(pr.Value)
			}
		}
	}
}

// tokenCursor adapts a fixed token slice to typeexpr.Cursor.
type tokenCursor struct {
	toks []lexer.Token
	pos  int
}

func (c *tokenCursor) Peek() lexer.Token { return c.PeekAt(0) }
func (c *tokenCursor) PeekAt(n int) lexer.Token {
	i := c.pos + n
	if i < 0 || i >= len(c.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return c.toks[i]
}
func (c *tokenCursor) Advance() lexer.Token {
	t := c.Peek()
	if c.pos < len(c.toks) {
		c.pos++
	}
	return t
}
func (c *tokenCursor) Pos() int     { return c.pos }
func (c *tokenCursor) Seek(pos int) { c.pos = pos }

// findMarkedType re-lexes source[searchStart:searchEnd) looking for the
// first top-level token matching (markText, markKind) — the annotation
// colon or the `->` return-type arrow — and parses exactly one type
// expression immediately after it. It returns the byte range covering
// the marker through the end of the parsed type, so the caller can cut
// it wholesale. Bounding the search to a tight, caller-chosen window
// (never crossing into a default value or a method body) is what keeps
// this safe from matching an unrelated `:` or `->` buried in a nested
// literal.
func findMarkedType(file, source string, searchStart, searchEnd int, markText string, markKind lexer.Kind) (start, end int, ok bool) {
	if searchStart >= searchEnd || searchStart < 0 || searchEnd > len(source) {
		return 0, 0, false
	}
	sub := source[searchStart:searchEnd]
	toks, err := lexer.New(file, sub).Tokenize()
	if err != nil {
		return 0, 0, false
	}
	markIdx := -1
	for i, tk := range toks {
		if tk.Kind == markKind && tk.Text == markText {
			markIdx = i
			break
		}
		if tk.Kind == lexer.Operator && tk.Text == "=" {
			break
		}
	}
	if markIdx < 0 {
		return 0, 0, false
	}
	cur := &tokenCursor{toks: toks, pos: markIdx + 1}
	if _, err := typeexpr.New(cur).ParseType(); err != nil {
		return 0, 0, false
	}
	lastIdx := cur.Pos() - 1
	if lastIdx < markIdx+1 || lastIdx >= len(toks) {
		return 0, 0, false
	}
	start = searchStart + toks[markIdx].Span.Start.Offset
	end = searchStart + toks[lastIdx].Span.End.Offset
	return start, end, true
}
