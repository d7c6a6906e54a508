package parser

import (
	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/lexer"
)

// parseTopLevel recognizes the handful of forms the grammar allows at
// file scope and inside class/module bodies: def, class, module,
// interface, type, a constant assignment, or a bare statement (spec
// §4.3). Returns nil (with a recorded error) if nothing recognizable
// starts here.
func (p *Parser) parseTopLevel() ast.Declaration {
	switch {
	case p.atKeyword("def"):
		return p.parseFunction(ast.Public)
	case p.atKeyword("class"):
		return p.parseClass()
	case p.atKeyword("module"):
		return p.parseModule()
	case p.atKeyword("interface"):
		return p.parseInterface()
	case p.atKeyword("type"):
		return p.parseTypeAlias()
	case p.atConstantAssignment():
		return p.parseConstant(ast.Public)
	default:
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		return &topLevelStmt{stmt: stmt}
	}
}

// topLevelStmt adapts a bare top-level statement (an expression used for
// side effects, e.g. a require-like call) to the Declaration interface so
// it can sit in Program.Declarations alongside named declarations; it is
// never indexed by name and the emitters print its wrapped statement
// directly.
type topLevelStmt struct {
	ast.Base
	stmt ast.Statement
}

func (*topLevelStmt) node()              {}
func (*topLevelStmt) decl()              {}
func (*topLevelStmt) DeclName() string   { return "" }
func (t *topLevelStmt) Statement() ast.Statement { return t.stmt }

// atConstantAssignment looks ahead for `UPPER_NAME [: Type] =` without
// consuming, the only top-level form that isn't introduced by a keyword.
func (p *Parser) atConstantAssignment() bool {
	tok := p.Peek()
	if tok.Kind != lexer.Ident || !isConstantName(tok.Text) {
		return false
	}
	i := 1
	if p.PeekAt(i).Kind == lexer.Punct && p.PeekAt(i).Text == ":" {
		// skip a type annotation of arbitrary length up to '='
		depth := 0
		i++
		for {
			t := p.PeekAt(i)
			if t.Kind == lexer.EOF || t.Kind == lexer.Newline {
				return false
			}
			if t.Kind == lexer.Operator && t.Text == "<" {
				depth++
			}
			if t.Kind == lexer.Operator && t.Text == ">" {
				depth--
			}
			if depth == 0 && t.Kind == lexer.Operator && t.Text == "=" {
				return true
			}
			i++
			if i > 512 {
				return false
			}
		}
	}
	return p.PeekAt(i).Kind == lexer.Operator && p.PeekAt(i).Text == "="
}

func isConstantName(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}

func (p *Parser) parseConstant(vis ast.Visibility) *ast.Constant {
	start := p.Peek().Span.Start
	name := p.Advance().Text
	c := &ast.Constant{Name: name, Visibility: vis}
	if p.expectPunct(":") {
		t, err := p.typeParser().ParseType()
		if err != nil {
			p.errors = append(p.errors, err)
		}
		c.Type = t
	}
	if p.atOperator("=") {
		p.Advance()
		c.Initializer = p.parseExpr()
	}
	c.Sp = p.spanFrom(start)
	return c
}

// parseGenerics is a thin wrapper converting a typeexpr error into a
// recorded parser error, keeping callers terse.
func (p *Parser) parseGenerics() []ast.GenericParam {
	g, err := p.typeParser().ParseGenericParams()
	if err != nil {
		p.errf(p.Peek().Span, "%s", err.Error())
		return nil
	}
	return g
}

// parseFunction parses `def name[<generics>](params) [-> Return]` then a
// body terminated by `end`.
func (p *Parser) parseFunction(vis ast.Visibility) *ast.Function {
	start := p.Peek().Span.Start
	p.Advance() // 'def'
	nameTok := p.Peek()
	name := p.parseMethodName()
	fn := &ast.Function{Name: name, Visibility: vis}
	fn.Generics = p.parseGenerics()
	fn.Params = p.parseParamList()
	if p.atOperator("->") {
		p.Advance()
		t, err := p.typeParser().ParseType()
		if err != nil {
			p.errors = append(p.errors, err)
		}
		fn.ReturnType = t
	} else if p.mode == ModeStrict && name != "initialize" {
		p.errf(nameTok.Span, "function %q is missing a return type annotation", name)
	}
	p.skipNewlines()
	fn.Body = p.parseBlockUntil("end")
	p.expectKeyword("end")
	fn.Sp = p.spanFrom(start)
	return fn
}

// parseMethodName accepts an ordinary identifier or one of the operator
// method names (`+`, `==`, `[]`, `[]=`, ...) that trb allows overloading.
func (p *Parser) parseMethodName() string {
	tok := p.Peek()
	if tok.Kind == lexer.Ident {
		p.Advance()
		return tok.Text
	}
	if tok.Kind == lexer.Operator || (tok.Kind == lexer.Punct && tok.Text == "[") {
		name := tok.Text
		p.Advance()
		if name == "[" && p.atPunct("]") {
			p.Advance()
			name = "[]"
			if p.atOperator("=") {
				p.Advance()
				name = "[]="
			}
		}
		return name
	}
	p.errf(tok.Span, "expected method name, got %q", tok.Text)
	return tok.Text
}

// parseParamList parses `(` a comma-separated parameter list `)`.
// Parameters tolerate a missing type annotation only in permissive mode
// (spec §4.3); a `*` prefix marks a splat, `**` a double-splat, `&` a
// block parameter. `name: Type` is a typed positional parameter and a
// trailing `= default` makes it optional positional; no parameter form
// produces ast.ParamKeyword or ast.ParamOptionalKeyword.
func (p *Parser) parseParamList() []ast.Param {
	if !p.expectPunct("(") {
		return nil
	}
	var params []ast.Param
	for !p.atPunct(")") {
		params = append(params, p.parseParam())
		if p.atPunct(",") {
			p.Advance()
			continue
		}
		break
	}
	p.expectPunct(")")
	return params
}

func (p *Parser) parseParam() ast.Param {
	start := p.Peek().Span.Start
	kind := ast.ParamPositional
	switch {
	case p.atOperator("**"):
		p.Advance()
		kind = ast.ParamDoubleSplat
	case p.atOperator("*"):
		p.Advance()
		kind = ast.ParamSplat
	case p.atOperator("&"):
		p.Advance()
		kind = ast.ParamBlock
	}
	nameTok := p.Peek()
	name := nameTok.Text
	if nameTok.Kind == lexer.Ident {
		p.Advance()
	} else {
		p.errf(nameTok.Span, "expected parameter name, got %q", nameTok.Text)
	}

	if p.atPunct(":") && kind == ast.ParamPositional {
		p.Advance()
		t, err := p.typeParser().ParseType()
		if err != nil {
			p.errors = append(p.errors, err)
		}
		param := ast.Param{Name: name, Type: t, Kind: kind}
		if p.atOperator("=") {
			p.Advance()
			param.Default = p.parseExpr()
			if kind == ast.ParamPositional {
				param.Kind = ast.ParamOptionalPositional
			}
		}
		param.Sp = p.spanFrom(start)
		return param
	}
	if p.atOperator("=") {
		p.Advance()
		def := p.parseExpr()
		if p.mode != ModePermissive {
			p.errf(nameTok.Span, "parameter %q is missing a type annotation", name)
		}
		k := ast.ParamOptionalPositional
		if kind != ast.ParamPositional {
			k = kind
		}
		return ast.Param{Base: ast.Base{Sp: p.spanFrom(start)}, Name: name, Default: def, Kind: k}
	}
	if p.mode != ModePermissive && kind != ast.ParamBlock {
		p.errf(nameTok.Span, "parameter %q is missing a type annotation", name)
	}
	return ast.Param{Base: ast.Base{Sp: p.spanFrom(start)}, Name: name, Kind: kind}
}

// parseBlockUntil parses statements until the next token is one of the
// given terminators, a keyword such as `end` or the `}` punctuation that
// closes a brace block (without consuming the terminator), skipping
// blank lines between statements.
func (p *Parser) parseBlockUntil(terminators ...string) []ast.Statement {
	var body []ast.Statement
	p.skipNewlines()
	for {
		if p.Peek().Kind == lexer.EOF {
			break
		}
		stop := false
		for _, t := range terminators {
			if p.atKeyword(t) || p.atPunct(t) {
				stop = true
				break
			}
		}
		if stop {
			break
		}
		stmt := p.parseStatement()
		if stmt == nil {
			// Parse failure: advance one token to avoid looping forever.
			if p.Peek().Kind == lexer.EOF {
				break
			}
			p.Advance()
			continue
		}
		body = append(body, stmt)
		p.skipNewlines()
	}
	return body
}

func (p *Parser) parseVisibilityBlock() ast.Visibility {
	switch {
	case p.atIdent() && p.Peek().Text == "private":
		p.Advance()
		return ast.Private
	case p.atIdent() && p.Peek().Text == "protected":
		p.Advance()
		return ast.Protected
	case p.atIdent() && p.Peek().Text == "public":
		p.Advance()
		return ast.Public
	}
	return -1 // sentinel: not a visibility marker
}

// parseClass parses `class Name[<generics>] [< Parent] [include M]*
// [implements I]*` a body of ivar/cvar bindings and members, then `end`.
func (p *Parser) parseClass() *ast.Class {
	start := p.Peek().Span.Start
	p.Advance() // 'class'
	name := p.Advance().Text
	c := &ast.Class{Name: name, Visibility: ast.Public}
	c.Generics = p.parseGenerics()
	if p.atOperator("<") {
		p.Advance()
		c.Parent = p.Advance().Text
	}
	p.skipNewlines()

	curVis := ast.Public
	for !p.atKeyword("end") && p.Peek().Kind != lexer.EOF {
		if p.atKeyword("include") {
			p.Advance()
			c.Includes = append(c.Includes, p.Advance().Text)
			p.skipNewlines()
			continue
		}
		if p.atKeyword("implements") {
			p.Advance()
			c.Implements = append(c.Implements, p.Advance().Text)
			for p.atPunct(",") {
				p.Advance()
				c.Implements = append(c.Implements, p.Advance().Text)
			}
			p.skipNewlines()
			continue
		}
		if v := p.parseVisibilityBlock(); v != -1 {
			curVis = v
			p.skipNewlines()
			continue
		}
		if p.atOperator("@") && p.PeekAt(1).Kind == lexer.Operator && p.PeekAt(1).Text == "@" {
			c.CVars = append(c.CVars, p.parseIVarBinding(true))
			p.skipNewlines()
			continue
		}
		if p.atOperator("@") {
			c.IVars = append(c.IVars, p.parseIVarBinding(false))
			p.skipNewlines()
			continue
		}
		if p.atKeyword("def") {
			fn := p.parseFunction(curVis)
			c.Members = append(c.Members, ast.Member{Decl: fn, Visibility: curVis})
			p.skipNewlines()
			continue
		}
		if p.atConstantAssignment() {
			ct := p.parseConstant(curVis)
			c.Members = append(c.Members, ast.Member{Decl: ct, Visibility: curVis})
			p.skipNewlines()
			continue
		}
		if p.atKeyword("class") {
			nested := p.parseClass()
			c.Members = append(c.Members, ast.Member{Decl: nested, Visibility: curVis})
			p.skipNewlines()
			continue
		}
		if p.atKeyword("module") {
			nested := p.parseModule()
			c.Members = append(c.Members, ast.Member{Decl: nested, Visibility: curVis})
			p.skipNewlines()
			continue
		}
		// Unknown member form: skip the token to avoid an infinite loop.
		p.errf(p.Peek().Span, "unexpected token %q inside class %q", p.Peek().Text, name)
		p.Advance()
	}
	p.expectKeyword("end")
	c.Sp = p.spanFrom(start)
	return c
}

// parseIVarBinding parses `@name: Type` or `@@name: Type`.
func (p *Parser) parseIVarBinding(class bool) ast.IVarBinding {
	start := p.Peek().Span.Start
	p.Advance() // '@'
	if class {
		p.Advance() // second '@'
	}
	name := p.Advance().Text
	b := ast.IVarBinding{Name: name}
	if p.expectPunct(":") {
		t, err := p.typeParser().ParseType()
		if err != nil {
			p.errors = append(p.errors, err)
		}
		b.Type = t
	}
	b.Sp = p.spanFrom(start)
	return b
}

// parseModule parses `module Name` a body of nested declarations, `end`.
func (p *Parser) parseModule() *ast.Module {
	start := p.Peek().Span.Start
	p.Advance() // 'module'
	name := p.Advance().Text
	m := &ast.Module{Name: name, Visibility: ast.Public}
	p.skipNewlines()
	curVis := ast.Public
	for !p.atKeyword("end") && p.Peek().Kind != lexer.EOF {
		if v := p.parseVisibilityBlock(); v != -1 {
			curVis = v
			p.skipNewlines()
			continue
		}
		if p.atKeyword("def") {
			fn := p.parseFunction(curVis)
			m.Members = append(m.Members, ast.Member{Decl: fn, Visibility: curVis})
			p.skipNewlines()
			continue
		}
		if p.atKeyword("class") {
			nested := p.parseClass()
			m.Members = append(m.Members, ast.Member{Decl: nested, Visibility: curVis})
			p.skipNewlines()
			continue
		}
		if p.atKeyword("module") {
			nested := p.parseModule()
			m.Members = append(m.Members, ast.Member{Decl: nested, Visibility: curVis})
			p.skipNewlines()
			continue
		}
		if p.atConstantAssignment() {
			ct := p.parseConstant(curVis)
			m.Members = append(m.Members, ast.Member{Decl: ct, Visibility: curVis})
			p.skipNewlines()
			continue
		}
		p.errf(p.Peek().Span, "unexpected token %q inside module %q", p.Peek().Text, name)
		p.Advance()
	}
	p.expectKeyword("end")
	m.Sp = p.spanFrom(start)
	return m
}

// parseInterface parses `interface Name[<generics>] [< Parent, ...]` a
// list of method signatures (no bodies), `end`.
func (p *Parser) parseInterface() *ast.Interface {
	start := p.Peek().Span.Start
	p.Advance() // 'interface'
	name := p.Advance().Text
	i := &ast.Interface{Name: name, Visibility: ast.Public}
	i.Generics = p.parseGenerics()
	if p.atOperator("<") {
		p.Advance()
		i.Parents = append(i.Parents, p.Advance().Text)
		for p.atPunct(",") {
			p.Advance()
			i.Parents = append(i.Parents, p.Advance().Text)
		}
	}
	p.skipNewlines()
	for !p.atKeyword("end") && p.Peek().Kind != lexer.EOF {
		if !p.atKeyword("def") {
			p.errf(p.Peek().Span, "expected method signature inside interface %q", name)
			p.Advance()
			continue
		}
		i.Methods = append(i.Methods, p.parseMethodSig())
		p.skipNewlines()
	}
	p.expectKeyword("end")
	i.Sp = p.spanFrom(start)
	return i
}

func (p *Parser) parseMethodSig() ast.MethodSig {
	start := p.Peek().Span.Start
	p.Advance() // 'def'
	name := p.parseMethodName()
	sig := ast.MethodSig{Name: name}
	sig.Generics = p.parseGenerics()
	sig.Params = p.parseParamList()
	if p.atOperator("->") {
		p.Advance()
		t, err := p.typeParser().ParseType()
		if err != nil {
			p.errors = append(p.errors, err)
		}
		sig.ReturnType = t
	} else {
		p.errf(p.Peek().Span, "interface method %q is missing a return type annotation", name)
	}
	sig.Sp = p.spanFrom(start)
	return sig
}

// parseTypeAlias parses `type Name[<generics>] = TypeExpr`.
func (p *Parser) parseTypeAlias() *ast.TypeAlias {
	start := p.Peek().Span.Start
	p.Advance() // 'type'
	name := p.Advance().Text
	ta := &ast.TypeAlias{Name: name}
	ta.Generics = p.parseGenerics()
	if !p.expectPunct("=") {
		if !p.atOperator("=") {
			p.errf(p.Peek().Span, "expected '=' in type alias %q", name)
		} else {
			p.Advance()
		}
	}
	t, err := p.typeParser().ParseType()
	if err != nil {
		p.errors = append(p.errors, err)
	}
	ta.Target = t
	ta.Sp = p.spanFrom(start)
	return ta
}
