package parser

import (
	"strconv"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/lexer"
)

// binaryPrecedence orders operators lowest to highest; operators missing
// from the table are not binary infix operators at statement level.
var binaryPrecedence = map[string]int{
	"or": 1, "and": 2,
	"||": 3, "&&": 4,
	"==": 5, "!=": 5, "<=>": 5, "===": 5,
	"<": 6, ">": 6, "<=": 6, ">=": 6,
	"|": 7, "&": 7,
	"+": 8, "-": 8,
	"*": 9, "/": 9, "%": 9,
	"**": 10,
}

var rightAssoc = map[string]bool{"**": true}

// assignOps are the compound-assignment spellings the lexer produces as
// single Operator tokens; each lowers to `target = target OP value`.
var assignOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"**=": "**", "&&=": "&&", "||=": "||",
}

// parseStatement parses one statement, including the control-flow forms
// that are statements rather than expressions (spec §4.4). A bare
// expression statement is wrapped in ExprStmt.
func (p *Parser) parseStatement() ast.Statement {
	switch {
	case p.atKeyword("if"), p.atKeyword("unless"):
		return p.parseIf()
	case p.atKeyword("case"):
		return p.parseCase()
	case p.atKeyword("while"), p.atKeyword("until"):
		return p.parseWhile()
	case p.atKeyword("return"):
		return p.parseReturn()
	case p.atKeyword("raise"):
		return p.parseRaise()
	}
	start := p.Peek().Span.Start
	e := p.parseExpr()
	if e == nil {
		return nil
	}
	return &ast.ExprStmt{Base: ast.Base{Sp: p.spanFrom(start)}, Expression: e}
}

// parseReturn parses `return [expr]`.
func (p *Parser) parseReturn() *ast.ReturnStmt {
	start := p.Peek().Span.Start
	p.Advance()
	r := &ast.ReturnStmt{}
	if !p.atStatementEnd() {
		r.Value = p.parseExpr()
	}
	r.Sp = p.spanFrom(start)
	return r
}

// parseRaise parses `raise expr`.
func (p *Parser) parseRaise() *ast.RaiseStmt {
	start := p.Peek().Span.Start
	p.Advance()
	r := &ast.RaiseStmt{}
	if !p.atStatementEnd() {
		r.Exception = p.parseExpr()
	}
	r.Sp = p.spanFrom(start)
	return r
}

func (p *Parser) atStatementEnd() bool {
	k := p.Peek().Kind
	if k == lexer.Newline || k == lexer.EOF {
		return true
	}
	return p.atKeyword("end") || p.atKeyword("else") || p.atKeyword("elsif") || p.atKeyword("when")
}

// parseIf parses `if/unless cond [then]? body [elsif cond body]* [else body] end`.
func (p *Parser) parseIf() *ast.IfStmt {
	start := p.Peek().Span.Start
	negated := p.atKeyword("unless")
	p.Advance() // 'if' or 'unless'
	cond := p.parseExpr()
	p.expectKeyword("then")
	p.skipNewlines()
	stmt := &ast.IfStmt{Negated: negated, Condition: cond}
	stmt.Body = p.parseBlockUntil("elsif", "else", "end")
	for p.atKeyword("elsif") {
		p.Advance()
		ec := ast.ElsifClause{Condition: p.parseExpr()}
		p.expectKeyword("then")
		p.skipNewlines()
		ec.Body = p.parseBlockUntil("elsif", "else", "end")
		stmt.ElsifClauses = append(stmt.ElsifClauses, ec)
	}
	if p.atKeyword("else") {
		p.Advance()
		p.skipNewlines()
		stmt.ElseBody = p.parseBlockUntil("end")
	}
	p.expectKeyword("end")
	stmt.Sp = p.spanFrom(start)
	return stmt
}

// parseCase parses `case scrutinee when v1, v2 body [when ...]* [else body] end`.
func (p *Parser) parseCase() *ast.CaseStmt {
	start := p.Peek().Span.Start
	p.Advance() // 'case'
	stmt := &ast.CaseStmt{Scrutinee: p.parseExpr()}
	p.skipNewlines()
	for p.atKeyword("when") {
		p.Advance()
		wc := ast.WhenClause{}
		wc.Values = append(wc.Values, p.parseExpr())
		for p.atPunct(",") {
			p.Advance()
			wc.Values = append(wc.Values, p.parseExpr())
		}
		p.expectKeyword("then")
		p.skipNewlines()
		wc.Body = p.parseBlockUntil("when", "else", "end")
		stmt.Whens = append(stmt.Whens, wc)
	}
	if p.atKeyword("else") {
		p.Advance()
		p.skipNewlines()
		stmt.ElseBody = p.parseBlockUntil("end")
	}
	p.expectKeyword("end")
	stmt.Sp = p.spanFrom(start)
	return stmt
}

// parseWhile parses `while/until cond body end`.
func (p *Parser) parseWhile() *ast.WhileStmt {
	start := p.Peek().Span.Start
	negated := p.atKeyword("until")
	p.Advance() // 'while' or 'until'
	cond := p.parseExpr()
	p.expectKeyword("do")
	p.skipNewlines()
	stmt := &ast.WhileStmt{Negated: negated, Condition: cond}
	stmt.Body = p.parseBlockUntil("end")
	p.expectKeyword("end")
	stmt.Sp = p.spanFrom(start)
	return stmt
}

// parseExpr is the precedence-climbing entry point, starting below
// assignment (the lowest-binding form: assignment is right-associative
// and sits below every binary operator).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	start := p.Peek().Span.Start
	left := p.parseBinary(0)
	if left == nil {
		return nil
	}
	if ref, ok := left.(*ast.VariableRef); ok && ref.Scope == ast.ScopeLocal && p.atPunct(":") {
		mark := p.Pos()
		p.Advance()
		declared, err := p.typeParser().ParseType()
		if err == nil && p.atOperator("=") {
			p.Advance()
			value := p.parseAssignment()
			a := &ast.Assignment{Target: left, Value: value, DeclaredType: declared}
			a.Sp = p.spanFrom(start)
			return a
		}
		p.Seek(mark)
	}
	if p.atOperator("=") && isAssignable(left) {
		p.Advance()
		value := p.parseAssignment()
		a := &ast.Assignment{Target: left, Value: value}
		a.Sp = p.spanFrom(start)
		return a
	}
	if tok := p.Peek(); tok.Kind == lexer.Operator {
		if base, ok := assignOps[tok.Text]; ok && isAssignable(left) {
			p.Advance()
			rhs := p.parseAssignment()
			bin := &ast.BinaryOp{Op: base, Left: left, Right: rhs}
			bin.Sp = p.spanFrom(start)
			a := &ast.Assignment{Target: left, Value: bin}
			a.Sp = p.spanFrom(start)
			return a
		}
	}
	return left
}

func isAssignable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.VariableRef, *ast.IndexExpr, *ast.DotExpr:
		return true
	default:
		return false
	}
}

// parseBinary implements precedence climbing over binaryPrecedence.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	start := p.Peek().Span.Start
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		opTok := p.Peek()
		var opText string
		switch opTok.Kind {
		case lexer.Operator:
			opText = opTok.Text
		case lexer.Keyword:
			if opTok.Text == "and" || opTok.Text == "or" {
				opText = opTok.Text
			}
		}
		prec, ok := binaryPrecedence[opText]
		if !ok || prec < minPrec {
			return left
		}
		p.Advance()
		nextMin := prec + 1
		if rightAssoc[opText] {
			nextMin = prec
		}
		right := p.parseBinary(nextMin)
		op := &ast.BinaryOp{Op: opText, Left: left, Right: right}
		op.Sp = p.spanFrom(start)
		left = op
	}
}

// parseUnary handles prefix `-`, `!`/`not`, and the `as`/`:` type
// assertion suffix.
func (p *Parser) parseUnary() ast.Expr {
	start := p.Peek().Span.Start
	if p.atOperator("-") || p.atOperator("!") || p.atKeyword("not") {
		op := p.Advance().Text
		operand := p.parseUnary()
		u := &ast.UnaryOp{Op: op, Operand: operand}
		u.Sp = p.spanFrom(start)
		return u
	}
	return p.parsePostfix()
}

// parsePostfix parses an atom followed by zero or more `.method(args)`,
// `&.method(args)`, `[index]`, or trailing block (`do...end` / `{...}`).
func (p *Parser) parsePostfix() ast.Expr {
	start := p.Peek().Span.Start
	e := p.parseAtom()
	for {
		switch {
		case p.atOperator("&."), p.atOperator("?."):
			p.Advance()
			method := p.Advance().Text
			var args []ast.Expr
			if p.atPunct("(") {
				args = p.parseArgList()
			}
			sn := &ast.SafeNavigation{Receiver: e, Method: method, Args: args}
			sn.Sp = p.spanFrom(start)
			e = sn

		case p.atPunct(".") && p.PeekAt(1).Kind == lexer.Ident && p.PeekAt(1).Text == "as" && p.PeekAt(2).Kind == lexer.Punct && p.PeekAt(2).Text == "(":
			p.Advance() // '.'
			p.Advance() // 'as'
			p.Advance() // '('
			target, err := p.typeParser().ParseType()
			if err != nil {
				p.errors = append(p.errors, err)
			}
			p.expectPunct(")")
			ta := &ast.TypeAssertion{Expression: e, Target: target}
			ta.Sp = p.spanFrom(start)
			e = ta

		case p.atPunct("."):
			p.Advance()
			name := p.Advance().Text
			if p.atPunct("(") {
				args, kwargs := p.parseCallArgs()
				mc := &ast.MethodCall{Receiver: e, Method: name, Args: args, KeywordArgs: kwargs}
				mc.Block = p.tryParseBlock()
				mc.Sp = p.spanFrom(start)
				e = mc
			} else if blk := p.tryParseBlock(); blk != nil {
				mc := &ast.MethodCall{Receiver: e, Method: name, Block: blk}
				mc.Sp = p.spanFrom(start)
				e = mc
			} else {
				d := &ast.DotExpr{Object: e, Field: name}
				d.Sp = p.spanFrom(start)
				e = d
			}

		case p.atPunct("["):
			p.Advance()
			idx := p.parseExpr()
			p.expectPunct("]")
			ix := &ast.IndexExpr{Object: e, Index: idx}
			ix.Sp = p.spanFrom(start)
			e = ix

		default:
			return e
		}
	}
}

// parseArgList parses a parenthesized positional-only argument list
// (used after &. where keyword args are rare in practice but still
// tolerated by falling back through parseCallArgs when called directly).
func (p *Parser) parseArgList() []ast.Expr {
	args, _ := p.parseCallArgs()
	return args
}

// parseCallArgs parses `(arg1, arg2, name: value, ...)`.
func (p *Parser) parseCallArgs() ([]ast.Expr, []ast.KeywordArg) {
	p.expectPunct("(")
	var args []ast.Expr
	var kwargs []ast.KeywordArg
	for !p.atPunct(")") {
		if p.atIdent() && p.PeekAt(1).Kind == lexer.Punct && p.PeekAt(1).Text == ":" {
			name := p.Advance().Text
			p.Advance() // ':'
			kwargs = append(kwargs, ast.KeywordArg{Name: name, Value: p.parseExpr()})
		} else {
			args = append(args, p.parseExpr())
		}
		if p.atPunct(",") {
			p.Advance()
			continue
		}
		break
	}
	p.expectPunct(")")
	return args, kwargs
}

// tryParseBlock parses an optional `do [|params|] ... end` or
// `{ [|params|] ... }` block trailing a call.
func (p *Parser) tryParseBlock() *ast.BlockArg {
	if p.atKeyword("do") {
		p.Advance()
		blk := &ast.BlockArg{}
		if p.atOperator("|") {
			blk.Params = p.parseBlockParams()
		}
		p.skipNewlines()
		blk.Body = p.parseBlockUntil("end")
		p.expectKeyword("end")
		return blk
	}
	if p.atPunct("{") {
		p.Advance()
		blk := &ast.BlockArg{}
		if p.atOperator("|") {
			blk.Params = p.parseBlockParams()
		}
		p.skipNewlines()
		blk.Body = p.parseBlockUntil("}")
		p.expectPunct("}")
		return blk
	}
	return nil
}

func (p *Parser) parseBlockParams() []ast.Param {
	p.Advance() // '|'
	var params []ast.Param
	for !p.atOperator("|") {
		params = append(params, p.parseParam())
		if p.atPunct(",") {
			p.Advance()
			continue
		}
		break
	}
	p.Advance() // closing '|'
	return params
}

// parseAtom parses the leaves of the expression grammar: literals,
// identifiers (variable refs, bare calls, instance/class vars), grouped
// expressions, array/hash literals, and lambda literals. Any token it
// cannot classify becomes an ast.RawExpr spanning the single token, per
// the body parser's tolerance contract (spec §4.4) — higher-level
// constructs that fail to parse bubble up as RawExpr from their own call
// sites instead, so this is the last-resort fallback for a single
// unrecognized leaf token.
func (p *Parser) parseAtom() ast.Expr {
	start := p.Peek().Span.Start
	tok := p.Peek()

	switch {
	case tok.Kind == lexer.IntLit:
		p.Advance()
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Kind: ast.LitExprInteger, Value: tok.Text}
	case tok.Kind == lexer.FloatLit:
		p.Advance()
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Kind: ast.LitExprFloat, Value: tok.Text}
	case tok.Kind == lexer.SymbolLit:
		p.Advance()
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Kind: ast.LitExprSymbol, Value: ":" + tok.Text}
	case tok.Kind == lexer.Keyword && (tok.Text == "true" || tok.Text == "false"):
		p.Advance()
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Kind: ast.LitExprBoolean, Value: tok.Text}
	case tok.Kind == lexer.Keyword && tok.Text == "nil":
		p.Advance()
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Kind: ast.LitExprNil, Value: "nil"}
	case tok.Kind == lexer.Keyword && tok.Text == "self":
		p.Advance()
		return &ast.VariableRef{Base: ast.Base{Sp: tok.Span}, Name: "self", Scope: ast.ScopeLocal}

	case tok.Kind == lexer.StringLit:
		p.Advance()
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Kind: ast.LitExprString, Value: strconv.Quote(tok.Text)}

	case tok.Kind == lexer.StringBegin:
		return p.parseInterpolation()

	case p.atOperator("@") && p.PeekAt(1).Kind == lexer.Operator && p.PeekAt(1).Text == "@":
		p.Advance()
		p.Advance()
		name := p.Advance().Text
		return &ast.VariableRef{Base: ast.Base{Sp: p.spanFrom(start)}, Name: name, Scope: ast.ScopeClass}

	case p.atOperator("@"):
		p.Advance()
		name := p.Advance().Text
		return &ast.VariableRef{Base: ast.Base{Sp: p.spanFrom(start)}, Name: name, Scope: ast.ScopeInstance}

	case p.atOperator("$"):
		p.Advance()
		name := p.Advance().Text
		return &ast.VariableRef{Base: ast.Base{Sp: p.spanFrom(start)}, Name: name, Scope: ast.ScopeGlobal}

	case tok.Kind == lexer.Ident && isConstantName(tok.Text):
		p.Advance()
		if p.atPunct("(") {
			args, kwargs := p.parseCallArgs()
			mc := &ast.MethodCall{Method: tok.Text, Args: args, KeywordArgs: kwargs}
			mc.Block = p.tryParseBlock()
			mc.Sp = p.spanFrom(start)
			return mc
		}
		return &ast.VariableRef{Base: ast.Base{Sp: tok.Span}, Name: tok.Text, Scope: ast.ScopeConstant}

	case tok.Kind == lexer.Ident:
		p.Advance()
		if p.atPunct("(") {
			args, kwargs := p.parseCallArgs()
			mc := &ast.MethodCall{Method: tok.Text, Args: args, KeywordArgs: kwargs}
			mc.Block = p.tryParseBlock()
			mc.Sp = p.spanFrom(start)
			return mc
		}
		if blk := p.tryParseBlock(); blk != nil {
			mc := &ast.MethodCall{Method: tok.Text, Block: blk}
			mc.Sp = p.spanFrom(start)
			return mc
		}
		return &ast.VariableRef{Base: ast.Base{Sp: tok.Span}, Name: tok.Text, Scope: ast.ScopeLocal}

	case p.atPunct("("):
		p.Advance()
		inner := p.parseExpr()
		p.expectPunct(")")
		return inner

	case p.atPunct("["):
		return p.parseArrayLiteral()

	case p.atPunct("{"):
		return p.parseHashLiteral()

	case p.atOperator("->"):
		return p.parseArrowLambda()

	case tok.Kind == lexer.Keyword && tok.Text == "do":
		// A bare block-expecting construct we don't recognize further;
		// fall through to raw passthrough below.
	}

	// Unrecognized leaf: preserve it verbatim rather than failing the
	// whole parse (spec §4.4 tolerance mode).
	p.Advance()
	return &ast.RawExpr{Base: ast.Base{Sp: tok.Span}, Source: tok.Text}
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	open := p.Peek()
	p.Advance() // '['
	var elems []ast.Expr
	for !p.atPunct("]") {
		elems = append(elems, p.parseExpr())
		if p.atPunct(",") {
			p.Advance()
			continue
		}
		break
	}
	p.expectPunct("]")
	return &ast.ArrayLiteral{Base: ast.Base{Sp: p.spanFrom(open.Span.Start)}, Elements: elems}
}

func (p *Parser) parseHashLiteral() ast.Expr {
	open := p.Peek()
	p.Advance() // '{'
	p.skipNewlines()
	var pairs []ast.HashPair
	for !p.atPunct("}") {
		key := p.parseExpr()
		var value ast.Expr
		if p.atOperator("=>") {
			p.Advance()
			value = p.parseExpr()
		} else if p.atPunct(":") {
			p.Advance()
			value = p.parseExpr()
		}
		pairs = append(pairs, ast.HashPair{Key: key, Value: value})
		p.skipNewlines()
		if p.atPunct(",") {
			p.Advance()
			p.skipNewlines()
			continue
		}
		break
	}
	p.skipNewlines()
	p.expectPunct("}")
	return &ast.HashLiteral{Base: ast.Base{Sp: p.spanFrom(open.Span.Start)}, Pairs: pairs}
}

// parseArrowLambda parses `->(params) { body }`.
func (p *Parser) parseArrowLambda() ast.Expr {
	open := p.Peek()
	p.Advance() // '->'
	params := p.parseParamList()
	blk := p.tryParseBlock()
	fn := &ast.FnExpr{Base: ast.Base{Sp: p.spanFrom(open.Span.Start)}, Params: params}
	if blk != nil {
		fn.Body = blk.Body
	}
	return fn
}

// parseInterpolation consumes a StringBegin token and the alternating
// expression/StringMid/StringEnd fragments that follow it. The lexer
// produces the full token stream up front, so every fragment boundary is
// already present as a StringMid/StringEnd token; this just walks them.
func (p *Parser) parseInterpolation() ast.Expr {
	start := p.Peek().Span.Start
	beginTok := p.Advance() // StringBegin
	interp := &ast.Interpolation{}
	if beginTok.Text != "" {
		interp.Parts = append(interp.Parts, ast.InterpPart{Str: beginTok.Text})
	}
	for {
		expr := p.parseExpr()
		interp.Parts = append(interp.Parts, ast.InterpPart{Expr: expr})
		if p.Peek().Kind == lexer.InterpEnd {
			p.Advance()
		}
		next := p.Peek()
		switch next.Kind {
		case lexer.StringMid:
			p.Advance()
			if next.Text != "" {
				interp.Parts = append(interp.Parts, ast.InterpPart{Str: next.Text})
			}
			continue
		case lexer.StringEnd:
			p.Advance()
			if next.Text != "" {
				interp.Parts = append(interp.Parts, ast.InterpPart{Str: next.Text})
			}
		}
		break
	}
	interp.Sp = p.spanFrom(start)
	return interp
}
