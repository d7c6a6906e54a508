// Package typeexpr implements the type-expression parser (spec §4.2): a
// precedence-climbing (Pratt) parser over type-token input, plus the
// generic-parameter sub-parser (spec §4.6) used by declarations.
//
// Precedence, lowest to highest: Union `|`, Intersection `&`, Optional
// suffix `?`, Generic application `<...>`, atomic names and parenthesized
// types.
package typeexpr

import (
	"fmt"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/internal/diag"
	"github.com/trb-lang/trbc/internal/span"
	"github.com/trb-lang/trbc/lexer"
	"github.com/trb-lang/trbc/typesys"
)

// Cursor is the minimal token-stream view the type parser needs; the
// declaration/statement parser implements it directly over its own
// token buffer so the two parsers share no mutable state.
type Cursor interface {
	Peek() lexer.Token
	PeekAt(offset int) lexer.Token
	Advance() lexer.Token
	Pos() int
	Seek(pos int)
}

// Parser parses type syntax from a Cursor.
type Parser struct {
	c Cursor
}

// New creates a type-expression parser reading from c.
func New(c Cursor) *Parser {
	return &Parser{c: c}
}

// ParseType is the entry point: parse_type(tokens) -> TypeExpression.
func (p *Parser) ParseType() (ast.TypeExpr, error) {
	return p.parseUnion()
}

func (p *Parser) parseUnion() (ast.TypeExpr, error) {
	left, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	members := []ast.TypeExpr{left}
	for p.atOperator("|") {
		p.c.Advance()
		right, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		members = append(members, right)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return typesys.MakeUnion(members), nil
}

func (p *Parser) parseIntersection() (ast.TypeExpr, error) {
	left, err := p.parseOptional()
	if err != nil {
		return nil, err
	}
	members := []ast.TypeExpr{left}
	for p.atOperator("&") {
		p.c.Advance()
		right, err := p.parseOptional()
		if err != nil {
			return nil, err
		}
		members = append(members, right)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return typesys.MakeIntersection(members), nil
}

// parseOptional parses an atom (with generic suffix already applied by
// parseAtom) and then consumes zero or more trailing `?`. Trailing `?`
// binds to the immediately preceding atom, so `A | B?` parses as
// `A | (B | nil)`, matching the documented edge case. After a bare name
// the lexer folds the `?` into the identifier token; parseNamed strips
// it and applies the same wrapping.
func (p *Parser) parseOptional() (ast.TypeExpr, error) {
	t, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.atOperator("?") {
		p.c.Advance()
		t = optionalOf(t)
	}
	return t, nil
}

// optionalOf builds Optional(T) = Union(T, nil), normalizing away a
// redundant nesting per spec invariant 4 (Optional(Optional(T)) = Optional(T)).
func optionalOf(t ast.TypeExpr) ast.TypeExpr {
	if u, ok := t.(*ast.Union); ok {
		for _, m := range u.Members {
			if isNil(m) {
				return u
			}
		}
		return &ast.Union{Members: append(append([]ast.TypeExpr{}, u.Members...), nilType())}
	}
	if isNil(t) {
		return t
	}
	return &ast.Union{Members: []ast.TypeExpr{t, nilType()}}
}

func nilType() *ast.NamedType { return &ast.NamedType{Name: ast.BuiltinNil} }

func isNil(t ast.TypeExpr) bool {
	n, ok := t.(*ast.NamedType)
	return ok && n.Name == ast.BuiltinNil && len(n.Args) == 0
}

func (p *Parser) parseAtom() (ast.TypeExpr, error) {
	tok := p.c.Peek()
	switch {
	case tok.Kind == lexer.Punct && tok.Text == "(":
		p.c.Advance()
		inner, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		if !p.expectPunct(")") {
			return nil, p.errf(tok.Span, "expected ')' to close parenthesized type")
		}
		return inner, nil

	case tok.Kind == lexer.Punct && tok.Text == "[":
		return p.parseTupleOrArraySugar()

	case tok.Kind == lexer.Keyword && tok.Text == "self":
		p.c.Advance()
		return &ast.NamedType{Name: ast.BuiltinSelf}, nil

	case tok.Kind == lexer.Ident:
		return p.parseNamed()

	case tok.Kind == lexer.StringLit:
		p.c.Advance()
		return &ast.LiteralType{Kind: ast.LiteralString, Value: fmt.Sprintf("%q", tok.Text)}, nil

	case tok.Kind == lexer.IntLit:
		p.c.Advance()
		return &ast.LiteralType{Kind: ast.LiteralInteger, Value: tok.Text}, nil

	case tok.Kind == lexer.SymbolLit:
		p.c.Advance()
		return &ast.LiteralType{Kind: ast.LiteralSymbol, Value: ":" + tok.Text}, nil

	case tok.Kind == lexer.Keyword && (tok.Text == "true" || tok.Text == "false"):
		p.c.Advance()
		return &ast.LiteralType{Kind: ast.LiteralBoolean, Value: tok.Text}, nil

	default:
		return nil, p.errf(tok.Span, "unexpected token %q in type expression", tok.Text)
	}
}

// parseTupleOrArraySugar parses `[T1, T2, ...]`. A single element is
// array-of sugar (`[T]` == `Array<T>`); multiple elements build a
// NamedType named `__tuple__` whose Args are the element types. No later
// stage rejects that marker or reports a diagnostic for it.
func (p *Parser) parseTupleOrArraySugar() (ast.TypeExpr, error) {
	open := p.c.Advance() // '['
	var elems []ast.TypeExpr
	for {
		if p.atPunct("]") {
			break
		}
		t, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
		if p.atPunct(",") {
			p.c.Advance()
			continue
		}
		break
	}
	if !p.expectPunct("]") {
		return nil, p.errf(open.Span, "expected ']' to close array/tuple type")
	}
	if len(elems) == 1 {
		return ast.ArrayOf(elems[0]), nil
	}
	return &ast.NamedType{Name: "__tuple__", Args: elems}, nil
}

func (p *Parser) parseNamed() (ast.TypeExpr, error) {
	nameTok := p.c.Advance()
	text := nameTok.Text
	optional := len(text) > 1 && text[len(text)-1] == '?'
	if optional {
		text = text[:len(text)-1]
	}
	name := ast.NormalizeBuiltinName(text)

	if name == ast.BuiltinArray || name == ast.BuiltinHash || name == "Proc" {
		// fall through to generic-arg parsing below; these are ordinary
		// NamedTypes whose sugar form (§3) is just the spelled-out
		// generic syntax the parser already handles uniformly.
	}

	if p.looksLikeGenericOpen() {
		p.c.Advance() // consume '<'
		var args []ast.TypeExpr
		for {
			if p.atOperator(">") {
				break
			}
			arg, err := p.ParseType()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.atPunct(",") {
				p.c.Advance()
				continue
			}
			break
		}
		if len(args) == 0 {
			return nil, p.errf(nameTok.Span, "empty generic argument list '<>' is not allowed")
		}
		if !p.expectCloseAngle() {
			return nil, p.errf(nameTok.Span, "expected '>' to close generic argument list")
		}
		return &ast.NamedType{Name: name, Args: args}, nil
	}
	if optional {
		return optionalOf(&ast.NamedType{Name: name}), nil
	}
	return &ast.NamedType{Name: name}, nil
}

// looksLikeGenericOpen implements the `<` disambiguation: a type-argument
// context is entered only after a name token followed by `<` where
// bounded lookahead confirms the list closes with a matching `>` before
// end-of-line or an unnested ')' or ']' — a context that can never occur for a bare
// less-than comparison, which type syntax has no use for anyway (type
// expressions don't contain comparisons). We still perform the scan so
// a malformed `Name < 3` inside a type position fails with a clear parse
// error instead of silently misparsing.
func (p *Parser) looksLikeGenericOpen() bool {
	if !p.atOperator("<") {
		return false
	}
	depth := 0
	for i := 0; ; i++ {
		tok := p.c.PeekAt(i)
		switch {
		case tok.Kind == lexer.EOF || tok.Kind == lexer.Newline:
			return false
		case tok.Kind == lexer.Operator && tok.Text == "<":
			depth++
		case tok.Kind == lexer.Operator && tok.Text == ">":
			depth--
			if depth == 0 {
				return true
			}
		case tok.Kind == lexer.Punct && (tok.Text == ")" || tok.Text == "]"):
			if depth == 0 {
				return false
			}
		}
		if i > 256 {
			return false
		}
	}
}

func (p *Parser) expectCloseAngle() bool {
	if p.atOperator(">") {
		p.c.Advance()
		return true
	}
	// A run of '>' characters may have been lexed as ">>" etc by the
	// multi-char operator table; none of ours currently produce that,
	// but guard defensively.
	return false
}

func (p *Parser) atOperator(text string) bool {
	t := p.c.Peek()
	return t.Kind == lexer.Operator && t.Text == text
}

func (p *Parser) atPunct(text string) bool {
	t := p.c.Peek()
	return t.Kind == lexer.Punct && t.Text == text
}

func (p *Parser) expectPunct(text string) bool {
	if p.atPunct(text) {
		p.c.Advance()
		return true
	}
	return false
}

func (p *Parser) errf(sp span.Span, format string, args ...any) error {
	return &diag.ParseError{Span: sp, Message: fmt.Sprintf(format, args...)}
}
