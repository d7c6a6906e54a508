package typeexpr

import (
	"fmt"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/lexer"
)

// ParseGenericParams parses `<T1, T2: Bound1 & Bound2, T3 = Default>`
// immediately following a declaration name (spec §4.6). Returns nil, nil
// if no `<` is present at all (generics are optional on every
// declaration that allows them).
func (p *Parser) ParseGenericParams() ([]ast.GenericParam, error) {
	if !p.looksLikeGenericOpen() {
		return nil, nil
	}
	p.c.Advance() // '<'
	var params []ast.GenericParam
	for {
		if p.atOperator(">") {
			break
		}
		nameTok := p.c.Peek()
		if nameTok.Kind != lexer.Ident {
			return nil, p.errf(nameTok.Span, "expected generic parameter name, got %q", nameTok.Text)
		}
		p.c.Advance()
		gp := ast.GenericParam{Name: nameTok.Text}

		if p.atPunct(":") {
			p.c.Advance()
			bound, err := p.ParseType()
			if err != nil {
				return nil, err
			}
			gp.Bound = bound
		}
		if p.atOperator("=") {
			p.c.Advance()
			def, err := p.ParseType()
			if err != nil {
				return nil, err
			}
			gp.Default = def
		}
		params = append(params, gp)
		if p.atPunct(",") {
			p.c.Advance()
			continue
		}
		break
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("empty generic parameter list '<>' is not allowed")
	}
	if !p.expectCloseAngle() {
		return nil, p.errf(p.c.Peek().Span, "expected '>' to close generic parameter list")
	}
	return params, nil
}
