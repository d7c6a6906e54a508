// Package parser implements the declaration/statement parser (spec
// §4.3) and the expression/body parser (spec §4.4): a top-down
// recursive-descent parser that turns a token stream into a *ast.Program.
// It delegates type syntax to package typeexpr.
package parser

import (
	"fmt"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/internal/diag"
	"github.com/trb-lang/trbc/internal/span"
	"github.com/trb-lang/trbc/lexer"
	"github.com/trb-lang/trbc/typeexpr"
)

// Mode controls the parser's tolerance for missing type annotations.
type Mode int

const (
	// ModeStrict requires annotations everywhere the grammar allows one.
	ModeStrict Mode = iota
	// ModeStandard is the default: parameter annotations are required,
	// but a function may omit its return type, which the type inferrer
	// then infers from the body.
	ModeStandard
	// ModePermissive also accepts parameters without type annotations,
	// leaving their Param.Type nil; the type inferrer treats a nil
	// annotation as `any` (spec §4.3 tolerance mode).
	ModePermissive
)

// Parser holds a token buffer and cursor position for one file.
type Parser struct {
	file   string
	toks   []lexer.Token
	pos    int
	mode   Mode
	errors []error
}

// New creates a Parser over an already-lexed token stream.
func New(file string, toks []lexer.Token, mode Mode) *Parser {
	return &Parser{file: file, toks: filterComments(toks), mode: mode}
}

// filterComments keeps a parser's working token stream free of Comment
// tokens (the documentation extractor and source-preserving emitter
// read comments from the original source text directly, not from this
// stream).
func filterComments(toks []lexer.Token) []lexer.Token {
	out := make([]lexer.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != lexer.Comment {
			out = append(out, t)
		}
	}
	return out
}

// Parse parses a complete token stream into a Program, raising the
// earliest ParseError encountered (spec §4.3 contract).
func Parse(file, source string, mode Mode) (*ast.Program, error) {
	lx := lexer.New(file, source)
	toks, err := lx.Tokenize()
	if err != nil {
		return nil, &diag.ParseError{Span: span.Span{File: file}, Message: err.Error()}
	}
	p := New(file, toks, mode)
	prog := p.parseProgram()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	prog.SourceFile = file
	return prog, nil
}

// --- typeexpr.Cursor implementation -----------------------------------

func (p *Parser) Peek() lexer.Token      { return p.PeekAt(0) }
func (p *Parser) PeekAt(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[i]
}
func (p *Parser) Advance() lexer.Token {
	t := p.Peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}
func (p *Parser) Pos() int     { return p.pos }
func (p *Parser) Seek(pos int) { p.pos = pos }

func (p *Parser) typeParser() *typeexpr.Parser { return typeexpr.New(p) }

// --- token helpers ------------------------------------------------------

func (p *Parser) skipNewlines() {
	for p.Peek().Kind == lexer.Newline {
		p.Advance()
	}
}

func (p *Parser) atKeyword(word string) bool {
	t := p.Peek()
	return t.Kind == lexer.Keyword && t.Text == word
}

func (p *Parser) atIdent() bool { return p.Peek().Kind == lexer.Ident }

func (p *Parser) atPunct(text string) bool {
	t := p.Peek()
	return t.Kind == lexer.Punct && t.Text == text
}

func (p *Parser) atOperator(text string) bool {
	t := p.Peek()
	return t.Kind == lexer.Operator && t.Text == text
}

func (p *Parser) expectKeyword(word string) (lexer.Token, bool) {
	if p.atKeyword(word) {
		return p.Advance(), true
	}
	return lexer.Token{}, false
}

func (p *Parser) expectPunct(text string) bool {
	if p.atPunct(text) {
		p.Advance()
		return true
	}
	return false
}

func (p *Parser) errf(sp span.Span, format string, args ...any) {
	p.errors = append(p.errors, &diag.ParseError{Span: sp, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) spanFrom(start span.Position) span.Span {
	end := span.Position{Line: p.Peek().Span.Start.Line, Column: p.Peek().Span.Start.Column, Offset: p.Peek().Span.Start.Offset}
	if p.pos > 0 {
		end = p.toks[p.pos-1].Span.End
	}
	return span.Span{File: p.file, Start: start, End: end}
}

// parseProgram parses every top-level declaration/statement until EOF.
func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{
		TypeAliases: map[string]*ast.TypeAlias{},
		Interfaces:  map[string]*ast.Interface{},
	}
	p.skipNewlines()
	for p.Peek().Kind != lexer.EOF {
		decl := p.parseTopLevel()
		p.skipNewlines()
		if decl == nil {
			continue
		}
		prog.Declarations = append(prog.Declarations, decl)
		switch d := decl.(type) {
		case *ast.TypeAlias:
			prog.TypeAliases[d.Name] = d
		case *ast.Interface:
			prog.Interfaces[d.Name] = d
		}
	}
	return prog
}
