// Package lexer converts .trb source bytes into a token stream with
// source spans. The lexer never backtracks and never interprets
// context-sensitive ambiguities (e.g. `<` as less-than vs. a generic
// argument list opener) — those are left to the parser (spec §4.1, §9).
package lexer

import "github.com/trb-lang/trbc/internal/span"

// Kind classifies a Token.
type Kind int

const (
	EOF Kind = iota
	Newline
	Comment

	Ident
	Keyword
	IntLit
	FloatLit
	StringLit  // a complete, non-interpolated string literal
	StringBegin
	StringMid
	StringEnd
	InterpBegin // `#{` inside a string
	InterpEnd   // `}` closing an interpolation
	SymbolLit

	Operator
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Newline:
		return "Newline"
	case Comment:
		return "Comment"
	case Ident:
		return "Ident"
	case Keyword:
		return "Keyword"
	case IntLit:
		return "IntLit"
	case FloatLit:
		return "FloatLit"
	case StringLit:
		return "StringLit"
	case StringBegin:
		return "StringBegin"
	case StringMid:
		return "StringMid"
	case StringEnd:
		return "StringEnd"
	case InterpBegin:
		return "InterpBegin"
	case InterpEnd:
		return "InterpEnd"
	case SymbolLit:
		return "SymbolLit"
	case Operator:
		return "Operator"
	case Punct:
		return "Punct"
	default:
		return "?"
	}
}

// Token is one lexical unit.
type Token struct {
	Kind Kind
	Text string // raw text; for string fragments, the fragment content
	Span span.Span
}

// Keywords is the fixed keyword set recognized by the declaration and
// body parsers. Any identifier not in this set is an Ident token; the
// parser, not the lexer, decides what a keyword means in context.
var Keywords = map[string]bool{
	"def": true, "end": true, "class": true, "module": true,
	"interface": true, "type": true, "implements": true, "include": true,
	"if": true, "elsif": true, "else": true, "unless": true,
	"case": true, "when": true, "while": true, "until": true,
	"return": true, "raise": true, "do": true,
	"true": true, "false": true, "nil": true, "self": true,
	"and": true, "or": true, "not": true,
}

// IsKeyword reports whether word is a reserved keyword.
func IsKeyword(word string) bool {
	return Keywords[word]
}
