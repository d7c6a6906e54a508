// Package span provides the source-position primitives shared by every
// stage of the compiler: lexer tokens, IR nodes, and diagnostics all carry
// a Span so that later stages (emitters, diagnostics) can point back at
// the exact bytes that produced them.
package span

import "fmt"

// Position is a single point in a source file.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, in bytes
	Offset int // 0-based byte offset
}

// IsValid reports whether p has been set to a real position.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open byte range within a single named source file.
// Start and End nest: every child span lies within its parent's span,
// which the source-preserving emitter relies on to cut annotation text
// out of the original bytes.
type Span struct {
	File  string
	Start Position
	End   Position
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%s-%s", s.Start, s.End)
	}
	return fmt.Sprintf("%s:%s-%s", s.File, s.Start, s.End)
}

// Contains reports whether s fully contains o, i.e. whether the span
// nesting invariant holds for the pair.
func (s Span) Contains(o Span) bool {
	return s.Start.Offset <= o.Start.Offset && o.End.Offset <= s.End.Offset
}

// Join returns the smallest span covering both a and b. Both must be in
// the same file; Join panics otherwise since joining spans across files
// is always a bug in the caller.
func Join(a, b Span) Span {
	if a.File == "" {
		return b
	}
	if b.File == "" {
		return a
	}
	if a.File != b.File {
		panic(fmt.Sprintf("span: cannot join spans from different files %q and %q", a.File, b.File))
	}
	start, end := a.Start, a.End
	if b.Start.Offset < start.Offset {
		start = b.Start
	}
	if b.End.Offset > end.Offset {
		end = b.End
	}
	return Span{File: a.File, Start: start, End: end}
}
