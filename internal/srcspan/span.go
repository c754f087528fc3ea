// Package srcspan carries the slice of source-location information the
// middle-end needs from its (external) lexer and parser: a byte-offset
// range tagged with the file it came from. Nothing else about the lexer's
// token stream — lexeme text, token kind, line/column — is this package's
// concern; the middle-end never re-derives that information.
package srcspan

import "fmt"

// Span is a half-open byte-offset range [Start, End) within File.
type Span struct {
	File  string
	Start int
	End   int
}

// Zero is the span used for synthesized nodes that have no source location
// (e.g. AST fragments materialized by the core-module resolver).
var Zero = Span{}

func (s Span) String() string {
	if s.File == "" {
		return "<synthetic>"
	}
	return fmt.Sprintf("%s:%d-%d", s.File, s.Start, s.End)
}

// IsZero reports whether s carries no real source location.
func (s Span) IsZero() bool {
	return s == Span{}
}

// Cover returns the smallest span containing both a and b. A zero span on
// either side is ignored so folding a non-zero span with a synthesized one
// doesn't lose the real location.
func Cover(a, b Span) Span {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	file := a.File
	if file == "" {
		file = b.File
	}
	start := a.Start
	if b.Start < start {
		start = b.Start
	}
	end := a.End
	if b.End > end {
		end = b.End
	}
	return Span{File: file, Start: start, End: end}
}
