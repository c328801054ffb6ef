// Package token defines the lexical tokens of the jammy language.
package token

//go:generate go tool stringer --linecomment --type Kind --output kind_string.go

import (
	"slices"
	"strconv"
)

// Kind identifies the lexical class of a [Token].
type Kind uint8

const (
	Invalid Kind = iota // invalid
	EOF                 // end of file

	Ident  // identifier
	Number // number
	String // string

	Semicolon   // ;
	Comma       // ,
	Equals      // =
	Colon       // :
	Arrow       // =>
	SelfArrow   // :=>
	OpenParen   // (
	CloseParen  // )
	OpenSquare  // [
	CloseSquare // ]
	OpenCurly   // {
	CloseCurly  // }
	Dot         // .
	Pound       // #
	Excl        // !
	Ellipsis    // ...
	At          // @
	Zoom        // >>
	LShift      // <<
	Union       // |
	Question    // ?

	Neq     // ~=
	Eq      // ==
	Geq     // >=
	Leq     // <=
	Concat  // ..
	And     // &&
	Or      // ||
	Plus    // +
	Minus   // -
	Times   // *
	Divide  // /
	Lt      // <
	Gt      // >
	Percent // %
	Caret   // ^
)

// symbols is ordered longest first so that a linear scan yields the longest
// match.
var symbols = func() []Kind {
	ks := make([]Kind, 0, Caret-Semicolon+1)
	for k := Semicolon; k <= Caret; k++ {
		ks = append(ks, k)
	}

	slices.SortStableFunc(ks, func(a, b Kind) int {
		return len(b.String()) - len(a.String())
	})

	return ks
}()

// Symbols returns every punctuation and operator kind, longest spelling
// first.
func Symbols() []Kind { return slices.Clone(symbols) }

// IsBinaryOp reports whether k is an infix operator.
func (k Kind) IsBinaryOp() bool { return k >= Neq && k <= Caret }

// IsSymbol reports whether k is spelled with punctuation.
func (k Kind) IsSymbol() bool { return k >= Semicolon && k <= Caret }

// Describe returns the human-readable name of k used in diagnostics.
func (k Kind) Describe() string {
	switch k {
	case Ident:
		return "a word"
	case Number:
		return "a number"
	case String:
		return "a string"
	case EOF:
		return "the end of the file"
	}

	if k.IsSymbol() {
		return "'" + k.String() + "'"
	}

	return k.String()
}

// Position locates a token in its source. Line and Column are 1-based and
// count characters; Offset is a 0-based byte offset. Length is the number of
// characters the token spans.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
	Length int `json:"length" yaml:"length"`
}

// IsValid reports whether p refers to a real source location.
func (p Position) IsValid() bool { return p.Line > 0 && p.Column > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}

	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Token is one lexical unit. Tokens are never modified after lexing.
//
// Value holds the identifier text, the number text, or the decoded string
// contents (with "%s" in place of each interpolation). Fragments holds the
// tokens of each "${...}" interpolation of a string, in order; every fragment
// ends in its own EOF token.
type Token struct {
	Kind      Kind
	Value     string
	Pos       Position
	Fragments [][]Token
	// Raw is the source spelling of a string literal including escapes and
	// interpolations, used in diagnostics.
	Raw string
}

// Is reports whether t is the identifier word.
func (t Token) Is(word string) bool { return t.Kind == Ident && t.Value == word }

// Describe returns the human-readable description of t used in diagnostics,
// such as "a word ('x')".
func (t Token) Describe() string {
	switch t.Kind {
	case Ident, Number:
		return t.Kind.Describe() + " ('" + t.Value + "')"
	case String:
		return t.Kind.Describe() + " (\"" + t.Raw + "\")"
	default:
		return t.Kind.Describe()
	}
}

func (t Token) String() string {
	switch t.Kind {
	case Ident, Number:
		return t.Value
	case String:
		return strconv.Quote(t.Value)
	default:
		return t.Kind.String()
	}
}
