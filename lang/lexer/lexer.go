// Package lexer converts jammy source text into tokens.
//
// The lexer recognizes identifiers, decimal numbers, double-quoted strings
// with "${...}" interpolation, and the punctuation of [token.Symbols], using
// the longest match. Line comments start with "//" and block comments
// ("/* ... */") nest.
//
// Lexical errors do not stop the scan: after an error the offending
// character is skipped and scanning resumes at the next token, so a single
// pass reports every independent problem.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/token"
)

// symbolChars are the characters that may begin a symbol.
const symbolChars = "`!@#$%^&*()+-=[]{};':\\|,.<>/?~"

// escapes are the characters allowed after a backslash in a string.
const escapes = `"\bfnrtv`

type lexer struct {
	src   string
	end   int
	off   int
	line  int
	col   int
	toks  []token.Token
	diags diag.List
}

// mark is a saved scanner position.
type mark struct{ off, line, col int }

// Normalize converts CRLF line endings to LF. Every position produced by
// [Lex] refers to the normalized text.
func Normalize(src string) string { return strings.ReplaceAll(src, "\r\n", "\n") }

// Lex scans src. The token list always ends with an EOF token.
// The result is [diag.Fatal] if any lexical error occurred; its Value still
// holds the tokens that were recognized.
func Lex(src string) diag.Result[[]token.Token] {
	src = Normalize(src)

	l := &lexer{src: src, end: len(src), line: 1, col: 1}
	l.run()

	if len(l.diags) > 0 {
		return diag.Result[[]token.Token]{
			Value:  l.toks,
			Status: diag.Fatal,
			Diags:  l.diags,
		}
	}

	return diag.Success(l.toks)
}

func (l *lexer) run() {
	for l.off < l.end {
		tok, ok, errs := l.next()
		if ok {
			l.toks = append(l.toks, tok)

			continue
		}

		if len(errs) == 0 {
			continue
		}

		l.diags = append(l.diags, errs...)
		l.resync()
	}

	l.toks = append(l.toks, token.Token{Kind: token.EOF, Pos: l.position(l.mark(), 0)})
}

// resync skips the character at the cursor and then everything up to the
// next token that scans cleanly. Errors found while resynchronizing are
// consequences of the first one and are not reported.
func (l *lexer) resync() {
	l.advance()

	for l.off < l.end {
		m := l.mark()

		tok, ok, errs := l.next()
		if ok {
			l.toks = append(l.toks, tok)

			return
		}

		if len(errs) > 0 {
			l.reset(m)
			l.advance()
		}
	}
}

func (l *lexer) mark() mark   { return mark{l.off, l.line, l.col} }
func (l *lexer) reset(m mark) { l.off, l.line, l.col = m.off, m.line, m.col }

func (l *lexer) position(m mark, length int) token.Position {
	return token.Position{Offset: m.off, Line: m.line, Column: m.col, Length: length}
}

// span returns the position of the text between m and the cursor.
func (l *lexer) span(m mark) token.Position {
	return l.position(m, utf8.RuneCountInString(l.src[m.off:l.off]))
}

func (l *lexer) peek() rune { return l.peekAt(0) }

// peekAt returns the n-th byte-sized character ahead, or 0 past the end.
// Multi-byte characters are only ever consumed, never inspected ahead.
func (l *lexer) peekAt(n int) rune {
	if l.off+n >= l.end {
		return 0
	}

	if n == 0 {
		r, _ := utf8.DecodeRuneInString(l.src[l.off:l.end])

		return r
	}

	return rune(l.src[l.off+n])
}

func (l *lexer) advance() rune {
	if l.off >= l.end {
		return 0
	}

	r, size := utf8.DecodeRuneInString(l.src[l.off:l.end])
	l.off += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}

func (l *lexer) errorf(m mark, length int, format string, args ...any) diag.List {
	return diag.List{diag.New(diag.Lex, l.position(m, length), format, args...)}
}

func isDigit(r rune) bool      { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool { return r == '_' || (r|0x20 >= 'a' && r|0x20 <= 'z') }
func isIdentChar(r rune) bool  { return isIdentStart(r) || isDigit(r) }
func isSymbolChar(r rune) bool { return r != 0 && strings.ContainsRune(symbolChars, r) }
func isSpace(r rune) bool      { return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v' }

// next scans one token. It returns ok=false with no errors for whitespace
// and comments.
func (l *lexer) next() (token.Token, bool, diag.List) {
	m := l.mark()
	c := l.peek()

	switch {
	case isSpace(c):
		l.advance()

		return token.Token{}, false, nil

	case c == '/' && l.peekAt(1) == '/':
		for l.off < l.end && l.peek() != '\n' {
			l.advance()
		}

		return token.Token{}, false, nil

	case c == '/' && l.peekAt(1) == '*':
		return token.Token{}, false, l.blockComment(m)

	case isSymbolChar(c):
		return l.symbol(m)

	case isDigit(c):
		return l.number(m), true, nil

	case isIdentStart(c):
		return l.identifier(m), true, nil

	case c == '"':
		return l.string(m)
	}

	return token.Token{}, false, l.errorf(m, 1, "unexpected character %q", c)
}

func (l *lexer) blockComment(m mark) diag.List {
	l.advance()
	l.advance()

	for depth := 1; depth > 0; {
		switch {
		case l.off >= l.end:
			return l.errorf(m, 2, "unterminated block comment")
		case l.peek() == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			depth++
		case l.peek() == '*' && l.peekAt(1) == '/':
			l.advance()
			l.advance()
			depth--
		default:
			l.advance()
		}
	}

	return nil
}

func (l *lexer) symbol(m mark) (token.Token, bool, diag.List) {
	rest := l.src[l.off:l.end]

	for _, k := range token.Symbols() {
		if s := k.String(); strings.HasPrefix(rest, s) {
			for range s {
				l.advance()
			}

			return token.Token{Kind: k, Pos: l.span(m)}, true, nil
		}
	}

	n := 0
	for n < len(rest) && isSymbolChar(rune(rest[n])) {
		n++
	}

	return token.Token{}, false, l.errorf(m, n, "unknown symbol '%s'", rest[:n])
}

func (l *lexer) number(m mark) token.Token {
	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()

		for isDigit(l.peek()) {
			l.advance()
		}
	}

	return token.Token{Kind: token.Number, Value: l.src[m.off:l.off], Pos: l.span(m)}
}

func (l *lexer) identifier(m mark) token.Token {
	for isIdentChar(l.peek()) {
		l.advance()
	}

	return token.Token{Kind: token.Ident, Value: l.src[m.off:l.off], Pos: l.span(m)}
}

// string scans a string literal. The decoded value keeps escape sequences
// verbatim, since they mean the same thing in Lua, and encodes literal line
// breaks as "\n". Interpolated strings become format strings: each
// interpolation is replaced by "%s" and literal percent signs are doubled.
func (l *lexer) string(m mark) (token.Token, bool, diag.List) {
	var plain, format, raw strings.Builder

	var frags [][]token.Token

	l.advance()

	for {
		if l.off >= l.end {
			return token.Token{}, false, l.errorf(m, 1, "unterminated string")
		}

		c := l.peek()

		switch {
		case c == '"':
			l.advance()

			tok := token.Token{Kind: token.String, Pos: l.span(m), Raw: raw.String()}
			if len(frags) > 0 {
				tok.Value = format.String()
				tok.Fragments = frags
			} else {
				tok.Value = plain.String()
			}

			return tok, true, nil

		case c == '$' && l.peekAt(1) == '{':
			frag, text, errs := l.interpolation()
			if errs != nil {
				return token.Token{}, false, errs
			}

			frags = append(frags, frag)
			raw.WriteString("${" + text + "}")
			plain.WriteString("%s")
			format.WriteString("%s")

		case c == '\\':
			e := l.mark()
			l.advance()

			n := l.peek()
			if n == 0 || !strings.ContainsRune(escapes, n) {
				return token.Token{}, false, l.errorf(e, 2, "invalid string escape '\\%c'", n)
			}

			l.advance()

			seq := "\\" + string(n)
			raw.WriteString(seq)
			plain.WriteString(seq)
			format.WriteString(seq)

		default:
			l.advance()
			raw.WriteRune(c)

			switch c {
			case '\n':
				plain.WriteString(`\n`)
				format.WriteString(`\n`)
			case '\r':
			case '%':
				plain.WriteByte('%')
				format.WriteString("%%")
			default:
				plain.WriteRune(c)
				format.WriteRune(c)
			}
		}
	}
}

// interpolation scans "${...}" and lexes its contents in place, so the
// fragment's token positions are positions in the enclosing source.
func (l *lexer) interpolation() ([]token.Token, string, diag.List) {
	open := l.mark()

	l.advance()
	l.advance()

	start := l.mark()

	for depth := 1; ; {
		switch l.peek() {
		case 0:
			if l.off >= l.end {
				return nil, "", l.errorf(open, 2, "unterminated interpolation")
			}
		case '{':
			depth++
		case '}':
			depth--
		}

		if depth == 0 {
			break
		}

		l.advance()
	}

	sub := &lexer{src: l.src, end: l.off, off: start.off, line: start.line, col: start.col}
	sub.run()

	text := l.src[start.off:l.off]

	l.advance()

	if len(sub.diags) > 0 {
		return nil, "", sub.diags
	}

	if len(sub.toks) == 1 {
		return nil, "", l.errorf(open, 2, "empty interpolation")
	}

	return sub.toks, text, nil
}
