package lexer

import (
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}

	return ks
}

func TestLex_Kinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{
			name: "empty",
			src:  "",
			want: []token.Kind{token.EOF},
		},
		{
			name: "declaration",
			src:  "let x = 1;",
			want: []token.Kind{token.Ident, token.Ident, token.Equals, token.Number, token.Semicolon, token.EOF},
		},
		{
			name: "longest match",
			src:  "a ... b .. c . d :=> e => f",
			want: []token.Kind{
				token.Ident, token.Ellipsis, token.Ident, token.Concat, token.Ident,
				token.Dot, token.Ident, token.SelfArrow, token.Ident, token.Arrow, token.Ident, token.EOF,
			},
		},
		{
			name: "comparison operators",
			src:  "~= == >= <= < > >> <<",
			want: []token.Kind{
				token.Neq, token.Eq, token.Geq, token.Leq, token.Lt, token.Gt,
				token.Zoom, token.LShift, token.EOF,
			},
		},
		{
			name: "comments",
			src:  "a // line\n/* block /* nested */ still */ b",
			want: []token.Kind{token.Ident, token.Ident, token.EOF},
		},
		{
			name: "decimal",
			src:  "3.25 4.x",
			want: []token.Kind{token.Number, token.Number, token.Dot, token.Ident, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Lex(tt.src)
			if res.Status != diag.Ok {
				t.Fatalf("Lex(%q): %v", tt.src, res.Err())
			}

			if got := kinds(res.Value); !slices.Equal(got, tt.want) {
				t.Errorf("Lex(%q) kinds = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestLex_Positions(t *testing.T) {
	res := Lex("let x\r\n  = 12;")
	if res.Status != diag.Ok {
		t.Fatalf("Lex: %v", res.Err())
	}

	want := []token.Position{
		{Offset: 0, Line: 1, Column: 1, Length: 3},
		{Offset: 4, Line: 1, Column: 5, Length: 1},
		{Offset: 8, Line: 2, Column: 3, Length: 1},
		{Offset: 10, Line: 2, Column: 5, Length: 2},
		{Offset: 12, Line: 2, Column: 7, Length: 1},
		{Offset: 13, Line: 2, Column: 8, Length: 0},
	}

	if len(res.Value) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(res.Value), len(want))
	}

	for i, tok := range res.Value {
		if tok.Pos != want[i] {
			t.Errorf("token %d (%v) at %+v, want %+v", i, tok, tok.Pos, want[i])
		}
	}
}

func TestLex_String(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		value string
		raw   string
		frags int
	}{
		{"plain", `"hello"`, "hello", "hello", 0},
		{"escapes kept", `"a\n\"b\""`, `a\n\"b\"`, `a\n\"b\"`, 0},
		{"literal newline", "\"a\nb\"", `a\nb`, "a\nb", 0},
		{"percent without interpolation", `"100%"`, "100%", "100%", 0},
		{"interpolation", `"x = ${x}!"`, "x = %s!", "x = ${x}!", 1},
		{"percent with interpolation", `"${n}%"`, "%s%%", "${n}%", 1},
		{"nested braces", `"${ {a = 1} }"`, "%s", "${ {a = 1} }", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Lex(tt.src)
			if res.Status != diag.Ok {
				t.Fatalf("Lex(%q): %v", tt.src, res.Err())
			}

			tok := res.Value[0]
			if tok.Kind != token.String {
				t.Fatalf("kind = %v, want string", tok.Kind)
			}

			if tok.Value != tt.value {
				t.Errorf("Value = %q, want %q", tok.Value, tt.value)
			}

			if tok.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", tok.Raw, tt.raw)
			}

			if len(tok.Fragments) != tt.frags {
				t.Errorf("got %d fragments, want %d", len(tok.Fragments), tt.frags)
			}
		})
	}
}

func TestLex_InterpolationPositions(t *testing.T) {
	res := Lex(`let s = "a ${b + c}";`)
	if res.Status != diag.Ok {
		t.Fatalf("Lex: %v", res.Err())
	}

	frag := res.Value[3].Fragments[0]
	if got := kinds(frag); !slices.Equal(got, []token.Kind{token.Ident, token.Plus, token.Ident, token.EOF}) {
		t.Fatalf("fragment kinds = %v", got)
	}

	if frag[0].Pos.Column != 14 || frag[2].Pos.Column != 18 {
		t.Errorf("fragment columns = %d, %d, want 14, 18", frag[0].Pos.Column, frag[2].Pos.Column)
	}

	if frag[3].Pos.Column != 19 {
		t.Errorf("fragment EOF column = %d, want 19", frag[3].Pos.Column)
	}
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
		line    int
		column  int
	}{
		{"unknown symbol", "a $ b", "unknown symbol '$'", 1, 3},
		{"unexpected character", "a é b", "unexpected character", 1, 3},
		{"invalid escape", `"a\qb"`, `invalid string escape '\q'`, 1, 3},
		{"unterminated string", "x\n\"abc", "unterminated string", 2, 1},
		{"unterminated comment", "/* abc", "unterminated block comment", 1, 1},
		{"error inside interpolation", `"${a $ b}"`, "unknown symbol '$'", 1, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Lex(tt.src)
			if res.Status != diag.Fatal {
				t.Fatalf("Lex(%q) status = %v, want fatal", tt.src, res.Status)
			}

			d := res.Diags[0]
			if d.Class != diag.Lex {
				t.Errorf("class = %v, want lex", d.Class)
			}

			if !strings.Contains(d.Message, tt.message) {
				t.Errorf("message = %q, want it to contain %q", d.Message, tt.message)
			}

			if d.Pos.Line != tt.line || d.Pos.Column != tt.column {
				t.Errorf("position = %v, want %d:%d", d.Pos, tt.line, tt.column)
			}
		})
	}
}

func TestLex_ReportsEveryError(t *testing.T) {
	res := Lex("a $ b;\nc ` d;")
	if len(res.Diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", len(res.Diags), res.Diags)
	}

	if got := kinds(res.Value); !slices.Equal(got, []token.Kind{
		token.Ident, token.Ident, token.Semicolon, token.Ident, token.Ident, token.Semicolon, token.EOF,
	}) {
		t.Errorf("recovered kinds = %v", got)
	}
}
