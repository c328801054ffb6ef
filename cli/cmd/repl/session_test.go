package repl

import (
	"io"
	"strings"
	"testing"

	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/token"
	"github.com/ardnew/jammy/log"
)

func testSession(t *testing.T) *session {
	t.Helper()

	return newSession(nil, t.TempDir(), log.Make(io.Discard))
}

func TestSession_Eval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		lines        []string
		wantBindings []binding
		wantLua      string
	}{
		{
			name:         "declaration",
			lines:        []string{`let a = 1;`},
			wantBindings: []binding{{"a", "number"}},
			wantLua:      "local a = 1;",
		},
		{
			name:         "missing semicolon",
			lines:        []string{`let s = "x"`},
			wantBindings: []binding{{"s", "string"}},
			wantLua:      `local s = "x";`,
		},
		{
			name:         "bare expression",
			lines:        []string{`let a = 2;`, `a * 3`},
			wantBindings: []binding{{"it", "number"}},
			wantLua:      "local it = (a*3);",
		},
		{
			name:         "function",
			lines:        []string{`let id = (x: string) => x;`},
			wantBindings: []binding{{"id", "(string) -> string"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := testSession(t)

			var res result
			for _, line := range tt.lines {
				res = s.eval(line)
				if !res.ok() {
					t.Fatalf("eval(%q) = %v", line, res.Diags)
				}
			}

			if len(res.Bindings) != len(tt.wantBindings) {
				t.Fatalf("Bindings = %v, want %v", res.Bindings, tt.wantBindings)
			}

			for i, b := range tt.wantBindings {
				if res.Bindings[i] != b {
					t.Errorf("Bindings[%d] = %v, want %v", i, res.Bindings[i], b)
				}
			}

			if !strings.Contains(res.Lua, tt.wantLua) {
				t.Errorf("Lua = %q, want %q", res.Lua, tt.wantLua)
			}

			if len(s.source) != len(tt.lines) || len(s.lua) != len(tt.lines) {
				t.Errorf("source = %v, lua = %v", s.source, s.lua)
			}
		})
	}
}

func TestSession_EvalScope(t *testing.T) {
	t.Parallel()

	s := testSession(t)

	s.eval(`let a = 1;`)
	s.eval(`let b = "two";`)

	globals := s.globals()
	if len(globals) != 2 || globals[0].Name != "a" || globals[1].Type != "string" {
		t.Errorf("globals() = %v", globals)
	}

	if !strings.Contains(strings.Join(s.names(), " "), "b") {
		t.Errorf("names() = %v", s.names())
	}
}

func TestSession_EvalDiagnostics(t *testing.T) {
	t.Parallel()

	t.Run("syntax", func(t *testing.T) {
		t.Parallel()

		s := testSession(t)

		res := s.eval(`let = 1`)
		if res.ok() || res.Diags[0].Class != diag.Syntax {
			t.Fatalf("eval() = %v, want a syntax error", res.Diags)
		}

		if len(s.source) != 0 {
			t.Errorf("source = %v, want nothing recorded", s.source)
		}
	})

	t.Run("type warning in expression", func(t *testing.T) {
		t.Parallel()

		s := testSession(t)

		line := `"a" - 1`

		res := s.eval(line)
		if len(res.Diags) == 0 {
			t.Fatal("eval() reported no diagnostics")
		}

		for _, d := range res.Diags {
			if d.Pos.Line == 1 && d.Pos.Column > len(line) {
				t.Errorf("diagnostic at %s is past the input", d.Pos)
			}
		}
	})

	t.Run("lexical", func(t *testing.T) {
		t.Parallel()

		s := testSession(t)

		if res := s.eval(`let s = "open`); res.ok() || res.Diags[0].Class != diag.Lex {
			t.Errorf("eval() = %v, want a lexical error", res.Diags)
		}
	})
}

func TestSession_Load(t *testing.T) {
	t.Parallel()

	s := testSession(t)

	diags := s.load("let a = 1;\nlet f = (x) => x + a;\n")
	if diags.HasErrors() {
		t.Fatalf("load() = %v", diags)
	}

	if v := s.checker.Lookup("f"); v == nil {
		t.Error("load() did not bind f")
	}

	if len(s.lua) != 1 || !strings.Contains(s.lua[0], "local a = 1;") {
		t.Errorf("lua = %v", s.lua)
	}

	if diags := s.load("let = ;"); !diags.HasErrors() {
		t.Error("load() accepted a syntax error")
	}
}

func TestShifted(t *testing.T) {
	t.Parallel()

	diags := diag.List{
		{Pos: positionAt(1, 12, 11)},
		{Pos: positionAt(2, 12, 40)},
		{Pos: positionAt(1, 3, 2)},
	}

	got := shifted(diags, 9)

	if got[0].Pos.Column != 3 || got[0].Pos.Offset != 2 {
		t.Errorf("first line = %s", got[0].Pos)
	}

	if got[1].Pos != diags[1].Pos || got[2].Pos != diags[2].Pos {
		t.Errorf("shifted unrelated positions: %v", got)
	}

	if diags[0].Pos.Column != 12 {
		t.Error("shifted() modified its argument")
	}
}

func positionAt(line, column, offset int) token.Position {
	return token.Position{Line: line, Column: column, Offset: offset, Length: 1}
}
