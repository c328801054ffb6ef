package lang

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/luagen"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	u, err := Compile(context.Background(), "main.jam", `let a = 1 + 2; let f = (x) => x * a;`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if u.Status != diag.Ok || len(u.Diagnostics) > 0 {
		t.Errorf("Status = %v, Diagnostics = %v", u.Status, u.Diagnostics)
	}

	for _, want := range []string{
		"-- main.jam - generated by jammy ",
		"local a = (1+2);\n",
		"local f;f = function(x) return (x*a) end;\n",
	} {
		if !strings.Contains(u.Lua, want) {
			t.Errorf("Lua does not contain %q:\n%s", want, u.Lua)
		}
	}

	if !strings.HasSuffix(u.Lua, "return exports;\n") {
		t.Errorf("Lua does not end with the exports:\n%s", u.Lua)
	}

	want := []Binding{{Name: "a", Type: "number"}, {Name: "f", Type: "(number) -> number"}}
	if len(u.Types) != len(want) {
		t.Fatalf("Types = %v", u.Types)
	}

	for i, b := range want {
		if u.Types[i].Name != b.Name || u.Types[i].Type != b.Type {
			t.Errorf("Types[%d] = %s: %s, want %s: %s",
				i, u.Types[i].Name, u.Types[i].Type, b.Name, b.Type)
		}
	}
}

func TestCompile_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		opts     []Option
		sentinel *Error
		class    diag.Class
	}{
		{"lexical", `let a = "open;`, nil, ErrLex, diag.Lex},
		{"syntax", `let = 1;`, nil, ErrParse, diag.Syntax},
		{"strict type", `let s = "a" - 1;`, []Option{WithStrict(true)}, ErrType, diag.Type},
		{"generation", `super(1);`, []Option{WithTypecheck(false)}, ErrGenerate, diag.Syntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := Compile(context.Background(), "bad.jam", tt.src, tt.opts...)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("Compile() error = %v, want %v", err, tt.sentinel)
			}

			if u.Status != diag.Fatal {
				t.Errorf("Status = %v, want fatal", u.Status)
			}

			if u.Lua != "" {
				t.Errorf("Lua = %q, want none", u.Lua)
			}

			if len(u.Diagnostics) == 0 || u.Diagnostics[0].Class != tt.class {
				t.Errorf("Diagnostics = %v, want class %v", u.Diagnostics, tt.class)
			}
		})
	}
}

func TestCompile_TypeWarnings(t *testing.T) {
	t.Parallel()

	var col diag.Collector

	u, err := Compile(context.Background(), "warn.jam",
		`let s = "a" - 1; let n = 2;`, WithSink(&col))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if u.Status != diag.Recoverable {
		t.Errorf("Status = %v, want recoverable", u.Status)
	}

	if len(u.Diagnostics) != 1 || u.Diagnostics[0].Severity != diag.SeverityWarning {
		t.Fatalf("Diagnostics = %v, want one warning", u.Diagnostics)
	}

	if col.Len() != 1 || col.List()[0] != u.Diagnostics[0] {
		t.Errorf("sink received %v", col.List())
	}

	if !strings.Contains(u.Lua, "local n = 2;") {
		t.Errorf("Lua = %s", u.Lua)
	}
}

func TestCompile_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		opts    []Option
		want    []string
		notWant []string
	}{
		{
			name:    "entry point",
			src:     `print(1);`,
			opts:    []Option{WithMode(luagen.EntryPoint), WithLuaPath("lib/?.lua")},
			want:    []string{"__root_dir=__parent_dir;", `package.path = "lib/?.lua" .. ";" .. package.path;`},
			notWant: []string{"__require_params"},
		},
		{
			name: "fold",
			src:  `let a = 2 * 8;`,
			opts: []Option{WithFold(true)},
			want: []string{"local a = 16;"},
		},
		{
			name:    "runtime checks off",
			src:     `let f = (n: number) => n;`,
			opts:    []Option{WithRuntimeChecks(false)},
			notWant: []string{"__typecheck_arg"},
		},
		{
			name: "runtime checks on",
			src:  `let f = (n: number) => n;`,
			want: []string{`__typecheck_arg(typechecks, 1, n, "number");`},
		},
		{
			name: "header",
			src:  "--[ import_parameters { \"exports\": [\"a\"] } ]\nlet a = 1;\nexport a;",
			want: []string{"local a = 1;", "exports[1] = a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := Compile(context.Background(), "opts.jam", tt.src, tt.opts...)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}

			for _, s := range tt.want {
				if !strings.Contains(u.Lua, s) {
					t.Errorf("Lua does not contain %q:\n%s", s, u.Lua)
				}
			}

			for _, s := range tt.notWant {
				if strings.Contains(u.Lua, s) {
					t.Errorf("Lua contains %q:\n%s", s, u.Lua)
				}
			}
		})
	}
}

func TestCompile_NoGenerate(t *testing.T) {
	t.Parallel()

	u, err := Compile(context.Background(), "check.jam", `let s = "x";`, WithGenerate(false))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if u.Lua != "" {
		t.Errorf("Lua = %q, want none", u.Lua)
	}

	if len(u.Types) != 1 || u.Types[0].Type != "string" {
		t.Errorf("Types = %v", u.Types)
	}

	if u.Checker() == nil || u.Checker().Lookup("s") == nil {
		t.Error("Checker() does not bind s")
	}
}

func TestCompile_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compile(ctx, "c.jam", `let a = 1;`)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Compile() error = %v, want %v", err, context.Canceled)
	}
}

func TestCompile_Use(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "vec.jam"), `let Vec = (x, y) => x + y; export Vec;`)

	src := `use "vec.jam"; let v = Vec(1, 2);`
	main := filepath.Join(dir, "main.jam")

	t.Run("with cache", func(t *testing.T) {
		t.Parallel()

		u, err := Compile(context.Background(), main, src, WithCache(NewCache()))
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		if len(u.Diagnostics) > 0 {
			t.Errorf("Diagnostics = %v", u.Diagnostics)
		}

		want := `local Vec = __import(1, {Vec}, import("vec"));__env.Vec = Vec;`
		if !strings.Contains(u.Lua, want) {
			t.Errorf("Lua does not contain %q:\n%s", want, u.Lua)
		}
	})

	t.Run("without cache", func(t *testing.T) {
		t.Parallel()

		u, err := Compile(context.Background(), main, src)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		if len(u.Diagnostics) > 0 {
			t.Errorf("Diagnostics = %v", u.Diagnostics)
		}

		if !strings.Contains(u.Lua, "import(\"vec\");\n") {
			t.Errorf("Lua = %s", u.Lua)
		}
	})
}

func TestCompileFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file.jam")
	writeFile(t, path, "let a = true;\n")

	u, err := CompileFile(context.Background(), path)
	if err != nil {
		t.Fatalf("CompileFile() error = %v", err)
	}

	if u.Name != path || !strings.Contains(u.Lua, "local a = true;") {
		t.Errorf("Name = %q, Lua = %s", u.Name, u.Lua)
	}

	if _, err := CompileFile(context.Background(), path+".missing"); !errors.Is(err, ErrReadInput) {
		t.Errorf("CompileFile(missing) error = %v, want %v", err, ErrReadInput)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
