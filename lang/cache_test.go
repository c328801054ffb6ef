package lang

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/jammy/lang/lexer"
)

func TestSplitHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		src        string
		wantHeader string
		wantBody   string
	}{
		{
			name:     "no header",
			src:      "let a = 1;",
			wantBody: "let a = 1;",
		},
		{
			name:       "header",
			src:        `--[ import_parameters { "append": "x()" } ]` + "\nlet a = 1;",
			wantHeader: `{ "append": "x()" }`,
			wantBody:   strings.Repeat(" ", 43) + "\nlet a = 1;",
		},
		{
			name:       "nested brackets",
			src:        "\n--[ import_parameters {\"exports\": [\"a\", \"b\"]} ]let b;",
			wantHeader: `{"exports": ["a", "b"]}`,
			wantBody:   "\n" + strings.Repeat(" ", 47) + "let b;",
		},
		{
			name:       "unterminated",
			src:        "--[ import_parameters {",
			wantHeader: "{",
			wantBody:   strings.Repeat(" ", 23),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			header, body := SplitHeader(tt.src)
			if header != tt.wantHeader {
				t.Errorf("header = %q, want %q", header, tt.wantHeader)
			}

			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}

			if len(body) != len(tt.src) {
				t.Errorf("len(body) = %d, want %d", len(body), len(tt.src))
			}
		})
	}
}

func TestScanExports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		src        string
		want       []string
		typechecks bool
	}{
		{"none", `let a = 1;`, nil, false},
		{"plain", `let a = 1; export a;`, []string{"a"}, false},
		{"alias", `export a as b; export c;`, []string{"b", "c"}, false},
		{"prototype", `prototype P { x: 1; }; export P;`, []string{"P"}, true},
		{"other statements", `let f = () => { let g = 1; }; export f;`, []string{"f"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, typechecks := scanExports(lexer.Lex(tt.src).Value)
			if !slices.Equal(got, tt.want) {
				t.Errorf("exports = %v, want %v", got, tt.want)
			}

			if typechecks != tt.typechecks {
				t.Errorf("typechecks = %v, want %v", typechecks, tt.typechecks)
			}
		})
	}
}

func TestCache_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "mod.jam")

	writeFile(t, path, `--[ import_parameters { "exports": ["extra"], "append": "mod.init()" } ]
prototype Point { x: 0; };
export Point;
let hidden = 1;
`)

	c := NewCache()

	meta, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := []string{"extra", "Point", "typechecks"}; !slices.Equal(meta.Exports, want) {
		t.Errorf("Exports = %v, want %v", meta.Exports, want)
	}

	if meta.Append != "mod.init()" {
		t.Errorf("Append = %q", meta.Append)
	}

	// Callers own the returned slice.
	meta.Exports[0] = "changed"

	again, _ := c.Load(path)
	if again.Exports[0] != "extra" {
		t.Errorf("cached exports were modified: %v", again.Exports)
	}

	t.Run("content change", func(t *testing.T) {
		writeFile(t, path, `let a = 1; export a;`)

		meta, err := c.Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if !slices.Equal(meta.Exports, []string{"a"}) {
			t.Errorf("Exports = %v, want [a]", meta.Exports)
		}
	})
}

func TestCache_LoadVariants(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := NewCache()

	t.Run("not jammy source", func(t *testing.T) {
		meta, err := c.Load(filepath.Join(dir, "lib.lua"))
		if err != nil || meta.Exports != nil {
			t.Errorf("Load() = %v, %v; want no exports", meta, err)
		}
	})

	t.Run("no exports", func(t *testing.T) {
		path := filepath.Join(dir, "empty.jam")
		writeFile(t, path, `print(1);`)

		meta, err := c.Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if meta.Exports == nil || len(meta.Exports) != 0 {
			t.Errorf("Exports = %#v, want empty", meta.Exports)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := c.Load(filepath.Join(dir, "missing.jam"))
		if !errors.Is(err, ErrImport) || !errors.Is(err, ErrReadInput) {
			t.Errorf("Load() error = %v", err)
		}
	})

	t.Run("version", func(t *testing.T) {
		tests := []struct {
			constraint string
			wantErr    bool
		}{
			{">= 0.1", false},
			{">= 99", true},
			{"not a constraint", true},
		}

		for i, tt := range tests {
			path := filepath.Join(dir, "v"+string(rune('a'+i))+".jam")
			writeFile(t, path, `--[ import_parameters { "jammy": "`+tt.constraint+`" } ]`)

			_, err := c.Load(path)
			if got := errors.Is(err, ErrVersion); got != tt.wantErr {
				t.Errorf("Load(%q) error = %v, want version error %v", tt.constraint, err, tt.wantErr)
			}
		}
	})

	t.Run("bad header", func(t *testing.T) {
		path := filepath.Join(dir, "bad.jam")
		writeFile(t, path, `--[ import_parameters { "exports": 1 } ]`)

		if _, err := c.Load(path); !errors.Is(err, ErrImport) {
			t.Errorf("Load() error = %v, want %v", err, ErrImport)
		}
	})
}

func TestCache_Resolve(t *testing.T) {
	t.Parallel()

	c := NewCache(WithStdDir("/opt/jammy"))

	tests := []struct {
		dir, path, want string
	}{
		{"src", "vec.jam", filepath.Join("src", "vec.jam")},
		{"src", "lib/vec.jam", filepath.Join("src", "lib", "vec.jam")},
		{"src", `lib\vec.jam`, filepath.Join("src", "lib", "vec.jam")},
		{"src", "std/list.jam", filepath.Join("/opt/jammy", "std", "list.jam")},
	}

	for _, tt := range tests {
		if got := c.Resolve(tt.dir, tt.path); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shared.jam")
	writeFile(t, path, `let a = 1; export a;`)

	c := NewCache()
	imports := c.Imports(filepath.Dir(path))

	var wg sync.WaitGroup

	for range 16 {
		wg.Go(func() {
			names, err := imports.Exports("shared.jam")
			if err != nil || !slices.Equal(names, []string{"a"}) {
				t.Errorf("Exports() = %v, %v", names, err)
			}

			imp, err := imports.Import("shared.jam")
			if err != nil || !slices.Equal(imp.Exports, []string{"a"}) {
				t.Errorf("Import() = %v, %v", imp, err)
			}
		})
	}

	wg.Wait()
}
