package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/jammy/lang/luagen"
)

// initCLI is a command line resembling the real one.
type initCLI struct {
	Compile   Options `embed:""`
	PprofMode string  `name:"pprof-mode"`
	Secret    string  `hidden:""`

	Init Init `cmd:""`
}

func parseInit(t *testing.T, confPath string, args ...string) *kong.Context {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli,
		kong.Vars{ConfigIdentifier: confPath},
		cli.Compile.Vars(),
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"init"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	return ktx
}

// TestInitRun tests the Init.Run command.
func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		setup   func(t *testing.T, path string)
		wantErr error
	}{
		{
			name: "create_new_config",
		},
		{
			name:  "overwrite_existing_with_force",
			force: true,
			setup: func(t *testing.T, path string) {
				writeFile(t, path, "existing content")
			},
		},
		{
			name: "fail_without_force",
			setup: func(t *testing.T, path string) {
				writeFile(t, path, "existing content")
			},
			wantErr: ErrFileExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "config")

			if tt.setup != nil {
				tt.setup(t, confPath)
			}

			ktx := parseInit(t, confPath,
				"--mode=entry_point", "--lua-path=lib/?.lua", "--pprof-mode=cpu")
			ctx := WithContext(context.Background(), ktx)

			err := (&Init{Force: tt.force}).Run(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
			}

			if tt.wantErr != nil {
				return
			}

			data, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var doc map[string]any
			if err := yaml.Unmarshal(data, &doc); err != nil {
				t.Fatalf("generated config is not valid YAML: %v\n%s", err, data)
			}

			if doc["mode"] != luagen.EntryPoint.String() {
				t.Errorf("mode = %v", doc["mode"])
			}

			if doc["typecheck"] != true {
				t.Errorf("typecheck = %v", doc["typecheck"])
			}

			if paths, ok := doc["lua-path"].([]any); !ok || len(paths) != 1 || paths[0] != "lib/?.lua" {
				t.Errorf("lua-path = %#v", doc["lua-path"])
			}

			for _, skipped := range []string{"help", "pprof-mode", "secret"} {
				if _, ok := doc[skipped]; ok {
					t.Errorf("config contains %q", skipped)
				}
			}
		})
	}
}

// TestFlagValue tests the conversion of flag values to YAML values.
func TestFlagValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"nil", nil, nil},
		{"bool", false, false},
		{"int", 3, 3},
		{"string", "x", "x"},
		{"empty string", "", nil},
		{"empty list", []string{}, nil},
		{"text marshaler", luagen.LoveEntryPoint, "love_entry_point"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := flagValue(tt.value); got != tt.want {
				t.Errorf("flagValue(%#v) = %#v, want %#v", tt.value, got, tt.want)
			}
		})
	}
}
