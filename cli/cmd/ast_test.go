package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/jammy/lang"
)

// TestASTRun tests printing the syntax tree of stdin in each format.
func TestASTRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format lang.Format
		want   string
	}{
		{lang.FormatTree, "var_dec"},
		{lang.FormatJSON, `"type": "var_dec"`},
		{lang.FormatYAML, "type: var_dec"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			t.Parallel()

			ctx, out, _ := testStreams("let a = 1;")

			a := &AST{Format: tt.format, Indent: 2, Source: stdinSource}
			if err := a.Run(ctx, testOptions(t)); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output does not contain %q:\n%s", tt.want, out)
			}
		})
	}
}

// TestASTRunSyntaxError tests that a syntax error prints diagnostics and
// no tree.
func TestASTRunSyntaxError(t *testing.T) {
	t.Parallel()

	ctx, out, errOut := testStreams("let = 1;")

	err := (&AST{Source: stdinSource}).Run(ctx, testOptions(t))
	if !errors.Is(err, ErrCompile) || !errors.Is(err, lang.ErrParse) {
		t.Errorf("Run() error = %v", err)
	}

	if out.Len() != 0 || errOut.Len() == 0 {
		t.Errorf("stdout = %q, stderr = %q", out, errOut)
	}
}

// TestVersionRun tests the version output and requirement checks.
func TestVersionRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmd     Version
		want    string
		wantErr error
	}{
		{"long", Version{}, "jammy ", nil},
		{"short", Version{Short: true}, ".", nil},
		{"satisfied", Version{Short: true, Require: ">= 0.0.1"}, ".", nil},
		{"unsatisfied", Version{Require: ">= 999"}, "", ErrVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, out, _ := testStreams("")

			err := tt.cmd.Run(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}

			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}

	t.Run("bad constraint", func(t *testing.T) {
		t.Parallel()

		ctx, _, _ := testStreams("")

		if err := (&Version{Require: "not a constraint"}).Run(ctx); err == nil {
			t.Error("Run() accepted a malformed constraint")
		}
	})
}
