package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/jammy/lang/ast"
)

// Format selects how [Unit.Format] writes a syntax tree.
type Format int

const (
	FormatTree Format = iota
	FormatJSON
	FormatYAML
)

var formatNames = [...]string{"tree", "json", "yaml"}

// Formats returns an iterator over the names of all tree formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range formatNames {
			if !yield(name) {
				return
			}
		}
	}
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}

	return formatNames[f]
}

// ParseFormat returns the format named s, case-insensitively.
func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Format(i), nil
		}
	}

	return 0, fmt.Errorf("unknown format %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}

	*f = v

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// Format writes the syntax tree of u to w. Indent applies to JSON and YAML;
// zero selects their compact forms.
func (u *Unit) Format(ctx context.Context, w io.Writer, f Format, indent int) error {
	switch f {
	case FormatJSON:
		return u.FormatJSON(ctx, w, indent)
	case FormatYAML:
		return u.FormatYAML(ctx, w, indent)
	default:
		return ast.Fprint(w, u.AST)
	}
}

// FormatJSON writes the syntax tree as JSON to the writer.
func (u *Unit) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(u.ToMap(), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(u.ToMap())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the syntax tree as YAML to the writer.
func (u *Unit) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, u.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// ToMap converts the syntax tree to a list of nested maps, one per
// statement.
func (u *Unit) ToMap() []any {
	out := make([]any, len(u.AST))
	for i, s := range u.AST {
		out[i] = ast.Map(s)
	}

	return out
}
