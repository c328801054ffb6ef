package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] for YAML configuration files.
//
// The document is a mapping from flag names to values. A nested mapping
// named after a command holds values that apply only to that command's
// flags and take precedence over the top level:
//
//	log-level: debug
//	mode: entry_point
//	lua-path: [lib/?.lua, vendor/?.lua]
//	build:
//	  out: dist
//
// Flag names may be spelled with underscores instead of hyphens. A missing
// or empty file yields an empty configuration; a malformed one is an error.
// Command-line flags override every value in the file.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var c config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return c, nil
}

// config implements [kong.Resolver] for a decoded YAML document.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
	if parent != nil && parent.Command != nil {
		if section, ok := c.section(parent.Command.Name); ok {
			if v, ok := section.lookup(flag.Name); ok {
				return v, nil
			}
		}
	}

	if v, ok := c.lookup(flag.Name); ok {
		return v, nil
	}

	return nil, nil
}

func (c config) section(name string) (config, bool) {
	m, ok := c[name].(map[string]any)

	return config(m), ok
}

// lookup returns the value of the flag name, also trying the spelling with
// underscores.
func (c config) lookup(name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if v, ok := c[key]; ok && v != nil {
			return scalar(v), true
		}
	}

	return nil, false
}

// scalar converts a decoded YAML value to a form kong's mappers accept:
// numbers become strings and sequences become comma-separated lists.
func scalar(v any) any {
	switch v := v.(type) {
	case bool, string:
		return v

	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = fmt.Sprint(scalar(e))
		}

		return strings.Join(parts, ",")

	default:
		return fmt.Sprint(v)
	}
}
