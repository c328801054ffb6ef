// Package luagen translates a jammy syntax tree to Lua source.
//
// Generation is a single pass over the tree. Every expression becomes a
// Lua expression; constructs that only exist as statements in Lua (blocks,
// conditionals, protected calls and matches used as values) are wrapped in
// an immediately called closure, or emitted directly when they are the
// value a function returns.
package luagen

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/log"
)

// Import describes what a module binds when another unit uses it.
type Import struct {
	// Exports are the names the module exports, in the order of its export
	// statements.
	Exports []string `yaml:"exports,omitempty" json:"exports,omitempty"`
	// Append is Lua source emitted after the import.
	Append string `yaml:"append,omitempty" json:"append,omitempty"`
}

// Importer looks up the import parameters of a used module. Path is the
// argument of the "use" statement.
type Importer interface {
	Import(path string) (Import, error)
}

// ImporterFunc adapts a function to [Importer].
type ImporterFunc func(path string) (Import, error)

// Import implements [Importer].
func (f ImporterFunc) Import(path string) (Import, error) { return f(path) }

type config struct {
	name      string
	mode      Mode
	fold      bool
	typecheck bool
	luaPath   []string
	importer  Importer
	logger    log.Logger
}

// Option configures generation.
type Option func(*config)

// WithName sets the unit name written to the header comment.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithMode sets the kind of unit to generate. The default is [File].
func WithMode(mode Mode) Option {
	return func(c *config) { c.mode = mode }
}

// WithFold enables constant folding of literal-only subexpressions.
func WithFold(fold bool) Option {
	return func(c *config) { c.fold = fold }
}

// WithTypechecks controls whether annotated parameters are checked when a
// function is called. It is enabled by default.
func WithTypechecks(enabled bool) Option {
	return func(c *config) { c.typecheck = enabled }
}

// WithLuaPath adds search templates, such as "lib/?.lua", to package.path
// in entry point units.
func WithLuaPath(paths ...string) Option {
	return func(c *config) { c.luaPath = append(c.luaPath, paths...) }
}

// WithImporter sets the source of import parameters for "use" statements.
// Without one, used modules are imported without binding any names.
func WithImporter(imp Importer) Option {
	return func(c *config) { c.importer = imp }
}

// WithLogger sets the logger that receives trace events.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func makeConfig(opts ...Option) config {
	c := config{typecheck: true}
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// generator holds the state of one translation.
type generator struct {
	config

	loops   []ast.Loop
	methods []string
	exports int
	protos  bool
	err     error
}

// Generate returns the complete Lua unit for stmts: the boilerplate of the
// configured mode, the translated statements, and the export table.
func Generate(stmts []ast.Stmt, opts ...Option) (string, error) {
	g := &generator{config: makeConfig(opts...)}

	var b strings.Builder

	b.WriteString(g.boilerplate())
	b.WriteString(g.statements(stmts))

	if g.protos {
		g.exports++
		b.WriteString("exports[" + strconv.Itoa(g.exports) + "] = typechecks;\n")
	}

	b.WriteString("return exports;\n")

	if g.err != nil {
		return "", g.err
	}

	g.logger.Trace("generate",
		slog.String("name", g.name),
		slog.String("mode", g.mode.String()),
		slog.Int("statements", len(stmts)),
		slog.Int("exports", g.exports),
	)

	return b.String(), nil
}

// Chunk translates stmts without any boilerplate. Each statement is on a
// line of its own.
func Chunk(stmts []ast.Stmt, opts ...Option) (string, error) {
	g := &generator{config: makeConfig(opts...)}

	s := g.statements(stmts)
	if g.err != nil {
		return "", g.err
	}

	return s, nil
}

func (g *generator) statements(stmts []ast.Stmt) string {
	var b strings.Builder

	for _, s := range stmts {
		if text := g.stmt(s); text != "" {
			b.WriteString(text)
			b.WriteString(";\n")
		}
	}

	return b.String()
}

// fail records the first error of the translation. The returned text
// keeps the output well formed.
func (g *generator) fail(n ast.Node, format string, args ...any) string {
	if g.err == nil {
		g.err = diag.New(diag.Syntax, n.Pos(), format, args...)
	}

	return "nil"
}

func (g *generator) list(es []ast.Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = g.expr(e)
	}

	return strings.Join(parts, ", ")
}

func (g *generator) join(stmts []ast.Stmt) string {
	parts := make([]string, 0, len(stmts))
	for _, s := range stmts {
		if text := g.stmt(s); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "; ")
}
