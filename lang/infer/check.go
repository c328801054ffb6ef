// Package infer checks the types of a jammy program.
//
// A [Checker] evaluates statements depth first and left to right,
// recording the type of every expression it visits. Types are cells of a
// [types.Arena]. A type error is reported to the checker's sink and aborts
// the innermost statement that contains it; evaluation continues with the
// next statement.
package infer

import (
	"errors"
	"iter"
	"log/slog"
	"slices"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/token"
	"github.com/ardnew/jammy/lang/types"
	"github.com/ardnew/jammy/log"
)

// Prelude lists the globals every program may reference: the Lua standard
// library and the helpers of the jammy runtime.
var Prelude = []string{
	"_G", "_VERSION", "assert", "collectgarbage", "coroutine", "debug",
	"dofile", "error", "getmetatable", "io", "ipairs", "load", "loadfile",
	"math", "next", "os", "package", "pairs", "pcall", "print", "rawequal",
	"rawget", "rawlen", "rawset", "require", "select", "setmetatable",
	"string", "table", "tonumber", "tostring", "type", "unpack", "utf8",
	"xpcall",

	"array", "group", "range", "range_inc", "iter", "nop", "has_metatable",
	"path_join", "typechecks", "import", "exports", "__env", "__root_dir",
}

// Resolver reports the names a module exports. A nil slice means the
// exports are unknown, as for a module that is not jammy source.
type Resolver interface {
	Exports(path string) ([]string, error)
}

// ResolverFunc adapts a function to [Resolver].
type ResolverFunc func(path string) ([]string, error)

// Exports implements [Resolver].
func (f ResolverFunc) Exports(path string) ([]string, error) { return f(path) }

// Checker infers the types of a sequence of statements. The program scope
// persists across calls to [Checker.Check]. A Checker is not safe for
// concurrent use.
type Checker struct {
	arena    *types.Arena
	scopes   []*Scope
	rets     []*returnFrame
	types    map[ast.Node]types.Handle
	sink     diag.Sink
	resolver Resolver
	logger   log.Logger

	// open is set after a module whose exports are unknown has been used.
	// Unknown names are then assumed to be globals.
	open bool

	reported int
	fatal    bool
}

type returnFrame struct {
	typ types.Handle
}

// Option configures a [Checker].
type Option func(*Checker)

// WithLogger sets the logger that receives trace events.
func WithLogger(logger log.Logger) Option {
	return func(c *Checker) { c.logger = logger }
}

// WithSink sets the sink that receives diagnostics.
func WithSink(sink diag.Sink) Option {
	return func(c *Checker) { c.sink = sink }
}

// WithResolver sets the resolver used for "use" statements.
func WithResolver(r Resolver) Option {
	return func(c *Checker) { c.resolver = r }
}

// WithGlobals binds names of type any in the program scope, in addition to
// the [Prelude].
func WithGlobals(names ...string) Option {
	return func(c *Checker) {
		for _, name := range names {
			c.global(name, c.arena.NewPrimitive(types.Any))
		}
	}
}

// New returns a checker with the [Prelude] bound in its program scope.
func New(opts ...Option) *Checker {
	c := &Checker{
		arena:  types.NewArena(),
		scopes: []*Scope{{}},
		types:  make(map[ast.Node]types.Handle),
		sink:   diag.Discard,
	}

	anyT := c.arena.NewPrimitive(types.Any)
	for _, name := range Prelude {
		c.global(name, anyT)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Program checks stmts with a new checker and collects its diagnostics.
// Diagnostics are also passed to any sink set with [WithSink].
func Program(stmts []ast.Stmt, opts ...Option) diag.Result[*Checker] {
	var col diag.Collector

	c := New(opts...)
	next := c.sink
	c.sink = diag.SinkFunc(func(d diag.Diagnostic) {
		col.Report(d)
		next.Report(d)
	})

	status := c.CheckAll(stmts)

	return diag.Result[*Checker]{Value: c, Status: status, Diags: col.List()}
}

// Arena returns the arena that owns every type of c.
func (c *Checker) Arena() *types.Arena { return c.arena }

// Check infers the types of one statement. The status is [diag.Ok] if no
// diagnostic was reported, [diag.Fatal] if an internal error was reported,
// and [diag.Recoverable] otherwise.
func (c *Checker) Check(stmt ast.Stmt) diag.Status {
	before := c.reported
	c.fatal = false

	c.logger.Trace("check statement",
		slog.String("kind", stmt.Kind()),
		slog.String("pos", stmt.Pos().String()),
	)

	c.boundary(stmt)

	switch {
	case c.fatal:
		return diag.Fatal
	case c.reported > before:
		return diag.Recoverable
	}

	return diag.Ok
}

// CheckAll checks each statement in order and returns the worst status.
func (c *Checker) CheckAll(stmts []ast.Stmt) diag.Status {
	status := diag.Ok
	for _, s := range stmts {
		status = max(status, c.Check(s))
	}

	return status
}

// TypeOf returns the type recorded for n.
func (c *Checker) TypeOf(n ast.Node) (types.Handle, bool) {
	h, ok := c.types[n]

	return h, ok
}

// TypeString returns the printable type recorded for n, or "".
func (c *Checker) TypeString(n ast.Node) string {
	h, ok := c.types[n]
	if !ok {
		return ""
	}

	return c.arena.String(h)
}

// Lookup returns the visible binding of name.
func (c *Checker) Lookup(name string) *Variable {
	for _, s := range slices.Backward(c.scopes) {
		if v := s.Lookup(name); v != nil {
			return v
		}
	}

	return nil
}

// Globals yields the bindings of the program scope that are not part of
// the prelude, in declaration order.
func (c *Checker) Globals() iter.Seq[*Variable] {
	return func(yield func(*Variable) bool) {
		for v := range c.scopes[0].All() {
			if v.Pos.IsValid() && !yield(v) {
				return
			}
		}
	}
}

// Names returns every visible name, each once.
func (c *Checker) Names() []string {
	var names []string

	for _, s := range slices.Backward(c.scopes) {
		for v := range s.All() {
			if !slices.Contains(names, v.Name) {
				names = append(names, v.Name)
			}
		}
	}

	return names
}

func (c *Checker) push() { c.scopes = append(c.scopes, &Scope{}) }
func (c *Checker) pop()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declare(name string, t types.Handle, pos token.Position) *Variable {
	v := &Variable{Name: name, Type: t, Pos: pos}
	c.scopes[len(c.scopes)-1].Declare(v)

	return v
}

func (c *Checker) global(name string, t types.Handle) *Variable {
	v := &Variable{Name: name, Type: t}
	c.scopes[0].Declare(v)

	return v
}

// boundary checks s and reports the error that aborted it, if any.
func (c *Checker) boundary(s ast.Stmt) {
	if err := c.stmt(s); err != nil {
		c.report(c.diagnostic(s, err))
	}
}

func (c *Checker) report(d diag.Diagnostic) {
	c.reported++
	if d.Class == diag.Internal {
		c.fatal = true
	}

	c.logger.Debug("type error", slog.Any("diagnostic", d))
	c.sink.Report(d)
}

// diagnostic converts err into a diagnostic at the position of n, unless
// err already is one.
func (c *Checker) diagnostic(n ast.Node, err error) diag.Diagnostic {
	var d diag.Diagnostic
	if errors.As(err, &d) {
		return d
	}

	if errors.Is(err, types.ErrInvariant) {
		return diag.New(diag.Internal, n.Pos(), "%v", err)
	}

	return diag.New(diag.Type, n.Pos(), "%v", err)
}

func (c *Checker) errorAt(n ast.Node, err error) error {
	if err == nil {
		return nil
	}

	return c.diagnostic(n, err)
}

// unknown reports a reference to a name that is not bound anywhere.
func (c *Checker) unknown(n ast.Node, name string) error {
	if s := suggest(name, c.Names()); s != "" {
		return diag.New(diag.Type, n.Pos(), "unknown variable '%s' (did you mean '%s'?)", name, s)
	}

	return diag.New(diag.Type, n.Pos(), "unknown variable '%s'", name)
}

// suggest returns the bound name closest to name, or "".
func suggest(name string, names []string) string {
	near := func(s string) bool {
		d := len(s) - len(name)

		return d >= -2 && d <= 2
	}

	for _, m := range fuzzy.Find(name, names) {
		if near(m.Str) {
			return m.Str
		}
	}

	best := ""

	for _, n := range names {
		if near(n) && len(n) > len(best) && len(fuzzy.Find(n, []string{name})) > 0 {
			best = n
		}
	}

	return best
}
