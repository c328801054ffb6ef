package lang

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/infer"
	"github.com/ardnew/jammy/lang/lexer"
	"github.com/ardnew/jammy/lang/luagen"
	"github.com/ardnew/jammy/lang/parser"
	"github.com/ardnew/jammy/lang/token"
	"github.com/ardnew/jammy/log"
)

// Unit is the result of compiling one source file.
type Unit struct {
	Name   string
	Source string

	// AST is nil if the source could not be parsed.
	AST []ast.Stmt
	// Lua is empty unless every stage before generation succeeded.
	Lua string

	Diagnostics diag.List
	Status      diag.Status

	// Types lists the top-level bindings in declaration order. It is empty
	// when type checking is disabled.
	Types []Binding

	checker *infer.Checker
}

// Binding is a name bound in the program scope of a unit.
type Binding struct {
	Name string         `json:"name" yaml:"name"`
	Type string         `json:"type" yaml:"type"`
	Pos  token.Position `json:"pos"  yaml:"pos"`
}

// Checker returns the checker that typed u, or nil.
func (u *Unit) Checker() *infer.Checker { return u.checker }

type options struct {
	logger     log.Logger
	mode       luagen.Mode
	typecheck  bool
	runtime    bool
	strict     bool
	fold       bool
	generate   bool
	luaPath    []string
	cache      *Cache
	sink       diag.Sink
	checkerOpt []infer.Option
}

// Option configures [Compile].
type Option func(*options)

// WithLogger sets the logger that receives trace events of every stage.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMode sets the kind of Lua unit to generate.
func WithMode(mode luagen.Mode) Option {
	return func(o *options) { o.mode = mode }
}

// WithTypecheck enables static type checking. It is enabled by default.
func WithTypecheck(enabled bool) Option {
	return func(o *options) { o.typecheck = enabled }
}

// WithRuntimeChecks controls the argument checks emitted for annotated
// parameters. They are enabled by default.
func WithRuntimeChecks(enabled bool) Option {
	return func(o *options) { o.runtime = enabled }
}

// WithStrict makes type errors block code generation. Otherwise they are
// reported as warnings.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithFold enables constant folding.
func WithFold(fold bool) Option {
	return func(o *options) { o.fold = fold }
}

// WithGenerate controls whether Lua is generated. Disabling it stops
// compilation after type checking.
func WithGenerate(enabled bool) Option {
	return func(o *options) { o.generate = enabled }
}

// WithLuaPath adds package.path templates to entry point units.
func WithLuaPath(paths ...string) Option {
	return func(o *options) { o.luaPath = append(o.luaPath, paths...) }
}

// WithCache resolves "use" statements through c. Without a cache the
// exports of used modules are unknown.
func WithCache(c *Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithSink also passes every diagnostic to sink as it is reported.
func WithSink(sink diag.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// WithCheckerOptions passes opts to the type checker.
func WithCheckerOptions(opts ...infer.Option) Option {
	return func(o *options) { o.checkerOpt = append(o.checkerOpt, opts...) }
}

// Compile translates the jammy source src, named name, to Lua.
//
// Lexical and syntax errors stop compilation before type checking. Type
// errors are reported as warnings unless strict mode is set, in which case
// they block generation. The returned unit holds everything produced up to
// the stage that failed; the error then wraps one of [ErrLex], [ErrParse],
// [ErrType] or [ErrGenerate].
func Compile(ctx context.Context, name, src string, opts ...Option) (*Unit, error) {
	o := options{typecheck: true, runtime: true, generate: true, sink: diag.Discard}
	for _, opt := range opts {
		opt(&o)
	}

	u := &Unit{Name: name, Source: src}
	logger := o.logger.With(slog.String("unit", name))

	report := func(diags diag.List) {
		for _, d := range diags {
			o.sink.Report(d)
		}

		u.Diagnostics = append(u.Diagnostics, diags...)
	}

	fail := func(sentinel *Error, err error) (*Unit, error) {
		u.Status = diag.Fatal

		return u, sentinel.Wrap(err).With(slog.String("unit", name))
	}

	_, body := SplitHeader(src)

	lexed := lexer.Lex(body)
	report(lexed.Diags)

	logger.TraceContext(ctx, "lex done",
		slog.Int("tokens", len(lexed.Value)),
		slog.String("status", lexed.Status.String()),
	)

	if !lexed.Usable() {
		return fail(ErrLex, lexed.Err())
	}

	if err := ctx.Err(); err != nil {
		return u, err
	}

	parsed := parser.Parse(lexed.Value, parser.WithLogger(logger))
	report(parsed.Diags)

	u.AST = parsed.Value
	if parsed.Status != diag.Ok {
		return fail(ErrParse, parsed.Err())
	}

	if o.typecheck {
		if err := ctx.Err(); err != nil {
			return u, err
		}

		checked := infer.Program(u.AST, o.checkerOptions(logger, name)...)
		u.checker = checked.Value

		for v := range u.checker.Globals() {
			u.Types = append(u.Types, Binding{
				Name: v.Name,
				Type: u.checker.Arena().String(v.Type),
				Pos:  v.Pos,
			})
		}

		diags := checked.Diags
		if !o.strict {
			diags = warnings(diags)
		}

		report(diags)

		if checked.Status == diag.Fatal || diags.HasErrors() {
			return fail(ErrType, diags.Errors().Err())
		}

		u.Status = max(u.Status, checked.Status)
	}

	if !o.generate {
		return u, nil
	}

	lua, err := luagen.Generate(u.AST, o.generatorOptions(logger, name)...)
	if err != nil {
		var d diag.Diagnostic
		if errors.As(err, &d) {
			report(diag.List{d})
		}

		return fail(ErrGenerate, err)
	}

	u.Lua = lua

	logger.DebugContext(ctx, "compiled",
		slog.Int("diagnostics", len(u.Diagnostics)),
		slog.Int("lua_bytes", len(lua)),
	)

	return u, nil
}

// CompileFile reads and compiles the source file at path.
func CompileFile(ctx context.Context, path string, opts ...Option) (*Unit, error) {
	src, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Compile(ctx, path, src, opts...)
}

func (o *options) checkerOptions(logger log.Logger, name string) []infer.Option {
	opts := []infer.Option{infer.WithLogger(logger)}
	if o.cache != nil {
		opts = append(opts, infer.WithResolver(o.cache.Imports(filepath.Dir(name))))
	}

	return append(opts, o.checkerOpt...)
}

func (o *options) generatorOptions(logger log.Logger, name string) []luagen.Option {
	opts := []luagen.Option{
		luagen.WithName(filepath.Base(name)),
		luagen.WithMode(o.mode),
		luagen.WithFold(o.fold),
		luagen.WithTypechecks(o.runtime),
		luagen.WithLuaPath(o.luaPath...),
		luagen.WithLogger(logger),
	}

	if o.cache != nil {
		opts = append(opts, luagen.WithImporter(o.cache.Imports(filepath.Dir(name))))
	}

	return opts
}

// warnings returns a copy of diags with type errors lowered to warnings.
func warnings(diags diag.List) diag.List {
	out := make(diag.List, len(diags))
	for i, d := range diags {
		if d.Class == diag.Type {
			d.Severity = diag.SeverityWarning
		}

		out[i] = d
	}

	return out
}
