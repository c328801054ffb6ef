package repl

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ardnew/jammy/lang"
	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/infer"
	"github.com/ardnew/jammy/lang/lexer"
	"github.com/ardnew/jammy/lang/luagen"
	"github.com/ardnew/jammy/lang/parser"
	"github.com/ardnew/jammy/lang/token"
	"github.com/ardnew/jammy/log"
)

// resultName is bound to the value of a line that is a bare expression.
const resultName = "it"

// resultPrefix turns a bare expression into a declaration of resultName.
const resultPrefix = "let " + resultName + " = "

// binding is a name declared by one line, with its inferred type.
type binding struct {
	Name string
	Type string
}

// result is the outcome of evaluating one line.
type result struct {
	Bindings []binding
	// Calls holds the result types of call statements.
	Calls []string
	Lua   string
	Diags diag.List
}

// ok reports whether the line produced no errors.
func (r result) ok() bool { return !r.Diags.HasErrors() }

// session checks lines against a program scope that persists between
// them. A session is not safe for concurrent use.
type session struct {
	checker *infer.Checker
	pending diag.List
	gen     []luagen.Option
	logger  log.Logger
	// source holds every line that parsed, in order.
	source []string
	lua    []string
}

func newSession(cache *lang.Cache, dir string, logger log.Logger, gen ...luagen.Option) *session {
	s := &session{gen: gen, logger: logger}

	opts := []infer.Option{
		infer.WithLogger(logger),
		infer.WithSink(diag.SinkFunc(func(d diag.Diagnostic) {
			s.pending = append(s.pending, d)
		})),
	}
	if cache != nil {
		opts = append(opts, infer.WithResolver(cache.Imports(dir)))
	}

	s.checker = infer.New(opts...)

	return s
}

// names returns every name visible at the top level.
func (s *session) names() []string { return s.checker.Names() }

// globals returns the declared top-level bindings with their types.
func (s *session) globals() []binding {
	var bs []binding
	for v := range s.checker.Globals() {
		bs = append(bs, binding{Name: v.Name, Type: s.checker.Arena().String(v.Type)})
	}

	return bs
}

// eval checks and translates one line. A line that is not a statement list
// but parses as an expression is bound to "it".
func (s *session) eval(line string) result {
	line = strings.TrimSpace(line)

	stmts, shift, diags := s.parse(line)
	if stmts == nil {
		return result{Diags: diags}
	}

	s.pending = nil

	seen := make(map[*infer.Variable]bool)
	for v := range s.checker.Globals() {
		seen[v] = true
	}

	var res result

	for _, st := range stmts {
		s.checker.Check(st)

		if e, ok := st.(ast.Expr); ok {
			if t := s.checker.TypeString(e); t != "" {
				res.Calls = append(res.Calls, t)
			}
		}
	}

	for v := range s.checker.Globals() {
		if !seen[v] {
			res.Bindings = append(res.Bindings, binding{
				Name: v.Name,
				Type: s.checker.Arena().String(v.Type),
			})
		}
	}

	res.Diags = shifted(s.pending, shift)

	lua, err := luagen.Chunk(stmts, s.gen...)
	if err != nil {
		res.Diags = append(res.Diags, shifted(diag.List{generatorError(err)}, shift)...)
	} else {
		res.Lua = strings.TrimRight(lua, "\n")
		s.lua = append(s.lua, res.Lua)
	}

	s.source = append(s.source, line)

	s.logger.Trace("repl eval",
		slog.Int("statements", len(stmts)),
		slog.Int("bindings", len(res.Bindings)),
		slog.Int("diagnostics", len(res.Diags)),
	)

	return res
}

// parse tries line as written, then with a terminating semicolon, then as
// an expression bound to "it". shift is the number of columns prepended to
// the first line. The diagnostics of the first attempt are returned if all
// of them fail.
func (s *session) parse(line string) (stmts []ast.Stmt, shift int, diags diag.List) {
	attempts := []struct {
		src   string
		shift int
	}{
		{line, 0},
		{line + ";", 0},
		{resultPrefix + strings.TrimSuffix(line, ";") + ";", len(resultPrefix)},
	}

	for i, a := range attempts {
		lexed := lexer.Lex(a.src)
		if !lexed.Usable() {
			return nil, 0, lexed.Diags
		}

		parsed := parser.Parse(lexed.Value, parser.WithLogger(s.logger))
		if parsed.Status == diag.Ok {
			return parsed.Value, a.shift, nil
		}

		if i == 0 {
			diags = parsed.Diags
		}
	}

	return nil, 0, diags
}

// shifted moves diagnostics on the first line left by n columns.
func shifted(diags diag.List, n int) diag.List {
	if n == 0 {
		return diags
	}

	out := make(diag.List, len(diags))
	for i, d := range diags {
		if d.Pos.Line == 1 && d.Pos.Column > n {
			d.Pos.Column -= n
			d.Pos.Offset -= n
		}

		out[i] = d
	}

	return out
}

// load checks and translates a whole source text, such as a file given on
// the command line or the buffer of an edit. Unlike [session.eval] it does
// not retry with a terminating semicolon.
func (s *session) load(src string) diag.List {
	lexed := lexer.Lex(src)
	if !lexed.Usable() {
		return lexed.Diags
	}

	parsed := parser.Parse(lexed.Value, parser.WithLogger(s.logger))
	if parsed.Status != diag.Ok {
		return parsed.Diags
	}

	s.pending = nil
	s.checker.CheckAll(parsed.Value)
	diags := s.pending

	lua, err := luagen.Chunk(parsed.Value, s.gen...)
	if err != nil {
		return append(diags, generatorError(err))
	}

	s.source = append(s.source, strings.TrimSpace(src))
	s.lua = append(s.lua, strings.TrimRight(lua, "\n"))

	return diags
}

// generatorError returns the diagnostic that err carries, or an internal
// one without a position.
func generatorError(err error) diag.Diagnostic {
	var d diag.Diagnostic
	if errors.As(err, &d) {
		return d
	}

	return diag.New(diag.Internal, token.Position{}, "%v", err)
}
