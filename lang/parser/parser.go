// Package parser builds the syntax tree of a jammy program from its tokens.
//
// The parser is hand-written recursive descent with unlimited lookahead.
// Locally ambiguous prefixes are resolved by speculation: a trial
// production runs against the token stream, the cursor is restored, and the
// real production runs only if the trial succeeded (or failed, for the
// negative form). Speculation never reports diagnostics.
//
// Errors are recovered at statement granularity. A statement that fails to
// parse is reported once, and parsing resumes after the next ';' or at the
// end of the enclosing block.
package parser

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/token"
	"github.com/ardnew/jammy/log"
)

// keywords end a postfix chain instead of starting a call argument.
var keywords = []string{"else", "in"}

// Parser holds the state of one parse. A Parser is not safe for concurrent
// use.
type Parser struct {
	state

	toks        []token.Token
	speculating int
	diags       diag.List
	logger      log.Logger

	// tuples caches the outcome of tuple trials.
	tuples map[trialKey]bool
}

// trialKey identifies a trial by its position and by the frames that
// decide whether a jump inside it is valid.
type trialKey struct {
	pos, loops, rets int
	barrier          bool
}

func (p *Parser) trialKey() trialKey {
	k := trialKey{pos: p.pos, loops: len(p.loops), rets: len(p.rets)}
	if k.loops > 0 {
		k.barrier = p.loops[k.loops-1].barrier
	}

	return k
}

// state is everything a speculative trial may change.
type state struct {
	pos   int
	loops []loopFrame
	rets  []returnFrame
}

func (s state) clone() state {
	return state{pos: s.pos, loops: slices.Clone(s.loops), rets: slices.Clone(s.rets)}
}

// loopFrame tracks the jumps that target one loop. A barrier frame marks a
// function boundary that jumps cannot cross.
type loopFrame struct {
	ast.Loop

	barrier bool
}

// returnFrame tracks the returns of one function body, block expression or
// try statement body. Returns in a virtual frame must be carried out of a
// protected call.
type returnFrame struct {
	virtual bool
	used    bool
}

// Option configures a [Parser].
type Option func(*Parser)

// WithLogger sets the logger that receives trace events.
func WithLogger(logger log.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// New returns a parser over toks. If toks does not end with an EOF token,
// one is appended.
func New(toks []token.Token, opts ...Option) *Parser {
	if n := len(toks); n == 0 || toks[n-1].Kind != token.EOF {
		var pos token.Position
		if n > 0 {
			last := toks[n-1].Pos
			pos = token.Position{
				Offset: last.Offset + last.Length,
				Line:   last.Line,
				Column: last.Column + last.Length,
			}
		}

		toks = append(slices.Clip(toks), token.Token{Kind: token.EOF, Pos: pos})
	}

	p := &Parser{toks: toks}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse parses a whole program. The result is [diag.Recoverable] if any
// statement had to be skipped.
func Parse(toks []token.Token, opts ...Option) diag.Result[[]ast.Stmt] {
	return New(toks, opts...).Program()
}

// ParseExpression parses toks as one standalone expression, as found in a
// string interpolation.
func ParseExpression(toks []token.Token, opts ...Option) diag.Result[ast.Expr] {
	p := New(toks, opts...)

	e, err := p.Expression()
	if err != nil {
		return diag.Failure[ast.Expr](diag.List{p.diagnostic(err)})
	}

	return diag.Success(e)
}

// Program parses statements up to the end of input.
func (p *Parser) Program() diag.Result[[]ast.Stmt] {
	p.logger.Trace("parse start", slog.Int("tokens", len(p.toks)))

	stmts, err := p.statements()
	if err != nil {
		p.report(err)
	}

	p.logger.Trace("parse done",
		slog.Int("statements", len(stmts)),
		slog.Int("diagnostics", len(p.diags)),
	)

	return diag.Partial(stmts, p.diags)
}

// Expression parses one expression that must span the remaining input.
func (p *Parser) Expression() (ast.Expr, error) {
	e, err := p.expression()
	if err != nil {
		return nil, err
	}

	if !p.match(token.EOF) {
		return nil, p.expected("the end of the expression")
	}

	return e, nil
}

func (p *Parser) peek(n int) token.Token {
	if i := p.pos + n; i >= 0 && i < len(p.toks) {
		return p.toks[i]
	}

	return p.toks[len(p.toks)-1]
}

func (p *Parser) next() token.Token {
	t := p.peek(0)
	p.pos++

	return t
}

func (p *Parser) back() { p.pos-- }

func (p *Parser) match(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek(0).Kind)
}

func (p *Parser) eat(kind token.Kind) (token.Token, error) {
	t := p.peek(0)
	if t.Kind != kind {
		return t, p.expected(kind.Describe())
	}

	p.pos++

	return t, nil
}

func (p *Parser) ident() (token.Token, error) { return p.eat(token.Ident) }

// isWord reports whether the current token is one of the identifiers words.
func (p *Parser) isWord(words ...string) bool {
	t := p.peek(0)

	return t.Kind == token.Ident && slices.Contains(words, t.Value)
}

// matchWord consumes the current token if it is the identifier word.
func (p *Parser) matchWord(word string) bool {
	if p.isWord(word) {
		p.pos++

		return true
	}

	return false
}

func (p *Parser) eatWord(word string) error {
	if !p.matchWord(word) {
		return p.expected("'" + word + "'")
	}

	return nil
}

// expect checks the current token without consuming it.
func (p *Parser) expect(what string, kinds ...token.Kind) error {
	if !p.match(kinds...) {
		return p.expected(what)
	}

	return nil
}

func (p *Parser) errorAt(pos token.Position, format string, args ...any) error {
	return diag.New(diag.Syntax, pos, format, args...)
}

func (p *Parser) expected(what string) error {
	t := p.peek(0)

	return p.errorAt(t.Pos, "expected %s but got %s", what, t.Describe())
}

func (p *Parser) diagnostic(err error) diag.Diagnostic {
	var d diag.Diagnostic
	if errors.As(err, &d) {
		return d
	}

	return diag.New(diag.Internal, p.peek(0).Pos, "%v", err)
}

func (p *Parser) report(err error) {
	d := p.diagnostic(err)
	p.diags = append(p.diags, d)
	p.logger.Debug("syntax error", slog.Any("diagnostic", d))
}

// try runs trial and restores the parser state. It reports whether the
// trial succeeded.
func (p *Parser) try(trial func() error) bool {
	saved := p.state.clone()

	p.speculating++
	err := trial()
	p.speculating--

	p.state = saved

	return err == nil
}

// tryMatch runs production only if trial succeeds. The boolean result
// reports whether production ran.
func tryMatch[T any](p *Parser, trial func() error, production func() (T, error)) (T, bool, error) {
	if !p.try(trial) {
		var zero T

		return zero, false, nil
	}

	v, err := production()

	return v, true, err
}

// tryNotMatch runs production only if trial fails.
func tryNotMatch[T any](p *Parser, trial func() error, production func() (T, error)) (T, bool, error) {
	if p.try(trial) {
		var zero T

		return zero, false, nil
	}

	v, err := production()

	return v, true, err
}

// ignore adapts a production for use as a trial.
func ignore[T any](production func() (T, error)) func() error {
	return func() error {
		_, err := production()

		return err
	}
}

// statements parses a statement list up to EOF or one of terminators,
// which is not consumed. While speculating, the first error is returned;
// otherwise each failed statement is reported and skipped.
func (p *Parser) statements(terminators ...token.Kind) ([]ast.Stmt, error) {
	stop := append([]token.Kind{token.EOF}, terminators...)
	skip := append(slices.Clone(stop), token.Semicolon)

	var stmts []ast.Stmt

	for !p.match(stop...) {
		s, err := p.statement()
		if err == nil {
			_, err = p.eat(token.Semicolon)
		}

		if err == nil {
			stmts = append(stmts, s)

			continue
		}

		if p.speculating > 0 {
			return nil, err
		}

		p.report(err)

		for !p.match(skip...) {
			p.pos++
		}

		if p.match(terminators...) {
			break
		}

		p.pos++
	}

	return stmts, nil
}

// block parses "{ statements }" and requires at least one statement.
func (p *Parser) block() ([]ast.Stmt, error) {
	if _, err := p.eat(token.OpenCurly); err != nil {
		return nil, err
	}

	reported := len(p.diags)

	stmts, err := p.statements(token.CloseCurly)
	if err != nil {
		return nil, err
	}

	if len(stmts) == 0 && len(p.diags) == reported {
		return nil, p.expected("a statement")
	}

	if _, err := p.eat(token.CloseCurly); err != nil {
		return nil, err
	}

	return stmts, nil
}

// within runs f as the body of a function, a block expression or, when
// virtual is set, a try statement. Loop jumps cannot cross the boundary.
func (p *Parser) within(virtual bool, f func() error) (returnFrame, error) {
	rd, ld := len(p.rets), len(p.loops)

	p.rets = append(p.rets, returnFrame{virtual: virtual})
	p.loops = append(p.loops, loopFrame{barrier: true})

	defer func() {
		p.rets = p.rets[:rd]
		p.loops = p.loops[:ld]
	}()

	err := f()

	return p.rets[rd], err
}

// loop runs f as the body of a loop and returns the jumps found in it.
func (p *Parser) loop(f func() error) (ast.Loop, error) {
	ld := len(p.loops)

	p.loops = append(p.loops, loopFrame{})
	defer func() { p.loops = p.loops[:ld] }()

	err := f()

	return p.loops[ld].Loop, err
}

func base(t token.Token) ast.Base { return ast.Base{At: t.Pos} }

// leftify rotates a right-leaning chain of binary operations so that it
// associates to the left: a - (b - c) becomes (a - b) - c. Operands of x
// are already left-leaning, so the rotation descends the left spine of the
// right operand.
func leftify(x *ast.Binary) *ast.Binary {
	r, ok := x.Right.(*ast.Binary)
	if !ok {
		return x
	}

	x.Right = r.Left
	r.Left = leftify(x)

	return leftify(r)
}

// leftifyArray folds postfix operations onto head from left to right.
func leftifyArray(head ast.Expr, chain []ast.Expr) ast.Expr {
	for _, n := range chain {
		switch n := n.(type) {
		case *ast.IndexObject:
			n.Left = head
		case *ast.IndexKey:
			n.Left = head
		case *ast.MethodCall:
			n.Left = head
		case *ast.SelfMethodCall:
			n.Left = head
		}

		head = n
	}

	return head
}
