// Package diag defines compiler diagnostics, the sinks that collect them,
// and the result type shared by every compiler stage.
package diag

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ardnew/jammy/lang/token"
)

// Class identifies the stage that produced a [Diagnostic].
type Class uint8

const (
	Lex Class = iota
	Syntax
	Type
	Internal
)

func (c Class) String() string {
	switch c {
	case Lex:
		return "lexical error"
	case Syntax:
		return "syntax error"
	case Type:
		return "type error"
	default:
		return "internal error"
	}
}

// Severity controls whether a diagnostic blocks code generation.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}

	return "error"
}

// Diagnostic is a single message tied to a source position.
type Diagnostic struct {
	Class    Class          `json:"class"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Pos      token.Position `json:"pos"`
}

// New returns an error-severity diagnostic at pos.
func New(class Class, pos token.Position, format string, args ...any) Diagnostic {
	return Diagnostic{Class: class, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func (d Diagnostic) Error() string {
	if !d.Pos.IsValid() {
		return d.Class.String() + ": " + d.Message
	}

	return fmt.Sprintf("%s at line %d, column %d: %s",
		d.Class, d.Pos.Line, d.Pos.Column, d.Message)
}

// LogValue implements [slog.LogValuer].
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("class", d.Class.String()),
		slog.String("severity", d.Severity.String()),
		slog.String("pos", d.Pos.String()),
		slog.String("message", d.Message),
	)
}

// List is an ordered collection of diagnostics. A non-empty List is an error.
type List []Diagnostic

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	}

	msgs := make([]string, len(l))
	for i, d := range l {
		msgs[i] = d.Error()
	}

	return fmt.Sprintf("%d diagnostics:\n%s", len(l), strings.Join(msgs, "\n"))
}

// Err returns l as an error, or nil if l is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}

	return l
}

// Unwrap exposes each diagnostic to [errors.As].
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, d := range l {
		errs[i] = d
	}

	return errs
}

// Errors returns the diagnostics of l with error severity.
func (l List) Errors() List {
	var out List

	for _, d := range l {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}

	return out
}

// HasErrors reports whether any diagnostic of l has error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}

	return false
}

// Sink receives diagnostics as they are produced.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(Diagnostic)

// Report implements [Sink].
func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Discard is a [Sink] that drops everything.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Collector is an append-only [Sink] safe for concurrent use.
// The zero value is ready to use.
type Collector struct {
	mu   sync.Mutex
	list List
}

// Report implements [Sink].
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list = append(c.list, d)
}

// List returns a copy of everything reported so far, in order.
func (c *Collector) List() List {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append(List(nil), c.list...)
}

// Len returns the number of diagnostics reported so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.list)
}
