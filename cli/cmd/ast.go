package cmd

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/jammy/lang"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/log"
)

// AST prints the syntax tree of a source file.
type AST struct {
	Format lang.Format `help:"Output format (${astFormats})"           default:"tree" short:"F"`
	Indent int         `help:"Indentation of json and yaml output (0: compact)" default:"2"`
	Source string      `help:"Source file or '-' for stdin"                      default:"-" arg:"" optional:"" name:"source"`
}

// Vars returns the kong variables referenced by the flag tags.
func (AST) Vars() kong.Vars {
	return kong.Vars{"astFormats": strings.Join(slices.Collect(lang.Formats()), ", ")}
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context, opts *Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := collect([]string{a.Source})
	if err != nil {
		return err
	}

	src := srcs[0]
	streams := streamsFrom(ctx)

	text, err := src.read(streams.In)
	if err != nil {
		return err
	}

	logger := log.Default().With(slog.String("command", "ast"))

	u, err := lang.Compile(ctx, src.Name(), text,
		lang.WithLogger(logger),
		lang.WithTypecheck(false),
		lang.WithGenerate(false),
	)

	_ = diag.NewPrinter(src.Name(), text, opts.Color).FprintAll(streams.Err, u.Diagnostics)

	if err != nil {
		if errors.Is(err, lang.ErrLex) || errors.Is(err, lang.ErrParse) {
			return ErrCompile.Wrap(err).With(slog.String("source", src.Name()))
		}

		return err
	}

	return u.Format(ctx, streams.Out, a.Format, a.Indent)
}
