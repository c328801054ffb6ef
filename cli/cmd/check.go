package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/jammy/lang"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/log"
)

// Check reports diagnostics and the types of top-level bindings without
// generating Lua.
type Check struct {
	Quiet   bool     `help:"Print diagnostics only"                        short:"q"`
	Sources []string `help:"Source files or directories, or '-' for stdin"           arg:"" optional:"" name:"source"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context, opts *Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := collect(c.Sources)
	if err != nil {
		return err
	}

	logger := log.Default().With(slog.String("command", "check"))
	streams := streamsFrom(ctx)
	cache := opts.cache(logger)

	compileOpts := append(opts.compile(cache, logger), lang.WithGenerate(false))

	units := make([]*lang.Unit, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, src := range srcs {
		g.Go(func() error {
			text, err := src.read(streams.In)
			if err != nil {
				return err
			}

			u, err := lang.Compile(gctx, src.Name(), text, compileOpts...)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			units[i] = u

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Units are printed in the order their sources were given.
	var failed []string

	for _, u := range units {
		_ = diag.NewPrinter(u.Name, u.Source, opts.Color).FprintAll(streams.Err, u.Diagnostics)

		if u.Status == diag.Fatal {
			failed = append(failed, u.Name)
		}

		if c.Quiet {
			continue
		}

		for _, b := range u.Types {
			fmt.Fprintf(streams.Out, "%s:%s %s: %s\n", u.Name, b.Pos, b.Name, b.Type)
		}
	}

	if len(failed) > 0 {
		return ErrCompile.With(slog.String("sources", strings.Join(failed, ", ")))
	}

	return nil
}
