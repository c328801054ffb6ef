package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/jammy/cli/cmd/repl"
	"github.com/ardnew/jammy/lang"
	"github.com/ardnew/jammy/log"
	"github.com/ardnew/jammy/pkg"
)

// Repl starts an interactive session that type checks statements and
// prints their Lua.
type Repl struct {
	Dir     string   `help:"Directory that 'use' paths are resolved against" default:"." type:"existingdir"`
	Sources []string `help:"Source files to load before the first prompt"                 arg:"" optional:"" name:"source" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, opts *Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger := log.Default().With(slog.String("command", "repl"))
	streams := streamsFrom(ctx)
	cache := opts.cache(logger)

	cfg := repl.Config{
		CacheDir: pkg.CacheDir(),
		Dir:      r.Dir,
		Cache:    cache,
		Generate: opts.generate(cache, r.Dir, logger),
		Logger:   logger,
		Color:    opts.Color,
		Stdin:    streams.In,
		Stdout:   streams.Out,
		Stderr:   streams.Err,
	}

	for _, path := range r.Sources {
		text, err := lang.ReadFile(path)
		if err != nil {
			return err
		}

		cfg.Preload = append(cfg.Preload, repl.Source{Name: path, Text: text})
	}

	return repl.Run(ctx, cfg)
}
