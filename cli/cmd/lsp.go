package cmd

import (
	"context"
	"log/slog"

	"github.com/tliron/commonlog"

	"github.com/ardnew/jammy/cli/cmd/lsp"
	"github.com/ardnew/jammy/log"
)

// LSP serves the language server protocol on stdio.
type LSP struct {
	Verbosity int     `help:"Protocol log verbosity (0: quiet)"   short:"v"`
	LogFile   string  `help:"Write protocol logs to FILE instead of stderr" placeholder:"FILE" type:"path"`
}

// Run executes the lsp command.
func (l *LSP) Run(ctx context.Context, opts *Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var path *string
	if l.LogFile != "" {
		path = &l.LogFile
	}

	commonlog.Configure(l.Verbosity, path)

	logger := log.Default().With(slog.String("command", "lsp"))
	cache := opts.cache(logger)

	logger.DebugContext(ctx, "language server starting",
		slog.Int("verbosity", l.Verbosity),
	)

	return lsp.New(logger, opts.compile(cache, logger)...).RunStdio(ctx)
}
