// Package log provides a concurrency-safe logging interface built on
// [log/slog].
//
// A [Logger] is created with [Make] and configured with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatJSON),
//		log.WithCaller(true))
//
// The compiler pipeline logs each stage at [LevelTrace], so running any
// command with --log-level=trace shows lexing, parsing, checking, and code
// generation as they happen.
//
// Attributes added with [Logger.With] appear in every subsequent message.
// Every level has a context-aware variant; the plain variants use
// [DefaultContextProvider].
//
// The package-level functions ([Info], [Warn], ...) write through a default
// logger that [Config] reconfigures.
package log
