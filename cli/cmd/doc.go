// Package cmd implements the jammy subcommands: build, check, ast, repl,
// init, and version.
//
// Each command is a kong command struct whose Run method receives the
// shared compiler [Options] and a [context.Context] carrying the parsed
// [kong.Context] and the standard [Streams].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path of
	// the configuration file.
	ConfigIdentifier = "config"
)
