// Package cli contains the command line interface for jammy.
//
// # Usage
//
//	jammy [flags] <command> [args]
//
// Without a command, the arguments are compiled as by "jammy build":
//
//	jammy main.jam lib/          # writes main.lua and lib/*.lua
//	jammy build -o dist --watch src/
//	jammy check --strict src/
//	jammy ast --format yaml main.jam
//	jammy repl lib/vec.jam
//	jammy lsp
//
// # Configuration
//
// Flag defaults are read from a YAML file in the configuration directory
// (see [pkg.ConfigDir]), and from a JSON file of the same name with a
// ".json" extension. Keys are flag names, spelled with hyphens or
// underscores. A mapping named after a command holds values for that command
// only:
//
//	log-level: info
//	mode: entry_point
//	lua_path: [lib/?.lua]
//	build:
//	  out: dist
//
// "jammy init" writes the current flag values to the configuration file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o jammy .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: the pprof
//     directory of the cache directory)
package cli
