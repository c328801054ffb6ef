// Package profile starts optional runtime profiling of the compiler.
//
// Profiling uses [github.com/pkg/profile] and is compiled in only with the
// pprof build tag:
//
//	go build -tags pprof .
//	jammy --pprof-mode cpu build main.jam
//
// Without the tag, [Config.Start] returns a profiler whose Stop does
// nothing and [Modes] is empty. Profiles are written to the directory
// given with [WithPath], one file per mode (cpu.pprof, mem.pprof, ...).
// Inspect them with:
//
//	go tool pprof -http=:8080 cpu.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
