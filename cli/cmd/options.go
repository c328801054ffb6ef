package cmd

import (
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/jammy/lang"
	"github.com/ardnew/jammy/lang/luagen"
	"github.com/ardnew/jammy/log"
	"github.com/ardnew/jammy/pkg"
)

// Options are the compiler flags shared by every command.
type Options struct {
	Mode          luagen.Mode `help:"Kind of Lua unit to generate (${compileModes})"            default:"file" short:"m"`
	Strict        bool        `help:"Treat type errors as fatal"`
	Fold          bool        `help:"Fold constant subexpressions"`
	Typecheck     bool        `help:"Check types before generating Lua"                          default:"true" negatable:""`
	RuntimeChecks bool        `help:"Check annotated parameters when functions are called"       default:"true" negatable:""`
	LuaPath       []string    `help:"Template added to package.path by entry points"                                        name:"lua-path" placeholder:"TEMPLATE"`
	Std           string      `help:"Directory containing the std/ modules"                      default:"${compileStd}"   type:"path"`
	Color         bool        `help:"Colorize diagnostics"                                       default:"true" negatable:""`
}

// Group returns the help group of the compiler flags.
func (Options) Group() kong.Group {
	return kong.Group{
		Key:         "compile",
		Title:       "Compiler",
		Description: "Options applied to every compiled source",
	}
}

// Vars returns the kong variables referenced by the flag tags.
func (Options) Vars() kong.Vars {
	return kong.Vars{
		"compileModes": strings.Join(luagen.Modes(), ", "),
		"compileStd":   pkg.ConfigDir(),
	}
}

// cache returns an import cache resolving "std/" paths in the configured
// directory.
func (o *Options) cache(logger log.Logger) *lang.Cache {
	return lang.NewCache(lang.WithStdDir(o.Std), lang.WithCacheLogger(logger))
}

// compile returns the [lang.Compile] options selected by the flags.
func (o *Options) compile(cache *lang.Cache, logger log.Logger) []lang.Option {
	return []lang.Option{
		lang.WithLogger(logger),
		lang.WithMode(o.Mode),
		lang.WithStrict(o.Strict),
		lang.WithFold(o.Fold),
		lang.WithTypecheck(o.Typecheck),
		lang.WithRuntimeChecks(o.RuntimeChecks),
		lang.WithLuaPath(o.LuaPath...),
		lang.WithCache(cache),
	}
}

// generate returns the generator options for Lua chunks translated outside
// of a unit, such as REPL lines.
func (o *Options) generate(cache *lang.Cache, dir string, logger log.Logger) []luagen.Option {
	return []luagen.Option{
		luagen.WithLogger(logger),
		luagen.WithFold(o.Fold),
		luagen.WithTypechecks(o.RuntimeChecks),
		luagen.WithImporter(cache.Imports(dir)),
	}
}
