package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/jammy/cli/cmd"
	"github.com/ardnew/jammy/pkg"
)

// CLI is the top-level command-line interface for jammy.
type CLI struct {
	Log     logConfig   `embed:"" group:"log"     prefix:"log-"`
	Pprof   pprofConfig `embed:"" group:"pprof"   prefix:"pprof-"`
	Compile cmd.Options `embed:"" group:"compile"`

	Init    cmd.Init    `cmd:"" help:"Initialize configuration file"`
	Build   cmd.Build   `cmd:"" help:"Compile sources to Lua"                        default:"withargs"`
	Check   cmd.Check   `cmd:"" help:"Report diagnostics and binding types"`
	AST     cmd.AST     `cmd:"" help:"Print the syntax tree of a source"             name:"ast"`
	Repl    cmd.Repl    `cmd:"" help:"Start an interactive session"`
	LSP     cmd.LSP     `cmd:"" help:"Serve the language server protocol on stdio" name:"lsp"`
	Version cmd.Version `cmd:"" help:"Print the compiler version"`
}

// Run executes the jammy CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Compile.Vars()).
		CloneWith(cli.AST.Vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	// Parse command line
	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), cli.Compile.Group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.Bind(&cli.Compile),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	// Execute the selected command
	return ktx.Run(ctx)
}
