package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/jammy/lang"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/log"
	"github.com/ardnew/jammy/pkg"
)

// Build compiles source files to Lua.
type Build struct {
	Out     string   `help:"Directory for generated files (default: next to each source)" short:"o" type:"path"`
	Watch   bool     `help:"Rebuild when sources change"                                   short:"w"`
	Jobs    int      `help:"Maximum number of concurrent compilations (0: one per CPU)"    short:"j"`
	Sources []string `help:"Source files or directories, or '-' for stdin"                           arg:"" optional:"" name:"source"`
}

// Run executes the build command.
func (b *Build) Run(ctx context.Context, opts *Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := collect(b.Sources)
	if err != nil {
		return err
	}

	if b.Out != "" {
		if err := os.MkdirAll(b.Out, 0o755); err != nil {
			return ErrWriteOutput.Wrap(err).With(slog.String("dir", b.Out))
		}
	}

	logger := log.Default().With(slog.String("command", "build"))
	bld := &builder{
		Build:   b,
		opts:    opts,
		cache:   opts.cache(logger),
		logger:  logger,
		streams: streamsFrom(ctx),
	}

	err = bld.all(ctx, srcs)
	if !b.Watch {
		return err
	}

	if err != nil {
		logger.WarnContext(ctx, "build failed", slog.Any("error", err))
	}

	return bld.watch(ctx, srcs)
}

// builder holds the state shared by the compilations of one build.
type builder struct {
	*Build

	opts    *Options
	cache   *lang.Cache
	logger  log.Logger
	streams Streams

	// mu serializes writes to the output streams.
	mu sync.Mutex
}

// all compiles every source concurrently and returns an error naming the
// sources that failed.
func (b *builder) all(ctx context.Context, srcs []Source) error {
	g, gctx := errgroup.WithContext(ctx)

	jobs := b.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g.SetLimit(jobs)

	failed := make([]bool, len(srcs))

	for i, src := range srcs {
		g.Go(func() error {
			ok, err := b.one(gctx, src)
			failed[i] = !ok

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	var names []string

	for i, src := range srcs {
		if failed[i] {
			names = append(names, src.Name())
		}
	}

	if len(names) > 0 {
		return ErrCompile.With(slog.String("sources", strings.Join(names, ", ")))
	}

	return nil
}

// one compiles src and writes its Lua. Compilation failures are reported as
// diagnostics and ok is false; err is reserved for failures that stop the
// whole build.
func (b *builder) one(ctx context.Context, src Source) (ok bool, err error) {
	text, err := src.read(b.streams.In)
	if err != nil {
		b.logger.ErrorContext(ctx, "read failed",
			slog.String("source", src.Name()),
			slog.Any("error", err),
		)

		return false, nil
	}

	u, err := lang.Compile(ctx, src.Name(), text, b.opts.compile(b.cache, b.logger)...)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, err
	}

	b.print(src, u)

	if err != nil {
		return false, nil
	}

	if err := b.write(src, u.Lua); err != nil {
		return false, err
	}

	b.logger.DebugContext(ctx, "built",
		slog.String("source", src.Name()),
		slog.String("status", u.Status.String()),
	)

	return true, nil
}

// print writes the diagnostics of u with source snippets.
func (b *builder) print(src Source, u *lang.Unit) {
	if len(u.Diagnostics) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_ = diag.NewPrinter(src.Name(), u.Source, b.opts.Color).FprintAll(b.streams.Err, u.Diagnostics)
}

// write stores lua next to src or in the output directory. The Lua of
// stdin goes to standard output.
func (b *builder) write(src Source, lua string) error {
	if src.IsStdin() {
		b.mu.Lock()
		defer b.mu.Unlock()

		_, err := io.WriteString(b.streams.Out, lua)

		return wrapWrite(err, "-")
	}

	path := outputPath(src.Path, b.Out)

	return wrapWrite(os.WriteFile(path, []byte(lua), 0o644), path) //nolint:gosec
}

func wrapWrite(err error, path string) error {
	if err == nil {
		return nil
	}

	return ErrWriteOutput.Wrap(err).With(slog.String("path", path))
}

// watch rebuilds after every change to a source file until ctx is done. A
// changed source is rebuilt alone. Any other change to a jammy file in a
// watched directory may affect what the sources use, so it rebuilds them
// all.
func (b *builder) watch(ctx context.Context, srcs []Source) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err)
	}
	defer w.Close()

	byPath := make(map[string]Source)

	var files []Source

	var dirs []string

	for _, src := range srcs {
		if src.IsStdin() {
			continue
		}

		abs, err := filepath.Abs(src.Path)
		if err != nil {
			return ErrWatch.Wrap(err).With(slog.String("path", src.Path))
		}

		byPath[abs] = src
		files = append(files, src)

		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return ErrWatch.Wrap(err).With(slog.String("dir", dir))
		}
	}

	b.logger.InfoContext(ctx, "watching", slog.Any("dirs", dirs))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			if !strings.HasSuffix(ev.Name, pkg.Extension) {
				continue
			}

			b.logger.DebugContext(ctx, "source changed",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()),
			)

			rebuild := files
			if src, ok := byPath[ev.Name]; ok {
				rebuild = []Source{src}
			}

			if err := b.all(ctx, rebuild); err != nil {
				if ctx.Err() != nil {
					return nil
				}

				b.logger.WarnContext(ctx, "rebuild failed", slog.Any("error", err))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			b.logger.WarnContext(ctx, "watch error", slog.Any("error", err))
		}
	}
}
