package cmd

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/jammy/lang"
	"github.com/ardnew/jammy/pkg"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type streamsKey struct{}

// Streams are the standard streams used by commands.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// WithStreams returns a new context.Context whose commands read from and
// write to s instead of the process's standard streams.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

// streamsFrom returns the streams stored in ctx by [WithStreams]. Unset
// streams are the process's standard streams.
func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	if s.Err == nil {
		s.Err = os.Stderr
	}

	return s
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// stdinName names the unit read from stdin in diagnostics.
const stdinName = "<stdin>"

// Source is one input of a command.
type Source struct {
	// Path is empty for stdin.
	Path string
}

// IsStdin reports whether s is the standard input.
func (s Source) IsStdin() bool { return s.Path == "" }

// Name returns the name of s used in diagnostics.
func (s Source) Name() string {
	if s.IsStdin() {
		return stdinName
	}

	return s.Path
}

// read returns the content of s, reading stdin from in.
func (s Source) read(in io.Reader) (string, error) {
	if s.IsStdin() {
		return lang.Read(in)
	}

	return lang.ReadFile(s.Path)
}

// fileKey uniquely identifies a file by its device and inode numbers, or by
// its resolved path where those are unavailable.
// This handles deduplication across symlinks and absolute/relative paths.
type fileKey struct {
	dev  uint64
	ino  uint64
	path string
}

// collect expands the command-line sources into the files to compile.
//
// No arguments means stdin. Directories contribute every source file found
// beneath them, in lexical order. Duplicates are removed by comparing
// device/inode pairs after resolving symlinks, and all occurrences of "-" are
// replaced with a single stdin source placed last.
func collect(args []string) ([]Source, error) {
	if len(args) == 0 {
		args = []string{stdinSource}
	}

	var (
		srcs     []Source
		hasStdin bool
	)

	seen := make(map[fileKey]struct{})

	add := func(path string) error {
		key, err := makeFileKey(path)
		if err != nil {
			return err
		}

		if _, exists := seen[key]; !exists {
			seen[key] = struct{}{}
			srcs = append(srcs, Source{Path: path})
		}

		return nil
	}

	for _, arg := range args {
		if arg == stdinSource {
			hasStdin = true

			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, ErrSource.Wrap(err).With(slog.String("path", arg))
		}

		if !info.IsDir() {
			if err := add(arg); err != nil {
				return nil, ErrSource.Wrap(err).With(slog.String("path", arg))
			}

			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() || !strings.HasSuffix(path, pkg.Extension) {
				return nil
			}

			return add(path)
		})
		if err != nil {
			return nil, ErrSource.Wrap(err).With(slog.String("path", arg))
		}
	}

	if hasStdin {
		srcs = append(srcs, Source{})
	}

	return srcs, nil
}

// makeFileKey returns the identity of the file at path.
func makeFileKey(path string) (fileKey, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, err
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, err
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{path: resolved}, nil
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, nil //nolint:unconvert
}

// outputPath returns where the Lua of the source file path is written: next
// to it, or in dir if dir is set.
func outputPath(path, dir string) string {
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".lua"
	if dir != "" {
		out = filepath.Join(dir, filepath.Base(out))
	}

	return out
}
