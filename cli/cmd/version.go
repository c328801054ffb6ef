package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/ardnew/jammy/pkg"
)

// Version prints the compiler version.
type Version struct {
	Short   bool   `help:"Print the version number only"                        short:"s"`
	Require string `help:"Exit with an error unless the version meets CONSTRAINT" placeholder:"CONSTRAINT"`
}

// Run executes the version command.
func (v *Version) Run(ctx context.Context) error {
	ver, err := pkg.SemVer()
	if err != nil {
		return err
	}

	if v.Require != "" {
		ok, err := pkg.Satisfies(v.Require)
		if err != nil {
			return err
		}

		if !ok {
			return ErrVersion.With(
				slog.String("version", ver.String()),
				slog.String("constraint", v.Require),
			)
		}
	}

	out := streamsFrom(ctx).Out

	if v.Short {
		_, err = fmt.Fprintln(out, ver)

		return err
	}

	_, err = fmt.Fprintf(out, "%s %s (%s, %s/%s)\n",
		pkg.Name, ver, runtime.Version(), runtime.GOOS, runtime.GOARCH)

	return err
}
