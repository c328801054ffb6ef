//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// Version is the semantic version of the compiler, embedded at build time.
// Import headers may constrain it, and the version subcommand prints it.
//
//go:embed VERSION
var Version string

const (
	// Name is the canonical command identifier. It appears in help text,
	// default config paths, and generated file headers.
	Name = "jammy"
	// Description is a short summary used in help output.
	Description = "Compiler from jammy source to Lua"
	// Extension is the file name extension of source files.
	Extension = ".jam"
)

// SemVer returns [Version] parsed as a semantic version.
var SemVer = sync.OnceValues(func() (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(Version))
	if err != nil {
		return nil, ErrInvalidVersion.Wrap(err)
	}

	return v, nil
})

// Satisfies reports whether the compiler version meets constraint, which
// uses the syntax of [semver.NewConstraint] (">= 0.2, < 1").
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, ErrInvalidConstraint.Wrapf("%q: %w", constraint, err)
	}

	v, err := SemVer()
	if err != nil {
		return false, err
	}

	return c.Check(v), nil
}

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
