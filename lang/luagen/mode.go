package luagen

import (
	"fmt"
	"slices"
)

// Mode selects the boilerplate of a generated unit.
type Mode int

const (
	// File is a module required by another unit of the same program.
	File Mode = iota
	// Library is a module that carries its own copy of the runtime.
	Library
	// EntryPoint is the main chunk of a program run by a Lua interpreter.
	EntryPoint
	// LoveEntryPoint is the main chunk of a LÖVE game.
	LoveEntryPoint
)

var modeNames = []string{"file", "library", "entry_point", "love_entry_point"}

// Modes returns the names of every mode.
func Modes() []string { return slices.Clone(modeNames) }

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}

	return modeNames[m]
}

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, error) {
	i := slices.Index(modeNames, s)
	if i < 0 {
		return File, fmt.Errorf("unknown mode %q (want one of %v)", s, modeNames)
	}

	return Mode(i), nil
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = v

	return nil
}

// withRuntime reports whether units of mode m define the runtime helpers.
func (m Mode) withRuntime() bool { return m != File }

func (m Mode) isEntry() bool { return m == EntryPoint || m == LoveEntryPoint }
