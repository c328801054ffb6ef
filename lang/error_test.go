package lang

import (
	"errors"
	"log/slog"
	"testing"
)

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk on fire")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"sentinel", ErrImport, "import failed"},
		{"wrapped", ErrImport.Wrap(cause), "import failed: disk on fire"},
		{"wrapped plain", WrapError(cause), "disk on fire"},
		{"empty", &Error{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	err := ErrVersion.Wrap(cause).With(slog.String("path", "a.jam"))

	if !errors.Is(err, ErrVersion) {
		t.Error("errors.Is(err, ErrVersion) = false")
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}

	if errors.Is(err, ErrImport) {
		t.Error("errors.Is(err, ErrImport) = true")
	}

	if WrapError(err) != err {
		t.Error("WrapError() rewrapped an *Error")
	}
}

func TestError_LogValue(t *testing.T) {
	t.Parallel()

	err := ErrParse.Wrap(errors.New("bad")).With(slog.Int("line", 3))

	attrs := err.LogValue().Group()
	want := map[string]string{"error": "syntax error", "cause": "bad", "line": "3"}

	if len(attrs) != len(want) {
		t.Fatalf("LogValue() = %v", attrs)
	}

	for _, a := range attrs {
		if want[a.Key] != a.Value.String() {
			t.Errorf("%s = %q, want %q", a.Key, a.Value.String(), want[a.Key])
		}
	}

	// With does not modify its receiver.
	if len(ErrParse.attrs) != 0 {
		t.Errorf("sentinel attrs = %v", ErrParse.attrs)
	}
}
