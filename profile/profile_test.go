package profile

import "testing"

func TestMake(t *testing.T) {
	t.Parallel()

	c := Make(WithMode("cpu"), WithPath("/tmp/p"), WithQuiet(true))

	mode, path, quiet := c()
	if mode != "cpu" || path != "/tmp/p" || !quiet {
		t.Errorf("Make() = %q, %q, %v", mode, path, quiet)
	}

	// Later options replace earlier ones.
	mode, _, _ = Make(WithMode("cpu"), WithMode("heap"))()
	if mode != "heap" {
		t.Errorf("mode = %q, want heap", mode)
	}
}

func TestConfig_StartWithoutMode(t *testing.T) {
	t.Parallel()

	p := Make(WithPath(t.TempDir())).Start()
	if _, ok := p.(ignore); !ok {
		t.Errorf("Start() = %T, want no-op", p)
	}

	p.Stop()
}

func TestConfig_StartUnknownMode(t *testing.T) {
	t.Parallel()

	p := Make(WithMode("bogus"), WithPath(t.TempDir())).Start()
	if _, ok := p.(ignore); !ok {
		t.Errorf("Start() = %T, want no-op", p)
	}

	p.Stop()
}
