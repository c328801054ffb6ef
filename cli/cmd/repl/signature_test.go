package repl

import (
	"slices"
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  functionCall
	}{
		{"no call", "let a = 1", functionCall{}},
		{"open call", "print(", functionCall{name: "print", inCall: true}},
		{"second argument", "f(1, ", functionCall{name: "f", argIndex: 1, inCall: true}},
		{"closed call", "f(1)", functionCall{}},
		{"nested closed", "f(g(1, 2), ", functionCall{name: "f", argIndex: 1, inCall: true}},
		{"nested open", "f(1, g(", functionCall{name: "g", inCall: true}},
		{"table argument", "f({1, 2}, [3, 4], ", functionCall{name: "f", argIndex: 2, inCall: true}},
		{"method", "v:scale(2, ", functionCall{name: "v:scale", argIndex: 1, inCall: true}},
		{"member", "math.max(", functionCall{name: "math.max", inCall: true}},
		{"grouping", "(1 + ", functionCall{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := detectFunctionCall(tt.input, len(tt.input)); got != tt.want {
				t.Errorf("detectFunctionCall(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSession_Signature(t *testing.T) {
	t.Parallel()

	s := testSession(t)

	if res := s.eval(`let k = 2; let scale = (x) => x * k;`); !res.ok() {
		t.Fatalf("eval() = %v", res.Diags)
	}

	sig, ok := s.signature("scale")
	if !ok {
		t.Fatal("signature(scale) not found")
	}

	if !slices.Equal(sig.params, []string{"number"}) || sig.ret != "number" {
		t.Errorf("signature(scale) = %+v", sig)
	}

	if got := sig.String(); got != "scale(number) -> number" {
		t.Errorf("String() = %q", got)
	}

	if _, ok := s.signature("k"); ok {
		t.Error("signature(k) found a function")
	}

	if _, ok := s.signature("missing"); ok {
		t.Error("signature(missing) found a function")
	}
}

func TestRenderSignatureHint(t *testing.T) {
	t.Parallel()

	sig := signature{name: "add", params: []string{"number", "string"}, ret: "nil"}

	for i := range 3 {
		got := renderSignatureHint(sig, i)
		for _, want := range []string{"add", "number", "string", "nil"} {
			if !strings.Contains(got, want) {
				t.Errorf("renderSignatureHint(%d) = %q is missing %q", i, got, want)
			}
		}
	}
}
