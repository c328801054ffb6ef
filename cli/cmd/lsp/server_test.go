package lsp

import (
	"io"
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/token"
	"github.com/ardnew/jammy/log"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	return New(log.Make(io.Discard))
}

func at(line, char int) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)}
}

func TestUriPath(t *testing.T) {
	t.Parallel()

	if got := uriPath("file:///tmp/my%20dir/a.jam"); got != "/tmp/my dir/a.jam" {
		t.Errorf("uriPath() = %q", got)
	}

	if got := uriPath("untitled:1"); got != "untitled:1" {
		t.Errorf("uriPath() = %q", got)
	}
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	list := diag.List{
		{Class: diag.Syntax, Severity: diag.SeverityError, Message: "bad", Pos: token.Position{Line: 1, Column: 1, Length: 1}},
		{Class: diag.Type, Severity: diag.SeverityWarning, Message: "odd", Pos: token.Position{Line: 2, Column: 3, Length: 2}},
	}

	got := diagnostics("a\nbcd\n", list)
	if len(got) != 2 {
		t.Fatalf("diagnostics() = %v", got)
	}

	if *got[0].Severity != protocol.DiagnosticSeverityError || got[0].Message != "bad" {
		t.Errorf("diagnostics()[0] = %+v", got[0])
	}

	if *got[1].Severity != protocol.DiagnosticSeverityWarning || got[1].Range.Start != at(1, 2) {
		t.Errorf("diagnostics()[1] = %+v", got[1])
	}
}

func TestServer_Analyze(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	text := "let count = 1;\nlet label = \"n\";\nlet total = count + 2;\n"
	doc := s.analyze("file:///tmp/doc.jam", text)

	if len(doc.unit.Diagnostics) != 0 {
		t.Fatalf("Diagnostics = %v", doc.unit.Diagnostics)
	}

	t.Run("hover", func(t *testing.T) {
		h := s.hover(doc, at(2, 13))
		if h == nil {
			t.Fatal("hover() = nil")
		}

		value := h.Contents.(protocol.MarkupContent).Value
		if !strings.Contains(value, "count: number") {
			t.Errorf("hover() = %q", value)
		}
	})

	t.Run("hover after non-ASCII text", func(t *testing.T) {
		wide := s.analyze("file:///tmp/wide.jam", "let count = 1;\nprint(\"😀\", count);\n")

		h := s.hover(wide, at(1, 13))
		if h == nil {
			t.Fatal("hover() = nil")
		}

		if value := h.Contents.(protocol.MarkupContent).Value; !strings.Contains(value, "count: number") {
			t.Errorf("hover() = %q", value)
		}
	})

	t.Run("completion", func(t *testing.T) {
		items := s.complete(doc, "cou")
		if len(items) == 0 || items[0].Label != "count" || *items[0].Detail != "number" {
			t.Errorf("complete() = %+v", items)
		}
	})

	t.Run("broken document", func(t *testing.T) {
		bad := s.analyze("file:///tmp/bad.jam", "let = ;")
		if len(bad.unit.Diagnostics) == 0 {
			t.Error("no diagnostics for a syntax error")
		}

		if s.hover(bad, at(0, 1)) != nil {
			t.Error("hover() on an unchecked document")
		}
	})
}
