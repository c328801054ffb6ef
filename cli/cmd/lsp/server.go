// Package lsp serves jammy diagnostics, hover types, completion and
// definitions to editors over the Language Server Protocol.
package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/ardnew/jammy/lang"
	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/lexer"
	"github.com/ardnew/jammy/lang/types"
	"github.com/ardnew/jammy/log"
	"github.com/ardnew/jammy/pkg"

	_ "github.com/tliron/commonlog/simple"
)

const serverName = pkg.Name + "-lsp"

// maxItems caps the number of completion items in one response.
const maxItems = 100

// document is an open text document and its latest compilation.
type document struct {
	text string
	unit *lang.Unit
}

// Server is a language server for jammy source files.
type Server struct {
	compile []lang.Option
	logger  log.Logger

	mu   sync.Mutex
	docs map[protocol.DocumentUri]*document

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// New returns a server that compiles documents with opts. Lua is never
// generated.
func New(logger log.Logger, opts ...lang.Option) *Server {
	s := &Server{
		compile: append(opts, lang.WithGenerate(false)),
		logger:  logger,
		docs:    make(map[protocol.DocumentUri]*document),
		version: strings.TrimSpace(pkg.Version),
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, serverName, false)

	return s
}

// RunStdio serves requests on stdin and stdout until the client disconnects
// or ctx is done.
func (s *Server) RunStdio(ctx context.Context) error {
	errc := make(chan error, 1)

	go func() { errc <- s.server.RunStdio() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}

func (s *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "initializing").Set("server", serverName).Send()

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.update(ctx, params.TextDocument.URI, params.TextDocument.Text)

	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}

	// With full sync, the last change holds the whole text.
	last := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
		s.update(ctx, params.TextDocument.URI, whole.Text)
	}

	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

// update compiles text as the new content of uri and publishes its
// diagnostics.
func (s *Server) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	doc := s.analyze(uri, text)

	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics(doc.text, doc.unit.Diagnostics),
	})
}

// analyze compiles text. The unit is kept even when compilation fails, so
// that the stages that succeeded still answer requests.
func (s *Server) analyze(uri protocol.DocumentUri, text string) *document {
	name := uriPath(uri)

	u, err := lang.Compile(context.Background(), name, text, s.compile...)
	if err != nil {
		s.logger.Debug("compile failed",
			slog.String("uri", string(uri)),
			slog.Any("error", err),
		)
	}

	return &document{text: lexer.Normalize(text), unit: u}
}

func (s *Server) document(uri protocol.DocumentUri) *document {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.docs[uri]
}

func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil || doc.unit.Checker() == nil {
		return nil, nil
	}

	prefix := extractPrefix(doc.text, params.Position)
	if prefix == "" {
		return nil, nil
	}

	return s.complete(doc, prefix), nil
}

func (s *Server) complete(doc *document, prefix string) []protocol.CompletionItem {
	checker := doc.unit.Checker()
	names := checker.Names()

	var items []protocol.CompletionItem

	for _, m := range fuzzy.Find(prefix, names) {
		if strings.HasPrefix(m.Str, "__") {
			continue
		}

		kind := protocol.CompletionItemKindVariable
		detail := ""

		if v := checker.Lookup(m.Str); v != nil {
			arena := checker.Arena()

			detail = arena.String(v.Type)
			if arena.Kind(arena.Resolve(v.Type)) == types.Function {
				kind = protocol.CompletionItemKindFunction
			}
		}

		label := m.Str
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &label,
		})

		if len(items) == maxItems {
			break
		}
	}

	return items
}

func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	return s.hover(doc, params.Position), nil
}

// hover describes the typed node at pos, or the binding of the word there.
func (s *Server) hover(doc *document, pos protocol.Position) *protocol.Hover {
	checker := doc.unit.Checker()
	if checker == nil {
		return nil
	}

	offset, ok := offsetOf(doc.text, pos)
	if !ok {
		return nil
	}

	var value string

	if n := nodeAt(doc.unit.AST, offset); n != nil {
		if t := checker.TypeString(n); t != "" {
			value = fmt.Sprintf("```\n%s\n```\n\n_%s_", t, n.Kind())

			if v, ok := n.(*ast.Variable); ok {
				value = fmt.Sprintf("```\n%s: %s\n```", v.Name, t)
			}
		}
	}

	if value == "" {
		word := extractWord(doc.text, pos)
		if v := checker.Lookup(word); word != "" && v != nil {
			value = fmt.Sprintf("```\n%s: %s\n```", v.Name, checker.Arena().String(v.Type))
		}
	}

	if value == "" {
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}
}

func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil || doc.unit.Checker() == nil {
		return nil, nil
	}

	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}

	v := doc.unit.Checker().Lookup(word)
	if v == nil || !v.Pos.IsValid() {
		return nil, nil
	}

	return []protocol.Location{{
		URI:   params.TextDocument.URI,
		Range: rangeOf(doc.text, v.Pos),
	}}, nil
}

// nodeAt returns the innermost node whose first token contains offset.
func nodeAt(stmts []ast.Stmt, offset int) ast.Node {
	var found ast.Node

	for _, st := range stmts {
		ast.Inspect(st, func(n ast.Node) bool {
			p := n.Pos()
			if p.IsValid() && p.Offset <= offset && offset < p.Offset+max(p.Length, 1) {
				found = n
			}

			return true
		})
	}

	return found
}

// diagnostics converts compiler diagnostics to the protocol's form.
func diagnostics(text string, list diag.List) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(list))
	source := pkg.Name

	for _, d := range list {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == diag.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}

		code := protocol.IntegerOrString{Value: d.Class.String()}

		out = append(out, protocol.Diagnostic{
			Range:    rangeOf(text, d.Pos),
			Severity: &severity,
			Code:     &code,
			Source:   &source,
			Message:  d.Message,
		})
	}

	return out
}

// uriPath returns the file path of a file URI, so that "use" statements
// resolve relative to the document. Other URIs are returned unchanged.
func uriPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}

	return filepath.FromSlash(u.Path)
}

func boolPtr(b bool) *bool { return &b }
