package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tirix/metamath-vspa/internal/proof"
	"github.com/tirix/metamath-vspa/internal/rope"
	"github.com/tirix/metamath-vspa/internal/workspace"
)

// Server dispatches framed JSON-RPC messages to the worksheet and
// workspace layers. One goroutine reads and frames messages off the
// wire while a second drains and handles them, joined by an
// errgroup.Group so either side's fatal error tears down the other.
type Server struct {
	reader *Reader
	writer *Writer
	writeMu sync.Mutex

	ws     *workspace.Workspace
	logger *slog.Logger

	docsMu sync.Mutex
	docs   map[string]*proof.Worksheet
}

// NewServer builds a Server reading requests from r and writing
// responses/notifications to w, validating worksheets against ws's
// database.
func NewServer(r io.Reader, w io.Writer, ws *workspace.Workspace, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		reader: NewReader(r),
		writer: NewWriter(w),
		ws:     ws,
		logger: logger,
		docs:   make(map[string]*proof.Worksheet),
	}
}

// Run reads and dispatches messages until ctx is canceled or the input
// stream closes.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	msgs := make(chan *Message)

	g.Go(func() error {
		defer close(msgs)
		for {
			msg, err := s.reader.ReadMessage()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return fmt.Errorf("lsp: read: %w", err)
			}
			select {
			case msgs <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return nil
				}
				if err := s.handle(ctx, msg); err != nil {
					s.logger.Error("handler error", "method", msg.Method, "error", err)
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}

func (s *Server) handle(ctx context.Context, msg *Message) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "metamath/showProof":
		return s.handleShowProof(msg)
	case "metamath/unify":
		return s.handleUnify(msg)
	case "":
		return nil // a response to a request we sent; nothing to do yet
	default:
		if msg.ID != nil {
			return s.respondError(msg.ID, -32601, fmt.Sprintf("method not found: %s", msg.Method))
		}
		s.logger.Debug("unhandled notification", "method", msg.Method)
		return nil
	}
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
}

type serverCapabilities struct {
	TextDocumentSync   int  `json:"textDocumentSync"`
	DiagnosticProvider bool `json:"diagnosticProvider"`
}

// handleInitialize answers the handshake with full-document sync: every
// didChange ships the entire new text rather than incremental ranges,
// since ApplyChange's incremental path is an optimization the client is
// free not to use. The ranged path in handleDidChange still works, so a
// client that sends incremental ranges anyway is also served correctly.
func (s *Server) handleInitialize(msg *Message) error {
	result, err := json.Marshal(initializeResult{
		Capabilities: serverCapabilities{TextDocumentSync: 1, DiagnosticProvider: true},
	})
	if err != nil {
		return err
	}
	if msg.ID == nil {
		return nil
	}
	return s.respond(msg.ID, result)
}

type textDocumentItem struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
}

type didOpenParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

func (s *Server) handleDidOpen(msg *Message) error {
	var p didOpenParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return fmt.Errorf("decode didOpen params: %w", err)
	}

	db, err := s.ws.Database()
	if err != nil {
		s.logger.Warn("no database available for didOpen", "uri", p.TextDocument.URI, "error", err)
	}

	w := proof.NewWorksheet(db, p.TextDocument.Text)
	s.docsMu.Lock()
	s.docs[p.TextDocument.URI] = w
	s.docsMu.Unlock()

	return s.publishDiagnostics(p.TextDocument.URI, w)
}

type versionedTextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type contentChange struct {
	Range *lspRange `json:"range,omitempty"`
	Text  string    `json:"text"`
}

type lspRange struct {
	Start lspPosition `json:"start"`
	End   lspPosition `json:"end"`
}

type lspPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type didChangeParams struct {
	TextDocument   versionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChange                 `json:"contentChanges"`
}

func (s *Server) handleDidChange(msg *Message) error {
	var p didChangeParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return fmt.Errorf("decode didChange params: %w", err)
	}

	s.docsMu.Lock()
	w, ok := s.docs[p.TextDocument.URI]
	s.docsMu.Unlock()
	if !ok {
		return fmt.Errorf("didChange for unknown document %s", p.TextDocument.URI)
	}

	for _, change := range p.ContentChanges {
		if change.Range == nil {
			// No range means the whole document was replaced; NewFullReplace
			// only expresses "insert at the (empty) start", so build the
			// full-length delta explicitly here instead.
			w.ApplyChange(rope.Delta{Start: 0, End: len(w.Source()), Text: change.Text})
			continue
		}
		start := w.PositionToByte(proof.Position{Line: change.Range.Start.Line, Character: change.Range.Start.Character})
		end := w.PositionToByte(proof.Position{Line: change.Range.End.Line, Character: change.Range.End.Character})
		w.ApplyChange(rope.Delta{Start: start, End: end, Text: change.Text})
	}

	return s.publishDiagnostics(p.TextDocument.URI, w)
}

func (s *Server) publishDiagnostics(uri string, w *proof.Worksheet) error {
	diags := w.Diagnostics()
	out := make([]lspDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = lspDiagnostic{
			Range: lspRange{
				Start: lspPosition{Line: d.Start.Line, Character: d.Start.Character},
				End:   lspPosition{Line: d.End.Line, Character: d.End.Character},
			},
			Severity: int(d.Kind.Severity()),
			Message:  d.Message,
		}
	}

	params, err := json.Marshal(publishDiagnosticsParams{URI: uri, Diagnostics: out})
	if err != nil {
		return err
	}
	return s.notify("textDocument/publishDiagnostics", params)
}

type lspDiagnostic struct {
	Range    lspRange `json:"range"`
	Severity int      `json:"severity"`
	Message  string   `json:"message"`
}

type publishDiagnosticsParams struct {
	URI         string          `json:"uri"`
	Diagnostics []lspDiagnostic `json:"diagnostics"`
}

func (s *Server) notify(method string, params json.RawMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writer.WriteMessage(&Message{JSONRPC: "2.0", Method: method, Params: params})
}

func (s *Server) respond(id json.RawMessage, result json.RawMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writer.WriteMessage(&Message{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) respondError(id json.RawMessage, code int, message string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writer.WriteMessage(&Message{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}
