// Package web exposes the chat engine over HTTP: a small static front-end,
// a websocket chat endpoint, and JSON endpoints for health and the tool
// catalog. Each websocket connection gets its own session, so concurrent
// browsers never share a conversation log.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/docentchat/docent/pkg/engine"
)

//go:embed static
var staticFS embed.FS

// Frame is one websocket message in either direction. The client sends
// {type: "user", text: ...}; the server answers with "reply" or "error"
// frames and announces the session with a "session" frame on connect.
type Frame struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// Server serves the web front-end for one engine.
type Server struct {
	engine *engine.Engine
	log    *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server. A nil logger falls back to slog.Default.
func New(e *engine.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{engine: e, log: log, mux: http.NewServeMux()}

	static, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/", http.FileServer(http.FS(static)))
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/api/tools", s.handleTools)
	s.mux.HandleFunc("/healthz", s.handleHealth)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleWS upgrades to a websocket and runs the chat exchange: one user
// frame in, one reply (or error) frame out, strictly in turn.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	session, err := s.engine.NewSession()
	if err != nil {
		_ = wsjson.Write(ctx, conn, Frame{Type: "error", Text: err.Error()})
		return
	}

	if err := wsjson.Write(ctx, conn, Frame{Type: "session", ID: session.ID()}); err != nil {
		return
	}

	for {
		var in Frame
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			return
		}
		if in.Type != "user" || in.Text == "" {
			_ = wsjson.Write(ctx, conn, Frame{Type: "error", Text: "expected a user frame with text"})
			continue
		}

		reply, err := session.Send(ctx, in.Text)
		if err != nil {
			s.log.Warn("send failed", "session", session.ID(), "error", err)
			_ = wsjson.Write(ctx, conn, Frame{Type: "error", Text: err.Error()})
			continue
		}

		if err := wsjson.Write(ctx, conn, Frame{Type: "reply", Text: reply}); err != nil {
			return
		}
	}
}

// handleTools returns the aggregated tool catalog as JSON.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	type toolInfo struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"input_schema"`
	}

	var out []toolInfo
	for _, t := range s.engine.Catalog().Tools(r.Context()) {
		out = append(out, toolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	writeJSON(w, map[string]any{"tools": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"backends": s.engine.Backends(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
