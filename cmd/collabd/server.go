package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"collabcore/internal/protocol"
	"collabcore/pkg/logger"
	"collabcore/pkg/registry"
	"collabcore/pkg/tracing"
	"collabcore/pkg/transport"
)

// Server is the reference relay's HTTP entry point: a WebSocket upgrade
// route per document plus a couple of read-only diagnostic routes. It
// rebroadcasts every accepted client message to all of the document's peers,
// the sender included, via pkg/registry, exactly the demo/integration-test harness SPEC_FULL
// calls for and nothing more (no auth, no persistence).
type Server struct {
	reg *registry.Registry
	mux *http.ServeMux

	tracer  *tracing.Provider
	log     *logger.Logger
	started time.Time
}

// NewServer wires a Server over reg, mirroring the route layout of the
// teacher's pkg/server/server.go (handleSocket/handleText/handleStats).
func NewServer(reg *registry.Registry, tracer *tracing.Provider, log *logger.Logger) *Server {
	s := &Server{
		reg:     reg,
		mux:     http.NewServeMux(),
		tracer:  tracer,
		log:     log,
		started: time.Now(),
	}
	s.mux.HandleFunc("/api/socket/", s.handleSocket)
	s.mux.HandleFunc("/api/text/", s.handleText)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleSocket upgrades a connection and joins it to the named document,
// multiplexing both the text and whiteboard namespaces over it.
// Route: /api/socket/{id}
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	docID := strings.TrimPrefix(r.URL.Path, "/api/socket/")
	if docID == "" {
		http.Error(w, "document id required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, transport.AcceptOptions)
	if err != nil {
		s.log.Warn("collabd: websocket upgrade failed for %s: %v", docID, err)
		return
	}

	doc := s.reg.GetOrCreate(docID)
	peer := transport.NewPeer(r.Context(), 0, conn, s.log)
	connected := doc.Join(peer)

	ctx, end := tracing.StartOp(r.Context(), s.tracer.Tracer(), "collabd.session")
	defer end()

	if err := peer.SendText(protocol.TextServerMsg{Connected: &connected}); err != nil {
		s.log.Warn("collabd: sending connected snapshot failed: %v", err)
		peer.Close()
		return
	}
	for _, msg := range doc.SceneSnapshot() {
		if err := peer.SendWhiteboard(msg); err != nil {
			s.log.Warn("collabd: sending scene snapshot failed: %v", err)
			break
		}
	}

	err = peer.ReadLoop(ctx,
		func(msg protocol.TextClientMsg) { doc.ApplyText(connected.UserID, msg) },
		func(msg protocol.WhiteboardMsg) { doc.ApplyWhiteboard(connected.UserID, msg) },
	)
	if err != nil {
		s.log.Info("collabd: connection for %s/user %d closed: %v", docID, connected.UserID, err)
	}

	if empty := doc.Leave(connected.UserID); !empty {
		doc.BroadcastUserDisconnected(connected.UserID)
	}
	peer.Close()
}

// handleText reports the document's current mod_id as plain text, confirming
// the document is live without exposing its content.
// Route: /api/text/{id}
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	docID := strings.TrimPrefix(r.URL.Path, "/api/text/")
	if docID == "" {
		http.Error(w, "document id required", http.StatusBadRequest)
		return
	}
	doc := s.reg.GetOrCreate(docID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, doc.ModID()) // mod_id only; confirms the document is live without exposing content semantics
}

// statsResponse is the JSON body of /api/stats.
type statsResponse struct {
	StartTime    int64 `json:"start_time"`
	NumDocuments int   `json:"num_documents"`
}

// handleStats reports coarse relay statistics.
// Route: /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statsResponse{
		StartTime:    s.started.Unix(),
		NumDocuments: s.reg.Count(),
	})
}

// handleHealthz is a liveness probe for container orchestrators.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Shutdown is reserved for future document-draining logic; the in-memory
// registry needs no explicit teardown today since its documents carry no
// persistent resources.
func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}
