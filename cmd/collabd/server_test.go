package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"collabcore/internal/protocol"
	"collabcore/pkg/logger"
	"collabcore/pkg/registry"
	"collabcore/pkg/tracing"
	"collabcore/pkg/transport"
)

// testServer creates a Server backed by a fresh registry, mirroring the
// teacher's testServer/testServerNoDb helpers.
func testServer(t *testing.T) *Server {
	t.Helper()
	tracer, err := tracing.NewProvider(tracing.DefaultConfig())
	if err != nil {
		t.Fatalf("building tracer: %v", err)
	}
	reg := registry.New(registry.WithIdleExpiration(time.Minute))
	return NewServer(reg, tracer, logger.New(logger.LevelError, discardWriter{}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// connectWebSocket dials docID's socket endpoint on a running httptest server.
func connectWebSocket(t *testing.T, server *httptest.Server, docID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/socket/" + docID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestHandleSocketSendsConnectedSnapshot(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := connectWebSocket(t, ts, "doc1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var env transport.Envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("reading connected snapshot: %v", err)
	}
	if env.Text == nil || env.Text.Connected == nil {
		t.Fatalf("expected a connected envelope, got %+v", env)
	}
	if env.Text.Connected.Content != "" {
		t.Fatalf("expected empty initial content, got %q", env.Text.Connected.Content)
	}
}

func TestHandleSocketBroadcastsBetweenPeers(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	a := connectWebSocket(t, ts, "doc2")
	b := connectWebSocket(t, ts, "doc2")

	// Drain each peer's initial connected snapshot.
	drainConnected(t, a)
	drainConnected(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	outbound := transport.ClientEnvelope{
		Text: &protocol.TextClientMsg{AddRegion: &protocol.AddRegionMsg{Text: "hi", Position: 0}},
	}
	if err := wsjson.Write(ctx, a, outbound); err != nil {
		t.Fatalf("writing add_region: %v", err)
	}

	var env transport.Envelope
	if err := wsjson.Read(ctx, b, &env); err != nil {
		t.Fatalf("reading broadcast on peer b: %v", err)
	}
	if env.Text == nil || env.Text.AddRegion == nil || env.Text.AddRegion.Text != "hi" {
		t.Fatalf("expected peer b to observe the add_region broadcast, got %+v", env)
	}
}

func drainConnected(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var env transport.Envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("draining connected snapshot: %v", err)
	}
}

func TestHandleStatsReportsDocumentCount(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := connectWebSocket(t, ts, "doc3")
	drainConnected(t, conn)

	resp, err := ts.Client().Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	defer resp.Body.Close()

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.NumDocuments != 1 {
		t.Fatalf("expected 1 tracked document, got %d", stats.NumDocuments)
	}
}
