// Package transport is a thin bidirectional named-event socket adapter used
// by both TextEngine and WhiteboardEngine (spec §2, §6), generalizing the
// teacher's single text-namespace connection loop
// (pkg/server/connection.go) to a two-namespace, N-document relay.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"collabcore/internal/protocol"
	"collabcore/pkg/logger"
)

// ReadTimeout bounds how long a single inbound read may block before the
// peer is considered unresponsive.
const ReadTimeout = 30 * time.Second

// WriteTimeout bounds how long a single outbound write may block.
const WriteTimeout = 10 * time.Second

// Peer wraps one client's WebSocket connection and multiplexes both the
// text and whiteboard namespaces over it as a single envelope, since a
// client edits one shared document and one shared drawing together.
type Peer struct {
	UserID uint64

	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	sendMu sync.Mutex
	log    *logger.Logger
}

// Envelope is the wire frame multiplexing both namespaces: exactly one of
// Text/Whiteboard is set per frame.
type Envelope struct {
	Text       *protocol.TextServerMsg `json:"text,omitempty"`
	Whiteboard *protocol.WhiteboardMsg `json:"whiteboard,omitempty"`
}

// ClientEnvelope is the inbound counterpart of Envelope.
type ClientEnvelope struct {
	Text       *protocol.TextClientMsg `json:"text,omitempty"`
	Whiteboard *protocol.WhiteboardMsg `json:"whiteboard,omitempty"`
}

// NewPeer adopts an already-upgraded WebSocket connection as a Peer.
func NewPeer(ctx context.Context, userID uint64, conn *websocket.Conn, log *logger.Logger) *Peer {
	pctx, cancel := context.WithCancel(ctx)
	if log == nil {
		log = logger.Default
	}
	return &Peer{UserID: userID, conn: conn, ctx: pctx, cancel: cancel, log: log}
}

// SendText pushes a text-namespace server message to this peer.
func (p *Peer) SendText(msg protocol.TextServerMsg) error {
	return p.send(Envelope{Text: &msg})
}

// SendWhiteboard pushes a whiteboard-namespace message to this peer.
func (p *Peer) SendWhiteboard(msg protocol.WhiteboardMsg) error {
	return p.send(Envelope{Whiteboard: &msg})
}

func (p *Peer) send(env Envelope) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("transport: marshal envelope: %w", err)
	}
	ctx, cancel := context.WithTimeout(p.ctx, WriteTimeout)
	defer cancel()
	return p.conn.Write(ctx, websocket.MessageText, data)
}

// ReadLoop blocks reading inbound frames until the connection closes or ctx
// is cancelled, dispatching each frame's populated field to the matching
// handler. Mirrors the teacher's Connection.Handle main loop, generalized
// to the two-namespace envelope.
func (p *Peer) ReadLoop(ctx context.Context, onText func(protocol.TextClientMsg), onWhiteboard func(protocol.WhiteboardMsg)) error {
	defer p.cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.ctx.Done():
			return p.ctx.Err()
		default:
		}

		readCtx, readCancel := context.WithTimeout(ctx, ReadTimeout)
		var env ClientEnvelope
		err := wsjson.Read(readCtx, p.conn, &env)
		readCancel()
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("transport: read: %w", err)
		}

		if env.Text != nil && onText != nil {
			onText(*env.Text)
		}
		if env.Whiteboard != nil && onWhiteboard != nil {
			onWhiteboard(*env.Whiteboard)
		}
	}
}

// Close tears down the peer's connection with a normal closure.
func (p *Peer) Close() {
	p.cancel()
	_ = p.conn.Close(websocket.StatusNormalClosure, "")
}

// AcceptOptions are the options every peer's WebSocket upgrade shares:
// compression disabled, as the teacher's server.go does.
var AcceptOptions = &websocket.AcceptOptions{CompressionMode: websocket.CompressionDisabled}
