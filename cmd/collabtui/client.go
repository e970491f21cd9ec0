package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"collabcore/internal/protocol"
	"collabcore/pkg/transport"
)

// client owns the WebSocket connection to collabd and translates between
// the wire envelope and the tea.Program's message loop. It plays the role
// the teacher's Connection.Handle plays server-side, but for the outbound
// (ClientEnvelope) direction instead.
type client struct {
	conn *websocket.Conn
	ctx  context.Context

	inbound chan tea.Msg
}

// dial connects to addr/api/socket/docID and starts a background read loop
// that pushes every inbound frame onto the client's inbound channel, which
// the bubbletea model drains via waitForServerMsg.
func dial(ctx context.Context, addr, docID string) (*client, error) {
	url := strings.TrimSuffix(addr, "/") + "/api/socket/" + docID
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("collabtui: dial %s: %w", url, err)
	}

	c := &client{conn: conn, ctx: ctx, inbound: make(chan tea.Msg, 64)}
	go c.readLoop()
	return c, nil
}

func (c *client) readLoop() {
	for {
		readCtx, cancel := context.WithTimeout(c.ctx, transport.ReadTimeout)
		var env transport.Envelope
		err := wsjson.Read(readCtx, c.conn, &env)
		cancel()
		if err != nil {
			c.inbound <- connErrorMsg{err: err}
			return
		}
		if env.Text != nil {
			c.inbound <- textServerMsg{msg: *env.Text}
		}
		if env.Whiteboard != nil {
			c.inbound <- whiteboardMsg{msg: *env.Whiteboard}
		}
	}
}

// waitForServerMsg is a tea.Cmd that blocks for the next inbound frame. The
// model re-issues it after handling every message, the same pattern the
// teacher's chat panel uses for its pubsub event listener.
func (c *client) waitForServerMsg() tea.Msg {
	return <-c.inbound
}

func (c *client) sendText(msg protocol.TextClientMsg) error {
	return c.write(transport.ClientEnvelope{Text: &msg})
}

func (c *client) sendWhiteboard(msg protocol.WhiteboardMsg) error {
	return c.write(transport.ClientEnvelope{Whiteboard: &msg})
}

func (c *client) write(env transport.ClientEnvelope) error {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, c.conn, env)
}

func (c *client) close() {
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
