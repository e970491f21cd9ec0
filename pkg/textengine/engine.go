package textengine

import (
	"context"
	"fmt"
	"math/rand"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"collabcore/internal/protocol"
	"collabcore/pkg/logger"
)

// state is the engine's connection lifecycle. Operations that mutate
// document state are rejected outside Connected.
type state int

const (
	stateDisconnected state = iota
	stateConnected
)

// Emitter is how a TextEngine hands outbound wire messages to whatever
// transport owns the socket. Implementations must not block for long, since
// calls happen synchronously inside a public engine operation.
type Emitter interface {
	EmitText(protocol.TextClientMsg)
}

// EmitterFunc adapts a function to an Emitter.
type EmitterFunc func(protocol.TextClientMsg)

// EmitText implements Emitter.
func (f EmitterFunc) EmitText(msg protocol.TextClientMsg) { f(msg) }

// Renderer receives the rendered document whenever the live replica
// changes; it is how a caller wires the engine up to a UI. Optional: a
// TextEngine with no Renderer simply skips rendering.
type Renderer interface {
	RenderText(string)
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(string)

// RenderText implements Renderer.
func (f RendererFunc) RenderText(s string) { f(s) }

// TextEngine is the client-side concurrency control core for one shared
// text document: a locally optimistic "live" replica, a server-confirmed
// "shadow" replica, and the queue of local operations not yet echoed back.
type TextEngine struct {
	userID   uint64
	readOnly bool
	state    state

	live   *replica
	shadow *replica

	pending []PendingOp

	lastModID      int64
	lastModIDDirty bool

	log      *logger.Logger
	emitter  Emitter
	renderer Renderer
	tracer   trace.Tracer
}

// Option configures a TextEngine at construction time.
type Option func(*TextEngine)

// WithReadOnly marks the engine read-only: every mutating public operation
// becomes a no-op, though inbound remote events are still applied so a
// read-only viewer stays current.
func WithReadOnly() Option {
	return func(e *TextEngine) { e.readOnly = true }
}

// WithLogger overrides the default package logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *TextEngine) { e.log = l }
}

// WithRenderer registers a Renderer invoked after every live-replica change.
func WithRenderer(r Renderer) Option {
	return func(e *TextEngine) { e.renderer = r }
}

// WithTracer registers the tracer every public operation spans against (see
// pkg/tracing's Provider.Tracer). Unset, operations span against a no-op
// tracer with zero overhead.
func WithTracer(t trace.Tracer) Option {
	return func(e *TextEngine) { e.tracer = t }
}

// NewTextEngine builds a disconnected TextEngine that emits outbound wire
// messages through emitter. Pass the transport's initial connected snapshot
// to HandleServerMsg to bring it online.
func NewTextEngine(emitter Emitter, opts ...Option) *TextEngine {
	e := &TextEngine{
		live:    newReplica(),
		shadow:  newReplica(),
		emitter: emitter,
		log:     logger.Default,
		tracer:  noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// startSpan opens a span named for a public TextEngine operation. Every
// public operation runs to completion synchronously (spec §5: no suspension
// points), so the span is started and ended around the call body rather
// than threaded through a caller-supplied context.
func (e *TextEngine) startSpan(op string) func() {
	_, span := e.tracer.Start(context.Background(), "textengine."+op)
	return func() { span.End() }
}

// Connected reports whether the engine has received its initial snapshot.
func (e *TextEngine) Connected() bool { return e.state == stateConnected }

// Content returns the current rendered live content's raw (untagged) text.
func (e *TextEngine) Content() string { return e.live.string() }

// LastModID returns the last last_mod_id the engine has observed.
func (e *TextEngine) LastModID() int64 { return e.lastModID }

func (e *TextEngine) emit(msg protocol.TextClientMsg) {
	if e.emitter != nil {
		e.emitter.EmitText(msg)
	}
}

func (e *TextEngine) render() {
	if e.renderer != nil {
		e.renderer.RenderText(e.Render())
	}
}

func (e *TextEngine) canMutate() bool {
	return e.state == stateConnected && !e.readOnly
}

// bumpModID takes the max of the engine's last_mod_id and the observed one,
// per the advisory decision that last_mod_id only ever needs to track the
// highest id seen so a reconnect can resume from it — an out-of-order or
// duplicate delivery that carries a smaller id is silently ignored rather
// than treated as an error.
func (e *TextEngine) bumpModID(modID int64) {
	if modID > e.lastModID {
		e.lastModID = modID
		e.lastModIDDirty = true
	}
}

// DirtyModID reports whether last_mod_id has advanced since it was last
// flushed, and clears the dirty flag. A caller's ping loop uses this to
// decide whether to piggyback update_last_mod_id on the next ping response.
func (e *TextEngine) DirtyModID() (int64, bool) {
	if !e.lastModIDDirty {
		return e.lastModID, false
	}
	e.lastModIDDirty = false
	return e.lastModID, true
}

// nextColour assigns the first unused palette colour, or — when every entry
// is already in use — a uniformly random one (spec §3.2).
func (e *TextEngine) nextColour(used map[string]bool) string {
	for _, c := range protocol.CursorPalette {
		if !used[c] {
			return c
		}
	}
	if len(protocol.CursorPalette) == 0 {
		return "grey"
	}
	return protocol.CursorPalette[rand.Intn(len(protocol.CursorPalette))]
}

func (e *TextEngine) usedColours() map[string]bool {
	used := make(map[string]bool, len(e.live.cursors))
	for _, c := range e.live.cursors {
		used[c.Colour] = true
	}
	return used
}

// discardAndReplay resets the live replica from the shadow and replays the
// (rebased) pending queue on top of it. Called whenever a remote mutation
// event lands, since the optimistic live state can no longer be trusted to
// reflect "shadow plus our own unacknowledged edits" without being rebuilt.
func (e *TextEngine) discardAndReplay() {
	e.live = e.shadow.clone()
	for _, op := range e.pending {
		e.applyPendingToLive(op)
	}
}

func (e *TextEngine) applyPendingToLive(op PendingOp) {
	switch op.Kind {
	case OpInsert:
		// Insert's own incidental caret advance is queued as a separate
		// pending cursorOp (see Insert), so replaying it here needs no
		// special-casing: the OpCursor entry that follows sets the position.
		e.live.actualAdd(op.Text, op.Position)
	case OpRemove:
		e.live.actualRemove(op.Start, op.End)
	case OpAddProperty:
		e.live.actualAddProperty(op.Start, op.End, op.Property, op.Flag)
	case OpRemoveProperty:
		e.live.actualRemoveProperty(op.Start, op.End, op.Property)
	case OpCursor:
		if c, ok := e.live.cursors[e.userID]; ok {
			c.Position = op.Position
			e.live.cursors[e.userID] = c
		}
	}
}

func (e *TextEngine) String() string {
	return fmt.Sprintf("TextEngine{user=%d, state=%v, pending=%d}", e.userID, e.state, len(e.pending))
}
