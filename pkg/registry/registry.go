// Package registry is the reference relay's per-document authority: it
// assigns the server-side mod_id total order (spec §5), holds the
// authoritative text content and whiteboard scene, and fans out every
// accepted mutation to every connected peer, the sender included. This is explicitly a
// demo/integration-test harness, not a production authority server: it
// implements none of the auth, persistence, or folder/file concerns
// described (and scoped out) in spec §6.3.
//
// Generalizes the teacher's single-document ServerState/StartCleaner pair
// (pkg/server/server.go) to N documents with TTL-based idle eviction backed
// by github.com/patrickmn/go-cache instead of a hand-rolled ticker sweep.
package registry

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"collabcore/internal/protocol"
	"collabcore/pkg/logger"
	"collabcore/pkg/transport"
	"collabcore/pkg/whiteboard"
)

// DefaultIdleExpiration is how long a document survives with no connected
// peers before it is evicted from the registry.
const DefaultIdleExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often the registry's cache sweeps for
// expired documents.
const DefaultCleanupInterval = 5 * time.Minute

// Document is one shared document's server-side authoritative state: the
// confirmed text content, the next mod_id to assign, the whiteboard scene
// (tracked so a late joiner can be replayed the existing drawing, since
// spec §6.1's connected event only snapshots text content), and the set of
// currently connected peers.
type Document struct {
	mu sync.Mutex

	content []rune
	modID   int64

	nextUserID uint64
	peers      map[uint64]*transport.Peer

	scene *whiteboard.Engine

	log *logger.Logger
}

func newDocument(log *logger.Logger, tracer trace.Tracer) *Document {
	if log == nil {
		log = logger.Default
	}
	d := &Document{
		peers: make(map[uint64]*transport.Peer),
		log:   log,
	}
	d.scene = whiteboard.NewEngine(
		whiteboard.EmitterFunc(func(protocol.WhiteboardMsg) {}),
		whiteboard.WithTracer(tracer),
	)
	return d
}

// Join registers a new peer, returning the assigned user id and the
// connected snapshot to send it.
func (d *Document) Join(peer *transport.Peer) protocol.ConnectedMsg {
	d.mu.Lock()
	defer d.mu.Unlock()

	userID := d.nextUserID
	d.nextUserID++
	peer.UserID = userID
	d.peers[userID] = peer

	return protocol.ConnectedMsg{
		UserID:  userID,
		Content: string(d.content),
		ModID:   d.modID,
	}
}

// SceneSnapshot returns the draw/group events needed to reconstruct the
// current whiteboard scene for a newly joined peer.
func (d *Document) SceneSnapshot() []protocol.WhiteboardMsg {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []protocol.WhiteboardMsg
	var walk func(id string)
	walk = func(id string) {
		el, ok := d.scene.Scene().Get(id)
		if !ok {
			return
		}
		if el.IsGroup {
			children := make([]string, len(el.Children))
			copy(children, el.Children)
			for _, c := range children {
				walk(c)
			}
			out = append(out, protocol.WhiteboardMsg{Group: &protocol.GroupMsg{GroupID: el.ID, ChildrenID: children}})
			return
		}
		out = append(out, protocol.WhiteboardMsg{Draw: &protocol.DrawMsg{ID: el.ID, D: el.D}})
	}
	for _, id := range d.scene.Scene().TopLevel() {
		walk(id)
	}
	return out
}

// Leave removes a peer and reports whether the document is now empty.
func (d *Document) Leave(userID uint64) (empty bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.peers, userID)
	return len(d.peers) == 0
}

// broadcast fans msg out to every connected peer, logging (not failing) any
// individual send error — a disconnected peer is the transport's problem to
// notice via its own read loop, not this call's.
func (d *Document) broadcast(msg protocol.TextServerMsg) {
	for _, p := range d.peers {
		if err := p.SendText(msg); err != nil {
			d.log.Warn("registry: send to user %d failed: %v", p.UserID, err)
		}
	}
}

func (d *Document) broadcastWhiteboard(msg protocol.WhiteboardMsg) {
	for _, p := range d.peers {
		if err := p.SendWhiteboard(msg); err != nil {
			d.log.Warn("registry: whiteboard send to user %d failed: %v", p.UserID, err)
		}
	}
}

// BroadcastUserDisconnected announces userID's departure to the remaining
// peers.
func (d *Document) BroadcastUserDisconnected(userID uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.broadcast(protocol.TextServerMsg{UserDisconnected: &protocol.UserDisconnectedMsg{UserID: userID}})
}

// ApplyText applies one inbound text-namespace client message from userID,
// assigning it the next mod_id and broadcasting the resulting server event
// to every connected peer (including the sender, which recognizes the echo
// by UserID and pops its pending queue — spec §4.1.2). Precondition
// violations degrade to a no-op per spec §7 rather than disconnecting the
// peer.
func (d *Document) ApplyText(userID uint64, msg protocol.TextClientMsg) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case msg.AddRegion != nil:
		m := msg.AddRegion
		pos := int(m.Position)
		if pos < 0 || pos > len(d.content) {
			d.log.Warn("registry: add_region position %d out of bounds (len=%d)", pos, len(d.content))
			return
		}
		runes := []rune(m.Text)
		content := make([]rune, 0, len(d.content)+len(runes))
		content = append(content, d.content[:pos]...)
		content = append(content, runes...)
		content = append(content, d.content[pos:]...)
		d.content = content
		d.modID++
		d.broadcast(protocol.TextServerMsg{AddRegion: &protocol.AddRegionMsg{
			Text: m.Text, Position: m.Position, UserID: userID, LastModID: d.modID,
		}})

	case msg.RemoveRegion != nil:
		m := msg.RemoveRegion
		start, end := int(m.Start), int(m.End)
		if start < 0 || end > len(d.content) || start > end {
			d.log.Warn("registry: remove_region [%d,%d) out of bounds (len=%d)", start, end, len(d.content))
			return
		}
		content := make([]rune, 0, len(d.content)-(end-start))
		content = append(content, d.content[:start]...)
		content = append(content, d.content[end:]...)
		d.content = content
		d.modID++
		d.broadcast(protocol.TextServerMsg{RemoveRegion: &protocol.RemoveRegionMsg{
			Start: m.Start, End: m.End, UserID: userID, LastModID: d.modID,
		}})

	case msg.AddProperty != nil:
		m := msg.AddProperty
		d.modID++
		d.broadcast(protocol.TextServerMsg{AddProperty: &protocol.AddPropertyMsg{
			Start: m.Start, End: m.End, Property: m.Property, Flag: m.Flag, UserID: userID, LastModID: d.modID,
		}})

	case msg.RemoveProperty != nil:
		m := msg.RemoveProperty
		d.modID++
		d.broadcast(protocol.TextServerMsg{RemoveProperty: &protocol.RemovePropertyMsg{
			Start: m.Start, End: m.End, Property: m.Property, UserID: userID, LastModID: d.modID,
		}})

	case msg.CursorMoved != nil:
		m := msg.CursorMoved
		d.modID++
		d.broadcast(protocol.TextServerMsg{CursorMoved: &protocol.CursorMovedMsg{
			Position: m.Position, UserID: userID, Username: m.Username, LastModID: d.modID,
		}})

	case msg.UpdateModID != nil:
		// Advisory piggyback only (spec §9 Open Question); nothing to do.
	}
}

// ApplyWhiteboard applies and rebroadcasts an inbound whiteboard-namespace
// message, keeping the server's own scene tracker (used for SceneSnapshot)
// in sync.
func (d *Document) ApplyWhiteboard(userID uint64, msg protocol.WhiteboardMsg) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scene.HandleServerMsg(msg)
	d.broadcastWhiteboard(msg)
}

// ModID reports the document's current mod_id (for diagnostics/stats).
func (d *Document) ModID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modID
}

// PeerCount reports how many peers currently hold this document open.
func (d *Document) PeerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.peers)
}

// Registry is the process-wide map of document id -> Document, evicting
// idle documents (no peer activity within IdleExpiration) the way
// kolabpad's StartCleaner/cleanupExpiredDocuments does, but delegated to
// go-cache's own sweep instead of a hand-rolled ticker.
type Registry struct {
	cache  *gocache.Cache
	mu     sync.Mutex
	log    *logger.Logger
	tracer trace.Tracer
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithIdleExpiration overrides DefaultIdleExpiration.
func WithIdleExpiration(d time.Duration) Option {
	return func(r *Registry) { r.cache = gocache.New(d, DefaultCleanupInterval) }
}

// WithLogger overrides the default package logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithTracer overrides the tracer handed to each document's whiteboard
// engine (see pkg/tracing's Provider.Tracer). Unset, documents trace
// against a no-op tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

// New builds an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		cache:  gocache.New(DefaultIdleExpiration, DefaultCleanupInterval),
		log:    logger.Default,
		tracer: noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the Document for id, creating an empty one if it
// doesn't exist yet, and refreshes its idle-expiration countdown.
func (r *Registry) GetOrCreate(id string) *Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache.Get(id); ok {
		doc := v.(*Document)
		r.cache.SetDefault(id, doc) // touch: reset the idle countdown
		return doc
	}

	doc := newDocument(r.log, r.tracer)
	r.cache.SetDefault(id, doc)
	return doc
}

// Count returns the number of documents currently tracked (active or
// idling within their expiration window).
func (r *Registry) Count() int {
	return r.cache.ItemCount()
}

// Touch resets id's idle-expiration countdown without creating it.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.cache.Get(id); ok {
		r.cache.SetDefault(id, v)
	}
}
