package whiteboard

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator produces durable, globally unique element ids of the form
// draw-<peer-random>-<monotonic> (spec §3.5): a per-peer random component
// (so two peers never collide even if their counters line up) plus a
// strictly increasing local counter (so a single peer never repeats an id).
type IDGenerator struct {
	peer    string
	counter uint64
}

// NewIDGenerator creates a generator with a fresh random peer component.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{peer: uuid.New().String()[:8]}
}

// Next returns the next id for this peer.
func (g *IDGenerator) Next() string {
	g.counter++
	return fmt.Sprintf("draw-%s-%d", g.peer, g.counter)
}
