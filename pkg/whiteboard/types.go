// Package whiteboard implements the client-side replicated scene graph for
// the shared vector drawing: a flat collection of paths and groups, each
// addressed by a globally unique, locally generated id, mutated by five
// idempotent operations that commute under the server's total event order
// (spec §3.5, §4.2).
//
// Unlike TextEngine, WhiteboardEngine needs no pending-op rebase queue: every
// operation is keyed by id and reapplying it is a no-op, so local and remote
// mutations can simply be applied directly to the one scene graph the engine
// owns.
package whiteboard

// Element is one node of the scene graph: either a path (Children == nil) or
// a group (Children holds the ordered ids of its members). Groups never
// nest a back-reference to their parent; the parent of an id is derived on
// demand by scanning group membership (spec §9, "no cyclic references").
type Element struct {
	ID       string
	D        string   // path data, "M x y L x y ..."; empty for groups
	IsGroup  bool
	Children []string // ordered child ids, only meaningful when IsGroup
}

// Scene is the flat map of all elements plus the ordered list of top-level
// ids (elements with no parent group). Children of a group are looked up by
// id in elements but are not listed at the top level.
type Scene struct {
	elements map[string]*Element
	topLevel []string
}

// NewScene builds an empty scene graph.
func NewScene() *Scene {
	return &Scene{elements: make(map[string]*Element)}
}

// Get returns the element with id, if present.
func (s *Scene) Get(id string) (*Element, bool) {
	el, ok := s.elements[id]
	return el, ok
}

// TopLevel returns the ids of every element with no parent group, in order.
func (s *Scene) TopLevel() []string {
	out := make([]string, len(s.topLevel))
	copy(out, s.topLevel)
	return out
}

// ParentOf returns the id of the group containing child, if any.
func (s *Scene) ParentOf(childID string) (string, bool) {
	for _, el := range s.elements {
		if !el.IsGroup {
			continue
		}
		for _, c := range el.Children {
			if c == childID {
				return el.ID, true
			}
		}
	}
	return "", false
}

func (s *Scene) removeFromTopLevel(id string) {
	for i, existing := range s.topLevel {
		if existing == id {
			s.topLevel = append(s.topLevel[:i], s.topLevel[i+1:]...)
			return
		}
	}
}

func (s *Scene) appendTopLevel(id string) {
	s.removeFromTopLevel(id)
	s.topLevel = append(s.topLevel, id)
}
