package whiteboard

import (
	"testing"

	"collabcore/internal/protocol"
)

func newTestEngine(t *testing.T) (*Engine, *[]protocol.WhiteboardMsg) {
	t.Helper()
	var emitted []protocol.WhiteboardMsg
	e := NewEngine(EmitterFunc(func(m protocol.WhiteboardMsg) {
		emitted = append(emitted, m)
	}))
	return e, &emitted
}

func TestDrawIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Draw("p1", "M 0 0 L 1 1")
	e.Draw("p1", "M 9 9 L 8 8") // second draw for same id ignored

	el, ok := e.Scene().Get("p1")
	if !ok {
		t.Fatalf("expected p1 to exist")
	}
	if el.D != "M 0 0 L 1 1" {
		t.Errorf("second draw should be a no-op, got d=%q", el.D)
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Remove("missing") // must not panic
	if _, ok := e.Scene().Get("missing"); ok {
		t.Fatalf("missing id should not spring into existence")
	}
}

func TestEditIgnoresAbsent(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Edit("missing", "M 1 1")
	if _, ok := e.Scene().Get("missing"); ok {
		t.Fatalf("edit of absent id must not create it")
	}
}

func TestGroupAndUngroupRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Draw("a", "M 0 0 L 1 1")
	e.Draw("b", "M 2 2 L 3 3")

	e.Group("g1", []string{"a", "b"})

	top := e.Scene().TopLevel()
	if len(top) != 1 || top[0] != "g1" {
		t.Fatalf("expected only g1 at top level, got %v", top)
	}
	group, ok := e.Scene().Get("g1")
	if !ok || !group.IsGroup || len(group.Children) != 2 {
		t.Fatalf("expected group g1 with 2 children, got %+v", group)
	}

	e.Ungroup("g1")
	top = e.Scene().TopLevel()
	if len(top) != 2 {
		t.Fatalf("expected a and b back at top level, got %v", top)
	}
	if _, ok := e.Scene().Get("g1"); ok {
		t.Fatalf("g1 should be gone after ungroup")
	}
}

func TestReadOnlyIgnoresLocalDraw(t *testing.T) {
	var emitted []protocol.WhiteboardMsg
	e := NewEngine(EmitterFunc(func(m protocol.WhiteboardMsg) {
		emitted = append(emitted, m)
	}), WithReadOnly())

	e.localDraw("p1", "M 0 0 L 1 1")
	if _, ok := e.Scene().Get("p1"); ok {
		t.Fatalf("read-only engine should not apply local draws")
	}
	if len(emitted) != 0 {
		t.Fatalf("read-only engine should not emit")
	}
}

func TestHandleServerMsgAppliesRemoteEvents(t *testing.T) {
	e, _ := newTestEngine(t)
	e.HandleServerMsg(protocol.WhiteboardMsg{Draw: &protocol.DrawMsg{ID: "r1", D: "M 0 0 L 5 5"}})
	if _, ok := e.Scene().Get("r1"); !ok {
		t.Fatalf("remote draw should be applied")
	}
	e.HandleServerMsg(protocol.WhiteboardMsg{Remove: &protocol.RemoveMsg{ID: "r1"}})
	if _, ok := e.Scene().Get("r1"); ok {
		t.Fatalf("remote remove should be applied")
	}
}
