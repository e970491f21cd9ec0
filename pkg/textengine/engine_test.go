package textengine

import (
	"testing"

	"collabcore/internal/protocol"
)

func connectedEngine(t *testing.T, content string) *TextEngine {
	t.Helper()
	e := NewTextEngine(EmitterFunc(func(protocol.TextClientMsg) {}))
	e.HandleServerMsg(protocol.TextServerMsg{Connected: &protocol.ConnectedMsg{UserID: 0, Content: content, ModID: 0}})
	return e
}

// connectedEngineWithEmits builds a connected engine whose every outbound
// message is appended to the returned slice, so a test can relay them back
// through HandleServerMsg the way the reference relay would (see echoAll) —
// exercising the full round trip instead of only the one echo the test
// happens to construct by hand.
func connectedEngineWithEmits(t *testing.T, content string) (*TextEngine, *[]protocol.TextClientMsg) {
	t.Helper()
	emitted := &[]protocol.TextClientMsg{}
	e := NewTextEngine(EmitterFunc(func(msg protocol.TextClientMsg) {
		*emitted = append(*emitted, msg)
	}))
	e.HandleServerMsg(protocol.TextServerMsg{Connected: &protocol.ConnectedMsg{UserID: 0, Content: content, ModID: 0}})
	return e, emitted
}

// echoAll relays every message captured in emitted back through
// HandleServerMsg as a self-echo, assigning each a strictly increasing
// mod_id starting after *modID, then clears emitted.
func echoAll(e *TextEngine, emitted *[]protocol.TextClientMsg, modID *int64) {
	pending := *emitted
	*emitted = (*emitted)[:0]
	for _, msg := range pending {
		*modID++
		e.HandleServerMsg(asServerEcho(msg, e.userID, *modID))
	}
}

// asServerEcho wraps a client message as the server-confirmed echo of that
// same op from userID, the way cmd/collabd's registry.Document.ApplyText
// rebroadcasts an accepted edit back to its sender.
func asServerEcho(msg protocol.TextClientMsg, userID uint64, modID int64) protocol.TextServerMsg {
	switch {
	case msg.AddRegion != nil:
		return protocol.TextServerMsg{AddRegion: &protocol.AddRegionMsg{
			Text: msg.AddRegion.Text, Position: msg.AddRegion.Position, UserID: userID, LastModID: modID,
		}}
	case msg.RemoveRegion != nil:
		return protocol.TextServerMsg{RemoveRegion: &protocol.RemoveRegionMsg{
			Start: msg.RemoveRegion.Start, End: msg.RemoveRegion.End, UserID: userID, LastModID: modID,
		}}
	case msg.AddProperty != nil:
		return protocol.TextServerMsg{AddProperty: &protocol.AddPropertyMsg{
			Start: msg.AddProperty.Start, End: msg.AddProperty.End, Property: msg.AddProperty.Property,
			Flag: msg.AddProperty.Flag, UserID: userID, LastModID: modID,
		}}
	case msg.RemoveProperty != nil:
		return protocol.TextServerMsg{RemoveProperty: &protocol.RemovePropertyMsg{
			Start: msg.RemoveProperty.Start, End: msg.RemoveProperty.End, Property: msg.RemoveProperty.Property,
			UserID: userID, LastModID: modID,
		}}
	case msg.CursorMoved != nil:
		return protocol.TextServerMsg{CursorMoved: &protocol.CursorMovedMsg{
			Position: msg.CursorMoved.Position, UserID: userID, LastModID: modID,
		}}
	default:
		return protocol.TextServerMsg{}
	}
}

// Local insert, then a remote insert lands before our own is echoed: the
// pending insert's position must be rebased past the remote insertion, and
// every cursor in the replay (including our own) shifts by the generic
// fixed-point rule.
func TestRemoteInsertRebasesPendingInsert(t *testing.T) {
	e := connectedEngine(t, "abc")
	e.live.cursors[e.userID] = Cursor{Position: 3, Username: "me"}
	e.shadow.cursors[e.userID] = Cursor{Position: 3, Username: "me"}

	e.Insert("X", 1)
	if got := e.live.string(); got != "aXbc" {
		t.Fatalf("live after local insert = %q", got)
	}
	if got := e.live.cursors[e.userID].Position; got != 4 {
		t.Fatalf("local cursor after local insert = %d, want 4", got)
	}

	e.HandleServerMsg(protocol.TextServerMsg{AddRegion: &protocol.AddRegionMsg{
		Text: "YY", Position: 0, UserID: 17, LastModID: 1,
	}})

	if got := e.shadow.string(); got != "YYabc" {
		t.Fatalf("shadow = %q, want YYabc", got)
	}
	if got := e.live.string(); got != "YYaXbc" {
		t.Fatalf("live = %q, want YYaXbc", got)
	}
	if len(e.pending) != 1 || e.pending[0].Position != 3 {
		t.Fatalf("pending = %+v, want single insert rebased to position 3", e.pending)
	}
	if got := e.live.cursors[e.userID].Position; got != 6 {
		t.Fatalf("local cursor = %d, want 6", got)
	}
}

// A remote remove lands with no pending ops outstanding: it applies
// straight through to both replicas.
func TestRemoteRemoveWithEmptyPendingAppliesDirectly(t *testing.T) {
	e := connectedEngine(t, "abcdef")
	e.live.cursors[e.userID] = Cursor{Position: 4, Username: "me"}
	e.shadow.cursors[e.userID] = Cursor{Position: 4, Username: "me"}

	e.HandleServerMsg(protocol.TextServerMsg{RemoveRegion: &protocol.RemoveRegionMsg{
		Start: 1, End: 3, UserID: 17, LastModID: 1,
	}})

	if got := e.live.string(); got != "adef" {
		t.Fatalf("live = %q, want adef", got)
	}
	if got := e.live.cursors[e.userID].Position; got != 2 {
		t.Fatalf("cursor = %d, want 2", got)
	}
}

// The server echoes back every message our own insert-at-cursor emitted
// (add_region, then the incidental cursor_moved it queues): the pending
// queue drains to empty and live/shadow converge, exercising the full
// round trip rather than just the add_region leg of it.
func TestEchoOfOwnInsertPopsPendingHead(t *testing.T) {
	e, emitted := connectedEngineWithEmits(t, "")
	e.Insert("Z", 0)

	if got := e.live.string(); got != "Z" {
		t.Fatalf("live = %q, want Z", got)
	}
	if got := e.live.cursors[e.userID].Position; got != 1 {
		t.Fatalf("cursor after local insert-at-cursor = %d, want 1", got)
	}
	if len(e.pending) != 2 {
		t.Fatalf("pending = %+v, want the insert and its trailing cursor move", e.pending)
	}
	if len(*emitted) != 2 || (*emitted)[0].AddRegion == nil || (*emitted)[1].CursorMoved == nil {
		t.Fatalf("emitted = %+v, want add_region then cursor_moved", *emitted)
	}

	var modID int64
	echoAll(e, emitted, &modID)

	if len(e.pending) != 0 {
		t.Fatalf("pending after echoing every emitted op = %+v, want empty", e.pending)
	}
	if got := e.shadow.string(); got != "Z" {
		t.Fatalf("shadow after echo = %q, want Z", got)
	}
	if got := e.live.string(); got != "Z" {
		t.Fatalf("live after echo = %q, want Z", got)
	}
	if got := e.live.cursors[e.userID].Position; got != 1 {
		t.Fatalf("live cursor after echo = %d, want 1", got)
	}
	if got := e.shadow.cursors[e.userID].Position; got != 1 {
		t.Fatalf("shadow cursor after echo = %d, want 1", got)
	}
}

func TestTogglePropertyAddsThenRemoves(t *testing.T) {
	e := connectedEngine(t, "hello world")

	e.ToggleProperty(0, 5, "bold", "")
	if _, ok := e.live.coveringRange("bold", "", 0, 5); !ok {
		t.Fatalf("expected bold range to be present after first toggle")
	}

	e.ToggleProperty(0, 5, "bold", "")
	if _, ok := e.live.coveringRange("bold", "", 0, 5); ok {
		t.Fatalf("expected bold range to be removed after second toggle")
	}
}

func TestReadOnlyEngineIgnoresMutations(t *testing.T) {
	e := NewTextEngine(EmitterFunc(func(protocol.TextClientMsg) {}), WithReadOnly())
	e.HandleServerMsg(protocol.TextServerMsg{Connected: &protocol.ConnectedMsg{UserID: 0, Content: "abc", ModID: 0}})

	e.Insert("X", 0)

	if got := e.live.string(); got != "abc" {
		t.Fatalf("read-only engine mutated content: %q", got)
	}
}

func TestApplyTextDiffRewritesContent(t *testing.T) {
	e := connectedEngine(t, "the quick fox")
	e.ApplyTextDiff("the quick brown fox")

	if got := e.live.string(); got != "the quick brown fox" {
		t.Fatalf("live = %q, want full replacement text", got)
	}
}
