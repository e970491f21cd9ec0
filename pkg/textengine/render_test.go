package textengine

import "testing"

func TestRenderEmitsNonOverlappingNestedTags(t *testing.T) {
	r := newReplica()
	r.actualAdd("hello", 0)
	r.actualAddProperty(0, 5, "bold", "")
	r.actualAddProperty(1, 3, "italic", "")

	got := renderReplica(r)
	want := "<bold>h<italic>el</italic>lo</bold>"
	if got != want {
		t.Fatalf("render =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderEscapesAngleBrackets(t *testing.T) {
	r := newReplica()
	r.actualAdd("a<b>c", 0)

	got := renderReplica(r)
	want := "a&lt;b&gt;c"
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestRenderEmitsCursorMarker(t *testing.T) {
	r := newReplica()
	r.actualAdd("ab", 0)
	r.cursors[1] = Cursor{Position: 1, Username: "alice", Colour: "red"}

	got := renderReplica(r)
	want := `a<cursor username="alice" colour="red"/>b`
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestRenderFlagEmittedVerbatimAsAttribute(t *testing.T) {
	r := newReplica()
	r.actualAdd("abc", 0)
	r.actualAddProperty(0, 3, "p", "align=left")

	got := renderReplica(r)
	want := "<p align=left>abc</p>"
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}
