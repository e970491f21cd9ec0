package textengine

import "testing"

func TestActualAddShiftsFixedPoints(t *testing.T) {
	r := newReplica()
	r.actualAdd("abc", 0)
	r.cursors[1] = Cursor{Position: 3}
	r.properties["bold"] = map[string][]Range{"": {{Start: 1, End: 3}}}

	r.actualAdd("X", 1)

	if got := r.string(); got != "aXbc" {
		t.Fatalf("content = %q, want %q", got, "aXbc")
	}
	if got := r.cursors[1].Position; got != 4 {
		t.Fatalf("cursor = %d, want 4", got)
	}
	want := Range{Start: 1, End: 4}
	if got := r.properties["bold"][""][0]; got != want {
		t.Fatalf("range = %+v, want %+v", got, want)
	}
}

func TestActualAddCursorAtPositionUnaffected(t *testing.T) {
	r := newReplica()
	r.actualAdd("abc", 0)
	r.cursors[1] = Cursor{Position: 1}

	r.actualAdd("X", 1)

	if got := r.cursors[1].Position; got != 1 {
		t.Fatalf("cursor = %d, want 1 (strict > only)", got)
	}
}

func TestActualRemoveShiftsAndPrunes(t *testing.T) {
	r := newReplica()
	r.actualAdd("abcdef", 0)
	r.cursors[1] = Cursor{Position: 4}
	r.properties["bold"] = map[string][]Range{"": {{Start: 1, End: 3}, {Start: 4, End: 5}}}

	r.actualRemove(1, 3)

	if got := r.string(); got != "adef" {
		t.Fatalf("content = %q, want %q", got, "adef")
	}
	if got := r.cursors[1].Position; got != 2 {
		t.Fatalf("cursor = %d, want 2", got)
	}
	ranges := r.properties["bold"][""]
	if len(ranges) != 1 {
		t.Fatalf("expected the fully-overlapped range to be pruned, got %+v", ranges)
	}
	if want := (Range{Start: 2, End: 3}); ranges[0] != want {
		t.Fatalf("range = %+v, want %+v", ranges[0], want)
	}
}

func TestActualRemoveDropsEmptyProperty(t *testing.T) {
	r := newReplica()
	r.actualAdd("abcdef", 0)
	r.properties["bold"] = map[string][]Range{"": {{Start: 1, End: 3}}}

	r.actualRemove(0, 6)

	if _, ok := r.properties["bold"]; ok {
		t.Fatalf("expected property to be dropped once its only range is empty")
	}
}

func TestMergeRangeJoinsTouchingLeftAndRight(t *testing.T) {
	bucket := []Range{{Start: 0, End: 2}}
	bucket = mergeRange(bucket, 2, 4)
	if len(bucket) != 1 || bucket[0] != (Range{Start: 0, End: 4}) {
		t.Fatalf("left-touch merge failed: %+v", bucket)
	}

	bucket = []Range{{Start: 4, End: 6}}
	bucket = mergeRange(bucket, 2, 4)
	if len(bucket) != 1 || bucket[0] != (Range{Start: 2, End: 6}) {
		t.Fatalf("right-touch merge failed: %+v", bucket)
	}
}

func TestMergeRangeBridgesTwoExisting(t *testing.T) {
	bucket := []Range{{Start: 0, End: 2}, {Start: 4, End: 6}}
	bucket = mergeRange(bucket, 2, 4)
	if len(bucket) != 1 || bucket[0] != (Range{Start: 0, End: 6}) {
		t.Fatalf("bridging merge failed: %+v", bucket)
	}
}

func TestActualAddPropertyOverwritesOverlap(t *testing.T) {
	r := newReplica()
	r.actualAdd("abcdef", 0)
	r.actualAddProperty(0, 4, "align", "left")
	r.actualAddProperty(2, 6, "align", "right")

	left := r.properties["align"]["left"]
	right := r.properties["align"]["right"]
	if len(left) != 1 || left[0] != (Range{Start: 0, End: 2}) {
		t.Fatalf("left bucket = %+v, want [0,2)", left)
	}
	if len(right) != 1 || right[0] != (Range{Start: 2, End: 6}) {
		t.Fatalf("right bucket = %+v, want [2,6)", right)
	}
}

func TestActualRemovePropertySplitsRange(t *testing.T) {
	r := newReplica()
	r.actualAdd("abcdefgh", 0)
	r.actualAddProperty(0, 8, "bold", "")

	r.actualRemoveProperty(2, 4, "bold")

	ranges := r.properties["bold"][""]
	if len(ranges) != 2 {
		t.Fatalf("expected split into two ranges, got %+v", ranges)
	}
	if ranges[0] != (Range{Start: 0, End: 2}) || ranges[1] != (Range{Start: 4, End: 8}) {
		t.Fatalf("unexpected split ranges: %+v", ranges)
	}
}
