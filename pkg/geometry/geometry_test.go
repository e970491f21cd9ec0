package geometry

import "testing"

func TestSegmentsIntersectBasicCross(t *testing.T) {
	a1, a2 := Point{0, 0}, Point{10, 10}
	b1, b2 := Point{0, 10}, Point{10, 0}
	if !SegmentsIntersect(a1, a2, b1, b2) {
		t.Fatalf("expected crossing segments to intersect")
	}
}

func TestSegmentsIntersectParallelNoIntersect(t *testing.T) {
	a1, a2 := Point{0, 0}, Point{10, 0}
	b1, b2 := Point{0, 5}, Point{10, 5}
	if SegmentsIntersect(a1, a2, b1, b2) {
		t.Fatalf("parallel segments must not intersect")
	}
}

func TestSegmentsIntersectColinearTreatedAsNonIntersecting(t *testing.T) {
	a1, a2 := Point{0, 0}, Point{10, 0}
	b1, b2 := Point{5, 0}, Point{15, 0}
	if SegmentsIntersect(a1, a2, b1, b2) {
		t.Fatalf("colinear overlap must be treated as non-intersecting per spec")
	}
}

func TestSegmentsIntersectCommutative(t *testing.T) {
	a1, a2 := Point{0, 0}, Point{10, 10}
	b1, b2 := Point{0, 10}, Point{10, 0}

	want := SegmentsIntersect(a1, a2, b1, b2)
	if got := SegmentsIntersect(b1, b2, a1, a2); got != want {
		t.Fatalf("SegmentsIntersect not commutative in argument order: %v vs %v", got, want)
	}
	if got := SegmentsIntersect(a2, a1, b2, b1); got != want {
		t.Fatalf("SegmentsIntersect not commutative under endpoint reversal: %v vs %v", got, want)
	}
}

func TestSegmentIntersectsRect(t *testing.T) {
	r1, r2 := Point{0, 0}, Point{10, 10}

	crossing := []struct{ l1, l2 Point }{
		{Point{-5, 5}, Point{15, 5}},   // crosses left and right sides
		{Point{5, -5}, Point{5, 15}},   // crosses top and bottom sides
		{Point{-5, -5}, Point{15, 15}}, // diagonal through the rect
	}
	for _, c := range crossing {
		if !SegmentIntersectsRect(c.l1, c.l2, r1, r2) {
			t.Errorf("expected %v-%v to intersect rect", c.l1, c.l2)
		}
	}

	if SegmentIntersectsRect(Point{20, 20}, Point{30, 30}, r1, r2) {
		t.Errorf("segment entirely outside rect should not intersect")
	}
}

func TestPointInRect(t *testing.T) {
	r1, r2 := Point{0, 0}, Point{10, 10}
	if !PointInRect(Point{5, 5}, r1, r2) {
		t.Fatalf("center point should be inside rect")
	}
	if !PointInRect(Point{0, 0}, r1, r2) {
		t.Fatalf("corner point should be inside (inclusive) rect")
	}
	if PointInRect(Point{11, 5}, r1, r2) {
		t.Fatalf("point outside rect on X should not be inside")
	}
	// corners reversed should still work (order-independent)
	if !PointInRect(Point{5, 5}, r2, r1) {
		t.Fatalf("PointInRect should be order-independent in corner args")
	}
}
