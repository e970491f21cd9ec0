// Package geometry provides the segment-intersection and containment
// primitives the whiteboard eraser and selector tools use to hit-test
// pointer strokes against paths and selection rectangles (spec §4.3).
package geometry

// Point is a 2D point in drawing-area coordinates.
type Point struct {
	X, Y float64
}

// SegmentsIntersect reports whether segment a1-a2 crosses segment b1-b2.
// Colinear or parallel segments (denom == 0) are treated as non-intersecting
// rather than resolved via an overlap test, matching the source's
// parametric-only approach.
func SegmentsIntersect(a1, a2, b1, b2 Point) bool {
	denom := (b2.Y-b1.Y)*(a2.X-a1.X) - (b2.X-b1.X)*(a2.Y-a1.Y)
	if denom == 0 {
		return false
	}
	ua := ((b2.X-b1.X)*(a1.Y-b1.Y) - (b2.Y-b1.Y)*(a1.X-b1.X)) / denom
	ub := ((a2.X-a1.X)*(a1.Y-b1.Y) - (a2.Y-a1.Y)*(a1.X-b1.X)) / denom
	return ua >= 0 && ua <= 1 && ub >= 0 && ub <= 1
}

// SegmentIntersectsRect reports whether segment l1-l2 crosses any of the
// four sides of the axis-aligned rectangle with top-left corner r1 and
// bottom-right corner r2 (screen coordinates: y grows downward).
func SegmentIntersectsRect(l1, l2, r1, r2 Point) bool {
	topLeft := Point{r1.X, r1.Y}
	topRight := Point{r2.X, r1.Y}
	bottomRight := Point{r2.X, r2.Y}
	bottomLeft := Point{r1.X, r2.Y}

	return SegmentsIntersect(l1, l2, topLeft, topRight) ||
		SegmentsIntersect(l1, l2, topRight, bottomRight) ||
		SegmentsIntersect(l1, l2, bottomRight, bottomLeft) ||
		SegmentsIntersect(l1, l2, bottomLeft, topLeft)
}

// PointInRect reports whether p lies within the closed rectangle bounded by
// r1 and r2 (either corner pair works; the comparisons are order-independent).
func PointInRect(p, r1, r2 Point) bool {
	minX, maxX := r1.X, r2.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := r1.Y, r2.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}
