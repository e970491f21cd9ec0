package whiteboard

import (
	"fmt"
	"math"
	"strings"
)

// RegularPolygon constructs the "M x0 y0 L x1 y1 ..." path for a regular
// n-gon (n >= 3) inscribed so it spans the given bounding rectangle, per the
// construction in spec §4.2.3. rect.top/rect.bottom follow screen
// convention (top is the smaller y); the side-length formula is stated in
// the spec as h = top − bottom, which only produces a convincing worked
// example (§8 scenario 5: a == 10 for a 10×10 box) when h is taken as the
// rectangle's positive extent, so this uses h = bottom − top.
func RegularPolygon(n int, r rect) string {
	if n < 3 {
		n = 3
	}
	h := r.bottom - r.top

	var a float64
	if n%2 == 0 {
		a = h * math.Tan(math.Pi/float64(n))
	} else {
		a = h / (1/(2*math.Sin(math.Pi/float64(n))) + 1/(2*math.Tan(math.Pi/float64(n))))
	}

	x := (r.left+r.right)/2 - a/2
	y := r.bottom

	var b strings.Builder
	fmt.Fprintf(&b, "M %g %g", x, y)

	theta := 0.0
	step := 2 * math.Pi / float64(n)
	for i := 0; i <= n; i++ {
		x += a * math.Cos(theta)
		y += a * math.Sin(theta)
		fmt.Fprintf(&b, " L %g %g", x, y)
		theta += step
	}
	return b.String()
}
