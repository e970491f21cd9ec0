package whiteboard

import (
	"fmt"
	"strings"

	"collabcore/internal/protocol"
	"collabcore/pkg/geometry"
)

// Point is a pointer position in drawing-area coordinates, already
// transformed out of the DOM layer (out of scope, spec §1) by the caller.
type Point struct {
	X, Y float64
}

func (p Point) geom() geometry.Point { return geometry.Point{X: p.X, Y: p.Y} }

// Modifiers carries the keyboard modifiers held during a pointer event, used
// by the selector tool to decide between replacing, adding to, or toggling
// the current selection.
type Modifiers struct {
	Shift bool
	Ctrl  bool
}

// Tool is the active-tool state machine interface every whiteboard tool
// implements (§4.2.2). Tool state is local only and never networked.
type Tool interface {
	Down(p Point, mods Modifiers)
	Move(p Point)
	Up(p Point)
}

// --- pen ---

// PenTool draws a freehand polyline: on pointer down it starts a new local
// path, each move appends a vertex, and pointer up assigns an id and emits
// the finished path.
type PenTool struct {
	engine *Engine
	active bool
	d      strings.Builder
}

// NewPenTool builds a pen tool bound to engine.
func NewPenTool(engine *Engine) *PenTool { return &PenTool{engine: engine} }

func (t *PenTool) Down(p Point, _ Modifiers) {
	t.active = true
	t.d.Reset()
	fmt.Fprintf(&t.d, "M %g %g", p.X, p.Y)
}

func (t *PenTool) Move(p Point) {
	if !t.active {
		return
	}
	fmt.Fprintf(&t.d, " L %g %g", p.X, p.Y)
}

func (t *PenTool) Up(p Point) {
	if !t.active {
		return
	}
	t.active = false
	id := t.engine.ids.Next()
	t.engine.localDraw(id, t.d.String())
}

// --- shape(n) ---

// ShapeTool draws a regular n-gon inscribed in the bounding rectangle
// between the pointer-down origin and the current pointer position (§4.2.3).
type ShapeTool struct {
	engine *Engine
	sides  int
	active bool
	origin Point
	last   string
}

// NewShapeTool builds a shape tool for an n-sided regular polygon; n must be
// at least 3.
func NewShapeTool(engine *Engine, n int) *ShapeTool {
	if n < 3 {
		n = 3
	}
	return &ShapeTool{engine: engine, sides: n}
}

func (t *ShapeTool) Down(p Point, _ Modifiers) {
	t.active = true
	t.origin = p
	t.last = RegularPolygon(t.sides, rectFromPoints(t.origin, p))
}

func (t *ShapeTool) Move(p Point) {
	if !t.active {
		return
	}
	t.last = RegularPolygon(t.sides, rectFromPoints(t.origin, p))
}

func (t *ShapeTool) Up(p Point) {
	if !t.active {
		return
	}
	t.active = false
	d := RegularPolygon(t.sides, rectFromPoints(t.origin, p))
	id := t.engine.ids.Next()
	t.engine.localDraw(id, d)
}

func rectFromPoints(a, b Point) rect {
	left, right := a.X, b.X
	if left > right {
		left, right = right, left
	}
	top, bottom := a.Y, b.Y
	if top > bottom {
		top, bottom = bottom, top
	}
	return rect{left: left, top: top, right: right, bottom: bottom}
}

// --- eraser ---

// EraserTool removes every element whose geometry is crossed by the stroke
// from the previous pointer position to the current one (§4.2.2).
type EraserTool struct {
	engine *Engine
	active bool
	last   Point
}

// NewEraserTool builds an eraser tool bound to engine.
func NewEraserTool(engine *Engine) *EraserTool { return &EraserTool{engine: engine} }

func (t *EraserTool) Down(p Point, _ Modifiers) {
	t.active = true
	t.last = p
}

func (t *EraserTool) Move(p Point) {
	if !t.active {
		return
	}
	t.eraseAlong(t.last, p)
	t.last = p
}

func (t *EraserTool) Up(p Point) {
	t.active = false
}

// eraseAlong walks every top-level element (recursing into groups) and
// removes each path whose bounding box is crossed by segment from->to and
// which has at least one path segment actually crossed by it.
func (t *EraserTool) eraseAlong(from, to Point) {
	scene := t.engine.scene
	var hit []string
	for _, id := range scene.TopLevel() {
		collectErased(scene, id, from, to, &hit)
	}
	for _, id := range hit {
		t.engine.localRemove(id)
	}
}

func collectErased(scene *Scene, id string, from, to Point, hit *[]string) {
	el, ok := scene.Get(id)
	if !ok {
		return
	}
	if el.IsGroup {
		for _, child := range el.Children {
			collectErased(scene, child, from, to, hit)
		}
		return
	}
	verts := parsePathVertices(el.D)
	if len(verts) < 2 {
		return
	}
	bbLeft, bbTop, bbRight, bbBottom := boundingBox(verts)
	if !geometry.SegmentIntersectsRect(from.geom(), to.geom(),
		geometry.Point{X: bbLeft, Y: bbTop}, geometry.Point{X: bbRight, Y: bbBottom}) {
		return
	}
	for i := 0; i+1 < len(verts); i++ {
		if geometry.SegmentsIntersect(from.geom(), to.geom(), verts[i].geom(), verts[i+1].geom()) {
			*hit = append(*hit, id)
			return
		}
	}
}

func boundingBox(verts []Point) (left, top, right, bottom float64) {
	left, right = verts[0].X, verts[0].X
	top, bottom = verts[0].Y, verts[0].Y
	for _, v := range verts[1:] {
		if v.X < left {
			left = v.X
		}
		if v.X > right {
			right = v.X
		}
		if v.Y < top {
			top = v.Y
		}
		if v.Y > bottom {
			bottom = v.Y
		}
	}
	return
}

// --- selector ---

// SelectorTool maintains the current selection and, while dragging,
// translates every selected element by the pointer delta.
type SelectorTool struct {
	engine    *Engine
	selection map[string]bool
	dragLast  Point
	dragging  bool
}

// NewSelectorTool builds a selector tool bound to engine.
func NewSelectorTool(engine *Engine) *SelectorTool {
	return &SelectorTool{engine: engine, selection: make(map[string]bool)}
}

// Selected reports the current selection as a slice, in no particular order.
func (t *SelectorTool) Selected() []string {
	out := make([]string, 0, len(t.selection))
	for id := range t.selection {
		out = append(out, id)
	}
	return out
}

func (t *SelectorTool) Down(p Point, mods Modifiers) {
	id := t.hitTest(p)
	switch {
	case id == "":
		if !mods.Shift && !mods.Ctrl {
			t.selection = make(map[string]bool)
		}
	case mods.Shift || mods.Ctrl:
		if t.selection[id] {
			delete(t.selection, id)
		} else {
			t.selection[id] = true
		}
	default:
		if !t.selection[id] {
			t.selection = map[string]bool{id: true}
		}
	}
	t.dragLast = p
	t.dragging = len(t.selection) > 0
}

// hitTest returns the id of the top-level element under p, if any. Only
// direct members of the drawing area are eligible (§4.2.2): a hit on a path
// nested inside a group returns the id of the top-level group holding it.
func (t *SelectorTool) hitTest(p Point) string {
	scene := t.engine.scene
	for _, id := range scene.TopLevel() {
		if found := hitTestElement(scene, id, p); found != "" {
			return found
		}
	}
	return ""
}

func hitTestElement(scene *Scene, id string, p Point) string {
	el, ok := scene.Get(id)
	if !ok {
		return ""
	}
	if el.IsGroup {
		for _, child := range el.Children {
			if found := hitTestElement(scene, child, p); found != "" {
				return id
			}
		}
		return ""
	}
	verts := parsePathVertices(el.D)
	if len(verts) == 0 {
		return ""
	}
	left, top, right, bottom := boundingBox(verts)
	if geometry.PointInRect(p.geom(), geometry.Point{X: left, Y: top}, geometry.Point{X: right, Y: bottom}) {
		return id
	}
	return ""
}

func (t *SelectorTool) Move(p Point) {
	if !t.dragging {
		return
	}
	dx, dy := p.X-t.dragLast.X, p.Y-t.dragLast.Y
	for id := range t.selection {
		translateElement(t.engine.scene, id, dx, dy)
	}
	t.dragLast = p
}

func (t *SelectorTool) Up(p Point) {
	if !t.dragging {
		return
	}
	t.dragging = false
	for id := range t.selection {
		emitTranslatedPaths(t.engine, id)
	}
}

// translateElement shifts every vertex of a path, or recurses into a
// group's children, by (dx, dy).
func translateElement(scene *Scene, id string, dx, dy float64) {
	el, ok := scene.Get(id)
	if !ok {
		return
	}
	if el.IsGroup {
		for _, child := range el.Children {
			translateElement(scene, child, dx, dy)
		}
		return
	}
	verts := parsePathVertices(el.D)
	for i := range verts {
		verts[i].X += dx
		verts[i].Y += dy
	}
	el.D = formatPathVertices(verts)
}

// emitTranslatedPaths emits Edit for every path reachable from id (the
// element itself if a path, or every descendant path if a group).
func emitTranslatedPaths(e *Engine, id string) {
	el, ok := e.scene.Get(id)
	if !ok {
		return
	}
	if el.IsGroup {
		for _, child := range el.Children {
			emitTranslatedPaths(e, child)
		}
		return
	}
	e.emit(protocol.WhiteboardMsg{Edit: &protocol.EditMsg{ID: id, D: el.D}})
}

// groupOrUngroup implements the toolbar action: group the selection if it
// has two or more members, or ungroup if the selection is a single group.
func (t *SelectorTool) groupOrUngroup() {
	sel := t.Selected()
	if len(sel) >= 2 {
		groupID := t.engine.ids.Next()
		t.engine.localGroup(groupID, sel)
		t.selection = map[string]bool{groupID: true}
		return
	}
	if len(sel) == 1 {
		if el, ok := t.engine.scene.Get(sel[0]); ok && el.IsGroup {
			t.engine.localUngroup(el.ID)
			t.selection = make(map[string]bool)
		}
	}
}

func parsePathVertices(d string) []Point {
	fields := strings.Fields(d)
	var verts []Point
	for i := 0; i < len(fields); i++ {
		if fields[i] != "M" && fields[i] != "L" {
			continue
		}
		if i+2 >= len(fields) {
			break
		}
		var x, y float64
		if _, err := fmt.Sscanf(fields[i+1], "%g", &x); err != nil {
			continue
		}
		if _, err := fmt.Sscanf(fields[i+2], "%g", &y); err != nil {
			continue
		}
		verts = append(verts, Point{X: x, Y: y})
		i += 2
	}
	return verts
}

func formatPathVertices(verts []Point) string {
	var b strings.Builder
	for i, v := range verts {
		if i == 0 {
			fmt.Fprintf(&b, "M %g %g", v.X, v.Y)
		} else {
			fmt.Fprintf(&b, " L %g %g", v.X, v.Y)
		}
	}
	return b.String()
}

type rect struct {
	left, top, right, bottom float64
}
