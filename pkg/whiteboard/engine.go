package whiteboard

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"collabcore/internal/protocol"
	"collabcore/pkg/logger"
)

// Emitter is how a WhiteboardEngine hands outbound wire messages to whatever
// transport owns the socket.
type Emitter interface {
	EmitWhiteboard(protocol.WhiteboardMsg)
}

// EmitterFunc adapts a function to an Emitter.
type EmitterFunc func(protocol.WhiteboardMsg)

// EmitWhiteboard implements Emitter.
func (f EmitterFunc) EmitWhiteboard(msg protocol.WhiteboardMsg) { f(msg) }

// SceneRenderer receives the scene graph whenever it changes; optional,
// mirrors TextEngine's Renderer hook.
type SceneRenderer interface {
	RenderScene(*Scene)
}

// SceneRendererFunc adapts a function to a SceneRenderer.
type SceneRendererFunc func(*Scene)

// RenderScene implements SceneRenderer.
func (f SceneRendererFunc) RenderScene(s *Scene) { f(s) }

// Engine is the client-side scene-graph replica for the shared whiteboard.
// It needs no dual-replica/rebase machinery (spec §4.2): every one of its
// five operations is idempotent and keyed by a stable id, so local and
// remote mutations apply directly to the one scene it owns.
type Engine struct {
	scene    *Scene
	ids      *IDGenerator
	readOnly bool

	activeTool Tool

	log      *logger.Logger
	emitter  Emitter
	renderer SceneRenderer
	tracer   trace.Tracer
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithReadOnly marks the engine read-only: local tool actions become no-ops
// while remote scene events are still applied.
func WithReadOnly() Option {
	return func(e *Engine) { e.readOnly = true }
}

// WithSceneRenderer registers a SceneRenderer invoked after every scene change.
func WithSceneRenderer(r SceneRenderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithLogger overrides the default package logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTracer registers the tracer every public operation spans against (see
// pkg/tracing's Provider.Tracer). Unset, operations span against a no-op
// tracer with zero overhead.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine builds an Engine with an empty scene graph.
func NewEngine(emitter Emitter, opts ...Option) *Engine {
	e := &Engine{
		scene:   NewScene(),
		ids:     NewIDGenerator(),
		emitter: emitter,
		log:     logger.Default,
		tracer:  noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.activeTool = NewPenTool(e)
	return e
}

// startSpan opens a span named for a public Engine operation; every scene
// operation runs to completion synchronously, so the span wraps the call
// body rather than threading a caller-supplied context through.
func (e *Engine) startSpan(op string) func() {
	_, span := e.tracer.Start(context.Background(), "whiteboard."+op)
	return func() { span.End() }
}

// Scene returns the engine's live scene graph.
func (e *Engine) Scene() *Scene { return e.scene }

func (e *Engine) emit(msg protocol.WhiteboardMsg) {
	if e.emitter != nil {
		e.emitter.EmitWhiteboard(msg)
	}
}

func (e *Engine) render() {
	if e.renderer != nil {
		e.renderer.RenderScene(e.scene)
	}
}

// --- §4.2.1 scene operations, applied identically whether the source is a
// local tool action or an inbound remote event. ---

// Draw creates a new path with the given id and attribute d. A draw for an
// id that already exists is ignored (idempotent).
func (e *Engine) Draw(id, d string) {
	defer e.startSpan("Draw")()
	if _, exists := e.scene.Get(id); exists {
		return
	}
	el := &Element{ID: id, D: d}
	e.scene.elements[id] = el
	e.scene.appendTopLevel(id)
	e.render()
}

// Remove deletes the element with id, if present; idempotent on an absent id.
func (e *Engine) Remove(id string) {
	defer e.startSpan("Remove")()
	el, ok := e.scene.Get(id)
	if !ok {
		return
	}
	if parentID, inGroup := e.scene.ParentOf(id); inGroup {
		removeChild(e.scene.elements[parentID], id)
	} else {
		e.scene.removeFromTopLevel(id)
	}
	delete(e.scene.elements, id)
	_ = el
	e.render()
}

// Edit sets the d attribute of the path with id; ignored if absent (§7,
// "unknown inbound event payload").
func (e *Engine) Edit(id, d string) {
	defer e.startSpan("Edit")()
	el, ok := e.scene.Get(id)
	if !ok || el.IsGroup {
		return
	}
	el.D = d
	e.render()
}

// Group creates a new group with groupID containing childIDs, removing each
// named child from the top level and appending the new group there.
func (e *Engine) Group(groupID string, childIDs []string) {
	defer e.startSpan("Group")()
	if _, exists := e.scene.Get(groupID); exists {
		return
	}
	present := make([]string, 0, len(childIDs))
	for _, id := range childIDs {
		if _, ok := e.scene.Get(id); ok {
			present = append(present, id)
			if parentID, inGroup := e.scene.ParentOf(id); inGroup {
				removeChild(e.scene.elements[parentID], id)
			} else {
				e.scene.removeFromTopLevel(id)
			}
		}
	}
	group := &Element{ID: groupID, IsGroup: true, Children: present}
	e.scene.elements[groupID] = group
	e.scene.appendTopLevel(groupID)
	e.render()
}

// Ungroup dissolves the group with groupID, moving every child of the group
// to the top level in order and removing the now-empty group.
func (e *Engine) Ungroup(groupID string) {
	defer e.startSpan("Ungroup")()
	group, ok := e.scene.Get(groupID)
	if !ok || !group.IsGroup {
		return
	}
	for _, childID := range group.Children {
		e.scene.appendTopLevel(childID)
	}
	e.scene.removeFromTopLevel(groupID)
	delete(e.scene.elements, groupID)
	e.render()
}

func removeChild(group *Element, childID string) {
	for i, c := range group.Children {
		if c == childID {
			group.Children = append(group.Children[:i], group.Children[i+1:]...)
			return
		}
	}
}

// --- local -> outbound wiring: a tool finishing an action calls these,
// which mutate the local scene and emit the matching wire message. ---

func (e *Engine) localDraw(id, d string) {
	if e.readOnly {
		return
	}
	e.Draw(id, d)
	e.emit(protocol.WhiteboardMsg{Draw: &protocol.DrawMsg{ID: id, D: d}})
}

func (e *Engine) localRemove(id string) {
	if e.readOnly {
		return
	}
	e.Remove(id)
	e.emit(protocol.WhiteboardMsg{Remove: &protocol.RemoveMsg{ID: id}})
}

func (e *Engine) localEdit(id, d string) {
	if e.readOnly {
		return
	}
	e.Edit(id, d)
	e.emit(protocol.WhiteboardMsg{Edit: &protocol.EditMsg{ID: id, D: d}})
}

func (e *Engine) localGroup(groupID string, childIDs []string) {
	if e.readOnly {
		return
	}
	e.Group(groupID, childIDs)
	e.emit(protocol.WhiteboardMsg{Group: &protocol.GroupMsg{GroupID: groupID, ChildrenID: childIDs}})
}

func (e *Engine) localUngroup(groupID string) {
	if e.readOnly {
		return
	}
	e.Ungroup(groupID)
	e.emit(protocol.WhiteboardMsg{Ungroup: &protocol.UngroupMsg{GroupID: groupID}})
}

// GroupSelection creates a group from the current selection if it has two or
// more members, or ungroups if the selection is a single group (§4.2.2,
// toolbar group/ungroup action). Delegates to the active tool's selection.
func (e *Engine) GroupSelection() {
	if e.readOnly {
		return
	}
	sel, ok := e.activeTool.(*SelectorTool)
	if !ok {
		return
	}
	sel.groupOrUngroup()
}

// HandleServerMsg applies one inbound remote whiteboard event to the scene.
func (e *Engine) HandleServerMsg(msg protocol.WhiteboardMsg) {
	defer e.startSpan("HandleServerMsg")()
	switch {
	case msg.Draw != nil:
		e.Draw(msg.Draw.ID, msg.Draw.D)
	case msg.Remove != nil:
		e.Remove(msg.Remove.ID)
	case msg.Edit != nil:
		e.Edit(msg.Edit.ID, msg.Edit.D)
	case msg.Group != nil:
		e.Group(msg.Group.GroupID, msg.Group.ChildrenID)
	case msg.Ungroup != nil:
		e.Ungroup(msg.Ungroup.GroupID)
	}
}

// SetTool switches the active tool (§4.2.2); tool state is local only and
// never networked.
func (e *Engine) SetTool(t Tool) { e.activeTool = t }

// Tool returns the currently active tool.
func (e *Engine) Tool() Tool { return e.activeTool }

// PointerDown/PointerMove/PointerUp forward a pointer event (already
// transformed into drawing-area coordinates) to the active tool.
func (e *Engine) PointerDown(p Point, mods Modifiers) {
	if e.readOnly {
		return
	}
	e.activeTool.Down(p, mods)
}

func (e *Engine) PointerMove(p Point) {
	if e.readOnly {
		return
	}
	e.activeTool.Move(p)
}

func (e *Engine) PointerUp(p Point) {
	if e.readOnly {
		return
	}
	e.activeTool.Up(p)
}
