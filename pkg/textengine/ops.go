package textengine

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"collabcore/internal/protocol"
)

// Insert applies a local insertion of text at position to the live replica,
// queues it for server acknowledgement, and emits the corresponding
// outbound event. A no-op outside a connected, writable engine.
//
// If the local cursor sits exactly at position, it advances by the length
// of the inserted text as a convenience so the caret tracks what was just
// typed (spec §4.1.1: "issuing a cursor move"). That advance is a real
// cursor move — it gets its own pending entry and its own emit, issued after
// the insert's, so the server echoes it back as a distinct op the pending
// queue can pop; folding it silently into the insert would leave the
// self-echoed cursor_moved with nothing matching at the head of pending.
func (e *TextEngine) Insert(text string, position int) {
	defer e.startSpan("Insert")()
	if !e.canMutate() || text == "" {
		return
	}
	if position < 0 || position > e.live.len() {
		e.log.Warn("textengine: insert position %d out of bounds (len=%d)", position, e.live.len())
		return
	}

	before, hadCursor := e.live.cursors[e.userID]
	wasAtPosition := hadCursor && before.Position == position

	e.live.actualAdd(text, position)
	e.pending = append(e.pending, insertOp(position, text))

	e.render()
	e.emit(protocol.TextClientMsg{AddRegion: &protocol.AddRegionMsg{Text: text, Position: uint64(position)}})

	if wasAtPosition {
		newPosition := position + len([]rune(text))
		e.pending = append(e.pending, cursorOp(newPosition))
		c := e.live.cursors[e.userID]
		c.Position = newPosition
		e.live.cursors[e.userID] = c
		e.render()
		e.emit(protocol.TextClientMsg{CursorMoved: &protocol.CursorMovedMsg{Position: uint64(newPosition)}})
	}
}

// Remove deletes the half-open range [start, end) from the live replica.
func (e *TextEngine) Remove(start, end int) {
	defer e.startSpan("Remove")()
	if !e.canMutate() {
		return
	}
	if start < 0 || end > e.live.len() || start >= end {
		e.log.Warn("textengine: remove range [%d,%d) invalid (len=%d)", start, end, e.live.len())
		return
	}
	e.live.actualRemove(start, end)
	e.pending = append(e.pending, removeOp(start, end))
	e.render()
	e.emit(protocol.TextClientMsg{RemoveRegion: &protocol.RemoveRegionMsg{Start: uint64(start), End: uint64(end)}})
}

// MoveCursor repositions the local cursor and enqueues the move for
// acknowledgement, the same way Insert queues its incidental caret advance.
func (e *TextEngine) MoveCursor(position int) {
	defer e.startSpan("MoveCursor")()
	if !e.canMutate() {
		return
	}
	if position < 0 || position > e.live.len() {
		e.log.Warn("textengine: cursor position %d out of bounds (len=%d)", position, e.live.len())
		return
	}
	e.pending = append(e.pending, cursorOp(position))
	c := e.live.cursors[e.userID]
	c.Position = position
	e.live.cursors[e.userID] = c
	e.render()
	e.emit(protocol.TextClientMsg{CursorMoved: &protocol.CursorMovedMsg{Position: uint64(position)}})
}

// ToggleProperty inspects the live property table for [start, end) under
// (property, flag): if a single existing range of that (property, flag)
// fully covers the span, it is removed; otherwise the span is added. flag
// may be empty for a flagless property.
func (e *TextEngine) ToggleProperty(start, end int, property, flag string) {
	defer e.startSpan("ToggleProperty")()
	if !e.canMutate() {
		return
	}
	if start < 0 || end > e.live.len() || start >= end {
		e.log.Warn("textengine: property range [%d,%d) invalid (len=%d)", start, end, e.live.len())
		return
	}
	if _, covered := e.live.coveringRange(property, flag, start, end); covered {
		e.live.actualRemoveProperty(start, end, property)
		e.pending = append(e.pending, removePropertyOp(start, end, property))
		e.render()
		e.emit(protocol.TextClientMsg{RemoveProperty: &protocol.RemovePropertyMsg{Start: uint64(start), End: uint64(end), Property: property}})
		return
	}

	e.live.actualAddProperty(start, end, property, flag)
	e.pending = append(e.pending, addPropertyOp(start, end, property, flag))
	e.render()
	var flagPtr *string
	if flag != "" {
		flagPtr = &flag
	}
	e.emit(protocol.TextClientMsg{AddProperty: &protocol.AddPropertyMsg{Start: uint64(start), End: uint64(end), Property: property, Flag: flagPtr}})
}

// ApplyTextDiff replaces the entire live content with next, decomposed into
// the minimal sequence of Insert/Remove calls that take the current content
// to next. This lets a caller hand the engine a full buffer (e.g. loaded
// from disk, or assembled by an external editor component) without having
// to track individual keystrokes itself. Diffing uses the same
// semantic-cleanup pass a line-oriented diff viewer would, so a changed
// word doesn't get shredded into a flurry of single-character edits.
func (e *TextEngine) ApplyTextDiff(next string) {
	defer e.startSpan("ApplyTextDiff")()
	if !e.canMutate() {
		return
	}
	current := e.live.string()
	if current == next {
		return
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(current, next, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	pos := 0
	for _, d := range diffs {
		n := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += n
		case diffmatchpatch.DiffDelete:
			e.Remove(pos, pos+n)
		case diffmatchpatch.DiffInsert:
			e.Insert(d.Text, pos)
			pos += n
		}
	}
}
