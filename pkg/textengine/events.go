package textengine

import "collabcore/internal/protocol"

// HandleServerMsg applies one inbound text-namespace event to the engine.
// Every mutation event is first applied authoritatively to the shadow
// replica; the engine then either pops the matching head of its pending
// queue (the event is an echo of its own operation) or discards and replays
// the pending queue against the now-updated shadow, rebased by the remote
// operation (the event originated elsewhere).
func (e *TextEngine) HandleServerMsg(msg protocol.TextServerMsg) {
	defer e.startSpan("HandleServerMsg")()
	switch {
	case msg.Connected != nil:
		e.handleConnected(msg.Connected)
	case msg.UserDisconnected != nil:
		e.handleUserDisconnected(msg.UserDisconnected)
	case msg.Ping != nil:
		// Heartbeat only; DirtyModID drives whether the caller piggybacks
		// update_last_mod_id on its reply.
	case msg.AddRegion != nil:
		e.handleAddRegion(msg.AddRegion)
	case msg.RemoveRegion != nil:
		e.handleRemoveRegion(msg.RemoveRegion)
	case msg.AddProperty != nil:
		e.handleAddProperty(msg.AddProperty)
	case msg.RemoveProperty != nil:
		e.handleRemoveProperty(msg.RemoveProperty)
	case msg.CursorMoved != nil:
		e.handleCursorMoved(msg.CursorMoved)
	}
}

func (e *TextEngine) handleConnected(m *protocol.ConnectedMsg) {
	e.userID = m.UserID
	e.lastModID = m.ModID
	e.lastModIDDirty = false

	e.shadow = newReplica()
	e.shadow.actualAdd(m.Content, 0)
	e.shadow.cursors[e.userID] = Cursor{
		Position: 0,
		Username: protocol.LocalUserName,
		Colour:   protocol.LocalUserColour,
	}
	e.live = e.shadow.clone()
	e.pending = nil
	e.state = stateConnected
	e.render()
}

func (e *TextEngine) handleUserDisconnected(m *protocol.UserDisconnectedMsg) {
	delete(e.shadow.cursors, m.UserID)
	delete(e.live.cursors, m.UserID)
	e.render()
}

// ensureCursor lazily creates a shadow cursor entry for a remote user seen
// for the first time, assigning the next unused palette colour.
func (e *TextEngine) ensureCursor(userID uint64, username string) {
	if _, ok := e.shadow.cursors[userID]; ok {
		return
	}
	e.shadow.cursors[userID] = Cursor{
		Username: username,
		Colour:   e.nextColour(e.usedColours()),
	}
}

func (e *TextEngine) handleAddRegion(m *protocol.AddRegionMsg) {
	e.bumpModID(m.LastModID)
	if m.UserID != e.userID {
		e.ensureCursor(m.UserID, "")
	}
	e.shadow.actualAdd(m.Text, int(m.Position))
	e.resolveMutation(m.UserID, remoteOp{kind: remoteInsert, position: int(m.Position), text: m.Text})
}

func (e *TextEngine) handleRemoveRegion(m *protocol.RemoveRegionMsg) {
	e.bumpModID(m.LastModID)
	e.shadow.actualRemove(int(m.Start), int(m.End))
	e.resolveMutation(m.UserID, remoteOp{kind: remoteRemove, start: int(m.Start), end: int(m.End)})
}

func (e *TextEngine) handleAddProperty(m *protocol.AddPropertyMsg) {
	e.bumpModID(m.LastModID)
	flag := ""
	if m.Flag != nil {
		flag = *m.Flag
	}
	e.shadow.actualAddProperty(int(m.Start), int(m.End), m.Property, flag)
	e.resolveMutation(m.UserID, remoteOp{kind: remoteAddProperty})
}

func (e *TextEngine) handleRemoveProperty(m *protocol.RemovePropertyMsg) {
	e.bumpModID(m.LastModID)
	e.shadow.actualRemoveProperty(int(m.Start), int(m.End), m.Property)
	e.resolveMutation(m.UserID, remoteOp{kind: remoteRemoveProperty})
}

func (e *TextEngine) handleCursorMoved(m *protocol.CursorMovedMsg) {
	e.bumpModID(m.LastModID)
	if m.UserID != e.userID {
		e.ensureCursor(m.UserID, m.Username)
	}
	if c, ok := e.shadow.cursors[m.UserID]; ok {
		c.Position = int(m.Position)
		if m.Username != "" {
			c.Username = m.Username
		}
		e.shadow.cursors[m.UserID] = c
	}
	e.resolveMutation(m.UserID, remoteOp{kind: remoteCursor})
}

// resolveMutation implements the echo-vs-remote branch shared by every
// mutation handler above: an echo of our own operation just pops the
// pending queue's head, while anything else discards the optimistic live
// state and rebuilds it from the shadow plus a rebased pending replay.
func (e *TextEngine) resolveMutation(originUserID uint64, remote remoteOp) {
	if originUserID == e.userID {
		e.popEchoedPending(remote)
	} else {
		e.pending = rebasePending(e.pending, remote)
		e.discardAndReplay()
	}
	e.render()
}

// popEchoedPending removes the head of the pending queue on the assumption
// that it matches the just-applied echo. A mismatch is logged as a soft
// assertion failure (state likely desynced upstream) and the queue is left
// untouched rather than risk popping the wrong entry.
func (e *TextEngine) popEchoedPending(remote remoteOp) {
	if len(e.pending) == 0 {
		e.log.Warn("textengine: echo received with empty pending queue (kind=%v)", remote.kind)
		return
	}
	head := e.pending[0]
	if !echoMatches(head, remote) {
		e.log.Warn("textengine: echoed op %v did not match pending head %v", remote.kind, head.Kind)
		return
	}
	e.pending = e.pending[1:]
}

func echoMatches(op PendingOp, remote remoteOp) bool {
	switch remote.kind {
	case remoteInsert:
		return op.Kind == OpInsert && op.Position == remote.position && op.Text == remote.text
	case remoteRemove:
		return op.Kind == OpRemove && op.Start == remote.start && op.End == remote.end
	case remoteAddProperty:
		return op.Kind == OpAddProperty
	case remoteRemoveProperty:
		return op.Kind == OpRemoveProperty
	case remoteCursor:
		return op.Kind == OpCursor
	default:
		return false
	}
}
