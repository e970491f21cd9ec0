package main

import "collabcore/internal/protocol"

// textServerMsg wraps one inbound text-namespace server event as a tea.Msg.
type textServerMsg struct{ msg protocol.TextServerMsg }

// whiteboardMsg wraps one inbound whiteboard-namespace event as a tea.Msg.
type whiteboardMsg struct{ msg protocol.WhiteboardMsg }

// connErrorMsg reports the read loop ending, whether from a clean close or
// a transport failure.
type connErrorMsg struct{ err error }

// connectedMsg carries a freshly dialed client back into the model, since
// dialing happens inside a tea.Cmd (Init runs before any I/O).
type connectedMsg struct {
	cli *client
	err error
}
