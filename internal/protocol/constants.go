// Package protocol defines the wire messages exchanged between a TextEngine
// or WhiteboardEngine and the transport adapter, for both socket namespaces.
package protocol

// SystemUserID is the user id attached to operations that originate from the
// server itself rather than from a connected peer (e.g. the initial insert
// synthesized from a loaded document). Set to the max uint64 so it never
// collides with a real, sequentially-assigned user id.
const SystemUserID = ^uint64(0)

// LocalUserColour is the sentinel cursor colour assigned to the local peer's
// own cursor entry; it is never handed out to a remote user.
const LocalUserColour = "black"

// LocalUserName is the sentinel username for the local peer's own cursor.
const LocalUserName = "Me"

// CursorPalette is the fixed set of colours assigned to remote cursors on
// first sight, in the order they are tried before falling back to a random
// pick among colours already in use.
var CursorPalette = []string{
	"red", "orange", "yellow", "green", "blue", "indigo", "violet",
}
