package textengine

// rebase adjusts a single pending operation's coordinates to account for a
// remote operation that landed ahead of it. It returns the adjusted op and
// whether the op survives: a remove/property op whose range collapses to
// empty under the shift is dropped, since there is nothing left for it to
// do once replayed.
func rebase(op PendingOp, remote remoteOp) (PendingOp, bool) {
	switch remote.kind {
	case remoteRemove:
		return rebaseAgainstRemove(op, remote.start, remote.end)
	case remoteInsert:
		return rebaseAgainstInsert(op, remote.position, remote.text)
	default:
		// add_property, remove_property, and cursor moves by other peers
		// never shift coordinates; they only force the pending queue to be
		// replayed so that overlapping layers compose deterministically.
		return op, true
	}
}

func rebaseAgainstRemove(op PendingOp, start, end int) (PendingOp, bool) {
	shift := func(p int) int {
		if p > start {
			m := end
			if p < end {
				m = p
			}
			return p - (m - start)
		}
		return p
	}
	switch op.Kind {
	case OpInsert, OpCursor:
		op.Position = shift(op.Position)
	case OpRemove, OpAddProperty, OpRemoveProperty:
		op.Start, op.End = shift(op.Start), shift(op.End)
		if op.Start >= op.End {
			return op, false
		}
	}
	return op, true
}

func rebaseAgainstInsert(op PendingOp, q int, text string) (PendingOp, bool) {
	n := len([]rune(text))
	switch op.Kind {
	case OpInsert, OpCursor:
		if op.Position > q {
			op.Position += n
		}
	case OpRemove, OpAddProperty, OpRemoveProperty:
		if q < op.Start {
			op.Start += n
		}
		if q <= op.End {
			op.End += n
		}
	}
	return op, true
}

// rebasePending rebases every entry of pending against remote in order,
// dropping any entry that collapses to an empty range.
func rebasePending(pending []PendingOp, remote remoteOp) []PendingOp {
	out := pending[:0]
	for _, op := range pending {
		if adjusted, ok := rebase(op, remote); ok {
			out = append(out, adjusted)
		}
	}
	return out
}
