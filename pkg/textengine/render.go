package textengine

import (
	"sort"
	"strconv"
	"strings"
)

type tagRef struct {
	property string
	flag     string
}

func (t tagRef) key() string { return t.property + "\x00" + t.flag }

func (t tagRef) open() string {
	if t.flag == "" {
		return "<" + t.property + ">"
	}
	return "<" + t.property + " " + t.flag + ">"
}

func (t tagRef) close() string { return "</" + t.property + ">" }

// Render walks the live replica from 0 to its length inclusive, emitting
// cursor markers and property tag open/close markup interleaved with the
// escaped content. Tags that would need to close out of nesting order are
// instead closed and reopened around the inner close, so the stack of open
// tags always behaves as a LIFO and the output never contains overlapping
// tags.
func (e *TextEngine) Render() string {
	return renderReplica(e.live)
}

func renderReplica(r *replica) string {
	n := r.len()

	opens := make(map[int][]tagRef, n)
	closes := make(map[int][]tagRef, n)
	for property, flags := range r.properties {
		for flag, ranges := range flags {
			for _, rg := range ranges {
				t := tagRef{property: property, flag: flag}
				opens[rg.Start] = append(opens[rg.Start], t)
				closes[rg.End] = append(closes[rg.End], t)
			}
		}
	}
	for i := range opens {
		sortTags(opens[i])
	}
	for i := range closes {
		sortTags(closes[i])
	}

	cursorsAt := make(map[int][]Cursor, len(r.cursors))
	for _, c := range r.cursors {
		cursorsAt[c.Position] = append(cursorsAt[c.Position], c)
	}
	for i := range cursorsAt {
		sort.Slice(cursorsAt[i], func(a, b int) bool {
			return cursorsAt[i][a].Username < cursorsAt[i][b].Username
		})
	}

	var out strings.Builder
	var stack []tagRef

	for i := 0; i <= n; i++ {
		for _, c := range cursorsAt[i] {
			out.WriteString(renderCursor(c))
		}
		for _, t := range closes[i] {
			closeTag(&stack, &out, t)
		}
		for _, t := range opens[i] {
			stack = append(stack, t)
			out.WriteString(t.open())
		}
		if i < n {
			out.WriteString(escapeRune(r.content[i]))
		}
	}
	return out.String()
}

// closeTag closes target, reordering the stack so the visible markup never
// overlaps: if target isn't on top, everything above it is closed first (in
// reverse nesting order), then target, then everything above it is reopened
// (in original order).
func closeTag(stack *[]tagRef, out *strings.Builder, target tagRef) {
	idx := -1
	for i := len(*stack) - 1; i >= 0; i-- {
		if (*stack)[i].key() == target.key() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	above := (*stack)[idx+1:]
	for i := len(above) - 1; i >= 0; i-- {
		out.WriteString(above[i].close())
	}
	out.WriteString(target.close())
	for _, t := range above {
		out.WriteString(t.open())
	}
	*stack = append((*stack)[:idx], above...)
}

func sortTags(tags []tagRef) {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].property != tags[j].property {
			return tags[i].property < tags[j].property
		}
		return tags[i].flag < tags[j].flag
	})
}

func renderCursor(c Cursor) string {
	return "<cursor username=" + strconv.Quote(c.Username) + " colour=" + strconv.Quote(c.Colour) + "/>"
}

func escapeRune(r rune) string {
	switch r {
	case '<':
		return "&lt;"
	case '>':
		return "&gt;"
	default:
		return string(r)
	}
}
