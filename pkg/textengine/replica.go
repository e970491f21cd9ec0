package textengine

// replica is one side of the dual-replica model: either the locally
// optimistic "live" state or the server-confirmed "shadow" state. Both sides
// share the same primitives; the only difference is which one a given
// operation targets and whether the caller also wants the local peer's own
// cursor nudged (handled one layer up, in ops.go, since that nudge is a
// public-operation concern rather than a replica concern).
type replica struct {
	content    []rune
	cursors    map[uint64]Cursor
	properties propertyTable
}

func newReplica() *replica {
	return &replica{
		content:    []rune{},
		cursors:    make(map[uint64]Cursor),
		properties: newPropertyTable(),
	}
}

func (r *replica) clone() *replica {
	content := make([]rune, len(r.content))
	copy(content, r.content)
	return &replica{
		content:    content,
		cursors:    cloneCursors(r.cursors),
		properties: r.properties.clone(),
	}
}

func (r *replica) len() int { return len(r.content) }

func (r *replica) string() string { return string(r.content) }

// actualAdd splices text into the replica at position and shifts every
// fixed point (cursor position, property range endpoint) strictly past
// position forward by the length of text. Both endpoints of a range move
// under the same rule; there is no special case for a range boundary that
// sits exactly at position.
func (r *replica) actualAdd(text string, position int) {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return
	}
	shift := func(p int) int {
		if p > position {
			return p + n
		}
		return p
	}
	for id, c := range r.cursors {
		c.Position = shift(c.Position)
		r.cursors[id] = c
	}
	for _, flags := range r.properties {
		for flag, ranges := range flags {
			for i := range ranges {
				ranges[i].Start = shift(ranges[i].Start)
				ranges[i].End = shift(ranges[i].End)
			}
			flags[flag] = ranges
		}
	}

	content := make([]rune, 0, len(r.content)+n)
	content = append(content, r.content[:position]...)
	content = append(content, runes...)
	content = append(content, r.content[position:]...)
	r.content = content
}

// actualRemove deletes the half-open range [start, end) from the replica's
// content and shifts every fixed point strictly past start backward by
// however much of [start, end) lies before it. Ranges and flag buckets that
// collapse to empty as a result are pruned.
func (r *replica) actualRemove(start, end int) {
	if start >= end {
		return
	}
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
	for id, c := range r.cursors {
		c.Position = shift(c.Position)
		r.cursors[id] = c
	}
	for name, flags := range r.properties {
		for flag, ranges := range flags {
			out := ranges[:0]
			for _, rg := range ranges {
				rg.Start = shift(rg.Start)
				rg.End = shift(rg.End)
				if !rg.empty() {
					out = append(out, rg)
				}
			}
			if len(out) == 0 {
				delete(flags, flag)
			} else {
				flags[flag] = out
			}
		}
		if len(flags) == 0 {
			delete(r.properties, name)
		}
	}

	content := make([]rune, 0, len(r.content)-(end-start))
	content = append(content, r.content[:start]...)
	content = append(content, r.content[end:]...)
	r.content = content
}

// actualAddProperty layers [start, end) onto the named property's flag
// bucket. If the property doesn't exist yet it is created fresh; otherwise
// any overlap in any of its flag buckets is first cleared via
// actualRemoveProperty so the new layer always wins, then the range is
// merged into its target bucket.
func (r *replica) actualAddProperty(start, end int, property, flag string) {
	if start >= end {
		return
	}
	if _, existed := r.properties[property]; !existed {
		r.properties[property] = map[string][]Range{}
	} else {
		r.actualRemoveProperty(start, end, property)
	}
	bucket := r.properties[property][flag]
	r.properties[property][flag] = mergeRange(bucket, start, end)
}

// actualRemoveProperty strips [start, end) from every flag bucket of the
// named property, splitting any overlapping range into the pieces that lie
// outside [start, end) and dropping empty buckets and, if all its buckets
// emptied out, the property entry itself.
func (r *replica) actualRemoveProperty(start, end int, property string) {
	flags, ok := r.properties[property]
	if !ok {
		return
	}
	for flag, ranges := range flags {
		var out []Range
		for _, rg := range ranges {
			if left := (Range{rg.Start, minInt(rg.End, start)}); left.Start < left.End {
				out = append(out, left)
			}
			if right := (Range{maxInt(rg.Start, end), rg.End}); right.Start < right.End {
				out = append(out, right)
			}
		}
		if len(out) == 0 {
			delete(flags, flag)
		} else {
			flags[flag] = out
		}
	}
	if len(flags) == 0 {
		delete(r.properties, property)
	}
}

// mergeRange inserts [start, end) into bucket, merging with any range whose
// end touches start or whose start touches end. When the new range bridges
// two existing ranges it fuses all three into one, keeping the bucket
// maximally coalesced rather than leaving two adjacent entries behind.
func mergeRange(bucket []Range, start, end int) []Range {
	left, right := -1, -1
	for i, rg := range bucket {
		if rg.End == start {
			left = i
		}
		if rg.Start == end {
			right = i
		}
	}
	switch {
	case left >= 0 && right >= 0 && left != right:
		bucket[left].End = bucket[right].End
		return append(bucket[:right], bucket[right+1:]...)
	case left >= 0:
		bucket[left].End = end
		return bucket
	case right >= 0:
		bucket[right].Start = start
		return bucket
	default:
		return append(bucket, Range{start, end})
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
