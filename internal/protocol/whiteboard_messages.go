package protocol

import "encoding/json"

// WhiteboardMsg is the symmetric tagged union for the whiteboard namespace:
// the same shape is sent and received, since every operation is idempotent
// and keyed by a stable element id.
type WhiteboardMsg struct {
	Draw    *DrawMsg    `json:"draw,omitempty"`
	Remove  *RemoveMsg  `json:"remove,omitempty"`
	Edit    *EditMsg    `json:"edit,omitempty"`
	Group   *GroupMsg   `json:"group,omitempty"`
	Ungroup *UngroupMsg `json:"ungroup,omitempty"`
}

// DrawMsg creates a new path element.
type DrawMsg struct {
	ID string `json:"id"`
	D  string `json:"d"`
}

// RemoveMsg deletes an element by id.
type RemoveMsg struct {
	ID string `json:"id"`
}

// EditMsg replaces the `d` attribute of an existing path.
type EditMsg struct {
	ID string `json:"id"`
	D  string `json:"d"`
}

// GroupMsg creates a group out of the named top-level children.
type GroupMsg struct {
	GroupID    string   `json:"group_id"`
	ChildrenID []string `json:"children_ids"`
}

// UngroupMsg dissolves a group, moving its children back to the top level.
type UngroupMsg struct {
	GroupID string `json:"group_id"`
}

// MarshalJSON ensures only the populated field is emitted on the wire.
func (m *WhiteboardMsg) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 1)
	switch {
	case m.Draw != nil:
		out["draw"] = m.Draw
	case m.Remove != nil:
		out["remove"] = m.Remove
	case m.Edit != nil:
		out["edit"] = m.Edit
	case m.Group != nil:
		out["group"] = m.Group
	case m.Ungroup != nil:
		out["ungroup"] = m.Ungroup
	}
	return json.Marshal(out)
}

// UnmarshalJSON recovers whichever field was set on the wire. Unknown keys
// are ignored and leave the message unpopulated; a known key whose payload
// fails to decode is returned as an error.
func (m *WhiteboardMsg) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["draw"]; ok {
		var msg DrawMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.Draw = &msg
	}
	if v, ok := raw["remove"]; ok {
		var msg RemoveMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.Remove = &msg
	}
	if v, ok := raw["edit"]; ok {
		var msg EditMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.Edit = &msg
	}
	if v, ok := raw["group"]; ok {
		var msg GroupMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.Group = &msg
	}
	if v, ok := raw["ungroup"]; ok {
		var msg UngroupMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.Ungroup = &msg
	}
	return nil
}
