package protocol

import "encoding/json"

// Cursor is the wire form of a single user's cursor.
type Cursor struct {
	Position uint64 `json:"position"`
	Username string `json:"username"`
	Colour   string `json:"colour"`
}

// TextClientMsg represents a message sent from the local peer to the
// transport for the text namespace (outbound). Exactly one field should be
// set per message.
type TextClientMsg struct {
	AddRegion      *AddRegionMsg      `json:"add_region,omitempty"`
	RemoveRegion   *RemoveRegionMsg   `json:"remove_region,omitempty"`
	AddProperty    *AddPropertyMsg    `json:"add_property,omitempty"`
	RemoveProperty *RemovePropertyMsg `json:"remove_property,omitempty"`
	CursorMoved    *CursorMovedMsg    `json:"cursor_moved,omitempty"`
	UpdateModID    *UpdateModIDMsg    `json:"update_last_mod_id,omitempty"`
}

// AddRegionMsg is the wire form of the insert operation.
type AddRegionMsg struct {
	Text       string `json:"text"`
	Position   uint64 `json:"position"`
	UserID     uint64 `json:"userid,omitempty"`
	LastModID  int64  `json:"last_mod_id,omitempty"`
}

// RemoveRegionMsg is the wire form of the remove operation.
type RemoveRegionMsg struct {
	Start     uint64 `json:"start"`
	End       uint64 `json:"end"`
	UserID    uint64 `json:"userid,omitempty"`
	LastModID int64  `json:"last_mod_id,omitempty"`
}

// AddPropertyMsg is the wire form of a property addition.
type AddPropertyMsg struct {
	Start     uint64  `json:"start"`
	End       uint64  `json:"end"`
	Property  string  `json:"property"`
	Flag      *string `json:"flag,omitempty"`
	UserID    uint64  `json:"userid,omitempty"`
	LastModID int64   `json:"last_mod_id,omitempty"`
}

// RemovePropertyMsg is the wire form of a property removal.
type RemovePropertyMsg struct {
	Start     uint64 `json:"start"`
	End       uint64 `json:"end"`
	Property  string `json:"property"`
	UserID    uint64 `json:"userid,omitempty"`
	LastModID int64  `json:"last_mod_id,omitempty"`
}

// CursorMovedMsg is the wire form of a cursor move.
type CursorMovedMsg struct {
	Position  uint64 `json:"position"`
	UserID    uint64 `json:"userid,omitempty"`
	Username  string `json:"username,omitempty"`
	LastModID int64  `json:"last_mod_id,omitempty"`
}

// UpdateModIDMsg piggybacks a dirty last_mod_id onto a ping response.
type UpdateModIDMsg struct {
	LastModID int64 `json:"last_mod_id"`
}

// TextServerMsg represents a message delivered by the transport for the
// text namespace (inbound). Exactly one field should be set.
type TextServerMsg struct {
	Connected         *ConnectedMsg         `json:"connected,omitempty"`
	UserDisconnected  *UserDisconnectedMsg  `json:"user_disconnected,omitempty"`
	Ping              *PingMsg              `json:"ping,omitempty"`
	AddRegion         *AddRegionMsg         `json:"add_region,omitempty"`
	RemoveRegion      *RemoveRegionMsg      `json:"remove_region,omitempty"`
	AddProperty       *AddPropertyMsg       `json:"add_property,omitempty"`
	RemoveProperty    *RemovePropertyMsg    `json:"remove_property,omitempty"`
	CursorMoved       *CursorMovedMsg       `json:"cursor_moved,omitempty"`
}

// ConnectedMsg is the initial snapshot delivered on connect.
type ConnectedMsg struct {
	UserID uint64 `json:"userid"`
	Content string `json:"content"`
	ModID   int64  `json:"mod_id"`
}

// UserDisconnectedMsg announces a peer's departure.
type UserDisconnectedMsg struct {
	UserID uint64 `json:"userid"`
}

// PingMsg is an empty heartbeat event.
type PingMsg struct{}

// MarshalJSON ensures only the populated field of TextClientMsg is emitted.
func (m *TextClientMsg) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 1)
	switch {
	case m.AddRegion != nil:
		out["add_region"] = m.AddRegion
	case m.RemoveRegion != nil:
		out["remove_region"] = m.RemoveRegion
	case m.AddProperty != nil:
		out["add_property"] = m.AddProperty
	case m.RemoveProperty != nil:
		out["remove_property"] = m.RemoveProperty
	case m.CursorMoved != nil:
		out["cursor_moved"] = m.CursorMoved
	case m.UpdateModID != nil:
		out["update_last_mod_id"] = m.UpdateModID
	}
	return json.Marshal(out)
}

// MarshalJSON ensures only the populated field of TextServerMsg is emitted.
func (m *TextServerMsg) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 1)
	switch {
	case m.Connected != nil:
		out["connected"] = m.Connected
	case m.UserDisconnected != nil:
		out["user_disconnected"] = m.UserDisconnected
	case m.Ping != nil:
		out["ping"] = m.Ping
	case m.AddRegion != nil:
		out["add_region"] = m.AddRegion
	case m.RemoveRegion != nil:
		out["remove_region"] = m.RemoveRegion
	case m.AddProperty != nil:
		out["add_property"] = m.AddProperty
	case m.RemoveProperty != nil:
		out["remove_property"] = m.RemoveProperty
	case m.CursorMoved != nil:
		out["cursor_moved"] = m.CursorMoved
	}
	return json.Marshal(out)
}

// UnmarshalJSON recovers whichever field was set on the wire.
func (m *TextServerMsg) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["connected"]; ok {
		var msg ConnectedMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.Connected = &msg
	}
	if v, ok := raw["user_disconnected"]; ok {
		var msg UserDisconnectedMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.UserDisconnected = &msg
	}
	if _, ok := raw["ping"]; ok {
		m.Ping = &PingMsg{}
	}
	if v, ok := raw["add_region"]; ok {
		var msg AddRegionMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.AddRegion = &msg
	}
	if v, ok := raw["remove_region"]; ok {
		var msg RemoveRegionMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.RemoveRegion = &msg
	}
	if v, ok := raw["add_property"]; ok {
		var msg AddPropertyMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.AddProperty = &msg
	}
	if v, ok := raw["remove_property"]; ok {
		var msg RemovePropertyMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.RemoveProperty = &msg
	}
	if v, ok := raw["cursor_moved"]; ok {
		var msg CursorMovedMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.CursorMoved = &msg
	}
	return nil
}

// UnmarshalJSON recovers whichever field was set on the wire.
func (m *TextClientMsg) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["add_region"]; ok {
		var msg AddRegionMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.AddRegion = &msg
	}
	if v, ok := raw["remove_region"]; ok {
		var msg RemoveRegionMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.RemoveRegion = &msg
	}
	if v, ok := raw["add_property"]; ok {
		var msg AddPropertyMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.AddProperty = &msg
	}
	if v, ok := raw["remove_property"]; ok {
		var msg RemovePropertyMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.RemoveProperty = &msg
	}
	if v, ok := raw["cursor_moved"]; ok {
		var msg CursorMovedMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.CursorMoved = &msg
	}
	if v, ok := raw["update_last_mod_id"]; ok {
		var msg UpdateModIDMsg
		if err := json.Unmarshal(v, &msg); err != nil {
			return err
		}
		m.UpdateModID = &msg
	}
	return nil
}
