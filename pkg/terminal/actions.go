package terminal

import (
	"encoding/json"
	"fmt"
)

// Action is one committed placement: a unit kind at a cell.
type Action struct {
	Type     UnitType `json:"type"`
	Location Location `json:"location"`
}

// MarshalJSON encodes an action as the engine's ["FF", x, y] triple.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{string(a.Type), a.Location.X, a.Location.Y})
}

// UnmarshalJSON decodes an ["FF", x, y] triple.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("action has %d fields, want 3", len(raw))
	}
	t, ok := raw[0].(string)
	x, okX := raw[1].(float64)
	y, okY := raw[2].(float64)
	if !ok || !okX || !okY {
		return fmt.Errorf("malformed action %s", string(data))
	}
	*a = Action{Type: UnitType(t), Location: Loc(int(x), int(y))}
	return nil
}

// EncodeActions renders an action list as a single protocol line.
// An empty list encodes as [] rather than null.
func EncodeActions(actions []Action) ([]byte, error) {
	if actions == nil {
		actions = []Action{}
	}
	return json.Marshal(actions)
}

// Submitter transmits a turn's build and deploy stacks to the engine.
type Submitter interface {
	SendActions(build, deploy []Action) error
}
