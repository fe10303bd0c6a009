package terminal

import (
	"encoding/json"
	"fmt"
)

// FramePhase is the first element of a frame's turnInfo.
type FramePhase int

const (
	PhaseDeploy FramePhase = iota // engine is waiting for our turn
	PhaseAction                   // simulation frame, informational only
	PhaseEnd                      // match over
)

func (p FramePhase) String() string {
	switch p {
	case PhaseDeploy:
		return "deploy"
	case PhaseAction:
		return "action"
	case PhaseEnd:
		return "end"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// PlayerStats is a decoded p1Stats/p2Stats array.
type PlayerStats struct {
	Health float64
	Cores  float64
	Bits   float64
	TimeMS float64
}

// UnitRecord is one unit entry of a frame.
type UnitRecord struct {
	Location Location
	Health   float64
	ID       string
}

// Frame is one line of game state sent by the engine.
type Frame struct {
	Phase      FramePhase
	Turn       int
	FrameIndex int
	Players    [2]PlayerStats
	Units      [2][][]UnitRecord // [player][config index] -> units
	Raw        json.RawMessage
}

type wireFrame struct {
	TurnInfo []int          `json:"turnInfo"`
	P1Stats  []float64      `json:"p1Stats"`
	P2Stats  []float64      `json:"p2Stats"`
	P1Units  [][][]any      `json:"p1Units"`
	P2Units  [][][]any      `json:"p2Units"`
	Events   map[string]any `json:"events,omitempty"`
}

// ParseFrame decodes a frame line.
func ParseFrame(data []byte) (*Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if len(w.TurnInfo) < 2 {
		return nil, fmt.Errorf("frame turnInfo has %d fields", len(w.TurnInfo))
	}
	f := &Frame{
		Phase: FramePhase(w.TurnInfo[0]),
		Turn:  w.TurnInfo[1],
		Raw:   append(json.RawMessage(nil), data...),
	}
	if len(w.TurnInfo) > 2 {
		f.FrameIndex = w.TurnInfo[2]
	}
	f.Players[0] = parseStats(w.P1Stats)
	f.Players[1] = parseStats(w.P2Stats)

	var err error
	if f.Units[0], err = parseUnits(w.P1Units); err != nil {
		return nil, fmt.Errorf("p1Units: %w", err)
	}
	if f.Units[1], err = parseUnits(w.P2Units); err != nil {
		return nil, fmt.Errorf("p2Units: %w", err)
	}
	return f, nil
}

func parseStats(s []float64) PlayerStats {
	var ps PlayerStats
	if len(s) > 0 {
		ps.Health = s[0]
	}
	if len(s) > 1 {
		ps.Cores = s[1]
	}
	if len(s) > 2 {
		ps.Bits = s[2]
	}
	if len(s) > 3 {
		ps.TimeMS = s[3]
	}
	return ps
}

func parseUnits(groups [][][]any) ([][]UnitRecord, error) {
	out := make([][]UnitRecord, len(groups))
	for i, group := range groups {
		for _, raw := range group {
			if len(raw) < 2 {
				return nil, fmt.Errorf("unit entry in group %d has %d fields", i, len(raw))
			}
			x, okX := raw[0].(float64)
			y, okY := raw[1].(float64)
			if !okX || !okY {
				return nil, fmt.Errorf("unit entry in group %d has non-numeric position", i)
			}
			rec := UnitRecord{Location: Loc(int(x), int(y))}
			if len(raw) > 2 {
				rec.Health, _ = raw[2].(float64)
			}
			if len(raw) > 3 {
				switch id := raw[3].(type) {
				case string:
					rec.ID = id
				case float64:
					rec.ID = fmt.Sprintf("%d", int64(id))
				}
			}
			out[i] = append(out[i], rec)
		}
	}
	return out, nil
}
