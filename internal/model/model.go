package model

import (
	"encoding/json"
	"time"
)

// Match status values.
const (
	MatchActive   = "active"
	MatchFinished = "finished"
)

// Match is one game played by the algo, from config line to end frame.
type Match struct {
	ID         string     `json:"id"`
	Profile    string     `json:"profile"`
	Status     string     `json:"status"` // active, finished
	FinalTurn  int        `json:"final_turn"`
	Health     float64    `json:"health"`
	EnemyHP    float64    `json:"enemy_health"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Turn is the persisted record of one planned turn.
type Turn struct {
	ID        string          `json:"id"`
	MatchID   string          `json:"match_id"`
	Turn      int             `json:"turn"`
	Frame     json.RawMessage `json:"frame"`
	Build     json.RawMessage `json:"build"`
	Deploy    json.RawMessage `json:"deploy"`
	Emergency bool            `json:"emergency"`
	Cores     float64         `json:"cores"` // balance before planning
	Bits      float64         `json:"bits"`
	CreatedAt time.Time       `json:"created_at"`
}

// Memory is the small amount of state carried from one turn to the next
// within a match.
type Memory struct {
	Emergency      bool `json:"emergency"`
	EmergencySince int  `json:"emergency_since"` // first turn of the current emergency, -1 if none
	LastTurn       int  `json:"last_turn"`       // -1 before the first turn
}

// NewMemory returns the memory of a match that has not played a turn yet.
func NewMemory() Memory {
	return Memory{EmergencySince: -1, LastTurn: -1}
}
