package repository

import (
	"context"
	"errors"

	"github.com/freeeve/rampart/internal/model"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// MemoryStore mirrors a match's cross-turn memory outside the process.
// Load returns ErrNotFound when nothing has been saved for the match.
type MemoryStore interface {
	LoadMemory(ctx context.Context, matchID string) (model.Memory, error)
	SaveMemory(ctx context.Context, matchID string, mem model.Memory) error
}

// TurnRepository persists matches and their planned turns.
type TurnRepository interface {
	CreateMatch(ctx context.Context, matchID, profile string) (*model.Match, error)
	SaveTurn(ctx context.Context, turn model.Turn) error
	ListTurns(ctx context.Context, matchID string) ([]model.Turn, error)
	SetFinished(ctx context.Context, matchID string, finalTurn int, health, enemyHealth float64) error
}

// LiveCache holds the latest planned turn of a match for late spectators.
type LiveCache interface {
	SetLastTurn(ctx context.Context, matchID string, report []byte) error
	GetLastTurn(ctx context.Context, matchID string) ([]byte, error)
}
