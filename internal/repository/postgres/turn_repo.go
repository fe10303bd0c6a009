package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/freeeve/rampart/internal/model"
	"github.com/freeeve/rampart/internal/repository"
)

// TurnRepo handles match and turn database operations.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// CreateMatch inserts a match, or reactivates it when a restarted process
// plays the same match ID again.
func (r *TurnRepo) CreateMatch(ctx context.Context, matchID, profile string) (*model.Match, error) {
	var m model.Match
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO matches (id, profile)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET profile = EXCLUDED.profile, status = 'active', finished_at = NULL
		 RETURNING id, profile, status, final_turn, health, enemy_health, created_at, finished_at`,
		matchID, profile,
	).Scan(&m.ID, &m.Profile, &m.Status, &m.FinalTurn, &m.Health, &m.EnemyHP, &m.CreatedAt, &m.FinishedAt)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return &m, nil
}

// SaveTurn inserts a planned turn. Saving the same turn twice keeps the
// latest plan.
func (r *TurnRepo) SaveTurn(ctx context.Context, t model.Turn) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO turns (match_id, turn, frame, build, deploy, emergency, cores, bits)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (match_id, turn) DO UPDATE SET
		   frame = EXCLUDED.frame, build = EXCLUDED.build, deploy = EXCLUDED.deploy,
		   emergency = EXCLUDED.emergency, cores = EXCLUDED.cores, bits = EXCLUDED.bits`,
		t.MatchID, t.Turn, jsonOrEmpty(t.Frame, "{}"), jsonOrEmpty(t.Build, "[]"), jsonOrEmpty(t.Deploy, "[]"),
		t.Emergency, t.Cores, t.Bits,
	)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// ListTurns returns a match's turns in turn order.
func (r *TurnRepo) ListTurns(ctx context.Context, matchID string) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, match_id, turn, frame, build, deploy, emergency, cores, bits, created_at
		 FROM turns WHERE match_id = $1
		 ORDER BY turn`, matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		if err := rows.Scan(&t.ID, &t.MatchID, &t.Turn, &t.Frame, &t.Build, &t.Deploy, &t.Emergency, &t.Cores, &t.Bits, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// SetFinished marks a match finished with its final standing.
func (r *TurnRepo) SetFinished(ctx context.Context, matchID string, finalTurn int, health, enemyHealth float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = 'finished', final_turn = $2, health = $3, enemy_health = $4, finished_at = now()
		 WHERE id = $1`,
		matchID, finalTurn, health, enemyHealth,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set finished %s: %w", matchID, repository.ErrNotFound)
	}
	return nil
}

// FindMatch returns a match by ID.
func (r *TurnRepo) FindMatch(ctx context.Context, matchID string) (*model.Match, error) {
	var m model.Match
	err := r.db.QueryRowContext(ctx,
		`SELECT id, profile, status, final_turn, health, enemy_health, created_at, finished_at
		 FROM matches WHERE id = $1`, matchID,
	).Scan(&m.ID, &m.Profile, &m.Status, &m.FinalTurn, &m.Health, &m.EnemyHP, &m.CreatedAt, &m.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	return &m, nil
}

func jsonOrEmpty(data json.RawMessage, empty string) []byte {
	if len(data) == 0 {
		return []byte(empty)
	}
	return data
}

var _ repository.TurnRepository = (*TurnRepo)(nil)
