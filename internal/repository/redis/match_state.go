package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/rampart/internal/model"
	"github.com/freeeve/rampart/internal/repository"
)

// Key patterns for Redis match state.
func memoryKey(matchID string) string   { return "match:" + matchID + ":memory" }
func lastTurnKey(matchID string) string { return "match:" + matchID + ":last_turn" }

// SaveMemory stores a match's cross-turn memory.
func (c *Client) SaveMemory(ctx context.Context, matchID string, mem model.Memory) error {
	data, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	if err := c.rdb.Set(ctx, memoryKey(matchID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	return nil
}

// LoadMemory returns a match's memory, or repository.ErrNotFound when none
// has been saved.
func (c *Client) LoadMemory(ctx context.Context, matchID string) (model.Memory, error) {
	data, err := c.rdb.Get(ctx, memoryKey(matchID)).Bytes()
	if err == redis.Nil {
		return model.Memory{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Memory{}, fmt.Errorf("load memory: %w", err)
	}
	mem := model.NewMemory()
	if err := json.Unmarshal(data, &mem); err != nil {
		return model.Memory{}, fmt.Errorf("decode memory: %w", err)
	}
	return mem, nil
}

// SetLastTurn stores the latest turn report of a match.
func (c *Client) SetLastTurn(ctx context.Context, matchID string, report []byte) error {
	if err := c.rdb.Set(ctx, lastTurnKey(matchID), report, c.ttl).Err(); err != nil {
		return fmt.Errorf("set last turn: %w", err)
	}
	return nil
}

// GetLastTurn returns the latest turn report, or nil if the match has not
// played a turn.
func (c *Client) GetLastTurn(ctx context.Context, matchID string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, lastTurnKey(matchID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last turn: %w", err)
	}
	return data, nil
}

// DeleteMatchState removes every key of a match.
func (c *Client) DeleteMatchState(ctx context.Context, matchID string) error {
	return c.rdb.Del(ctx, memoryKey(matchID), lastTurnKey(matchID)).Err()
}

var (
	_ repository.MemoryStore = (*Client)(nil)
	_ repository.LiveCache   = (*Client)(nil)
)
