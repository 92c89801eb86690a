package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	"github.com/redis/go-redis/v9"
)

// HistoryCache keeps a short-lived copy of the most recent turns per
// (user, persona) partition so the context builder can skip a ledger
// read on the hot path. A nil *RedisHistory is a valid no-op cache.
type HistoryCache interface {
	Recent(ctx context.Context, userID, agentType string) ([]models.Turn, bool, error)
	StoreRecent(ctx context.Context, userID, agentType string, turns []models.Turn) error
	Invalidate(ctx context.Context, userID string, agentTypes ...string) error
}

type RedisHistory struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisHistory(rdb *redis.Client, ttl time.Duration) *RedisHistory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisHistory{rdb: rdb, ttl: ttl}
}

func key(userID, agentType string) string {
	return "history:" + userID + ":" + agentType
}

func (c *RedisHistory) Recent(ctx context.Context, userID, agentType string) ([]models.Turn, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	s, err := c.rdb.Get(ctx, key(userID, agentType)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var turns []models.Turn
	if err := json.Unmarshal([]byte(s), &turns); err != nil {
		// corrupt payload: drop it and treat as a miss
		_ = c.rdb.Del(ctx, key(userID, agentType)).Err()
		return nil, false, nil
	}
	return turns, true, nil
}

func (c *RedisHistory) StoreRecent(ctx context.Context, userID, agentType string, turns []models.Turn) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(turns)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(userID, agentType), b, c.ttl).Err()
}

func (c *RedisHistory) Invalidate(ctx context.Context, userID string, agentTypes ...string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	keys := make([]string, 0, len(agentTypes))
	for _, at := range agentTypes {
		keys = append(keys, key(userID, at))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
