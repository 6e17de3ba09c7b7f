package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
)

const resultKeyPrefix = "coldroute:result:"

// ResultCache mirrors completed job summaries into Redis so status polls can
// skip the database for recently finished jobs
type ResultCache struct {
	client *redis.Client
}

// NewResultCache creates the cache over an existing Redis connection
func NewResultCache(client *redis.Client) *ResultCache {
	return &ResultCache{client: client}
}

func resultKey(jobID uuid.UUID) string {
	return resultKeyPrefix + jobID.String()
}

// StoreResult caches a job's result summary with the retention TTL
func (c *ResultCache) StoreResult(ctx context.Context, jobID uuid.UUID, summary *planning.ResultSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize result summary: %w", err)
	}
	if err := c.client.SetEx(ctx, resultKey(jobID), data, resultRetention).Err(); err != nil {
		return fmt.Errorf("failed to cache job result: %w", err)
	}
	return nil
}

// GetResult returns the cached summary, or nil on a miss
func (c *ResultCache) GetResult(ctx context.Context, jobID uuid.UUID) (*planning.ResultSummary, error) {
	data, err := c.client.Get(ctx, resultKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached job result: %w", err)
	}
	var summary planning.ResultSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse cached job result: %w", err)
	}
	return &summary, nil
}

// Ping checks broker connectivity for health reporting
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
