package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AnswerCache = (*AnswerCache)(nil)

// Key prefix for cached answers
const answerPrefix = "answer:"

// AnswerCache implements driven.AnswerCache using Redis.
// Entries expire via Redis TTL.
type AnswerCache struct {
	client *redis.Client
}

// NewAnswerCache creates a new Redis-backed AnswerCache
func NewAnswerCache(client *redis.Client) *AnswerCache {
	return &AnswerCache{client: client}
}

// Get returns the cached result for (year, query) or domain.ErrNotFound
func (c *AnswerCache) Get(ctx context.Context, year int, query string) (*domain.QAResult, error) {
	data, err := c.client.Get(ctx, answerKey(year, query)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached answer: %w", err)
	}

	var result domain.QAResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached answer: %w", err)
	}

	return &result, nil
}

// Set stores a result with the given TTL
func (c *AnswerCache) Set(ctx context.Context, result *domain.QAResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}

	if err := c.client.Set(ctx, answerKey(result.Year, result.Query), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache answer: %w", err)
	}
	return nil
}

// Close releases the underlying client
func (c *AnswerCache) Close() error {
	return c.client.Close()
}

// answerKey hashes the query so arbitrary question text yields a bounded,
// safe Redis key.
func answerKey(year int, query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s%d:%s", answerPrefix, year, hex.EncodeToString(sum[:]))
}
