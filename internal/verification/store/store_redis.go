package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verinode/internal/sentinel"
	"verinode/internal/verification/models"
)

// Redis key prefix for staged claims.
const claimKeyPrefix = "verinode:pending:"

// RedisStore keeps staged claims in Redis with a native TTL, so eviction of
// abandoned claims happens server-side and DeleteExpired is a no-op. Multiple
// node processes sharing one Redis must use distinct databases; claim ids are
// node-scoped.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed pending claims table. Every staged
// claim expires ttl after its most recent stage.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func claimKey(claimID string) string {
	return claimKeyPrefix + claimID
}

func (s *RedisStore) Stage(ctx context.Context, record *models.ClaimRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal claim record: %w", err)
	}
	if err := s.client.Set(ctx, claimKey(record.ClaimID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("stage claim %s: %w", record.ClaimID, err)
	}
	return nil
}

func (s *RedisStore) StageIfAbsent(ctx context.Context, record *models.ClaimRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal claim record: %w", err)
	}
	ok, err := s.client.SetNX(ctx, claimKey(record.ClaimID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("stage claim %s: %w", record.ClaimID, err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, claimID string) (*models.ClaimRecord, error) {
	// GETDEL makes fetch+remove a single atomic step on the Redis side.
	payload, err := s.client.GetDel(ctx, claimKey(claimID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("consume claim %s: %w", claimID, err)
	}
	var record models.ClaimRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("unmarshal claim %s: %w", claimID, err)
	}
	return &record, nil
}

// DeleteExpired is a no-op: Redis evicts staged claims itself via key TTL.
func (s *RedisStore) DeleteExpired(_ context.Context, _ time.Time) ([]string, error) {
	return nil, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, claimKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("count staged claims: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
