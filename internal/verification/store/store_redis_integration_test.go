//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verinode/internal/sentinel"
	"verinode/internal/verification/models"
	"verinode/internal/verification/store"
	"verinode/pkg/testutil/containers"
)

type RedisPendingSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisPendingSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisPendingSuite))
}

func (s *RedisPendingSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedisStore(s.redis.Client, 10*time.Minute)
}

func (s *RedisPendingSuite) SetupTest() {
	s.Require().NoError(s.redis.Flush(context.Background()))
}

func (s *RedisPendingSuite) TestStageAndConsume() {
	ctx := context.Background()

	record := &models.ClaimRecord{
		ClaimID:            "redis-c1",
		RequesterPublicKey: "requester-key",
		BiometricMarker:    "marker-1",
		StagedAt:           time.Now().UTC(),
	}
	s.Require().NoError(s.store.Stage(ctx, record))

	found, err := s.store.Consume(ctx, "redis-c1")
	s.Require().NoError(err)
	s.Equal(record.ClaimID, found.ClaimID)
	s.Equal(record.RequesterPublicKey, found.RequesterPublicKey)
	s.Equal(record.BiometricMarker, found.BiometricMarker)

	_, err = s.store.Consume(ctx, "redis-c1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisPendingSuite) TestStageIfAbsentConflict() {
	ctx := context.Background()

	record := &models.ClaimRecord{
		ClaimID:            "redis-c2",
		RequesterPublicKey: "requester-key",
		BiometricMarker:    "marker-2",
		StagedAt:           time.Now().UTC(),
	}
	s.Require().NoError(s.store.StageIfAbsent(ctx, record))

	err := s.store.StageIfAbsent(ctx, record)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *RedisPendingSuite) TestNativeExpiry() {
	ctx := context.Background()
	short := store.NewRedisStore(s.redis.Client, 500*time.Millisecond)

	record := &models.ClaimRecord{
		ClaimID:            "redis-c3",
		RequesterPublicKey: "requester-key",
		BiometricMarker:    "marker-3",
		StagedAt:           time.Now().UTC(),
	}
	s.Require().NoError(short.Stage(ctx, record))

	time.Sleep(time.Second)

	_, err := short.Consume(ctx, "redis-c3")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisPendingSuite) TestCount() {
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		s.Require().NoError(s.store.Stage(ctx, &models.ClaimRecord{
			ClaimID:            id,
			RequesterPublicKey: "requester-key",
			BiometricMarker:    "marker-" + id,
			StagedAt:           time.Now().UTC(),
		}))
	}

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(3, count)
}
