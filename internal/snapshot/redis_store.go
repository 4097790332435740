package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/betversa/ev-engine/internal/models"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps each identity's history in a sorted set scored by
// capture time in Unix milliseconds
type RedisStore struct {
	client    *redis.Client
	retention Retention
	keyPrefix string
	now       func() time.Time
	logger    zerolog.Logger
}

// RedisConfig holds Redis snapshot store configuration
type RedisConfig struct {
	Addr      string // e.g., "localhost:6379"
	Password  string
	DB        int
	KeyPrefix string // defaults to "snapshots"
}

// NewRedisStore creates a new Redis snapshot store
func NewRedisStore(config RedisConfig, retention Retention, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "snapshots"
	}

	return &RedisStore{
		client:    client,
		retention: retention,
		keyPrefix: prefix,
		now:       time.Now,
		logger:    logger.With().Str("component", "redis_snapshot_store").Logger(),
	}
}

// key returns snapshots:{identity}
func (s *RedisStore) key(identity string) string {
	return s.keyPrefix + ":{" + identity + "}"
}

// Append adds a snapshot to the identity's sorted set
func (s *RedisStore) Append(ctx context.Context, snap models.Snapshot) error {
	member, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %w", ErrPersistence, err)
	}

	z := redis.Z{Score: float64(snap.CapturedAt.UnixMilli()), Member: member}
	if err := s.client.ZAdd(ctx, s.key(snap.BetIdentity), z).Err(); err != nil {
		return fmt.Errorf("%w: zadd: %w", ErrPersistence, err)
	}
	return nil
}

// Prune drops aged and excess snapshots inside MULTI/EXEC
func (s *RedisStore) Prune(ctx context.Context, identity string) error {
	key := s.key(identity)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.prune(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: prune: %w", ErrPersistence, err)
	}
	return nil
}

// Record appends and prunes in one MULTI/EXEC transaction
func (s *RedisStore) Record(ctx context.Context, snap models.Snapshot) error {
	member, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %w", ErrPersistence, err)
	}

	key := s.key(snap.BetIdentity)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(snap.CapturedAt.UnixMilli()), Member: member})
		s.prune(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: record: %w", ErrPersistence, err)
	}

	s.logger.Debug().
		Str("key", key).
		Time("captured_at", snap.CapturedAt).
		Msg("recorded snapshot")

	return nil
}

func (s *RedisStore) prune(ctx context.Context, pipe redis.Pipeliner, key string) {
	if cutoff, ok := s.retention.cutoff(s.now()); ok {
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff.UnixMilli(), 10))
		pipe.Expire(ctx, key, s.retention.MaxAge)
	}
	if s.retention.MaxCount > 0 {
		pipe.ZRemRangeByRank(ctx, key, 0, int64(-(s.retention.MaxCount + 1)))
	}
}

// Query returns an identity's history newest first
func (s *RedisStore) Query(ctx context.Context, identity string, limit int) ([]models.Snapshot, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	members, err := s.client.ZRevRange(ctx, s.key(identity), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zrevrange: %w", ErrPersistence, err)
	}

	out := make([]models.Snapshot, 0, len(members))
	for _, m := range members {
		var snap models.Snapshot
		if err := json.Unmarshal([]byte(m), &snap); err != nil {
			s.logger.Warn().Err(err).Str("identity", identity).Msg("failed to unmarshal snapshot")
			continue
		}
		out = append(out, snap)
	}

	return out, nil
}

// Ping checks Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
