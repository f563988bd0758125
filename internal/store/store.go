package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/pkg/model"
)

// ErrNotFound is returned when a quote is unknown or has expired.
var ErrNotFound = errors.New("store: quote not found or expired")

// QuoteStore keeps issued quotes until they expire so they can be re-rendered
// and executed by ID.
type QuoteStore interface {
	PutQuote(ctx context.Context, q *model.Quote) error
	GetQuote(ctx context.Context, quoteID string) (*model.Quote, error)
	// ExpiresIn reports how long a stored quote stays executable. Zero means
	// the entry carries no expiry.
	ExpiresIn(ctx context.Context, quoteID string) (time.Duration, error)
	DeleteQuote(ctx context.Context, quoteID string) error
	HealthCheck(ctx context.Context) error
	Close() error
}

const keyPrefix = "warp:quote:"

func quoteKey(id string) string { return keyPrefix + id }

// RedisStore is a QuoteStore backed by Redis with per-key TTL.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(addr, password string, db int, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{redis: rdb, ttl: ttl, logger: logger}, nil
}

// PutQuote stores q under its quote ID.
func (s *RedisStore) PutQuote(ctx context.Context, q *model.Quote) error {
	if q == nil || q.QuoteID == "" {
		return fmt.Errorf("store: quote without id")
	}
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, quoteKey(q.QuoteID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("store.redis.put_failed", zap.String("quote_id", q.QuoteID), zap.Error(err))
		return err
	}
	return nil
}

// GetQuote loads a quote by ID.
func (s *RedisStore) GetQuote(ctx context.Context, quoteID string) (*model.Quote, error) {
	data, err := s.redis.Get(ctx, quoteKey(quoteID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var q model.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("store: decode quote %s: %w", quoteID, err)
	}
	return &q, nil
}

// ExpiresIn reads the key's remaining TTL.
func (s *RedisStore) ExpiresIn(ctx context.Context, quoteID string) (time.Duration, error) {
	d, err := s.redis.PTTL(ctx, quoteKey(quoteID)).Result()
	if err != nil {
		return 0, err
	}
	// Redis answers -2 for a missing key and -1 for a key without TTL.
	switch {
	case d == -2:
		return 0, ErrNotFound
	case d < 0:
		return 0, nil
	}
	return d, nil
}

// DeleteQuote evicts a quote. Missing keys are not an error.
func (s *RedisStore) DeleteQuote(ctx context.Context, quoteID string) error {
	return s.redis.Del(ctx, quoteKey(quoteID)).Err()
}

// HealthCheck pings Redis.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
