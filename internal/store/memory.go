package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Checker-Finance/warp/internal/metrics"
	"github.com/Checker-Finance/warp/pkg/model"
)

// MemoryStore is a process-local QuoteStore used when no Redis is configured.
type MemoryStore struct {
	cache *Cache[model.Quote]
	stop  chan struct{}
	once  sync.Once
}

// NewMemory creates an in-memory quote store. A positive cleanupEvery
// starts a background sweeper that Close stops.
func NewMemory(ttl, cleanupEvery time.Duration) *MemoryStore {
	s := &MemoryStore{
		cache: NewCache[model.Quote](ttl),
		stop:  make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go s.cache.RunSweeper(cleanupEvery, s.stop, metrics.AddQuotesExpired)
	}
	return s
}

// PutQuote stores a copy of q.
func (s *MemoryStore) PutQuote(_ context.Context, q *model.Quote) error {
	if q == nil || q.QuoteID == "" {
		return fmt.Errorf("store: quote without id")
	}
	s.cache.Put(q.QuoteID, *q)
	return nil
}

// GetQuote returns a copy of the stored quote.
func (s *MemoryStore) GetQuote(_ context.Context, quoteID string) (*model.Quote, error) {
	q, ok := s.cache.Get(quoteID)
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

// ExpiresIn reports how long the quote can still be executed.
func (s *MemoryStore) ExpiresIn(_ context.Context, quoteID string) (time.Duration, error) {
	d, ok := s.cache.Remaining(quoteID)
	if !ok {
		return 0, ErrNotFound
	}
	return d, nil
}

// DeleteQuote evicts a quote.
func (s *MemoryStore) DeleteQuote(_ context.Context, quoteID string) error {
	s.cache.Delete(quoteID)
	return nil
}

// HealthCheck always succeeds.
func (s *MemoryStore) HealthCheck(context.Context) error { return nil }

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
