package rate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	xrate "golang.org/x/time/rate"
)

// Config defines rate limiting parameters per caller.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL is how long an unused limiter is kept before Prune drops it.
	IdleTTL time.Duration
}

type entry struct {
	limiter  *xrate.Limiter
	lastSeen time.Time
}

// Manager holds per-caller token buckets. Keys are fingerprinted so raw
// bearer tokens are never kept in memory longer than a request.
type Manager struct {
	mu       sync.Mutex
	limiters map[string]*entry
	defaults Config
	now      func() time.Time
}

// NewManager creates a Manager applying defaults to every key.
func NewManager(defaults Config) *Manager {
	return &Manager{
		limiters: make(map[string]*entry),
		defaults: defaults,
		now:      time.Now,
	}
}

// Key fingerprints a caller identity (for example a bearer token).
func Key(identity string) string {
	if identity == "" {
		return "anonymous"
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(identity)).String()
}

// GetLimiter returns the limiter for key, creating it on first use.
func (m *Manager) GetLimiter(key string) *xrate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.limiters[key]
	if !ok {
		limit := xrate.Inf
		if m.defaults.RequestsPerSecond > 0 {
			limit = xrate.Limit(m.defaults.RequestsPerSecond)
		}
		burst := m.defaults.Burst
		if burst < 1 {
			burst = 1
		}
		e = &entry{limiter: xrate.NewLimiter(limit, burst)}
		m.limiters[key] = e
	}
	e.lastSeen = m.now()
	return e.limiter
}

// Wait blocks until key may proceed or ctx is done.
func (m *Manager) Wait(ctx context.Context, key string) error {
	return m.GetLimiter(key).Wait(ctx)
}

// Allow reports whether key may proceed right now without waiting.
func (m *Manager) Allow(key string) bool {
	return m.GetLimiter(key).Allow()
}

// Len returns the number of tracked keys.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

// Prune drops limiters idle for longer than IdleTTL and returns how many
// were removed.
func (m *Manager) Prune() int {
	if m.defaults.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.defaults.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(m.limiters, k)
			removed++
		}
	}
	return removed
}

// StartJanitor prunes idle limiters every interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Prune()
			case <-ctx.Done():
				return
			}
		}
	}()
}
