package auth

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// tokenExpiryBuffer is the margin before expiry at which a new token is fetched.
const tokenExpiryBuffer = 30 * time.Second

// Token is a fetched bearer token and its lifetime.
type Token struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// FetchFunc obtains a fresh token from an identity provider.
type FetchFunc func(ctx context.Context) (Token, error)

// Cached is a TokenSource that caches fetched tokens until shortly before
// they expire.
type Cached struct {
	logger *zap.Logger
	fetch  FetchFunc
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewCached creates a caching TokenSource over fetch.
func NewCached(logger *zap.Logger, fetch FetchFunc) *Cached {
	return &Cached{
		logger: logger,
		fetch:  fetch,
		now:    time.Now,
	}
}

// GetToken returns the cached token while valid; otherwise it fetches a new one.
func (c *Cached) GetToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt.Add(-tokenExpiryBuffer)) {
		return c.token, nil
	}

	tok, err := c.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", ErrNoToken
	}

	c.token = tok.AccessToken
	c.expiresAt = c.now().Add(tok.ExpiresIn)

	c.logger.Debug("auth.token_refreshed",
		zap.Duration("expires_in", tok.ExpiresIn))

	return c.token, nil
}

// Invalidate drops the cached token, e.g. after the backend rejected it.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// CommandFetcher runs an external command (for example an identity CLI
// printing an ID token) and treats its trimmed stdout as the token.
func CommandFetcher(command string, ttl time.Duration) FetchFunc {
	return func(ctx context.Context) (Token, error) {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return Token{}, ErrNoToken
		}
		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return Token{}, fmt.Errorf("%s: %w: %s", fields[0], err, strings.TrimSpace(stderr.String()))
		}
		return Token{AccessToken: strings.TrimSpace(stdout.String()), ExpiresIn: ttl}, nil
	}
}
