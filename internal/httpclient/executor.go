package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/internal/metrics"
	"github.com/Checker-Finance/warp/internal/rate"
)

// RequestIDHeader carries the per-call request ID, identical across retries.
const RequestIDHeader = "X-Request-ID"

// Backoff returns the retry sleep duration for the given attempt number.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// RequestFunc builds a fresh request for each attempt so bodies can be replayed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// ErrorHandler turns a failed response into a caller-specific error.
type ErrorHandler func(status int, body []byte) error

// Executor handles rate-limited, retrying HTTP execution with JSON decoding.
type Executor struct {
	logger       *zap.Logger
	rateMgr      *rate.Manager
	http         *http.Client
	retryMax     int
	tag          string
	errorHandler ErrorHandler
}

// New creates an Executor. retryMax is the number of retries after the first
// attempt. errorHandler is called on 4xx responses and on a 5xx response
// that exhausted the retries; if nil, a generic error is returned.
func New(
	logger *zap.Logger,
	rateMgr *rate.Manager,
	httpClient *http.Client,
	retryMax int,
	tag string,
	errorHandler ErrorHandler,
) *Executor {
	if retryMax < 0 {
		retryMax = 0
	}
	return &Executor{
		logger:       logger,
		rateMgr:      rateMgr,
		http:         httpClient,
		retryMax:     retryMax,
		tag:          tag,
		errorHandler: errorHandler,
	}
}

// DoJSON executes the request built by build with rate limiting and
// retries, then JSON-decodes a successful response into out.
// op labels metrics and logs; rateLimitKey scopes the limiter per caller.
func (e *Executor) DoJSON(ctx context.Context, op string, build RequestFunc, rateLimitKey string, out any) error {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, rateLimitKey); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	requestID := uuid.NewString()
	start := time.Now()
	defer metrics.ObserveDuration(metrics.BackendRequestDuration, start, op)

	var (
		lastErr    error
		lastStatus int
		lastBody   []byte
	)
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, Backoff(attempt-1)); err != nil {
				return err
			}
		}

		req, err := build(ctx)
		if err != nil {
			return fmt.Errorf("%s %s: build request: %w", e.tag, op, err)
		}
		req.Header.Set(RequestIDHeader, requestID)

		attemptStart := time.Now()
		resp, err := e.http.Do(req)
		if err != nil {
			metrics.IncBackendRequest(op, "transport_error")
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr, lastStatus, lastBody = err, 0, nil
			e.logger.Warn(e.tag+".http_failed",
				zap.String("op", op),
				zap.String("url", req.URL.String()),
				zap.String("request_id", requestID),
				zap.Error(err),
				zap.Int("attempt", attempt))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		elapsed := time.Since(attemptStart)
		metrics.IncBackendRequest(op, strconv.Itoa(resp.StatusCode))

		if resp.StatusCode >= 500 {
			e.logger.Warn(e.tag+".server_error",
				zap.String("op", op),
				zap.Int("status", resp.StatusCode),
				zap.String("request_id", requestID),
				zap.Duration("latency", elapsed),
				zap.Int("attempt", attempt))
			lastErr = fmt.Errorf("%s server error: %d", e.tag, resp.StatusCode)
			lastStatus, lastBody = resp.StatusCode, body
			continue
		}

		if resp.StatusCode >= 400 {
			e.logger.Info(e.tag+".client_error",
				zap.String("op", op),
				zap.Int("status", resp.StatusCode),
				zap.String("request_id", requestID))
			return e.fail(resp.StatusCode, body)
		}

		if readErr != nil {
			return fmt.Errorf("%s %s: read body: %w", e.tag, op, readErr)
		}

		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				e.logger.Warn(e.tag+".decode_failed",
					zap.String("op", op),
					zap.Error(err),
					zap.String("request_id", requestID),
					zap.Int("body_bytes", len(body)))
				return fmt.Errorf("decode failed: %w", err)
			}
		}

		e.logger.Debug(e.tag+".http_success",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", elapsed))

		return nil
	}

	if lastStatus >= 500 && e.errorHandler != nil {
		return e.errorHandler(lastStatus, lastBody)
	}
	return fmt.Errorf("%s request failed after %d attempts: %w", e.tag, e.retryMax+1, lastErr)
}

func (e *Executor) fail(status int, body []byte) error {
	if e.errorHandler != nil {
		return e.errorHandler(status, body)
	}
	return fmt.Errorf("%s returned %d", e.tag, status)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
