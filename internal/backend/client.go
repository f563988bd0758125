package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/internal/httpclient"
	"github.com/Checker-Finance/warp/internal/rate"
	"github.com/Checker-Finance/warp/pkg/model"
	"github.com/Checker-Finance/warp/pkg/utils"
)

// Options configures a Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
	RateMgr  *rate.Manager
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Client talks to the quoting backend. Reads and quote requests are
// retried; transfer execution is not, since the backend does not dedupe it.
type Client struct {
	logger  *zap.Logger
	baseURL string
	exec    *httpclient.Executor
	once    *httpclient.Executor
}

// NewClient constructs a backend client.
func NewClient(logger *zap.Logger, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	onError := func(status int, body []byte) error {
		detail := parseDetail(body)
		logger.Warn("backend.client_error",
			zap.Int("status", status),
			zap.String("detail", detail))
		return &statusError{status: status, detail: detail}
	}

	return &Client{
		logger:  logger,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		exec:    httpclient.New(logger, opts.RateMgr, httpClient, opts.RetryMax, "backend", onError),
		once:    httpclient.New(logger, opts.RateMgr, httpClient, 0, "backend", onError),
	}
}

type callerKey struct{}

// WithCaller scopes backend rate limiting to identity (a bearer token or
// client address) for calls made with the returned context.
func WithCaller(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, callerKey{}, identity)
}

func caller(ctx context.Context, token string) string {
	if token != "" {
		return rate.Key(token)
	}
	id, _ := ctx.Value(callerKey{}).(string)
	return rate.Key(id)
}

// GetQuote requests a quote.
// POST /quote
func (c *Client) GetQuote(ctx context.Context, req model.QuoteRequest) (*model.Quote, error) {
	c.logger.Debug("backend.quote.start",
		zap.String("send_currency", req.SendCurrency),
		zap.String("receive_currency", req.ReceiveCurrency),
		zap.Float64("send_amount", req.SendAmount))

	var q model.Quote
	if err := c.postJSON(ctx, c.exec, "quote", "/quote", "", req, &q); err != nil {
		return nil, wrap("quote", FallbackQuote, err)
	}
	return &q, nil
}

// ExecuteTransfer executes a previously quoted transfer on the user's behalf.
// POST /transfer/execute
func (c *Client) ExecuteTransfer(ctx context.Context, token string, req model.TransferRequest) (*model.TransferResult, error) {
	c.logger.Info("backend.transfer.start",
		zap.String("quote_id", req.QuoteID),
		zap.String("receiver", utils.MaskEmail(req.ReceiverEmail)))

	var res model.TransferResult
	if err := c.postJSON(ctx, c.once, "transfer_execute", "/transfer/execute", token, req, &res); err != nil {
		return nil, wrap("transfer_execute", FallbackTransfer, err)
	}
	return &res, nil
}

// TransferHistory lists the user's past transactions.
// GET /transfer/history
func (c *Client) TransferHistory(ctx context.Context, token string) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := c.getJSON(ctx, "transfer_history", "/transfer/history", token, &txs); err != nil {
		return nil, wrap("transfer_history", FallbackHistory, err)
	}
	return txs, nil
}

// UserProfile returns the signed-in user's profile and balances.
// GET /user/me
func (c *Client) UserProfile(ctx context.Context, token string) (*model.UserProfile, error) {
	var p model.UserProfile
	if err := c.getJSON(ctx, "user_profile", "/user/me", token, &p); err != nil {
		return nil, wrap("user_profile", FallbackProfile, err)
	}
	return &p, nil
}

// Health probes the backend. Any failure maps to FallbackUnavailable.
// GET /health
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var h HealthStatus
	if err := c.getJSON(ctx, "health", "/health", "", &h); err != nil {
		return nil, &APIError{Op: "health", Fallback: FallbackUnavailable, Err: err}
	}
	return &h, nil
}

func (c *Client) getJSON(ctx context.Context, op, path, token string, out any) error {
	url := c.baseURL + path
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		setHeaders(req, token)
		return req, nil
	}
	return c.exec.DoJSON(ctx, op, build, caller(ctx, token), out)
}

func (c *Client) postJSON(ctx context.Context, exec *httpclient.Executor, op, path, token string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := c.baseURL + path
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		setHeaders(req, token)
		return req, nil
	}
	return exec.DoJSON(ctx, op, build, caller(ctx, token), out)
}

// setHeaders sets the JSON headers and, when present, the bearer token.
func setHeaders(req *http.Request, bearerToken string) {
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
