package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/internal/backend"
	"github.com/Checker-Finance/warp/internal/store"
	"github.com/Checker-Finance/warp/pkg/model"
)

// ─── Mock backend ─────────────────────────────────────────────────────────────

type mockBackend struct {
	getQuoteFn func(ctx context.Context, req model.QuoteRequest) (*model.Quote, error)
	executeFn  func(ctx context.Context, token string, req model.TransferRequest) (*model.TransferResult, error)
	historyFn  func(ctx context.Context, token string) ([]model.Transaction, error)
	profileFn  func(ctx context.Context, token string) (*model.UserProfile, error)
	healthErr  error
	quoteCalls int
}

func (m *mockBackend) GetQuote(ctx context.Context, req model.QuoteRequest) (*model.Quote, error) {
	m.quoteCalls++
	if m.getQuoteFn != nil {
		return m.getQuoteFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockBackend) ExecuteTransfer(ctx context.Context, token string, req model.TransferRequest) (*model.TransferResult, error) {
	if m.executeFn != nil {
		return m.executeFn(ctx, token, req)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockBackend) TransferHistory(ctx context.Context, token string) ([]model.Transaction, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, token)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockBackend) UserProfile(ctx context.Context, token string) (*model.UserProfile, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, token)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockBackend) Health(context.Context) (*backend.HealthStatus, error) {
	if m.healthErr != nil {
		return nil, m.healthErr
	}
	return &backend.HealthStatus{Status: "healthy"}, nil
}

// ─── Mock events ──────────────────────────────────────────────────────────────

type recordedEvent struct {
	correlationID uuid.UUID
	payload       any
}

type mockEvents struct {
	events []recordedEvent
}

func (m *mockEvents) PublishQuotePresented(_ context.Context, id uuid.UUID, evt model.QuotePresented) error {
	m.events = append(m.events, recordedEvent{id, evt})
	return nil
}

func (m *mockEvents) PublishTransferExecuted(_ context.Context, id uuid.UUID, evt model.TransferExecuted) error {
	m.events = append(m.events, recordedEvent{id, evt})
	return nil
}

// ─── Test app helpers ─────────────────────────────────────────────────────────

func newTestApp(be *mockBackend, st store.QuoteStore, events EventPublisher) *fiber.App {
	app := fiber.New()
	h := NewGatewayHandler(zap.NewNop(), be, st, events)
	RegisterRoutes(app, nil, st, be, h)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func sampleQuote() *model.Quote {
	return &model.Quote{
		QuoteID:         "q-123",
		SendCurrency:    "USD",
		ReceiveCurrency: "MXN",
		SendAmount:      model.Float(100),
		OurRate:         model.Float(17.5),
		OurAmount:       model.Float(1750),
		MidMarketRate:   model.Float(17.0),
		MidMarketAmount: model.Float(1700),
		RouteOptions: []model.RouteOption{
			{Chain: "polygon", Path: "USD → USDC → MXN", IsBest: true, ExpectedFinalAmount: model.Float(1750)},
			{Chain: "ethereum", DifferenceFromBest: model.Float(5), DifferencePct: model.Float(2)},
		},
		CryptoPath: &model.CryptoPath{
			BestPath: &model.RouteOption{Chain: "polygon", Path: "USD → USDC → MXN", FinalAmount: model.Float(1750)},
		},
	}
}

func quoteBackend() *mockBackend {
	return &mockBackend{
		getQuoteFn: func(_ context.Context, req model.QuoteRequest) (*model.Quote, error) {
			return sampleQuote(), nil
		},
	}
}

// ─── POST /api/v1/quotes ──────────────────────────────────────────────────────

func TestCreateQuoteHandler_Success(t *testing.T) {
	be := quoteBackend()
	var got model.QuoteRequest
	be.getQuoteFn = func(_ context.Context, req model.QuoteRequest) (*model.Quote, error) {
		got = req
		return sampleQuote(), nil
	}
	st := store.NewMemory(time.Minute, 0)
	events := &mockEvents{}
	app := newTestApp(be, st, events)

	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/quotes",
		`{"send_currency":"usd","receive_currency":"mxn","send_amount":100}`, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	assert.Equal(t, model.QuoteRequest{SendCurrency: "USD", ReceiveCurrency: "MXN", SendAmount: 100}, got)

	view := body["view"].(map[string]any)
	assert.Equal(t, "$ 1,750.00", view["you_receive"])
	assert.Equal(t, "+$ 50.00 (+2.94%)", view["advantage"])
	assert.Equal(t, "USD → USDC → MXN", view["selected_route"])
	assert.Equal(t, "polygon", body["best_route"].(map[string]any)["chain"])
	assert.Equal(t, float64(60), body["expires_in_seconds"])

	cached, err := st.GetQuote(context.Background(), "q-123")
	require.NoError(t, err)
	assert.Equal(t, "q-123", cached.QuoteID)

	require.Len(t, events.events, 1)
	evt := events.events[0].payload.(model.QuotePresented)
	assert.Equal(t, "q-123", evt.QuoteID)
	assert.Equal(t, 2, evt.RouteCount)
	assert.Equal(t, "polygon", evt.BestRoute)
	assert.Equal(t, correlationID("q-123"), events.events[0].correlationID)
}

func TestCreateQuoteHandler_SameCurrencyRejected(t *testing.T) {
	be := quoteBackend()
	app := newTestApp(be, store.NewMemory(time.Minute, 0), nil)

	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/quotes",
		`{"send_currency":"USD","receive_currency":"USD","send_amount":100}`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Send and receive currencies must be different", body["error"])
	assert.Equal(t, 0, be.quoteCalls)
}

func TestCreateQuoteHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"zero amount", `{"send_currency":"USD","receive_currency":"MXN","send_amount":0}`, "Please enter a valid amount"},
		{"missing amount", `{"send_currency":"USD","receive_currency":"MXN"}`, "Please enter a valid amount"},
		{"missing send", `{"receive_currency":"MXN","send_amount":5}`, "send_currency is required"},
		{"missing receive", `{"send_currency":"USD","send_amount":5}`, "receive_currency is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := quoteBackend()
			app := newTestApp(be, store.NewMemory(time.Minute, 0), nil)
			resp, body := doRequest(t, app, http.MethodPost, "/api/v1/quotes", tt.body, "")
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.msg, body["error"])
			assert.Equal(t, 0, be.quoteCalls)
		})
	}
}

func TestCreateQuoteHandler_BadJSON(t *testing.T) {
	app := newTestApp(quoteBackend(), store.NewMemory(time.Minute, 0), nil)
	resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/quotes", `{not json`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateQuoteHandler_BackendFailure(t *testing.T) {
	be := &mockBackend{
		getQuoteFn: func(context.Context, model.QuoteRequest) (*model.Quote, error) {
			return nil, &backend.APIError{Op: "quote", Status: 400, Detail: "Unsupported currency", Fallback: backend.FallbackQuote}
		},
	}
	app := newTestApp(be, store.NewMemory(time.Minute, 0), nil)

	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/quotes",
		`{"send_currency":"USD","receive_currency":"XYZ","send_amount":10}`, "")
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Unsupported currency", body["error"])
}

func TestCreateQuoteHandler_ForeignErrorUsesFallback(t *testing.T) {
	be := &mockBackend{
		getQuoteFn: func(context.Context, model.QuoteRequest) (*model.Quote, error) {
			return nil, errors.New("connection refused")
		},
	}
	app := newTestApp(be, store.NewMemory(time.Minute, 0), nil)

	_, body := doRequest(t, app, http.MethodPost, "/api/v1/quotes",
		`{"send_currency":"USD","receive_currency":"MXN","send_amount":10}`, "")
	assert.Equal(t, backend.FallbackQuote, body["error"])
}

// ─── GET /api/v1/quotes/:id ───────────────────────────────────────────────────

func TestGetQuoteHandler(t *testing.T) {
	st := store.NewMemory(time.Minute, 0)
	require.NoError(t, st.PutQuote(context.Background(), sampleQuote()))
	app := newTestApp(&mockBackend{}, st, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/api/v1/quotes/q-123", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	lines := body["lines"].([]any)
	assert.Equal(t, "Our Rate", lines[0].(map[string]any)["label"])
	assert.Equal(t, "17.5000", lines[0].(map[string]any)["value"])
	assert.Equal(t, float64(60), body["expires_in_seconds"])

	resp, body = doRequest(t, app, http.MethodGet, "/api/v1/quotes/unknown", "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, MsgQuoteExpired, body["error"])
}

// ─── POST /api/v1/transfers ───────────────────────────────────────────────────

func TestCreateTransferHandler_Success(t *testing.T) {
	st := store.NewMemory(time.Minute, 0)
	require.NoError(t, st.PutQuote(context.Background(), sampleQuote()))
	events := &mockEvents{}
	be := &mockBackend{
		executeFn: func(_ context.Context, token string, req model.TransferRequest) (*model.TransferResult, error) {
			assert.Equal(t, "tok-1", token)
			assert.Equal(t, "q-123", req.QuoteID)
			assert.Equal(t, "bob@example.com", req.ReceiverEmail)
			return &model.TransferResult{TransactionID: "tx-9", Status: "completed"}, nil
		},
	}
	app := newTestApp(be, st, events)

	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/transfers",
		`{"quote_id":"q-123","receiver_email":" bob@example.com "}`, "tok-1")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "tx-9", body["transaction_id"])
	assert.Equal(t, "q-123", body["quote_id"])

	_, err := st.GetQuote(context.Background(), "q-123")
	assert.ErrorIs(t, err, store.ErrNotFound, "executed quote is evicted")

	require.Len(t, events.events, 1)
	evt := events.events[0].payload.(model.TransferExecuted)
	assert.Equal(t, "tx-9", evt.TransactionID)
	assert.Equal(t, "b***@example.com", evt.ReceiverEmail)
	assert.Equal(t, correlationID("q-123"), events.events[0].correlationID)
}

func TestCreateTransferHandler_RequiresBearer(t *testing.T) {
	app := newTestApp(&mockBackend{}, store.NewMemory(time.Minute, 0), nil)
	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/transfers",
		`{"quote_id":"q-123","receiver_email":"bob@example.com"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, MsgAuthRequired, body["error"])
}

func TestCreateTransferHandler_Validation(t *testing.T) {
	app := newTestApp(&mockBackend{}, store.NewMemory(time.Minute, 0), nil)

	_, body := doRequest(t, app, http.MethodPost, "/api/v1/transfers", `{"quote_id":"q-1"}`, "tok")
	assert.Equal(t, "Please enter receiver email", body["error"])

	_, body = doRequest(t, app, http.MethodPost, "/api/v1/transfers", `{"receiver_email":"a@b.c"}`, "tok")
	assert.Equal(t, "Please get a quote first", body["error"])
}

func TestCreateTransferHandler_ExpiredQuote(t *testing.T) {
	app := newTestApp(&mockBackend{}, store.NewMemory(time.Minute, 0), nil)
	resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/transfers",
		`{"quote_id":"gone","receiver_email":"bob@example.com"}`, "tok")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateTransferHandler_BackendUnauthorized(t *testing.T) {
	st := store.NewMemory(time.Minute, 0)
	require.NoError(t, st.PutQuote(context.Background(), sampleQuote()))
	be := &mockBackend{
		executeFn: func(context.Context, string, model.TransferRequest) (*model.TransferResult, error) {
			return nil, &backend.APIError{Op: "transfer_execute", Status: 401, Detail: "Invalid token", Fallback: backend.FallbackTransfer}
		},
	}
	app := newTestApp(be, st, nil)

	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/transfers",
		`{"quote_id":"q-123","receiver_email":"bob@example.com"}`, "expired")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid token", body["error"])

	_, err := st.GetQuote(context.Background(), "q-123")
	assert.NoError(t, err, "failed transfer keeps the quote")
}

// ─── GET /api/v1/transfers ────────────────────────────────────────────────────

func historyBackend() *mockBackend {
	return &mockBackend{
		historyFn: func(_ context.Context, token string) ([]model.Transaction, error) {
			return []model.Transaction{
				{TransactionID: "a", SentAmount: 100, SentCurrency: "USD", ReceivedAmount: 1750, ReceivedCurrency: "MXN", Rate: 17.5, Timestamp: "2025-03-01T10:00:00"},
				{TransactionID: "b", SentAmount: 300, SentCurrency: "EUR", ReceivedAmount: 325, ReceivedCurrency: "USD", Rate: 1.0833, Timestamp: "2025-03-02T10:00:00"},
			}, nil
		},
	}
}

func TestListTransfersHandler(t *testing.T) {
	app := newTestApp(historyBackend(), store.NewMemory(time.Minute, 0), nil)

	resp, body := doRequest(t, app, http.MethodGet, "/api/v1/transfers?filter=sent&sort=amount", "", "tok")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	txs := body["transactions"].([]any)
	require.Len(t, txs, 1)
	assert.Equal(t, "a", txs[0].(map[string]any)["transaction_id"])

	stats := body["stats"].(map[string]any)
	assert.Equal(t, 2.0, stats["total_transactions"])
	assert.Equal(t, 400.0, stats["total_sent"])
}

func TestListTransfersHandler_BadQuery(t *testing.T) {
	app := newTestApp(historyBackend(), store.NewMemory(time.Minute, 0), nil)
	resp, _ := doRequest(t, app, http.MethodGet, "/api/v1/transfers?sort=fee", "", "tok")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/transfers", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestExportTransfersHandler(t *testing.T) {
	app := newTestApp(historyBackend(), store.NewMemory(time.Minute, 0), nil)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/transfers/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.Contains(lines[1], "EUR → USD"), "newest first")
}

// ─── GET /api/v1/dashboard ────────────────────────────────────────────────────

func TestDashboardHandler(t *testing.T) {
	be := historyBackend()
	be.profileFn = func(context.Context, string) (*model.UserProfile, error) {
		return &model.UserProfile{Email: "me@example.com", Balances: map[string]float64{"usd": 12.5, "mxn": 0}}, nil
	}
	app := newTestApp(be, store.NewMemory(time.Minute, 0), nil)

	resp, body := doRequest(t, app, http.MethodGet, "/api/v1/dashboard", "", "tok")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	balances := body["balances"].([]any)
	require.Len(t, balances, 1)
	assert.Equal(t, "$12.50", balances[0].(map[string]any)["display"])
	assert.Len(t, body["recent_transactions"].([]any), 2)
}

func TestDashboardHandler_ProfileFailure(t *testing.T) {
	be := historyBackend()
	be.profileFn = func(context.Context, string) (*model.UserProfile, error) {
		return nil, &backend.APIError{Op: "user_profile", Status: 500, Fallback: backend.FallbackProfile}
	}
	app := newTestApp(be, store.NewMemory(time.Minute, 0), nil)

	resp, body := doRequest(t, app, http.MethodGet, "/api/v1/dashboard", "", "tok")
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, backend.FallbackProfile, body["error"])
}

// ─── /health ──────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	st, err := store.NewRedis(mr.Addr(), "", 0, time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	be := &mockBackend{}
	app := newTestApp(be, st, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	be.healthErr = &backend.APIError{Op: "health", Fallback: backend.FallbackUnavailable}
	resp, body = doRequest(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, backend.FallbackUnavailable, body["checks"].(map[string]any)["backend"])
}
