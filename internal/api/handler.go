package api

import (
	"context"
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/internal/account"
	"github.com/Checker-Finance/warp/internal/auth"
	"github.com/Checker-Finance/warp/internal/backend"
	"github.com/Checker-Finance/warp/internal/history"
	"github.com/Checker-Finance/warp/internal/metrics"
	"github.com/Checker-Finance/warp/internal/quote"
	"github.com/Checker-Finance/warp/internal/store"
	"github.com/Checker-Finance/warp/pkg/model"
	"github.com/Checker-Finance/warp/pkg/utils"
)

// MsgAuthRequired is returned when a bearer-only route is called without one.
const MsgAuthRequired = "Authentication required"

// MsgQuoteExpired is returned when a quote is no longer cached.
const MsgQuoteExpired = "Quote not found or expired"

// Backend defines the backend operations used by the handler.
type Backend interface {
	GetQuote(ctx context.Context, req model.QuoteRequest) (*model.Quote, error)
	ExecuteTransfer(ctx context.Context, token string, req model.TransferRequest) (*model.TransferResult, error)
	TransferHistory(ctx context.Context, token string) ([]model.Transaction, error)
	UserProfile(ctx context.Context, token string) (*model.UserProfile, error)
}

// EventPublisher emits gateway events. It may be nil.
type EventPublisher interface {
	PublishQuotePresented(ctx context.Context, correlationID uuid.UUID, evt model.QuotePresented) error
	PublishTransferExecuted(ctx context.Context, correlationID uuid.UUID, evt model.TransferExecuted) error
}

// GatewayHandler handles HTTP API requests for quotes and transfers.
type GatewayHandler struct {
	logger  *zap.Logger
	backend Backend
	quotes  store.QuoteStore
	events  EventPublisher
}

// NewGatewayHandler creates a new GatewayHandler.
func NewGatewayHandler(logger *zap.Logger, be Backend, quotes store.QuoteStore, events EventPublisher) *GatewayHandler {
	return &GatewayHandler{
		logger:  logger,
		backend: be,
		quotes:  quotes,
		events:  events,
	}
}

// correlationID ties every event about one quote together.
func correlationID(quoteID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("warp.quote:"+quoteID))
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// backendFailure maps a backend error to the gateway response. A rejected
// token passes through as 401, everything else is a 502.
func backendFailure(c *fiber.Ctx, err error, fallback string) error {
	code := fiber.StatusBadGateway
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		code = fiber.StatusUnauthorized
	}
	return c.Status(code).JSON(fiber.Map{"error": backend.Message(err, fallback)})
}

func bearer(c *fiber.Ctx) (string, bool) {
	return auth.BearerToken(c.Get(fiber.HeaderAuthorization))
}

func (h *GatewayHandler) render(q *model.Quote, fallback quote.Pair) QuoteResponse {
	v := quote.BuildView(q, fallback)
	return QuoteResponse{
		Quote: q,
		View:  v,
		Lines: v.Lines(),
		Best:  quote.Normalize(q).BestRoute,
	}
}

// expiresIn returns the cached quote's remaining lifetime rounded up to whole
// seconds, or nil when it is unknown.
func (h *GatewayHandler) expiresIn(ctx context.Context, quoteID string) *int64 {
	d, err := h.quotes.ExpiresIn(ctx, quoteID)
	if err != nil || d <= 0 {
		return nil
	}
	secs := int64(math.Ceil(d.Seconds()))
	return &secs
}

// CreateQuoteHandler validates the request, fetches a quote and caches it
// for execution.
func (h *GatewayHandler) CreateQuoteHandler(c *fiber.Ctx) error {
	var req QuoteCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	qr, err := req.Validate()
	if err != nil {
		metrics.IncQuoteOutcome("invalid")
		return badRequest(c, err.Error())
	}

	ctx := backend.WithCaller(c.UserContext(), c.IP())
	q, err := h.backend.GetQuote(ctx, qr)
	if err != nil {
		metrics.IncQuoteOutcome("failed")
		h.logger.Error("gateway.quote_failed",
			zap.String("pair", qr.SendCurrency+"/"+qr.ReceiveCurrency),
			zap.Error(err))
		return backendFailure(c, err, backend.FallbackQuote)
	}
	metrics.IncQuoteOutcome("ok")

	if q.QuoteID != "" {
		if err := h.quotes.PutQuote(ctx, q); err != nil {
			h.logger.Warn("gateway.quote_cache_failed",
				zap.String("quote_id", q.QuoteID),
				zap.Error(err))
		}
	}

	pair := quote.Pair{Send: qr.SendCurrency, Receive: qr.ReceiveCurrency}
	resp := h.render(q, pair)
	if q.QuoteID != "" {
		resp.ExpiresIn = h.expiresIn(ctx, q.QuoteID)
	}
	h.publishQuotePresented(ctx, q, qr.SendAmount, resp)

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetQuoteHandler re-renders a cached quote.
func (h *GatewayHandler) GetQuoteHandler(c *fiber.Ctx) error {
	quoteID := c.Params("id")
	q, err := h.quotes.GetQuote(c.UserContext(), quoteID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.IncQuoteCache("miss")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": MsgQuoteExpired})
	}
	if err != nil {
		h.logger.Error("gateway.quote_lookup_failed",
			zap.String("quote_id", quoteID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	metrics.IncQuoteCache("hit")
	resp := h.render(q, quote.Pair{})
	resp.ExpiresIn = h.expiresIn(c.UserContext(), quoteID)
	return c.JSON(resp)
}

// CreateTransferHandler executes a cached quote on the caller's behalf.
func (h *GatewayHandler) CreateTransferHandler(c *fiber.Ctx) error {
	token, ok := bearer(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": MsgAuthRequired})
	}

	var req TransferCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.UserContext()
	q, err := h.quotes.GetQuote(ctx, req.QuoteID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.IncQuoteCache("miss")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": MsgQuoteExpired})
	}
	if err != nil {
		h.logger.Error("gateway.quote_lookup_failed",
			zap.String("quote_id", req.QuoteID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	metrics.IncQuoteCache("hit")

	h.logger.Info("gateway.transfer",
		zap.String("quote_id", req.QuoteID),
		zap.String("receiver", utils.MaskEmail(req.ReceiverEmail)))

	res, err := h.backend.ExecuteTransfer(ctx, token, model.TransferRequest{
		QuoteID:       req.QuoteID,
		ReceiverEmail: req.ReceiverEmail,
	})
	if err != nil {
		h.logger.Error("gateway.transfer_failed",
			zap.String("quote_id", req.QuoteID),
			zap.Error(err))
		return backendFailure(c, err, backend.FallbackTransfer)
	}

	if err := h.quotes.DeleteQuote(ctx, req.QuoteID); err != nil {
		h.logger.Warn("gateway.quote_evict_failed",
			zap.String("quote_id", req.QuoteID),
			zap.Error(err))
	}

	if h.events != nil {
		evt := model.TransferExecuted{
			TransactionID:   res.TransactionID,
			QuoteID:         req.QuoteID,
			Status:          res.Status,
			ReceiverEmail:   utils.MaskEmail(req.ReceiverEmail),
			SendCurrency:    q.SendCurrency,
			ReceiveCurrency: q.ReceiveCurrency,
		}
		if err := h.events.PublishTransferExecuted(ctx, correlationID(req.QuoteID), evt); err != nil {
			h.logger.Warn("gateway.event_publish_failed",
				zap.String("event_type", model.EventTransferExecuted),
				zap.Error(err))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(TransferResponse{TransferResult: *res, QuoteID: req.QuoteID})
}

// ListTransfersHandler returns the caller's filtered and sorted history.
func (h *GatewayHandler) ListTransfersHandler(c *fiber.Ctx) error {
	token, ok := bearer(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": MsgAuthRequired})
	}
	filter, err := history.ParseFilter(c.Query("filter"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	sortKey, err := history.ParseSort(c.Query("sort"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	txs, err := h.backend.TransferHistory(c.UserContext(), token)
	if err != nil {
		h.logger.Error("gateway.history_failed", zap.Error(err))
		return backendFailure(c, err, backend.FallbackHistory)
	}

	return c.JSON(HistoryResponse{
		Filter:       filter,
		Sort:         sortKey,
		Transactions: history.Apply(txs, filter, sortKey),
		Stats:        history.Summarize(txs),
	})
}

// ExportTransfersHandler streams the filtered history as CSV.
func (h *GatewayHandler) ExportTransfersHandler(c *fiber.Ctx) error {
	token, ok := bearer(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": MsgAuthRequired})
	}
	filter, err := history.ParseFilter(c.Query("filter"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	sortKey, err := history.ParseSort(c.Query("sort"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	txs, err := h.backend.TransferHistory(c.UserContext(), token)
	if err != nil {
		h.logger.Error("gateway.history_failed", zap.Error(err))
		return backendFailure(c, err, backend.FallbackHistory)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="warp-transactions.csv"`)
	return history.WriteCSV(c, history.Apply(txs, filter, sortKey))
}

// DashboardHandler returns balances and recent transactions.
func (h *GatewayHandler) DashboardHandler(c *fiber.Ctx) error {
	token, ok := bearer(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": MsgAuthRequired})
	}

	d, err := account.LoadDashboard(c.UserContext(), h.backend, token)
	if err != nil {
		h.logger.Error("gateway.dashboard_failed", zap.Error(err))
		return backendFailure(c, err, backend.FallbackProfile)
	}
	return c.JSON(d)
}

func (h *GatewayHandler) publishQuotePresented(ctx context.Context, q *model.Quote, sendAmount float64, resp QuoteResponse) {
	if h.events == nil || q.QuoteID == "" {
		return
	}
	evt := model.QuotePresented{
		QuoteID:         q.QuoteID,
		SendCurrency:    resp.View.Pair.Send,
		ReceiveCurrency: resp.View.Pair.Receive,
		SendAmount:      sendAmount,
		OurAmount:       q.OurAmount,
		SavingsAmount:   resp.View.Savings.Amount,
		RouteCount:      len(resp.View.Routes.Rows),
	}
	if resp.Best != nil {
		evt.BestRoute = resp.Best.Chain
	}
	if err := h.events.PublishQuotePresented(ctx, correlationID(q.QuoteID), evt); err != nil {
		h.logger.Warn("gateway.event_publish_failed",
			zap.String("event_type", model.EventQuotePresented),
			zap.Error(err))
	}
}
