package converter

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/internal/auth"
	"github.com/Checker-Finance/warp/internal/backend"
	"github.com/Checker-Finance/warp/pkg/model"
	"github.com/Checker-Finance/warp/pkg/utils"
)

// Status is the widget lifecycle state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Notices shown after a successful action.
const (
	NoticeQuote    = "Quote generated successfully!"
	NoticeTransfer = "Transfer executed successfully!"
)

// Execute preconditions.
const (
	MsgLogin    = "Please log in to execute transfers"
	MsgReceiver = "Please enter receiver email"
	MsgNoQuote  = "Please get a quote first"
)

// ErrSuperseded is returned when a response arrives after a newer request
// or an input change. The response is dropped.
var ErrSuperseded = errors.New("converter: response superseded")

// QuoteService is the part of the backend client the widget calls.
type QuoteService interface {
	GetQuote(ctx context.Context, req model.QuoteRequest) (*model.Quote, error)
	ExecuteTransfer(ctx context.Context, token string, req model.TransferRequest) (*model.TransferResult, error)
}

// Inputs is what the user has typed into the widget.
type Inputs struct {
	Amount          string `json:"amount"`
	SendCurrency    string `json:"send_currency"`
	ReceiveCurrency string `json:"receive_currency"`
	ReceiverEmail   string `json:"receiver_email"`
}

// DefaultInputs are the values a fresh widget starts with.
func DefaultInputs() Inputs {
	return Inputs{Amount: "100", SendCurrency: "USD", ReceiveCurrency: "MXN"}
}

// State is a snapshot of the widget.
type State struct {
	Inputs  Inputs       `json:"inputs"`
	Status  Status       `json:"status"`
	Quote   *model.Quote `json:"quote,omitempty"`
	Message string       `json:"message,omitempty"`
	Notice  string       `json:"notice,omitempty"`
	Seq     uint64       `json:"seq"`
}

// Converter is one quick-convert widget. Safe for concurrent use.
type Converter struct {
	logger *zap.Logger
	svc    QuoteService
	tokens auth.TokenSource

	mu    sync.Mutex
	state State
	seq   uint64
}

// New creates a widget in the idle state. tokens may be nil for a
// signed-out widget; quoting works without it.
func New(logger *zap.Logger, svc QuoteService, tokens auth.TokenSource) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		logger: logger,
		svc:    svc,
		tokens: tokens,
		state:  State{Inputs: DefaultInputs(), Status: StatusIdle},
	}
}

// Snapshot returns a copy of the current state.
func (c *Converter) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetAmount updates the send amount.
func (c *Converter) SetAmount(amount string) {
	c.update(func(in *Inputs) { in.Amount = amount })
}

// SetSendCurrency updates the send currency.
func (c *Converter) SetSendCurrency(code string) {
	c.update(func(in *Inputs) { in.SendCurrency = code })
}

// SetReceiveCurrency updates the receive currency.
func (c *Converter) SetReceiveCurrency(code string) {
	c.update(func(in *Inputs) { in.ReceiveCurrency = code })
}

// SwapCurrencies exchanges the send and receive currencies.
func (c *Converter) SwapCurrencies() {
	c.update(func(in *Inputs) {
		in.SendCurrency, in.ReceiveCurrency = in.ReceiveCurrency, in.SendCurrency
	})
}

// SetReceiverEmail updates the receiver. The quote stays valid.
func (c *Converter) SetReceiverEmail(email string) {
	c.mu.Lock()
	c.state.Inputs.ReceiverEmail = email
	c.mu.Unlock()
}

// update applies an input change. A real change drops the quote, returns
// the widget to idle and supersedes any request in flight.
func (c *Converter) update(fn func(*Inputs)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.state.Inputs
	fn(&c.state.Inputs)
	if c.state.Inputs == before {
		return
	}
	c.seq++
	c.state.Seq = c.seq
	c.state.Status = StatusIdle
	c.state.Quote = nil
	c.state.Message = ""
	c.state.Notice = ""
}

// RequestQuote validates the inputs and fetches a quote. Invalid input is
// returned as a *ValidationError without touching state or the network.
// Backend failures land in the error state and are not returned. If a newer
// request or an input change happened meanwhile, the response is dropped
// and ErrSuperseded is returned.
func (c *Converter) RequestQuote(ctx context.Context) (State, error) {
	c.mu.Lock()
	req, err := Validate(c.state.Inputs)
	if err != nil {
		st := c.state
		c.mu.Unlock()
		return st, err
	}
	c.seq++
	seq := c.seq
	c.state.Seq = seq
	c.state.Status = StatusLoading
	c.state.Quote = nil
	c.state.Message = ""
	c.state.Notice = ""
	c.mu.Unlock()

	c.logger.Debug("converter.quote.start",
		zap.Uint64("seq", seq),
		zap.String("pair", req.SendCurrency+"/"+req.ReceiveCurrency),
		zap.Float64("amount", req.SendAmount))

	q, err := c.svc.GetQuote(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Debug("converter.quote.superseded",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", c.seq))
		return c.state, ErrSuperseded
	}
	if err != nil {
		c.state.Status = StatusError
		c.state.Message = backend.Message(err, backend.FallbackQuote)
		c.logger.Warn("converter.quote.failed",
			zap.Uint64("seq", seq),
			zap.Error(err))
		return c.state, nil
	}
	c.state.Status = StatusSuccess
	c.state.Quote = q
	c.state.Notice = NoticeQuote
	return c.state, nil
}

// Execute submits the current quote to the receiver. Preconditions are
// checked in order: signed in, receiver entered, quote present. On success
// the quote and receiver are cleared and the widget returns to idle; on
// failure the quote is kept.
func (c *Converter) Execute(ctx context.Context) (*model.TransferResult, error) {
	if c.tokens == nil {
		return nil, &ValidationError{Msg: MsgLogin}
	}
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		c.logger.Debug("converter.execute.no_token", zap.Error(err))
		return nil, &ValidationError{Msg: MsgLogin}
	}

	c.mu.Lock()
	receiver := strings.TrimSpace(c.state.Inputs.ReceiverEmail)
	q := c.state.Quote
	seq := c.seq
	c.mu.Unlock()

	if receiver == "" {
		return nil, &ValidationError{Msg: MsgReceiver}
	}
	if q == nil {
		return nil, &ValidationError{Msg: MsgNoQuote}
	}

	res, err := c.svc.ExecuteTransfer(ctx, token, model.TransferRequest{
		QuoteID:       q.QuoteID,
		ReceiverEmail: receiver,
	})
	if err != nil {
		c.logger.Warn("converter.execute.failed",
			zap.String("quote_id", q.QuoteID),
			zap.String("receiver", utils.MaskEmail(receiver)),
			zap.Error(err))
		return nil, &ExecuteError{Err: err}
	}

	c.logger.Info("converter.execute.success",
		zap.String("quote_id", q.QuoteID),
		zap.String("transaction_id", res.TransactionID))

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.seq {
		c.seq++
		c.state.Seq = c.seq
		c.state.Quote = nil
		c.state.Inputs.ReceiverEmail = ""
		c.state.Status = StatusIdle
		c.state.Message = ""
		c.state.Notice = NoticeTransfer
	}
	return res, nil
}
