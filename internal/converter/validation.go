package converter

import (
	"math"
	"strconv"
	"strings"

	"github.com/Checker-Finance/warp/internal/backend"
	"github.com/Checker-Finance/warp/pkg/model"
)

const (
	MsgInvalidAmount  = "Please enter a valid amount"
	MsgSameCurrencies = "Send and receive currencies must be different"
)

// ValidationError is a user-facing precondition failure. No request was
// sent.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ExecuteError wraps a failed transfer. Its message is always the generic
// transfer fallback; the cause is kept for logging.
type ExecuteError struct {
	Err error
}

func (e *ExecuteError) Error() string { return backend.FallbackTransfer }

func (e *ExecuteError) Unwrap() error { return e.Err }

// Validate turns widget inputs into a quote request.
func Validate(in Inputs) (model.QuoteRequest, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(in.Amount), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return model.QuoteRequest{}, &ValidationError{Msg: MsgInvalidAmount}
	}

	send := strings.ToUpper(strings.TrimSpace(in.SendCurrency))
	receive := strings.ToUpper(strings.TrimSpace(in.ReceiveCurrency))
	if send == receive {
		return model.QuoteRequest{}, &ValidationError{Msg: MsgSameCurrencies}
	}

	return model.QuoteRequest{
		SendCurrency:    send,
		ReceiveCurrency: receive,
		SendAmount:      amount,
	}, nil
}
