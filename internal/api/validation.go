package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Checker-Finance/warp/internal/converter"
	"github.com/Checker-Finance/warp/pkg/model"
)

// Validate checks the payload with the same rules as the converter widget
// and returns the normalized backend request.
func (r *QuoteCreateRequest) Validate() (model.QuoteRequest, error) {
	if strings.TrimSpace(r.SendCurrency) == "" {
		return model.QuoteRequest{}, fmt.Errorf("send_currency is required")
	}
	if strings.TrimSpace(r.ReceiveCurrency) == "" {
		return model.QuoteRequest{}, fmt.Errorf("receive_currency is required")
	}
	return converter.Validate(converter.Inputs{
		Amount:          strconv.FormatFloat(r.SendAmount, 'f', -1, 64),
		SendCurrency:    r.SendCurrency,
		ReceiveCurrency: r.ReceiveCurrency,
	})
}

// Validate checks that TransferCreateRequest has all required fields.
func (r *TransferCreateRequest) Validate() error {
	r.QuoteID = strings.TrimSpace(r.QuoteID)
	r.ReceiverEmail = strings.TrimSpace(r.ReceiverEmail)
	if r.QuoteID == "" {
		return errors.New(converter.MsgNoQuote)
	}
	if r.ReceiverEmail == "" {
		return errors.New(converter.MsgReceiver)
	}
	return nil
}
