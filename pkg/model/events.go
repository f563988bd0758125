package model

import (
	"time"

	"github.com/google/uuid"
)

// Event types published on the bus.
const (
	EventQuotePresented   = "quote.presented"
	EventTransferExecuted = "transfer.executed"
)

// Envelope wraps every event published by the gateway.
type Envelope struct {
	ID            uuid.UUID `json:"id"`
	EventType     string    `json:"event_type"`
	CorrelationID uuid.UUID `json:"correlation_id"`
	Service       string    `json:"service"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       any       `json:"payload"`
}

// NewEnvelope stamps a payload with fresh identifiers. A nil correlation
// ID starts a new correlation chain.
func NewEnvelope(eventType, service string, correlationID uuid.UUID, payload any) Envelope {
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}
	return Envelope{
		ID:            uuid.New(),
		EventType:     eventType,
		CorrelationID: correlationID,
		Service:       service,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}
}

// QuotePresented is emitted when a quote has been shown to a user.
type QuotePresented struct {
	QuoteID         string   `json:"quote_id"`
	SendCurrency    string   `json:"send_currency"`
	ReceiveCurrency string   `json:"receive_currency"`
	SendAmount      float64  `json:"send_amount"`
	OurAmount       *float64 `json:"our_amount,omitempty"`
	SavingsAmount   *float64 `json:"savings_amount,omitempty"`
	BestRoute       string   `json:"best_route,omitempty"`
	RouteCount      int      `json:"route_count"`
}

// TransferExecuted is emitted after the backend accepted a transfer.
type TransferExecuted struct {
	TransactionID   string `json:"transaction_id"`
	QuoteID         string `json:"quote_id"`
	Status          string `json:"status"`
	ReceiverEmail   string `json:"receiver_email"`
	SendCurrency    string `json:"send_currency,omitempty"`
	ReceiveCurrency string `json:"receive_currency,omitempty"`
}
