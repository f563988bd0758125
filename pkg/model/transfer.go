package model

import (
	"strings"
	"time"
)

// ────────────────────────────────────────────────────────────────
// Transfers
// ────────────────────────────────────────────────────────────────

// TransferRequest is the body of POST /transfer/execute.
type TransferRequest struct {
	QuoteID       string `json:"quote_id"`
	ReceiverEmail string `json:"receiver_email"`
}

// TransferResult is the backend's answer to a transfer execution.
type TransferResult struct {
	TransactionID       string `json:"transaction_id"`
	Status              string `json:"status"`
	Message             string `json:"message"`
	Timestamp           string `json:"timestamp"`
	StripePaymentID     string `json:"stripe_payment_id,omitempty"`
	StripePaymentStatus string `json:"stripe_payment_status,omitempty"`
}

// Transaction is one row of GET /transfer/history.
type Transaction struct {
	TransactionID    string  `json:"transaction_id"`
	SenderID         string  `json:"sender_id,omitempty"`
	ReceiverEmail    string  `json:"receiver_email"`
	SentAmount       float64 `json:"sent_amount"`
	SentCurrency     string  `json:"sent_currency"`
	ReceivedAmount   float64 `json:"received_amount"`
	ReceivedCurrency string  `json:"received_currency"`
	Rate             float64 `json:"rate"`
	Timestamp        string  `json:"timestamp"`
}

// timestamp layouts emitted by the backend: RFC 3339 and Python's
// isoformat() without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// Time parses Timestamp. Unparseable values return the zero time so they
// sort last in descending order.
func (t Transaction) Time() time.Time {
	ts := strings.TrimSpace(t.Timestamp)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, ts); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// ────────────────────────────────────────────────────────────────
// User profile
// ────────────────────────────────────────────────────────────────

// UserProfile is the body of GET /user/me.
type UserProfile struct {
	Email       string             `json:"email"`
	DisplayName string             `json:"display_name,omitempty"`
	Balances    map[string]float64 `json:"balances"`
}
