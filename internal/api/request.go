package api

// QuoteCreateRequest is the payload for requesting a quote.
type QuoteCreateRequest struct {
	SendCurrency    string  `json:"send_currency"`
	ReceiveCurrency string  `json:"receive_currency"`
	SendAmount      float64 `json:"send_amount"`
}

// TransferCreateRequest is the payload for executing a cached quote.
type TransferCreateRequest struct {
	QuoteID       string `json:"quote_id"`
	ReceiverEmail string `json:"receiver_email"`
}
