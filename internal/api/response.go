package api

import (
	"github.com/Checker-Finance/warp/internal/account"
	"github.com/Checker-Finance/warp/internal/history"
	"github.com/Checker-Finance/warp/internal/quote"
	"github.com/Checker-Finance/warp/pkg/model"
)

// QuoteResponse carries the raw quote and its rendered view.
type QuoteResponse struct {
	Quote *model.Quote       `json:"quote"`
	View  quote.View         `json:"view"`
	Lines []quote.Line       `json:"lines"`
	Best  *model.RouteOption `json:"best_route,omitempty"`
	// ExpiresIn is the whole seconds left before the cached quote lapses.
	ExpiresIn *int64 `json:"expires_in_seconds,omitempty"`
}

// TransferResponse is returned after a successful execution.
type TransferResponse struct {
	model.TransferResult
	QuoteID string `json:"quote_id"`
}

// HistoryResponse lists transactions with stats over the full history.
type HistoryResponse struct {
	Filter       history.Filter      `json:"filter"`
	Sort         history.SortKey     `json:"sort"`
	Transactions []model.Transaction `json:"transactions"`
	Stats        history.Stats       `json:"stats"`
}

// DashboardResponse is the signed-in landing view.
type DashboardResponse = account.Dashboard
