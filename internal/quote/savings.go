package quote

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/warp/pkg/model"
)

// Savings is the advantage of our amount over the mid-market amount.
// Nil fields mean "not available" and must be rendered as nothing.
type Savings struct {
	Amount *float64 `json:"amount"`
	Pct    *float64 `json:"pct"`
}

// ComputeSavings returns our_amount - mid_market_amount and its percentage
// of mid_market_amount. A missing mid-market reference yields no savings;
// a zero reference yields an amount with no percentage.
func ComputeSavings(q *model.Quote) Savings {
	if q == nil || !finite(q.MidMarketAmount) || !finite(q.OurAmount) {
		return Savings{}
	}

	ours := decimal.NewFromFloat(*q.OurAmount)
	mid := decimal.NewFromFloat(*q.MidMarketAmount)
	diff := ours.Sub(mid)

	amount := diff.InexactFloat64()
	s := Savings{Amount: &amount}
	if mid.IsZero() {
		return s
	}

	pct := diff.DivRound(mid, 12).Mul(decimal.NewFromInt(100)).InexactFloat64()
	s.Pct = &pct
	return s
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
