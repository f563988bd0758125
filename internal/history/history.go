package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/warp/pkg/model"
)

// Filter selects which transactions are listed.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterSent     Filter = "sent"
	FilterReceived Filter = "received"
)

// SortKey orders the list. Every key sorts descending.
type SortKey string

const (
	SortDate   SortKey = "date"
	SortAmount SortKey = "amount"
	SortRate   SortKey = "rate"
)

// homeCurrency decides the sent/received split.
const homeCurrency = "usd"

// ParseFilter accepts "", "all", "sent" or "received" in any case.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterSent, FilterReceived:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

// ParseSort accepts "", "date", "amount" or "rate" in any case.
func ParseSort(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortDate, nil
	case SortDate, SortAmount, SortRate:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort %q", s)
	}
}

func (f Filter) match(t model.Transaction) bool {
	switch f {
	case FilterSent:
		return strings.EqualFold(t.SentCurrency, homeCurrency)
	case FilterReceived:
		return strings.EqualFold(t.ReceivedCurrency, homeCurrency)
	default:
		return true
	}
}

// Apply returns a filtered, sorted copy of txs. The input is not modified
// and ties keep their original order.
func Apply(txs []model.Transaction, f Filter, by SortKey) []model.Transaction {
	out := make([]model.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.match(t) {
			out = append(out, t)
		}
	}

	var less func(a, b model.Transaction) bool
	switch by {
	case SortAmount:
		less = func(a, b model.Transaction) bool { return a.SentAmount > b.SentAmount }
	case SortRate:
		less = func(a, b model.Transaction) bool { return a.Rate > b.Rate }
	default:
		less = func(a, b model.Transaction) bool { return a.Time().After(b.Time()) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Stats summarizes a transaction list.
type Stats struct {
	Count         int     `json:"total_transactions"`
	TotalSent     float64 `json:"total_sent"`
	TotalReceived float64 `json:"total_received"`
	AvgRate       float64 `json:"avg_rate"`
}

// Summarize totals txs. Sums are taken in decimal; an empty list gives
// all zeros.
func Summarize(txs []model.Transaction) Stats {
	if len(txs) == 0 {
		return Stats{}
	}
	var sent, received, rate decimal.Decimal
	for _, t := range txs {
		sent = sent.Add(decimal.NewFromFloat(t.SentAmount))
		received = received.Add(decimal.NewFromFloat(t.ReceivedAmount))
		rate = rate.Add(decimal.NewFromFloat(t.Rate))
	}
	return Stats{
		Count:         len(txs),
		TotalSent:     sent.InexactFloat64(),
		TotalReceived: received.InexactFloat64(),
		AvgRate:       rate.DivRound(decimal.NewFromInt(int64(len(txs))), 12).InexactFloat64(),
	}
}

// Recent returns at most n transactions from the head of txs, in the
// order the backend sent them.
func Recent(txs []model.Transaction, n int) []model.Transaction {
	if n < 0 {
		n = 0
	}
	if len(txs) < n {
		n = len(txs)
	}
	out := make([]model.Transaction, n)
	copy(out, txs[:n])
	return out
}
