package quote

import (
	"math"
	"strconv"
	"strings"

	"github.com/Checker-Finance/warp/internal/format"
	"github.com/Checker-Finance/warp/pkg/model"
)

// Epsilon is the tie tolerance: a route whose difference from the best is
// smaller than this is labelled as the best route.
const Epsilon = 1e-6

// BestRouteLabel is shown for the best route and for numerical ties.
const BestRouteLabel = "Best route"

// Pair is a send/receive currency pair.
type Pair struct {
	Send    string `json:"send"`
	Receive string `json:"receive"`
}

// RouteRow is one line of the route comparison table.
type RouteRow struct {
	Key              string   `json:"key"`
	Label            string   `json:"label"`
	Subtitle         string   `json:"subtitle"`
	Selected         bool     `json:"selected"`
	ProjectedReceive string   `json:"projected_receive"`
	EffectiveRate    string   `json:"effective_rate"`
	Delta            string   `json:"delta"`
	DiffAmount       *float64 `json:"diff_amount,omitempty"`
	DiffPct          *float64 `json:"diff_pct,omitempty"`
}

// Comparison is the full route table for a quote.
type Comparison struct {
	Rows []RouteRow `json:"rows"`
	// Degenerate is set when the payload does not flag exactly one best route.
	Degenerate bool `json:"degenerate"`
}

// DiffAmount returns difference_from_best_batched, falling back to
// difference_from_best. Nil means no data, not zero.
func DiffAmount(r model.RouteOption) *float64 {
	if r.DifferenceFromBestBatched != nil {
		return r.DifferenceFromBestBatched
	}
	return r.DifferenceFromBest
}

// DifferenceLabel renders a route's delta versus the best route. Both
// figures are displayed negated: a positive difference reads as a loss.
func DifferenceLabel(diff, pct *float64, currency string) string {
	d := format.Maybe(diff)
	if !format.Finite(d) || math.Abs(d) < Epsilon {
		return BestRouteLabel
	}
	p := 0.0
	if pct != nil {
		p = *pct
	}
	return format.SignedCurrency(-d, currency) + " vs best (" + format.SignedPercent(-p) + ")"
}

// RowLabel is the upper-cased chain, or "Path {i+1}".
func RowLabel(r model.RouteOption, i int) string {
	if r.Chain != "" {
		return strings.ToUpper(r.Chain)
	}
	return "Path " + strconv.Itoa(i+1)
}

// RowKey is the chain, or "route-{i}".
func RowKey(r model.RouteOption, i int) string {
	if r.Chain != "" {
		return r.Chain
	}
	return "route-" + strconv.Itoa(i)
}

// RowSubtitle is the route path, or "{send} → {receive}".
func RowSubtitle(r model.RouteOption, p Pair) string {
	if r.Path != "" {
		return r.Path
	}
	return p.Send + " → " + p.Receive
}

// Compare builds one row per displayed route, the best route included.
// fallback supplies currencies the quote itself does not carry.
func Compare(q *model.Quote, fallback Pair) Comparison {
	n := Normalize(q)
	pair := pairOf(q, fallback)

	c := Comparison{Rows: make([]RouteRow, 0, len(n.Routes))}
	best := 0
	for i, r := range n.Routes {
		if r.IsBest {
			best++
		}
		diff := DiffAmount(r)
		c.Rows = append(c.Rows, RouteRow{
			Key:              RowKey(r, i),
			Label:            RowLabel(r, i),
			Subtitle:         RowSubtitle(r, pair),
			Selected:         r.IsBest,
			ProjectedReceive: format.Currency(format.Maybe(first(r.ProjectedBatchedAmount, r.ExpectedFinalAmount)), pair.Receive),
			EffectiveRate:    format.Rate(format.Maybe(first(r.ProjectedBatchedRate, r.EffectiveRate))),
			Delta:            DifferenceLabel(diff, r.DifferencePct, pair.Receive),
			DiffAmount:       diff,
			DiffPct:          r.DifferencePct,
		})
	}
	c.Degenerate = len(n.Routes) > 0 && best != 1
	return c
}

func pairOf(q *model.Quote, fallback Pair) Pair {
	p := fallback
	if q == nil {
		return p
	}
	if q.SendCurrency != "" {
		p.Send = q.SendCurrency
	}
	if q.ReceiveCurrency != "" {
		p.Receive = q.ReceiveCurrency
	}
	return p
}

func first(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
