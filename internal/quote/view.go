package quote

import (
	"github.com/Checker-Finance/warp/internal/format"
	"github.com/Checker-Finance/warp/pkg/model"
)

// Line is a labelled value of the result panel.
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// View is the render-ready result panel for a quote. Optional sections
// are empty strings when their data is unavailable.
type View struct {
	QuoteID         string     `json:"quote_id"`
	Pair            Pair       `json:"pair"`
	OurRate         string     `json:"our_rate"`
	YouReceive      string     `json:"you_receive"`
	MidMarketRate   string     `json:"mid_market_rate,omitempty"`
	MidMarketAmount string     `json:"mid_market_amount,omitempty"`
	Advantage       string     `json:"advantage,omitempty"`
	SearchTime      string     `json:"search_time,omitempty"`
	SelectedRoute   string     `json:"selected_route,omitempty"`
	Savings         Savings    `json:"savings"`
	Routes          Comparison `json:"routes"`
}

// BuildView derives the whole result panel from a quote.
func BuildView(q *model.Quote, fallback Pair) View {
	if q == nil {
		return View{Pair: fallback, OurRate: format.Placeholder, YouReceive: format.Placeholder,
			Routes: Comparison{Rows: []RouteRow{}}}
	}

	pair := pairOf(q, fallback)
	v := View{
		QuoteID:    q.QuoteID,
		Pair:       pair,
		OurRate:    format.Rate(format.Maybe(q.OurRate)),
		YouReceive: format.Currency(format.Maybe(q.OurAmount), pair.Receive),
		SearchTime: format.Duration(format.Maybe(q.ProcessingTimeMS)),
		Routes:     Compare(q, fallback),
	}
	if finite(q.MidMarketRate) {
		v.MidMarketRate = format.Rate(*q.MidMarketRate)
	}
	if finite(q.MidMarketAmount) {
		v.MidMarketAmount = format.Currency(*q.MidMarketAmount, pair.Receive)
	}

	v.Savings = ComputeSavings(q)
	if v.Savings.Amount != nil && v.Savings.Pct != nil {
		v.Advantage = format.SignedCurrency(*v.Savings.Amount, pair.Receive) +
			" (" + format.SignedPercent(*v.Savings.Pct) + ")"
	}

	if best := Normalize(q).BestRoute; best != nil {
		v.SelectedRoute = best.Path
	}
	return v
}

// Lines returns the populated panel lines in display order.
func (v View) Lines() []Line {
	lines := []Line{
		{Label: "Our Rate", Value: v.OurRate},
		{Label: "You'll Receive", Value: v.YouReceive},
	}
	optional := []Line{
		{Label: "Mid-Market Rate", Value: v.MidMarketRate},
		{Label: "Mid-Market Receive", Value: v.MidMarketAmount},
		{Label: "Your Advantage", Value: v.Advantage},
		{Label: "Route Search Time", Value: v.SearchTime},
		{Label: "Selected Route", Value: v.SelectedRoute},
	}
	for _, l := range optional {
		if l.Value != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
