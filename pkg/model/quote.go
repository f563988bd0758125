package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

var errInvalidJSON = errors.New("model: invalid JSON payload")

// ────────────────────────────────────────────────────────────────
// Quote request / response (quoting backend contract)
// ────────────────────────────────────────────────────────────────

// QuoteRequest is the body of POST /quote.
type QuoteRequest struct {
	SendCurrency    string  `json:"send_currency"`
	ReceiveCurrency string  `json:"receive_currency"`
	SendAmount      float64 `json:"send_amount"`
}

// Quote is a priced offer returned by the quoting backend.
// Optional numeric fields are nil when the backend omitted them, sent null,
// or sent a value that is not a finite JSON number.
type Quote struct {
	QuoteID          string        `json:"quote_id"`
	SendCurrency     string        `json:"send_currency"`
	ReceiveCurrency  string        `json:"receive_currency"`
	SendAmount       *float64      `json:"send_amount,omitempty"`
	OurRate          *float64      `json:"our_rate,omitempty"`
	OurAmount        *float64      `json:"our_amount,omitempty"`
	MidMarketRate    *float64      `json:"mid_market_rate,omitempty"`
	MidMarketAmount  *float64      `json:"mid_market_amount,omitempty"`
	ProcessingTimeMS *float64      `json:"processing_time_ms,omitempty"`
	RouteOptions     []RouteOption `json:"route_options,omitempty"`
	CryptoPath       *CryptoPath   `json:"crypto_path,omitempty"`
	Timestamp        string        `json:"timestamp,omitempty"`
}

// RouteOption is one candidate execution path considered for a quote.
type RouteOption struct {
	Chain                     string   `json:"chain,omitempty"`
	Path                      string   `json:"path,omitempty"`
	IsBest                    bool     `json:"is_best,omitempty"`
	FinalAmount               *float64 `json:"final_amount,omitempty"`
	ExpectedFinalAmount       *float64 `json:"expected_final_amount,omitempty"`
	ProjectedBatchedAmount    *float64 `json:"projected_batched_amount,omitempty"`
	EffectiveRate             *float64 `json:"effective_rate,omitempty"`
	ProjectedBatchedRate      *float64 `json:"projected_batched_rate,omitempty"`
	DifferenceFromBest        *float64 `json:"difference_from_best,omitempty"`
	DifferenceFromBestBatched *float64 `json:"difference_from_best_batched,omitempty"`
	DifferencePct             *float64 `json:"difference_pct,omitempty"`
}

// CryptoPath is the legacy nested payload shape. It flattens the selected
// route's fields and may additionally carry best_path and routes.
type CryptoPath struct {
	RouteOption
	BestPath         *RouteOption  `json:"best_path,omitempty"`
	Routes           []RouteOption `json:"routes,omitempty"`
	ProcessingTimeMS *float64      `json:"processing_time_ms,omitempty"`
	Error            string        `json:"error,omitempty"`
}

// UnmarshalJSON decodes a quote leniently: unknown fields are ignored and
// wrongly typed optional fields resolve to their zero value.
func (q *Quote) UnmarshalJSON(data []byte) error {
	obj, err := objectFields(data)
	if err != nil {
		return err
	}
	*q = Quote{
		QuoteID:          str(obj["quote_id"]),
		SendCurrency:     str(obj["send_currency"]),
		ReceiveCurrency:  str(obj["receive_currency"]),
		SendAmount:       num(obj["send_amount"]),
		OurRate:          num(obj["our_rate"]),
		OurAmount:        num(obj["our_amount"]),
		MidMarketRate:    num(obj["mid_market_rate"]),
		MidMarketAmount:  num(obj["mid_market_amount"]),
		ProcessingTimeMS: num(obj["processing_time_ms"]),
		RouteOptions:     routes(obj["route_options"]),
		CryptoPath:       cryptoPath(obj["crypto_path"]),
		Timestamp:        str(obj["timestamp"]),
	}
	return nil
}

// UnmarshalJSON decodes a route leniently. A non-object value yields a
// zero RouteOption.
func (r *RouteOption) UnmarshalJSON(data []byte) error {
	obj, err := objectFields(data)
	if err != nil {
		return err
	}
	*r = routeFrom(obj)
	return nil
}

// UnmarshalJSON is declared on CryptoPath so the promoted RouteOption
// decoder does not swallow best_path and routes.
func (c *CryptoPath) UnmarshalJSON(data []byte) error {
	obj, err := objectFields(data)
	if err != nil {
		return err
	}
	*c = cryptoPathFrom(obj)
	return nil
}

func routeFrom(obj map[string]json.RawMessage) RouteOption {
	return RouteOption{
		Chain:                     str(obj["chain"]),
		Path:                      str(obj["path"]),
		IsBest:                    boolean(obj["is_best"]),
		FinalAmount:               num(obj["final_amount"]),
		ExpectedFinalAmount:       num(obj["expected_final_amount"]),
		ProjectedBatchedAmount:    num(obj["projected_batched_amount"]),
		EffectiveRate:             num(obj["effective_rate"]),
		ProjectedBatchedRate:      num(obj["projected_batched_rate"]),
		DifferenceFromBest:        num(obj["difference_from_best"]),
		DifferenceFromBestBatched: num(obj["difference_from_best_batched"]),
		DifferencePct:             num(obj["difference_pct"]),
	}
}

func cryptoPathFrom(obj map[string]json.RawMessage) CryptoPath {
	cp := CryptoPath{
		RouteOption:      routeFrom(obj),
		Routes:           routes(obj["routes"]),
		ProcessingTimeMS: num(obj["processing_time_ms"]),
		Error:            str(obj["error"]),
	}
	if best, ok := asObject(obj["best_path"]); ok {
		r := routeFrom(best)
		cp.BestPath = &r
	}
	return cp
}

func cryptoPath(raw json.RawMessage) *CryptoPath {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}
	cp := cryptoPathFrom(obj)
	return &cp
}

// objectFields returns the members of a JSON object. Non-object input
// (null, arrays, scalars) decodes to an empty set of members; only
// syntactically broken JSON is an error.
func objectFields(data []byte) (map[string]json.RawMessage, error) {
	if !json.Valid(data) {
		return nil, errInvalidJSON
	}
	obj, _ := asObject(data)
	return obj, nil
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func routes(raw json.RawMessage) []RouteOption {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}
	out := make([]RouteOption, 0, len(items))
	for _, item := range items {
		obj, _ := asObject(item)
		out = append(out, routeFrom(obj))
	}
	return out
}

func num(raw json.RawMessage) *float64 {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	c := trimmed[0]
	if c != '-' && (c < '0' || c > '9') {
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func str(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func boolean(raw json.RawMessage) bool {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

// Float returns a pointer to v. Handy for building quotes in code and tests.
func Float(v float64) *float64 {
	return &v
}
