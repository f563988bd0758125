// Package format renders amounts, rates and deltas for display.
// Every function is pure and degrades to Placeholder instead of failing.
package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder is rendered for absent or non-finite values.
const Placeholder = "--"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"MXN": "$",
	"JPY": "¥",
	"CAD": "C$",
	"AUD": "A$",
}

// Symbol returns the display symbol for a currency code. Lookup is
// case-insensitive; unknown codes fall back to the upper-cased code.
func Symbol(code string) string {
	upper := strings.ToUpper(strings.TrimSpace(code))
	if s, ok := symbols[upper]; ok {
		return s
	}
	return upper
}

// Finite reports whether v is a usable number.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Maybe unwraps an optional value, mapping nil to NaN so it renders as
// Placeholder.
func Maybe(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Currency renders "{symbol} {|amount|}" with two decimals and comma
// thousands grouping, e.g. "$ 1,234.50".
func Currency(amount float64, code string) string {
	if !Finite(amount) {
		return Placeholder
	}
	return Symbol(code) + " " + grouped(math.Abs(amount), 2)
}

// SignedCurrency prefixes Currency with "+" for amount >= 0, "-" otherwise.
func SignedCurrency(amount float64, code string) string {
	if !Finite(amount) {
		return Placeholder
	}
	return sign(amount) + Currency(amount, code)
}

// Rate renders an exchange rate with four decimals.
func Rate(rate float64) string {
	if !Finite(rate) {
		return Placeholder
	}
	return strconv.FormatFloat(rate, 'f', 4, 64)
}

// SignedPercent renders "+2.94%" / "-0.28%".
func SignedPercent(v float64) string {
	if !Finite(v) {
		return Placeholder
	}
	return sign(v) + strconv.FormatFloat(math.Abs(v), 'f', 2, 64) + "%"
}

// Amount is the compact rendering used by history and balance lists:
// symbol glued to the signed value, no grouping ("$1234.50").
func Amount(amount float64, code string) string {
	if !Finite(amount) {
		return Placeholder
	}
	return Symbol(code) + strconv.FormatFloat(amount, 'f', 2, 64)
}

// Duration renders a route search time in whole milliseconds, or "" when
// the value is absent.
func Duration(ms float64) string {
	if !Finite(ms) {
		return ""
	}
	return strconv.FormatFloat(math.Floor(ms+0.5), 'f', 0, 64) + " ms"
}

func sign(v float64) string {
	if v >= 0 {
		return "+"
	}
	return "-"
}

// grouped formats a non-negative value with fixed places and comma
// thousands separators. Rounding is half away from zero on the shortest
// decimal representation of v.
func grouped(v float64, places int32) string {
	s := decimal.NewFromFloat(v).StringFixed(places)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
