package history

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Checker-Finance/warp/internal/format"
	"github.com/Checker-Finance/warp/pkg/model"
)

// exportStatus is what every exported row reports; the history endpoint
// only returns settled transfers.
const exportStatus = "Completed"

var exportHeader = []string{"Date", "Type", "Sent Amount", "Received Amount", "Rate", "Status"}

// DateLayout is how timestamps are shown in lists and exports.
const DateLayout = "Jan 2, 2006, 03:04 PM"

// FormatDate renders a transaction timestamp, or the raw string when it
// cannot be parsed.
func FormatDate(t model.Transaction) string {
	ts := t.Time()
	if ts.IsZero() {
		return t.Timestamp
	}
	return ts.Format(DateLayout)
}

// Pair renders "USD → MXN".
func Pair(t model.Transaction) string {
	return t.SentCurrency + " → " + t.ReceivedCurrency
}

// WriteCSV writes txs as a CSV export with a header row.
func WriteCSV(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, t := range txs {
		row := []string{
			FormatDate(t),
			Pair(t),
			format.Amount(t.SentAmount, t.SentCurrency),
			format.Amount(t.ReceivedAmount, t.ReceivedCurrency),
			strconv.FormatFloat(t.Rate, 'f', 4, 64),
			exportStatus,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
