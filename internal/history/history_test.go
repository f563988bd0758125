package history

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/warp/pkg/model"
)

func sampleTxs() []model.Transaction {
	return []model.Transaction{
		{TransactionID: "a", SentAmount: 100, SentCurrency: "USD", ReceivedAmount: 1750, ReceivedCurrency: "MXN", Rate: 17.5, Timestamp: "2025-03-01T10:00:00"},
		{TransactionID: "b", SentAmount: 50, SentCurrency: "EUR", ReceivedAmount: 54.2, ReceivedCurrency: "usd", Rate: 1.084, Timestamp: "2025-03-03T09:30:00Z"},
		{TransactionID: "c", SentAmount: 300, SentCurrency: "usd", ReceivedAmount: 276.9, ReceivedCurrency: "EUR", Rate: 0.923, Timestamp: "2025-03-02T12:00:00.123456"},
		{TransactionID: "d", SentAmount: 100, SentCurrency: "GBP", ReceivedAmount: 127, ReceivedCurrency: "CAD", Rate: 1.27, Timestamp: "not a date"},
	}
}

func ids(txs []model.Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.TransactionID
	}
	return out
}

// ─── Parsing ───

func TestParseFilter(t *testing.T) {
	for in, want := range map[string]Filter{"": FilterAll, "ALL": FilterAll, "sent": FilterSent, " Received ": FilterReceived} {
		got, err := ParseFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFilter("pending")
	assert.Error(t, err)
}

func TestParseSort(t *testing.T) {
	for in, want := range map[string]SortKey{"": SortDate, "date": SortDate, "AMOUNT": SortAmount, "rate": SortRate} {
		got, err := ParseSort(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSort("fee")
	assert.Error(t, err)
}

// ─── Apply ───

func TestApply_Filters(t *testing.T) {
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(Apply(sampleTxs(), FilterAll, SortDate)))
	assert.Equal(t, []string{"c", "a"}, ids(Apply(sampleTxs(), FilterSent, SortDate)))
	assert.Equal(t, []string{"b"}, ids(Apply(sampleTxs(), FilterReceived, SortDate)))
}

func TestApply_SortAmountIsStable(t *testing.T) {
	// a and d both sent 100; a comes first in the input
	assert.Equal(t, []string{"c", "a", "d", "b"}, ids(Apply(sampleTxs(), FilterAll, SortAmount)))
}

func TestApply_SortRate(t *testing.T) {
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids(Apply(sampleTxs(), FilterAll, SortRate)))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := sampleTxs()
	_ = Apply(in, FilterSent, SortAmount)
	assert.Equal(t, sampleTxs(), in)
}

// ─── Stats ───

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTxs())
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 550.0, s.TotalSent)
	assert.Equal(t, 2208.1, s.TotalReceived)
	assert.InDelta(t, 5.19425, s.AvgRate, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestRecent(t *testing.T) {
	txs := sampleTxs()
	assert.Equal(t, []string{"a", "b"}, ids(Recent(txs, 2)))
	assert.Len(t, Recent(txs, 10), 4)
	assert.Empty(t, Recent(txs, -1))
	assert.Empty(t, Recent(nil, 5))
}

// ─── Export ───

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTxs()[:1]))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Type,Sent Amount,Received Amount,Rate,Status", lines[0])
	assert.Equal(t, `"Mar 1, 2025, 10:00 AM",USD → MXN,$100.00,$1750.00,17.5000,Completed`, lines[1])
}

func TestFormatDate_Unparseable(t *testing.T) {
	assert.Equal(t, "not a date", FormatDate(sampleTxs()[3]))
}
