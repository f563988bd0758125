package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/Checker-Finance/warp/internal/account"
	"github.com/Checker-Finance/warp/internal/format"
	"github.com/Checker-Finance/warp/internal/history"
	"github.com/Checker-Finance/warp/internal/quote"
	"github.com/Checker-Finance/warp/pkg/model"
)

const ruleWidth = 60

var (
	titleColor = color.New(color.FgGreen, color.Bold)
	accent     = color.New(color.FgCyan)
	highlight  = color.New(color.FgYellow)
	muted      = color.New(color.Faint)
)

func rule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
}

func banner(w io.Writer, title string) {
	fmt.Fprintln(w)
	rule(w)
	pad := (ruleWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	titleColor.Fprintln(w, strings.Repeat(" ", pad)+title)
	rule(w)
}

func renderQuote(w io.Writer, v quote.View) {
	banner(w, "TRANSFER QUOTE")
	fmt.Fprintf(w, "\n  %-20s %s → %s\n", "Pair:", highlight.Sprint(v.Pair.Send), highlight.Sprint(v.Pair.Receive))
	for _, l := range v.Lines() {
		value := l.Value
		if l.Label == "You'll Receive" || l.Label == "Your Advantage" {
			value = accent.Sprint(value)
		}
		fmt.Fprintf(w, "  %-20s %s\n", l.Label+":", value)
	}

	if len(v.Routes.Rows) > 0 {
		fmt.Fprintln(w, "\n  Routes")
		if v.Routes.Degenerate {
			muted.Fprintln(w, "  (backend did not flag a single best route)")
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, r := range v.Routes.Rows {
			marker := " "
			if r.Selected {
				marker = "*"
			}
			fmt.Fprintf(tw, "  %s %s\t%s\t%s\t%s\t%s\n",
				marker, r.Label, r.Subtitle, r.ProjectedReceive, r.EffectiveRate, r.Delta)
		}
		_ = tw.Flush()
	}
	fmt.Fprintln(w)
	rule(w)
}

func renderTransfer(w io.Writer, res *model.TransferResult) {
	color.New(color.FgGreen).Fprintln(w, "\n✓ Transfer executed successfully!")
	fmt.Fprintf(w, "  Transaction ID: %s\n", accent.Sprint(res.TransactionID))
	if res.Status != "" {
		fmt.Fprintf(w, "  Status:         %s\n", res.Status)
	}
	if res.Message != "" {
		fmt.Fprintf(w, "  Message:        %s\n", res.Message)
	}
}

func renderHistory(w io.Writer, txs []model.Transaction, stats history.Stats) {
	banner(w, "TRANSACTION HISTORY")
	fmt.Fprintf(w, "\n  Transactions: %d   Sent: %s   Received: %s   Avg rate: %s\n\n",
		stats.Count,
		format.Amount(stats.TotalSent, ""),
		format.Amount(stats.TotalReceived, ""),
		format.Rate(stats.AvgRate))

	if len(txs) == 0 {
		muted.Fprintln(w, "  No transactions found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  DATE\tPAIR\tSENT\tRECEIVED\tRATE\tTO")
	for _, t := range txs {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			history.FormatDate(t),
			history.Pair(t),
			format.Amount(t.SentAmount, t.SentCurrency),
			format.Amount(t.ReceivedAmount, t.ReceivedCurrency),
			format.Rate(t.Rate),
			t.ReceiverEmail)
	}
	_ = tw.Flush()
}

func renderDashboard(w io.Writer, d *account.Dashboard) {
	banner(w, "YOUR BALANCES")
	if d.Email != "" {
		fmt.Fprintf(w, "\n  %s\n", muted.Sprint(d.Email))
	}
	fmt.Fprintln(w)
	if len(d.Balances) == 0 {
		muted.Fprintln(w, "  No balances.")
	}
	for _, b := range d.Balances {
		fmt.Fprintf(w, "  %-6s %s\n", highlight.Sprint(b.Currency), b.Display)
	}

	fmt.Fprintln(w, "\n  Recent Transactions")
	if len(d.Recent) == 0 {
		muted.Fprintln(w, "  No transactions yet.")
	}
	for _, t := range d.Recent {
		fmt.Fprintf(w, "  Sent %s to %s  %s\n",
			format.Amount(t.SentAmount, t.SentCurrency),
			t.ReceiverEmail,
			muted.Sprint(history.FormatDate(t)))
	}
	fmt.Fprintln(w)
}
