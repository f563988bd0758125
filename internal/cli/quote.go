package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/internal/converter"
	"github.com/Checker-Finance/warp/internal/quote"
	"github.com/Checker-Finance/warp/pkg/model"
)

// parsePairArgs accepts "<amount> <from> <to>" with an optional "to"
// between the currencies.
func parsePairArgs(args []string) (converter.Inputs, error) {
	if len(args) == 4 && strings.EqualFold(args[2], "to") {
		args = []string{args[0], args[1], args[3]}
	}
	if len(args) != 3 {
		return converter.Inputs{}, fmt.Errorf("expected <amount> <send-currency> [to] <receive-currency>")
	}
	return converter.Inputs{
		Amount:          args[0],
		SendCurrency:    args[1],
		ReceiveCurrency: args[2],
	}, nil
}

func (a *app) newConverter(in converter.Inputs) *converter.Converter {
	conv := converter.New(a.logger, a.client, a.tokens)
	conv.SetAmount(in.Amount)
	conv.SetSendCurrency(in.SendCurrency)
	conv.SetReceiveCurrency(in.ReceiveCurrency)
	return conv
}

// fetchQuote drives the widget through one quote request and turns the
// error state into a returned error.
func (a *app) fetchQuote(cmd *cobra.Command, conv *converter.Converter) (converter.State, error) {
	st, err := spin(a, cmd, " Fetching quote...", func() (converter.State, error) {
		return conv.RequestQuote(cmd.Context())
	})
	if err != nil {
		return st, err
	}
	if st.Status == converter.StatusError {
		return st, errors.New(st.Message)
	}
	return st, nil
}

type quoteOutput struct {
	Quote *model.Quote `json:"quote"`
	View  quote.View   `json:"view"`
}

func viewOf(st converter.State) quote.View {
	return quote.BuildView(st.Quote, quote.Pair{
		Send:    strings.ToUpper(st.Inputs.SendCurrency),
		Receive: strings.ToUpper(st.Inputs.ReceiveCurrency),
	})
}

func (a *app) quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <amount> <send-currency> [to] <receive-currency>",
		Short: "Get a transfer quote and compare routes",
		Example: `  warp quote 100 USD to MXN
  warp quote 2500 eur gbp --json`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parsePairArgs(args)
			if err != nil {
				return err
			}
			st, err := a.fetchQuote(cmd, a.newConverter(in))
			if err != nil {
				return err
			}

			view := viewOf(st)
			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), quoteOutput{Quote: st.Quote, View: view})
			}
			renderQuote(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

const msgJSONNeedsYes = "--json requires --yes to execute a transfer"

func (a *app) sendCmd() *cobra.Command {
	var (
		receiver  string
		noConfirm bool
	)
	cmd := &cobra.Command{
		Use:   "send <amount> <send-currency> [to] <receive-currency> --to <email>",
		Short: "Quote and execute a transfer",
		Long: `Fetches a fresh quote, shows it, and on confirmation executes it for the
given receiver. Requires a token (token or token_command in ~/.warp.yaml).`,
		Example: `  warp send 100 USD to MXN --to friend@example.com
  warp send 50 EUR USD --to friend@example.com --yes`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			// JSON output has no interactive prompt, so consent must be explicit.
			if a.jsonOut && !noConfirm {
				return errors.New(msgJSONNeedsYes)
			}
			in, err := parsePairArgs(args)
			if err != nil {
				return err
			}
			conv := a.newConverter(in)
			conv.SetReceiverEmail(receiver)

			st, err := a.fetchQuote(cmd, conv)
			if err != nil {
				return err
			}
			if !a.jsonOut {
				renderQuote(cmd.OutOrStdout(), viewOf(st))
			}

			if !noConfirm {
				if !confirm(cmd, "Proceed with transfer?") {
					fmt.Fprintln(cmd.OutOrStdout(), "\nTransfer cancelled.")
					return nil
				}
			}

			res, err := spin(a, cmd, " Executing transfer...", func() (*model.TransferResult, error) {
				return conv.Execute(cmd.Context())
			})
			if err != nil {
				var execErr *converter.ExecuteError
				if errors.As(err, &execErr) {
					a.logger.Debug("cli.send.failed", zap.Error(execErr.Err))
				}
				return err
			}

			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), res)
			}
			renderTransfer(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&receiver, "to", "", "Receiver email (required)")
	cmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}
