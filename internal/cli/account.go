package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Checker-Finance/warp/internal/account"
	"github.com/Checker-Finance/warp/internal/backend"
	"github.com/Checker-Finance/warp/internal/history"
	"github.com/Checker-Finance/warp/pkg/model"
)

type historyOutput struct {
	Transactions []model.Transaction `json:"transactions"`
	Stats        history.Stats       `json:"stats"`
}

func (a *app) historyCmd() *cobra.Command {
	var (
		filter string
		sortBy string
		csvOut bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := history.ParseFilter(filter)
			if err != nil {
				return err
			}
			by, err := history.ParseSort(sortBy)
			if err != nil {
				return err
			}
			token, err := a.token(cmd)
			if err != nil {
				return err
			}

			txs, err := spin(a, cmd, " Loading transaction history...", func() ([]model.Transaction, error) {
				return a.client.TransferHistory(cmd.Context(), token)
			})
			if err != nil {
				return err
			}
			list := history.Apply(txs, f, by)

			switch {
			case csvOut:
				return history.WriteCSV(cmd.OutOrStdout(), list)
			case a.jsonOut:
				return a.printJSON(cmd.OutOrStdout(), historyOutput{Transactions: list, Stats: history.Summarize(txs)})
			default:
				renderHistory(cmd.OutOrStdout(), list, history.Summarize(txs))
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "all, sent or received")
	cmd.Flags().StringVar(&sortBy, "sort", "date", "date, amount or rate (descending)")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Write CSV instead of a table")
	return cmd
}

func (a *app) balancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "balances",
		Aliases: []string{"dashboard"},
		Short:   "Show balances and recent transfers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.token(cmd)
			if err != nil {
				return err
			}
			d, err := spin(a, cmd, " Loading dashboard...", func() (*account.Dashboard, error) {
				return account.LoadDashboard(cmd.Context(), a.client, token)
			})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), d)
			}
			renderDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the quoting backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), h)
			}
			status := h.Status
			if status == "" {
				status = "ok"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend %s: %s\n", a.settings.BackendURL, accent.Sprint(status))
			for name, s := range h.Services {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s\n", name, s)
			}
			return nil
		},
	}
}

var _ account.Source = (*backend.Client)(nil)
