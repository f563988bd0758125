package account

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Checker-Finance/warp/internal/format"
	"github.com/Checker-Finance/warp/internal/history"
	"github.com/Checker-Finance/warp/pkg/model"
)

// RecentLimit is how many transactions the dashboard shows.
const RecentLimit = 5

// Source is the part of the backend client the dashboard reads from.
type Source interface {
	UserProfile(ctx context.Context, token string) (*model.UserProfile, error)
	TransferHistory(ctx context.Context, token string) ([]model.Transaction, error)
}

// Balance is one non-zero currency holding.
type Balance struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Display  string  `json:"display"`
}

// Dashboard is the signed-in landing view.
type Dashboard struct {
	Email    string              `json:"email"`
	Balances []Balance           `json:"balances"`
	Recent   []model.Transaction `json:"recent_transactions"`
}

// Balances lists positive balances sorted by currency code. Keys that differ
// only in case ("usd", "USD") are one currency and their amounts are summed.
func Balances(p *model.UserProfile) []Balance {
	out := []Balance{}
	if p == nil {
		return out
	}
	totals := make(map[string]decimal.Decimal, len(p.Balances))
	for code, amount := range p.Balances {
		if amount <= 0 || !format.Finite(amount) {
			continue
		}
		code = strings.ToUpper(code)
		totals[code] = totals[code].Add(decimal.NewFromFloat(amount))
	}
	for code, total := range totals {
		amount := total.InexactFloat64()
		out = append(out, Balance{
			Currency: code,
			Amount:   amount,
			Display:  format.Amount(amount, code),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// LoadDashboard fetches the profile and history concurrently. Either
// failure fails the whole load.
func LoadDashboard(ctx context.Context, src Source, token string) (*Dashboard, error) {
	var (
		profile *model.UserProfile
		txs     []model.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = src.UserProfile(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = src.TransferHistory(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		Balances: Balances(profile),
		Recent:   history.Recent(txs, RecentLimit),
	}
	if profile != nil {
		d.Email = profile.Email
	}
	return d, nil
}
