// Package cli is the warp terminal client: quotes, transfers, history and
// balances against the quoting backend.
package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/internal/auth"
	"github.com/Checker-Finance/warp/internal/backend"
	"github.com/Checker-Finance/warp/internal/rate"
	"github.com/Checker-Finance/warp/pkg/logger"
	"github.com/Checker-Finance/warp/pkg/utils"
)

const msgSignIn = "Authentication required: set token or token_command in ~/.warp.yaml"

// Version is stamped at build time.
var Version = "0.1.0"

// app is the state shared by every subcommand of one invocation.
type app struct {
	v          *viper.Viper
	configFile string
	jsonOut    bool
	verbose    bool

	logger   *zap.Logger
	settings Settings
	client   *backend.Client
	tokens   auth.TokenSource
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "warp",
		Short: "Compare cross-currency transfer quotes and send money",
		Long: `warp talks to the Warp quoting backend: it shows what you would receive,
how that compares with the mid-market rate, and which route the backend picked.

Examples:
  warp quote 100 USD to MXN
  warp send 250 USD EUR --to friend@example.com
  warp history --filter sent --sort amount
  warp balances`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default $HOME/.warp.yaml)")
	flags.String("backend-url", "", "quoting backend base URL")
	flags.String("token", "", "bearer token for account commands")
	flags.BoolVarP(&a.jsonOut, "json", "j", false, "Output in JSON format")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	_ = a.v.BindPFlag("backend_url", flags.Lookup("backend-url"))
	_ = a.v.BindPFlag("token", flags.Lookup("token"))

	root.AddCommand(
		a.quoteCmd(),
		a.sendCmd(),
		a.historyCmd(),
		a.balancesCmd(),
		a.healthCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	logger.Init("warp", "dev", level, "stderr")
	a.logger = logger.L()

	s, err := loadSettings(a.v, a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.settings = s
	a.tokens = s.TokenSource(a.logger)
	a.client = backend.NewClient(a.logger, backend.Options{
		BaseURL:  s.BackendURL,
		Timeout:  s.Timeout,
		RetryMax: s.RetryMax,
		RateMgr:  rate.NewManager(rate.Config{RequestsPerSecond: 5, Burst: 10}),
	})

	a.logger.Debug("cli.setup",
		zap.String("command", cmd.Name()),
		zap.String("backend_url", s.BackendURL))
	return nil
}

// token returns the signed-in user's token or the user-facing refusal.
func (a *app) token(cmd *cobra.Command) (string, error) {
	tok, err := a.tokens.GetToken(cmd.Context())
	if err != nil {
		a.logger.Debug("cli.no_token", zap.Error(err))
		return "", errors.New(msgSignIn)
	}
	a.logger.Debug("cli.token", zap.String("token", utils.MaskToken(tok)))
	return tok, nil
}

// spin runs fn behind a terminal spinner unless JSON output is requested.
func spin[T any](a *app, cmd *cobra.Command, suffix string, fn func() (T, error)) (T, error) {
	if a.jsonOut {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = suffix
	s.Start()
	defer s.Stop()
	return fn()
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s (y/N): ", prompt)
	response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
