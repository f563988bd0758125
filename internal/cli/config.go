package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/internal/auth"
)

// Settings is the terminal client's configuration.
type Settings struct {
	BackendURL   string
	Token        string
	TokenCommand string
	TokenTTL     time.Duration
	Timeout      time.Duration
	RetryMax     int
}

// loadSettings reads ~/.warp.yaml (or configFile), then WARP_* env vars.
// A missing config file is not an error.
func loadSettings(v *viper.Viper, configFile string) (Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".warp")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("timeout", "30s")
	v.SetDefault("token_ttl", "55m")
	v.SetDefault("retry_max", 2)

	v.SetEnvPrefix("WARP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Settings{}, err
		}
	}

	return Settings{
		BackendURL:   v.GetString("backend_url"),
		Token:        v.GetString("token"),
		TokenCommand: v.GetString("token_command"),
		TokenTTL:     v.GetDuration("token_ttl"),
		Timeout:      v.GetDuration("timeout"),
		RetryMax:     v.GetInt("retry_max"),
	}, nil
}

// TokenSource builds the signed-in capability. token_command wins over a
// static token; neither means signed out.
func (s Settings) TokenSource(logger *zap.Logger) auth.TokenSource {
	if strings.TrimSpace(s.TokenCommand) != "" {
		return auth.NewCached(logger, auth.CommandFetcher(s.TokenCommand, s.TokenTTL))
	}
	return auth.StaticToken(s.Token)
}
