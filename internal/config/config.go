// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// BureauCredentials holds the OAuth2 client-credentials settings for one
// bureau. All three fields must be set for the bureau to run live.
type BureauCredentials struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

// HasCredentials returns true when the bureau can authenticate against its
// live API. Used by the composition root to decide between a live client
// and the sandbox generator.
func (c BureauCredentials) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.BaseURL != ""
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr  string
	DBPath      string
	PullTimeout time.Duration
	Bureaus     map[model.Bureau]BureauCredentials
	Thresholds  model.ChangeThresholds
}

// Load reads configuration from environment variables and returns a validated
// Config. Bureau credentials (CREDITWATCH_<BUREAU>_CLIENT_ID / _CLIENT_SECRET /
// _BASE_URL) are optional; a bureau with incomplete credentials degrades to
// sandbox mode. Optional variables with defaults: CREDITWATCH_LISTEN_ADDR
// (127.0.0.1:8080), CREDITWATCH_DB_PATH (creditwatch.db),
// CREDITWATCH_PULL_TIMEOUT (30s), plus the change detection thresholds.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("CREDITWATCH_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "creditwatch.db"
	if v, ok := os.LookupEnv("CREDITWATCH_DB_PATH"); ok {
		dbPath = v
	}

	pullTimeout := 30 * time.Second
	if v, ok := os.LookupEnv("CREDITWATCH_PULL_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CREDITWATCH_PULL_TIMEOUT has invalid duration %q: %w", v, err)
		}
		pullTimeout = parsed
	}

	bureaus := make(map[model.Bureau]BureauCredentials, 3)
	for _, bureau := range model.AllBureaus() {
		prefix := "CREDITWATCH_" + envName(bureau)
		bureaus[bureau] = BureauCredentials{
			ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
			ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
			BaseURL:      os.Getenv(prefix + "_BASE_URL"),
		}
	}

	thresholds, err := loadThresholds()
	if err != nil {
		return nil, err
	}

	return &Config{
		ListenAddr:  listenAddr,
		DBPath:      dbPath,
		PullTimeout: pullTimeout,
		Bureaus:     bureaus,
		Thresholds:  thresholds,
	}, nil
}

// loadThresholds reads the change detection thresholds, falling back to the
// production defaults for any unset variable.
func loadThresholds() (model.ChangeThresholds, error) {
	th := model.DefaultChangeThresholds()

	if v, ok := os.LookupEnv("CREDITWATCH_SCORE_DELTA_HIGH"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return th, fmt.Errorf("CREDITWATCH_SCORE_DELTA_HIGH has invalid int %q: %w", v, err)
		}
		th.ScoreDeltaHigh = parsed
	}

	floats := []struct {
		env  string
		dest *float64
	}{
		{"CREDITWATCH_BALANCE_DELTA_MIN", &th.BalanceDeltaMin},
		{"CREDITWATCH_BALANCE_PCT_MIN", &th.BalancePctMin},
		{"CREDITWATCH_BALANCE_PCT_HIGH", &th.BalancePctHigh},
		{"CREDITWATCH_UTILIZATION_PP_MIN", &th.UtilizationPPMin},
		{"CREDITWATCH_UTILIZATION_PP_HIGH", &th.UtilizationPPHigh},
	}
	for _, f := range floats {
		if v, ok := os.LookupEnv(f.env); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return th, fmt.Errorf("%s has invalid number %q: %w", f.env, v, err)
			}
			*f.dest = parsed
		}
	}

	return th, nil
}

// envName maps a bureau to its environment variable segment.
func envName(b model.Bureau) string {
	switch b {
	case model.BureauExperian:
		return "EXPERIAN"
	case model.BureauEquifax:
		return "EQUIFAX"
	case model.BureauTransUnion:
		return "TRANSUNION"
	}
	return ""
}
