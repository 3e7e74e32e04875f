package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "creditwatch.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.PullTimeout)
	assert.Equal(t, model.DefaultChangeThresholds(), cfg.Thresholds)

	require.Len(t, cfg.Bureaus, 3)
	for _, bureau := range model.AllBureaus() {
		creds, ok := cfg.Bureaus[bureau]
		require.True(t, ok, "missing bureau %s", bureau)
		assert.False(t, creds.HasCredentials())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CREDITWATCH_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("CREDITWATCH_DB_PATH", "/var/lib/creditwatch/data.db")
	t.Setenv("CREDITWATCH_PULL_TIMEOUT", "45s")
	t.Setenv("CREDITWATCH_EXPERIAN_CLIENT_ID", "exp-id")
	t.Setenv("CREDITWATCH_EXPERIAN_CLIENT_SECRET", "exp-secret")
	t.Setenv("CREDITWATCH_EXPERIAN_BASE_URL", "https://api.experian.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/creditwatch/data.db", cfg.DBPath)
	assert.Equal(t, 45*time.Second, cfg.PullTimeout)

	assert.True(t, cfg.Bureaus[model.BureauExperian].HasCredentials())
	assert.Equal(t, "exp-id", cfg.Bureaus[model.BureauExperian].ClientID)
	assert.False(t, cfg.Bureaus[model.BureauEquifax].HasCredentials())
	assert.False(t, cfg.Bureaus[model.BureauTransUnion].HasCredentials())
}

func TestLoadThresholdOverrides(t *testing.T) {
	t.Setenv("CREDITWATCH_SCORE_DELTA_HIGH", "50")
	t.Setenv("CREDITWATCH_BALANCE_DELTA_MIN", "750")
	t.Setenv("CREDITWATCH_UTILIZATION_PP_HIGH", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Thresholds.ScoreDeltaHigh)
	assert.Equal(t, 750.0, cfg.Thresholds.BalanceDeltaMin)
	assert.Equal(t, 20.0, cfg.Thresholds.UtilizationPPHigh)

	// Unset thresholds keep their defaults.
	defaults := model.DefaultChangeThresholds()
	assert.Equal(t, defaults.BalancePctMin, cfg.Thresholds.BalancePctMin)
	assert.Equal(t, defaults.BalancePctHigh, cfg.Thresholds.BalancePctHigh)
	assert.Equal(t, defaults.UtilizationPPMin, cfg.Thresholds.UtilizationPPMin)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{"bad pull timeout", "CREDITWATCH_PULL_TIMEOUT", "soon"},
		{"bad score delta", "CREDITWATCH_SCORE_DELTA_HIGH", "lots"},
		{"bad balance delta", "CREDITWATCH_BALANCE_DELTA_MIN", "5h"},
		{"bad utilization", "CREDITWATCH_UTILIZATION_PP_MIN", "five"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestHasCredentials(t *testing.T) {
	full := BureauCredentials{ClientID: "id", ClientSecret: "secret", BaseURL: "https://api.example"}
	assert.True(t, full.HasCredentials())

	assert.False(t, BureauCredentials{}.HasCredentials())
	assert.False(t, BureauCredentials{ClientID: "id", ClientSecret: "secret"}.HasCredentials())
	assert.False(t, BureauCredentials{ClientID: "id", BaseURL: "https://api.example"}.HasCredentials())
}
