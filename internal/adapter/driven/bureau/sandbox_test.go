package bureau

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditwatch/creditwatch/internal/config"
	"github.com/creditwatch/creditwatch/internal/domain/model"
)

func fixedSandbox(bureau model.Bureau, now time.Time) *sandboxClient {
	return &sandboxClient{bureau: bureau, now: func() time.Time { return now }}
}

func TestSandboxPullIsDeterministicWithinADay(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	client := fixedSandbox(model.BureauExperian, now)
	ctx := context.Background()

	first, err := client.Pull(ctx, testIdentity)
	require.NoError(t, err)
	second, err := client.Pull(ctx, testIdentity)
	require.NoError(t, err)

	assert.Equal(t, first.Body, second.Body)

	// Same calendar day, different wall clock: still identical.
	later := fixedSandbox(model.BureauExperian, now.Add(8*time.Hour))
	third, err := later.Pull(ctx, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, first.Body, third.Body)
}

func TestSandboxPullDriftsAcrossDays(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ctx := context.Background()

	today, err := fixedSandbox(model.BureauExperian, now).Pull(ctx, testIdentity)
	require.NoError(t, err)
	tomorrow, err := fixedSandbox(model.BureauExperian, now.AddDate(0, 0, 1)).Pull(ctx, testIdentity)
	require.NoError(t, err)

	assert.NotEqual(t, today.Body, tomorrow.Body)
}

func TestSandboxPullVariesByBureauAndIdentity(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ctx := context.Background()

	experian, err := fixedSandbox(model.BureauExperian, now).Pull(ctx, testIdentity)
	require.NoError(t, err)
	equifax, err := fixedSandbox(model.BureauEquifax, now).Pull(ctx, testIdentity)
	require.NoError(t, err)
	assert.NotEqual(t, experian.Body, equifax.Body)

	other := testIdentity
	other.NationalIDLast4 = "9876"
	otherReport, err := fixedSandbox(model.BureauExperian, now).Pull(ctx, other)
	require.NoError(t, err)
	assert.NotEqual(t, experian.Body, otherReport.Body)
}

func TestSandboxPullProducesValidCanonicalReport(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	client := fixedSandbox(model.BureauTransUnion, now)

	raw, err := client.Pull(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.True(t, raw.Sandbox)
	assert.Equal(t, model.BureauTransUnion, raw.Bureau)

	var report model.Report
	require.NoError(t, json.Unmarshal(raw.Body, &report))
	require.NoError(t, report.Validate())

	assert.True(t, report.IsSandbox())
	assert.True(t, strings.HasPrefix(report.ReportID, model.SandboxReportIDPrefix))
	assert.Equal(t, model.BureauTransUnion, report.Bureau)
	assert.GreaterOrEqual(t, report.Score.Value, 540)
	assert.Less(t, report.Score.Value, 830)
	assert.Equal(t, "VantageScore 3.0", report.Score.Model)
	assert.NotEmpty(t, report.Score.Factors)
	assert.GreaterOrEqual(t, len(report.Accounts), 3)
	assert.LessOrEqual(t, len(report.NegativeItems), 4)

	for _, acct := range report.Accounts {
		assert.Contains(t, acct.AccountNumber, "****")
	}

	// Summary matches a recomputation over the same sections.
	assert.Equal(t, model.Summarize(report.Accounts, report.NegativeItems, report.Inquiries), report.Summary)
}

func TestSandboxSeedIgnoresTimeOfDay(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	a := sandboxSeed(testIdentity, model.BureauEquifax, day)
	b := sandboxSeed(testIdentity, model.BureauEquifax, day.Add(23*time.Hour))
	assert.Equal(t, a, b)

	c := sandboxSeed(testIdentity, model.BureauEquifax, day.AddDate(0, 0, 1))
	assert.NotEqual(t, a, c)
}

func TestFactoryDegradesToSandboxWithoutCredentials(t *testing.T) {
	cfg := &config.Config{
		PullTimeout: 5 * time.Second,
		Bureaus: map[model.Bureau]config.BureauCredentials{
			model.BureauExperian: {
				ClientID:     "id",
				ClientSecret: "secret",
				BaseURL:      "https://api.experian.example",
			},
		},
	}

	f := NewFactory(cfg)

	assert.True(t, f.For(model.BureauExperian).Live())
	assert.False(t, f.For(model.BureauEquifax).Live())
	assert.False(t, f.For(model.BureauTransUnion).Live())

	avail := f.Availability()
	require.Len(t, avail, 3)
	assert.Equal(t, model.BureauExperian, avail[0].Bureau)
	assert.True(t, avail[0].Live)
	assert.False(t, avail[0].Sandbox)
	assert.Equal(t, model.BureauEquifax, avail[1].Bureau)
	assert.True(t, avail[1].Sandbox)
	assert.Equal(t, model.BureauTransUnion, avail[2].Bureau)
	assert.True(t, avail[2].Sandbox)
}
