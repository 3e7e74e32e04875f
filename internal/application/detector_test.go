package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

func baseReport(score int) model.Report {
	return model.Report{
		ReportID:    "RPT-1",
		Bureau:      model.BureauExperian,
		GeneratedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Score:       model.Score{Value: score, Model: "VantageScore 3.0"},
	}
}

func detect(prev *model.Report, cur model.Report) []model.Change {
	return DetectChanges(prev, cur, model.DefaultChangeThresholds())
}

func TestDetectChangesNilPreviousYieldsEmpty(t *testing.T) {
	changes := detect(nil, baseReport(700))
	assert.NotNil(t, changes)
	assert.Empty(t, changes)
}

func TestDetectChangesIdenticalReportsYieldEmpty(t *testing.T) {
	report := baseReport(700)
	report.Accounts = []model.Account{
		{CreditorName: "First Bank", AccountNumber: "****1234", Balance: 1000},
	}
	report.NegativeItems = []model.NegativeItem{
		{Creditor: "ABC Collections", Type: model.ItemCollection, AccountNumber: "****5678"},
	}
	report.Inquiries = []model.Inquiry{
		{Creditor: "Auto Lender", Date: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), Hard: true},
	}

	changes := detect(&report, report)
	assert.Empty(t, changes)
}

func TestDetectScoreChangeMediumSeverity(t *testing.T) {
	prev := baseReport(620)
	cur := baseReport(655)

	changes := detect(&prev, cur)
	require.Len(t, changes, 1)

	c := changes[0]
	assert.Equal(t, model.ChangeScore, c.Type)
	assert.Equal(t, model.SeverityMedium, c.Severity)
	require.NotNil(t, c.Delta)
	assert.Equal(t, 35.0, *c.Delta)
	assert.True(t, c.IsPositive)
	assert.Equal(t, "620", c.PreviousValue)
	assert.Equal(t, "655", c.CurrentValue)
}

func TestDetectScoreChangeHighSeverityOnLargeDrop(t *testing.T) {
	prev := baseReport(620)
	cur := baseReport(580)

	changes := detect(&prev, cur)
	require.Len(t, changes, 1)
	assert.Equal(t, model.SeverityHigh, changes[0].Severity)
	assert.False(t, changes[0].IsPositive)
}

func TestDetectScoreChangeThresholdBoundary(t *testing.T) {
	// Delta of exactly ScoreDeltaHigh points is still medium; high
	// requires strictly greater.
	prev := baseReport(650)

	changes := detect(&prev, baseReport(685))
	require.Len(t, changes, 1)
	assert.Equal(t, model.SeverityMedium, changes[0].Severity)

	changes = detect(&prev, baseReport(686))
	require.Len(t, changes, 1)
	assert.Equal(t, model.SeverityHigh, changes[0].Severity)
}

func TestDetectNewNegativeItem(t *testing.T) {
	prev := baseReport(650)
	cur := baseReport(650)
	cur.NegativeItems = []model.NegativeItem{
		{Creditor: "ABC Collections", Type: model.ItemCollection, AccountNumber: "****1234", Balance: 450},
	}

	changes := detect(&prev, cur)
	require.Len(t, changes, 1)

	c := changes[0]
	assert.Equal(t, model.ChangeNewNegative, c.Type)
	assert.Equal(t, model.SeverityHigh, c.Severity)
	assert.Equal(t, "ABC Collections", c.CurrentValue)
	assert.False(t, c.IsPositive)
}

func TestDetectRemovedNegativeItemIsPositive(t *testing.T) {
	prev := baseReport(650)
	prev.NegativeItems = []model.NegativeItem{
		{Creditor: "ABC Collections", Type: model.ItemCollection, AccountNumber: "****1234"},
	}
	cur := baseReport(650)

	changes := detect(&prev, cur)
	require.Len(t, changes, 1)

	c := changes[0]
	assert.Equal(t, model.ChangeRemovedNegative, c.Type)
	assert.Equal(t, model.SeverityHigh, c.Severity)
	assert.True(t, c.IsPositive)
}

func TestDetectNegativeItemKeyDistinguishesType(t *testing.T) {
	// Same creditor and account but a different item type is a different
	// item: one removed, one new.
	prev := baseReport(650)
	prev.NegativeItems = []model.NegativeItem{
		{Creditor: "ABC Collections", Type: model.ItemLatePayment, AccountNumber: "****1234"},
	}
	cur := baseReport(650)
	cur.NegativeItems = []model.NegativeItem{
		{Creditor: "ABC Collections", Type: model.ItemCollection, AccountNumber: "****1234"},
	}

	changes := detect(&prev, cur)
	require.Len(t, changes, 2)
	assert.Equal(t, model.ChangeNewNegative, changes[0].Type)
	assert.Equal(t, model.ChangeRemovedNegative, changes[1].Type)
}

func TestDetectNewAccountLowSeverity(t *testing.T) {
	prev := baseReport(650)
	cur := baseReport(650)
	cur.Accounts = []model.Account{
		{CreditorName: "New Card Co", AccountNumber: "****4321", Balance: 0},
	}

	changes := detect(&prev, cur)
	require.Len(t, changes, 1)
	assert.Equal(t, model.ChangeNewAccount, changes[0].Type)
	assert.Equal(t, model.SeverityLow, changes[0].Severity)
}

func TestDetectBalanceChange(t *testing.T) {
	prev := baseReport(650)
	prev.Accounts = []model.Account{
		{CreditorName: "First Bank", AccountNumber: "****1234", Balance: 1000},
	}

	t.Run("60 percent jump is high severity", func(t *testing.T) {
		cur := baseReport(650)
		cur.Accounts = []model.Account{
			{CreditorName: "First Bank", AccountNumber: "****1234", Balance: 1600},
		}

		changes := detect(&prev, cur)
		require.Len(t, changes, 1)

		c := changes[0]
		assert.Equal(t, model.ChangeBalance, c.Type)
		assert.Equal(t, model.SeverityHigh, c.Severity)
		require.NotNil(t, c.Delta)
		assert.Equal(t, 600.0, *c.Delta)
		assert.False(t, c.IsPositive)
	})

	t.Run("small change below both minimums is ignored", func(t *testing.T) {
		cur := baseReport(650)
		cur.Accounts = []model.Account{
			{CreditorName: "First Bank", AccountNumber: "****1234", Balance: 1050},
		}

		changes := detect(&prev, cur)
		assert.Empty(t, changes)
	})

	t.Run("paydown is positive", func(t *testing.T) {
		cur := baseReport(650)
		cur.Accounts = []model.Account{
			{CreditorName: "First Bank", AccountNumber: "****1234", Balance: 200},
		}

		changes := detect(&prev, cur)
		require.Len(t, changes, 1)
		assert.True(t, changes[0].IsPositive)
	})

	t.Run("zero previous balance counts as full swing", func(t *testing.T) {
		zeroPrev := baseReport(650)
		zeroPrev.Accounts = []model.Account{
			{CreditorName: "First Bank", AccountNumber: "****1234", Balance: 0},
		}
		cur := baseReport(650)
		cur.Accounts = []model.Account{
			{CreditorName: "First Bank", AccountNumber: "****1234", Balance: 700},
		}

		changes := detect(&zeroPrev, cur)
		require.Len(t, changes, 1)
		assert.Equal(t, model.SeverityHigh, changes[0].Severity)
	})
}

func TestDetectNewInquiryHardOnly(t *testing.T) {
	prev := baseReport(650)
	cur := baseReport(650)
	cur.Inquiries = []model.Inquiry{
		{Creditor: "Auto Lender", Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Hard: true},
		{Creditor: "Prequal Offers Inc", Date: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC), Hard: false},
	}

	changes := detect(&prev, cur)
	require.Len(t, changes, 1)
	assert.Equal(t, model.ChangeNewInquiry, changes[0].Type)
	assert.Equal(t, model.SeverityMedium, changes[0].Severity)
	assert.Equal(t, "Auto Lender", changes[0].CurrentValue)
}

func TestDetectUtilizationChange(t *testing.T) {
	prev := baseReport(650)
	prev.Summary.UtilizationRate = 30

	t.Run("small move is ignored", func(t *testing.T) {
		cur := baseReport(650)
		cur.Summary.UtilizationRate = 33

		changes := detect(&prev, cur)
		assert.Empty(t, changes)
	})

	t.Run("moderate move is medium", func(t *testing.T) {
		cur := baseReport(650)
		cur.Summary.UtilizationRate = 40

		changes := detect(&prev, cur)
		require.Len(t, changes, 1)
		assert.Equal(t, model.ChangeUtilization, changes[0].Type)
		assert.Equal(t, model.SeverityMedium, changes[0].Severity)
	})

	t.Run("large drop is high and positive", func(t *testing.T) {
		cur := baseReport(650)
		cur.Summary.UtilizationRate = 10

		changes := detect(&prev, cur)
		require.Len(t, changes, 1)
		assert.Equal(t, model.SeverityHigh, changes[0].Severity)
		assert.True(t, changes[0].IsPositive)
	})
}

func TestDetectChangesOrdering(t *testing.T) {
	prev := baseReport(700)
	prev.Accounts = []model.Account{
		{CreditorName: "First Bank", AccountNumber: "****1234", Balance: 1000},
	}
	prev.Summary.UtilizationRate = 20

	cur := baseReport(640)
	cur.Accounts = []model.Account{
		{CreditorName: "First Bank", AccountNumber: "****1234", Balance: 2500},
		{CreditorName: "New Card Co", AccountNumber: "****9999", Balance: 0},
	}
	cur.NegativeItems = []model.NegativeItem{
		{Creditor: "ABC Collections", Type: model.ItemCollection, AccountNumber: "****1234"},
	}
	cur.Inquiries = []model.Inquiry{
		{Creditor: "New Card Co", Date: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), Hard: true},
	}
	cur.Summary.UtilizationRate = 55

	changes := detect(&prev, cur)
	require.Len(t, changes, 6)
	assert.Equal(t, model.ChangeScore, changes[0].Type)
	assert.Equal(t, model.ChangeNewNegative, changes[1].Type)
	assert.Equal(t, model.ChangeNewAccount, changes[2].Type)
	assert.Equal(t, model.ChangeBalance, changes[3].Type)
	assert.Equal(t, model.ChangeNewInquiry, changes[4].Type)
	assert.Equal(t, model.ChangeUtilization, changes[5].Type)
}

func TestDetectChangesIsPure(t *testing.T) {
	prev := baseReport(700)
	cur := baseReport(640)

	first := detect(&prev, cur)
	second := detect(&prev, cur)
	assert.Equal(t, first, second)
}
