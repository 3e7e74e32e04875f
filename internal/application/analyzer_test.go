package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

func scoredReport(bureau model.Bureau, score int, negativeItems int) model.Report {
	report := model.Report{
		ReportID:    "RPT-" + string(bureau),
		Bureau:      bureau,
		GeneratedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Score:       model.Score{Value: score},
	}
	for i := 0; i < negativeItems; i++ {
		report.NegativeItems = append(report.NegativeItems, model.NegativeItem{
			Creditor: "Creditor", Type: model.ItemCollection,
		})
	}
	return report
}

var analysisNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func TestAnalyzeReportsInsufficientData(t *testing.T) {
	t.Run("no reports", func(t *testing.T) {
		result := AnalyzeReports("sub-1", nil, analysisNow)
		assert.False(t, result.Sufficient)
		assert.Empty(t, result.Bureaus)
		assert.Empty(t, result.Flags)
	})

	t.Run("single bureau", func(t *testing.T) {
		result := AnalyzeReports("sub-1", map[model.Bureau]model.Report{
			model.BureauExperian: scoredReport(model.BureauExperian, 700, 0),
		}, analysisNow)
		assert.False(t, result.Sufficient)
		assert.Equal(t, []model.Bureau{model.BureauExperian}, result.Bureaus)
		assert.Empty(t, result.Flags)
	})
}

func TestAnalyzeReportsScoreSpreadHigh(t *testing.T) {
	result := AnalyzeReports("sub-1", map[model.Bureau]model.Report{
		model.BureauExperian:   scoredReport(model.BureauExperian, 700, 0),
		model.BureauEquifax:    scoredReport(model.BureauEquifax, 655, 0),
		model.BureauTransUnion: scoredReport(model.BureauTransUnion, 610, 0),
	}, analysisNow)

	assert.True(t, result.Sufficient)
	require.Len(t, result.Flags, 1)

	flag := result.Flags[0]
	assert.Equal(t, model.DiscrepancyScoreSpread, flag.Type)
	assert.Equal(t, model.SeverityHigh, flag.Severity)
	assert.Equal(t, 90.0, flag.Spread)
	assert.Equal(t, model.BureauTransUnion, flag.LowBureau)
	assert.Equal(t, model.BureauExperian, flag.HighBureau)
}

func TestAnalyzeReportsScoreSpreadThresholds(t *testing.T) {
	tests := []struct {
		name     string
		scores   [2]int
		flagged  bool
		severity model.Severity
	}{
		{"spread of 40 not flagged", [2]int{700, 660}, false, ""},
		{"spread of 41 is medium", [2]int{700, 659}, true, model.SeverityMedium},
		{"spread of 80 is medium", [2]int{720, 640}, true, model.SeverityMedium},
		{"spread of 81 is high", [2]int{720, 639}, true, model.SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeReports("sub-1", map[model.Bureau]model.Report{
				model.BureauExperian: scoredReport(model.BureauExperian, tt.scores[0], 0),
				model.BureauEquifax:  scoredReport(model.BureauEquifax, tt.scores[1], 0),
			}, analysisNow)

			if !tt.flagged {
				assert.Empty(t, result.Flags)
				return
			}
			require.Len(t, result.Flags, 1)
			assert.Equal(t, tt.severity, result.Flags[0].Severity)
		})
	}
}

func TestAnalyzeReportsNegativeItemSpread(t *testing.T) {
	result := AnalyzeReports("sub-1", map[model.Bureau]model.Report{
		model.BureauExperian: scoredReport(model.BureauExperian, 650, 4),
		model.BureauEquifax:  scoredReport(model.BureauEquifax, 650, 1),
	}, analysisNow)

	require.Len(t, result.Flags, 1)
	flag := result.Flags[0]
	assert.Equal(t, model.DiscrepancyNegativeItem, flag.Type)
	assert.Equal(t, model.SeverityMedium, flag.Severity)
	assert.Equal(t, 3.0, flag.Spread)
	assert.Equal(t, model.BureauExperian, flag.HighBureau)
}

func TestAnalyzeReportsNegativeItemSpreadOfTwoNotFlagged(t *testing.T) {
	result := AnalyzeReports("sub-1", map[model.Bureau]model.Report{
		model.BureauExperian: scoredReport(model.BureauExperian, 650, 3),
		model.BureauEquifax:  scoredReport(model.BureauEquifax, 650, 1),
	}, analysisNow)

	assert.Empty(t, result.Flags)
}

func TestAnalyzeReportsCanonicalBureauOrder(t *testing.T) {
	result := AnalyzeReports("sub-1", map[model.Bureau]model.Report{
		model.BureauTransUnion: scoredReport(model.BureauTransUnion, 650, 0),
		model.BureauExperian:   scoredReport(model.BureauExperian, 660, 0),
	}, analysisNow)

	assert.Equal(t, []model.Bureau{model.BureauExperian, model.BureauTransUnion}, result.Bureaus)
	assert.Equal(t, analysisNow, result.GeneratedAt)
}
