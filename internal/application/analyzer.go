package application

import (
	"context"
	"fmt"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// AnalyzeReports computes cross-bureau discrepancy signals over the latest
// report per bureau. Pure and read-only. Fewer than 2 bureaus with data
// yields an explicit insufficient-data result, not an error.
func AnalyzeReports(subjectID string, reports map[model.Bureau]model.Report, now time.Time) model.AnalysisResult {
	result := model.AnalysisResult{
		SubjectID:          subjectID,
		Bureaus:            []model.Bureau{},
		Scores:             make(map[model.Bureau]int, len(reports)),
		NegativeItemCounts: make(map[model.Bureau]int, len(reports)),
		Flags:              []model.DiscrepancyFlag{},
		GeneratedAt:        now,
	}

	// Canonical bureau order keeps output deterministic.
	for _, bureau := range model.AllBureaus() {
		report, ok := reports[bureau]
		if !ok {
			continue
		}
		result.Bureaus = append(result.Bureaus, bureau)
		result.Scores[bureau] = report.Score.Value
		result.NegativeItemCounts[bureau] = len(report.NegativeItems)
	}

	if len(result.Bureaus) < 2 {
		return result
	}
	result.Sufficient = true

	if flag, ok := scoreSpreadFlag(result); ok {
		result.Flags = append(result.Flags, flag)
	}
	if flag, ok := negativeItemSpreadFlag(result); ok {
		result.Flags = append(result.Flags, flag)
	}

	return result
}

// scoreSpreadFlag flags the min-to-max score spread: medium above 40
// points, high above 80.
func scoreSpreadFlag(r model.AnalysisResult) (model.DiscrepancyFlag, bool) {
	lowBureau, highBureau := r.Bureaus[0], r.Bureaus[0]
	for _, bureau := range r.Bureaus {
		if r.Scores[bureau] < r.Scores[lowBureau] {
			lowBureau = bureau
		}
		if r.Scores[bureau] > r.Scores[highBureau] {
			highBureau = bureau
		}
	}

	spread := float64(r.Scores[highBureau] - r.Scores[lowBureau])
	if spread <= 40 {
		return model.DiscrepancyFlag{}, false
	}

	severity := model.SeverityMedium
	if spread > 80 {
		severity = model.SeverityHigh
	}

	return model.DiscrepancyFlag{
		Type:       model.DiscrepancyScoreSpread,
		Severity:   severity,
		Spread:     spread,
		LowBureau:  lowBureau,
		HighBureau: highBureau,
		Description: fmt.Sprintf("Score spread of %d points between %s (%d) and %s (%d)",
			int(spread), lowBureau, r.Scores[lowBureau], highBureau, r.Scores[highBureau]),
	}, true
}

// negativeItemSpreadFlag flags a negative-item count spread above 2.
func negativeItemSpreadFlag(r model.AnalysisResult) (model.DiscrepancyFlag, bool) {
	lowBureau, highBureau := r.Bureaus[0], r.Bureaus[0]
	for _, bureau := range r.Bureaus {
		if r.NegativeItemCounts[bureau] < r.NegativeItemCounts[lowBureau] {
			lowBureau = bureau
		}
		if r.NegativeItemCounts[bureau] > r.NegativeItemCounts[highBureau] {
			highBureau = bureau
		}
	}

	spread := float64(r.NegativeItemCounts[highBureau] - r.NegativeItemCounts[lowBureau])
	if spread <= 2 {
		return model.DiscrepancyFlag{}, false
	}

	return model.DiscrepancyFlag{
		Type:       model.DiscrepancyNegativeItem,
		Severity:   model.SeverityMedium,
		Spread:     spread,
		LowBureau:  lowBureau,
		HighBureau: highBureau,
		Description: fmt.Sprintf("%s reports %d negative items while %s reports %d",
			highBureau, r.NegativeItemCounts[highBureau], lowBureau, r.NegativeItemCounts[lowBureau]),
	}, true
}

// AnalysisService loads the latest snapshots for a subject and runs
// cross-bureau analysis over them.
type AnalysisService struct {
	snapshots driven.SnapshotStore
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(snapshots driven.SnapshotStore) *AnalysisService {
	return &AnalysisService{snapshots: snapshots}
}

// Analyze returns the cross-bureau analysis for a subject based on the
// latest snapshot per bureau.
func (s *AnalysisService) Analyze(ctx context.Context, subjectID string) (model.AnalysisResult, error) {
	latest, err := s.snapshots.LatestAll(ctx, subjectID)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("load latest snapshots for %s: %w", subjectID, err)
	}

	reports := make(map[model.Bureau]model.Report, len(latest))
	for bureau, snap := range latest {
		reports[bureau] = snap.Report
	}

	return AnalyzeReports(subjectID, reports, time.Now().UTC()), nil
}
