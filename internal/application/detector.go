package application

import (
	"fmt"
	"math"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// DetectChanges compares two consecutive reports for the same subject and
// bureau and returns the ordered list of material changes. A nil previous
// report (first pull for the key) yields no changes. Pure and
// deterministic given its inputs; it is re-run for audit and backfill
// without re-pulling from any provider.
//
// Comparison order defines output order: score, new negative items,
// removed negative items, new accounts, balance changes, new hard
// inquiries, utilization.
func DetectChanges(previous *model.Report, current model.Report, th model.ChangeThresholds) []model.Change {
	changes := []model.Change{}
	if previous == nil {
		return changes
	}
	prev := *previous

	changes = append(changes, detectScoreChange(prev, current, th)...)
	changes = append(changes, detectNewNegativeItems(prev, current)...)
	changes = append(changes, detectRemovedNegativeItems(prev, current)...)
	changes = append(changes, detectNewAccounts(prev, current)...)
	changes = append(changes, detectBalanceChanges(prev, current, th)...)
	changes = append(changes, detectNewInquiries(prev, current)...)
	changes = append(changes, detectUtilizationChange(prev, current, th)...)

	return changes
}

func detectScoreChange(prev, cur model.Report, th model.ChangeThresholds) []model.Change {
	if cur.Score.Value == prev.Score.Value {
		return nil
	}

	delta := float64(cur.Score.Value - prev.Score.Value)
	severity := model.SeverityMedium
	if math.Abs(delta) > float64(th.ScoreDeltaHigh) {
		severity = model.SeverityHigh
	}

	return []model.Change{{
		Type:          model.ChangeScore,
		Category:      model.CategoryScore,
		Severity:      severity,
		Description:   fmt.Sprintf("Credit score changed from %d to %d (%+d)", prev.Score.Value, cur.Score.Value, int(delta)),
		PreviousValue: fmt.Sprintf("%d", prev.Score.Value),
		CurrentValue:  fmt.Sprintf("%d", cur.Score.Value),
		Delta:         &delta,
		IsPositive:    delta > 0,
	}}
}

func detectNewNegativeItems(prev, cur model.Report) []model.Change {
	previous := make(map[string]bool, len(prev.NegativeItems))
	for _, item := range prev.NegativeItems {
		previous[item.Key()] = true
	}

	var changes []model.Change
	for _, item := range cur.NegativeItems {
		if previous[item.Key()] {
			continue
		}
		changes = append(changes, model.Change{
			Type:         model.ChangeNewNegative,
			Category:     model.CategoryNegativeItem,
			Severity:     model.SeverityHigh,
			Description:  fmt.Sprintf("New %s reported by %s", item.Type, item.Creditor),
			CurrentValue: item.Creditor,
			IsPositive:   false,
		})
	}
	return changes
}

func detectRemovedNegativeItems(prev, cur model.Report) []model.Change {
	current := make(map[string]bool, len(cur.NegativeItems))
	for _, item := range cur.NegativeItems {
		current[item.Key()] = true
	}

	var changes []model.Change
	for _, item := range prev.NegativeItems {
		if current[item.Key()] {
			continue
		}
		changes = append(changes, model.Change{
			Type:          model.ChangeRemovedNegative,
			Category:      model.CategoryNegativeItem,
			Severity:      model.SeverityHigh,
			Description:   fmt.Sprintf("%s from %s removed from report", item.Type, item.Creditor),
			PreviousValue: item.Creditor,
			IsPositive:    true,
		})
	}
	return changes
}

func accountKey(a model.Account) string {
	return a.CreditorName + "|" + a.AccountNumber
}

func detectNewAccounts(prev, cur model.Report) []model.Change {
	previous := make(map[string]bool, len(prev.Accounts))
	for _, a := range prev.Accounts {
		previous[accountKey(a)] = true
	}

	var changes []model.Change
	for _, a := range cur.Accounts {
		if previous[accountKey(a)] {
			continue
		}
		changes = append(changes, model.Change{
			Type:         model.ChangeNewAccount,
			Category:     model.CategoryAccount,
			Severity:     model.SeverityLow,
			Description:  fmt.Sprintf("New account opened with %s", a.CreditorName),
			CurrentValue: a.CreditorName,
			IsPositive:   false,
		})
	}
	return changes
}

func detectBalanceChanges(prev, cur model.Report, th model.ChangeThresholds) []model.Change {
	previous := make(map[string]model.Account, len(prev.Accounts))
	for _, a := range prev.Accounts {
		previous[accountKey(a)] = a
	}

	var changes []model.Change
	for _, a := range cur.Accounts {
		before, ok := previous[accountKey(a)]
		if !ok {
			continue
		}

		delta := a.Balance - before.Balance
		var pct float64
		if before.Balance != 0 {
			pct = math.Abs(delta) / math.Abs(before.Balance) * 100
		} else if delta != 0 {
			pct = 100
		}

		if math.Abs(delta) <= th.BalanceDeltaMin && pct <= th.BalancePctMin {
			continue
		}

		severity := model.SeverityMedium
		if pct > th.BalancePctHigh {
			severity = model.SeverityHigh
		}

		d := delta
		changes = append(changes, model.Change{
			Type:          model.ChangeBalance,
			Category:      model.CategoryAccount,
			Severity:      severity,
			Description:   fmt.Sprintf("%s balance changed from $%.2f to $%.2f", a.CreditorName, before.Balance, a.Balance),
			PreviousValue: fmt.Sprintf("%.2f", before.Balance),
			CurrentValue:  fmt.Sprintf("%.2f", a.Balance),
			Delta:         &d,
			IsPositive:    delta < 0,
		})
	}
	return changes
}

func detectNewInquiries(prev, cur model.Report) []model.Change {
	previous := make(map[string]bool, len(prev.Inquiries))
	for _, inq := range prev.Inquiries {
		previous[inq.Key()] = true
	}

	var changes []model.Change
	for _, inq := range cur.Inquiries {
		if !inq.Hard || previous[inq.Key()] {
			continue
		}
		changes = append(changes, model.Change{
			Type:         model.ChangeNewInquiry,
			Category:     model.CategoryInquiry,
			Severity:     model.SeverityMedium,
			Description:  fmt.Sprintf("New hard inquiry from %s", inq.Creditor),
			CurrentValue: inq.Creditor,
			IsPositive:   false,
		})
	}
	return changes
}

func detectUtilizationChange(prev, cur model.Report, th model.ChangeThresholds) []model.Change {
	delta := cur.Summary.UtilizationRate - prev.Summary.UtilizationRate
	if math.Abs(delta) < th.UtilizationPPMin {
		return nil
	}

	severity := model.SeverityMedium
	if math.Abs(delta) > th.UtilizationPPHigh {
		severity = model.SeverityHigh
	}

	d := delta
	return []model.Change{{
		Type:          model.ChangeUtilization,
		Category:      model.CategorySummary,
		Severity:      severity,
		Description:   fmt.Sprintf("Credit utilization changed from %.1f%% to %.1f%%", prev.Summary.UtilizationRate, cur.Summary.UtilizationRate),
		PreviousValue: fmt.Sprintf("%.1f", prev.Summary.UtilizationRate),
		CurrentValue:  fmt.Sprintf("%.1f", cur.Summary.UtilizationRate),
		Delta:         &d,
		IsPositive:    delta < 0,
	}}
}
