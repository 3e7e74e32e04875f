package model

import "math"

// Summarize recomputes report aggregates from normalized line items.
// Provider-supplied summaries are ignored everywhere in favor of this.
func Summarize(accounts []Account, items []NegativeItem, inquiries []Inquiry) ReportSummary {
	s := ReportSummary{
		TotalAccounts:     len(accounts),
		NegativeItemCount: len(items),
	}

	var revolvingBalance, revolvingLimit float64
	for _, a := range accounts {
		if a.IsOpen {
			s.OpenAccounts++
		} else {
			s.ClosedAccounts++
		}
		s.TotalBalance += a.Balance
		if a.AccountType == "credit_card" || a.AccountType == "revolving" {
			revolvingBalance += a.Balance
			revolvingLimit += a.CreditLimit
		}
	}

	for _, inq := range inquiries {
		if inq.Hard {
			s.HardInquiryCount++
		}
	}

	if revolvingLimit > 0 {
		s.UtilizationRate = math.Round(revolvingBalance/revolvingLimit*10000) / 100
	}

	return s
}
