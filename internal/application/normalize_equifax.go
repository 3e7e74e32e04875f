package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// Equifax's wire format. Numbers arrive as JSON numbers, dates as MM/YYYY
// or MM/DD/YYYY, and collections live in their own segment separate from
// trades.
type equifaxPayload struct {
	Consumers *struct {
		EquifaxUSConsumerCreditReport []equifaxReport `json:"equifaxUSConsumerCreditReport"`
	} `json:"consumers"`
}

type equifaxReport struct {
	Identifier string `json:"identifier"`
	ReportDate string `json:"reportDate"`
	Models     []struct {
		Score       int    `json:"score"`
		ModelNumber string `json:"modelNumber"`
		Reasons     []struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"reasons"`
	} `json:"models"`
	Trades []struct {
		CustomerName      string  `json:"customerName"`
		AccountNumber     string  `json:"accountNumber"`
		Balance           float64 `json:"balance"`
		CreditLimit       float64 `json:"creditLimit"`
		DateOpened        string  `json:"dateOpened"`
		DateReported      string  `json:"dateReported"`
		AccountClosedDate string  `json:"accountClosedDate"`
		PortfolioTypeCode struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"portfolioTypeCode"`
		Rate struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"rate"`
		NarrativeCodes []struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"narrativeCodes"`
	} `json:"trades"`
	Collections []struct {
		CustomerName  string  `json:"customerName"`
		AccountNumber string  `json:"accountNumber"`
		Balance       float64 `json:"balance"`
		DateReported  string  `json:"dateReported"`
		StatusCode    string  `json:"statusCode"`
		AgencyClient  string  `json:"agencyClient"`
	} `json:"collections"`
	Inquiries []struct {
		CustomerName  string `json:"customerName"`
		DateOfInquiry string `json:"dateOfInquiry"`
		Type          string `json:"type"`
	} `json:"inquiries"`
	Bankruptcies []struct {
		CourtName   string  `json:"courtName"`
		Type        string  `json:"type"`
		DateFiled   string  `json:"dateFiled"`
		Liabilities float64 `json:"liabilities"`
		Disposition string  `json:"disposition"`
	} `json:"bankruptcies"`
}

// normalizeEquifax maps an Equifax consumer credit report payload onto the
// canonical model. Rate codes above "1" indicate delinquency; narrative
// codes refine the item classification.
func normalizeEquifax(body json.RawMessage) (model.Report, error) {
	var payload equifaxPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Report{}, &model.NormalizationError{Bureau: model.BureauEquifax, Reason: fmt.Sprintf("decode payload: %v", err)}
	}
	if payload.Consumers == nil || len(payload.Consumers.EquifaxUSConsumerCreditReport) == 0 {
		return model.Report{}, &model.NormalizationError{Bureau: model.BureauEquifax, Reason: "missing equifaxUSConsumerCreditReport root node"}
	}
	efx := payload.Consumers.EquifaxUSConsumerCreditReport[0]

	report := model.Report{
		ReportID:      efx.Identifier,
		ReportDate:    date(efx.ReportDate),
		GeneratedAt:   date(efx.ReportDate),
		Accounts:      []model.Account{},
		NegativeItems: []model.NegativeItem{},
		Inquiries:     []model.Inquiry{},
		PublicRecords: []model.PublicRecord{},
	}

	if len(efx.Models) > 0 {
		m := efx.Models[0]
		factors := make([]model.ScoreFactor, 0, len(m.Reasons))
		for _, r := range m.Reasons {
			factors = append(factors, model.ScoreFactor{Code: r.Code, Description: r.Description})
		}
		value := m.Score
		if value < 300 || value > 850 {
			value = 0
		}
		report.Score = model.Score{Value: value, Model: m.ModelNumber, Factors: factors}
	}

	for _, t := range efx.Trades {
		masked := model.MaskAccountNumber(t.AccountNumber)
		report.Accounts = append(report.Accounts, model.Account{
			CreditorName:   t.CustomerName,
			AccountNumber:  masked,
			AccountType:    equifaxAccountType(t.PortfolioTypeCode.Code),
			Balance:        t.Balance,
			CreditLimit:    t.CreditLimit,
			PaymentStatus:  t.Rate.Description,
			IsOpen:         t.AccountClosedDate == "",
			OpenedAt:       date(t.DateOpened),
			LastReportedAt: date(t.DateReported),
		})

		if equifaxDerogatory(t.Rate.Code) {
			itemType := model.ItemLatePayment
			for _, n := range t.NarrativeCodes {
				if classified := classifyItemType(n.Description); classified != model.ItemOther {
					itemType = classified
					break
				}
			}
			report.NegativeItems = append(report.NegativeItems, model.NegativeItem{
				Creditor:      firstNonEmpty(t.CustomerName, "Unknown Creditor"),
				Type:          itemType,
				Balance:       t.Balance,
				ReportedAt:    date(t.DateReported),
				AccountNumber: masked,
				Status:        t.Rate.Description,
			})
		}
	}

	for _, c := range efx.Collections {
		report.NegativeItems = append(report.NegativeItems, model.NegativeItem{
			Creditor:      firstNonEmpty(c.CustomerName, "Unknown Collector"),
			Type:          model.ItemCollection,
			Balance:       c.Balance,
			ReportedAt:    date(c.DateReported),
			AccountNumber: model.MaskAccountNumber(c.AccountNumber),
			Status:        c.StatusCode,
		})
	}

	for _, inq := range efx.Inquiries {
		report.Inquiries = append(report.Inquiries, model.Inquiry{
			Creditor: inq.CustomerName,
			Date:     date(inq.DateOfInquiry),
			Hard:     !strings.EqualFold(inq.Type, "soft"),
		})
	}

	for _, b := range efx.Bankruptcies {
		report.PublicRecords = append(report.PublicRecords, model.PublicRecord{
			Type:    firstNonEmpty(b.Type, "bankruptcy"),
			Court:   b.CourtName,
			FiledAt: date(b.DateFiled),
			Amount:  b.Liabilities,
			Status:  b.Disposition,
		})
		report.NegativeItems = append(report.NegativeItems, model.NegativeItem{
			Creditor:      firstNonEmpty(b.CourtName, "Public Record"),
			Type:          model.ItemBankruptcy,
			Balance:       b.Liabilities,
			ReportedAt:    date(b.DateFiled),
			AccountNumber: "",
			Status:        b.Disposition,
		})
	}

	return report, nil
}

// equifaxAccountType maps Equifax portfolio type codes to canonical names.
func equifaxAccountType(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "R":
		return "credit_card"
	case "I":
		return "installment"
	case "M":
		return "mortgage"
	case "O":
		return "open"
	case "":
		return ""
	default:
		return strings.ToLower(code)
	}
}

// equifaxDerogatory reports whether a rate code indicates delinquency.
// "0" and "1" are current/paid-as-agreed; higher codes are 30+ days late,
// charge-offs, or collections.
func equifaxDerogatory(rateCode string) bool {
	c := strings.TrimSpace(rateCode)
	return c != "" && c != "0" && c != "1"
}
