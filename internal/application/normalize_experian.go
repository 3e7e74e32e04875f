package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// Experian's wire format. Amounts and scores arrive as zero-padded strings;
// every field may be absent.
type experianPayload struct {
	CreditProfile *experianCreditProfile `json:"creditProfile"`
}

type experianCreditProfile struct {
	HeaderRecord struct {
		ReportDate   string `json:"reportDate"`
		ReportNumber string `json:"reportNumber"`
	} `json:"headerRecord"`
	RiskModel []struct {
		Score          string `json:"score"`
		ModelIndicator string `json:"modelIndicator"`
		ScoreFactors   []struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"scoreFactors"`
	} `json:"riskModel"`
	Tradeline []struct {
		SubscriberName          string `json:"subscriberName"`
		AccountNumber           string `json:"accountNumber"`
		AccountType             string `json:"accountType"`
		BalanceAmount           string `json:"balanceAmount"`
		CreditLimitAmount       string `json:"creditLimitAmount"`
		OpenOrClosed            string `json:"openOrClosed"`
		OpenDate                string `json:"openDate"`
		StatusDate              string `json:"statusDate"`
		DerogatoryDataIndicator bool   `json:"derogatoryDataIndicator"`
		EnhancedPaymentData     struct {
			PaymentStatus string `json:"paymentStatus"`
		} `json:"enhancedPaymentData"`
	} `json:"tradeline"`
	Inquiry []struct {
		SubscriberName string `json:"subscriberName"`
		InquiryDate    string `json:"inquiryDate"`
		InquiryType    string `json:"inquiryType"`
	} `json:"inquiry"`
	PublicRecord []struct {
		RecordType string `json:"recordType"`
		CourtName  string `json:"courtName"`
		FilingDate string `json:"filingDate"`
		Amount     string `json:"amount"`
		Status     string `json:"status"`
	} `json:"publicRecord"`
}

// normalizeExperian maps an Experian credit-profile payload onto the
// canonical model. Derogatory tradelines become negative items classified
// by their payment status code.
func normalizeExperian(body json.RawMessage) (model.Report, error) {
	var payload experianPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Report{}, &model.NormalizationError{Bureau: model.BureauExperian, Reason: fmt.Sprintf("decode payload: %v", err)}
	}
	if payload.CreditProfile == nil {
		return model.Report{}, &model.NormalizationError{Bureau: model.BureauExperian, Reason: "missing creditProfile root node"}
	}
	cp := payload.CreditProfile

	report := model.Report{
		ReportID:      cp.HeaderRecord.ReportNumber,
		ReportDate:    date(cp.HeaderRecord.ReportDate),
		GeneratedAt:   date(cp.HeaderRecord.ReportDate),
		Accounts:      []model.Account{},
		NegativeItems: []model.NegativeItem{},
		Inquiries:     []model.Inquiry{},
		PublicRecords: []model.PublicRecord{},
	}

	if len(cp.RiskModel) > 0 {
		rm := cp.RiskModel[0]
		factors := make([]model.ScoreFactor, 0, len(rm.ScoreFactors))
		for _, f := range rm.ScoreFactors {
			factors = append(factors, model.ScoreFactor{Code: f.Code, Description: f.Description})
		}
		report.Score = model.Score{
			Value:   scoreValue(rm.Score),
			Model:   rm.ModelIndicator,
			Factors: factors,
		}
	}

	for _, t := range cp.Tradeline {
		masked := model.MaskAccountNumber(t.AccountNumber)
		report.Accounts = append(report.Accounts, model.Account{
			CreditorName:   t.SubscriberName,
			AccountNumber:  masked,
			AccountType:    experianAccountType(t.AccountType),
			Balance:        money(t.BalanceAmount),
			CreditLimit:    money(t.CreditLimitAmount),
			PaymentStatus:  t.EnhancedPaymentData.PaymentStatus,
			IsOpen:         !strings.EqualFold(t.OpenOrClosed, "C"),
			OpenedAt:       date(t.OpenDate),
			LastReportedAt: date(t.StatusDate),
		})

		if t.DerogatoryDataIndicator {
			creditor := t.SubscriberName
			if creditor == "" {
				creditor = "Unknown Creditor"
			}
			itemType := classifyItemType(t.EnhancedPaymentData.PaymentStatus)
			if itemType == model.ItemOther && strings.EqualFold(t.AccountType, "collection") {
				itemType = model.ItemCollection
			}
			report.NegativeItems = append(report.NegativeItems, model.NegativeItem{
				Creditor:      creditor,
				Type:          itemType,
				Balance:       money(t.BalanceAmount),
				ReportedAt:    date(t.StatusDate),
				AccountNumber: masked,
				Status:        t.EnhancedPaymentData.PaymentStatus,
			})
		}
	}

	for _, inq := range cp.Inquiry {
		report.Inquiries = append(report.Inquiries, model.Inquiry{
			Creditor: inq.SubscriberName,
			Date:     date(inq.InquiryDate),
			Hard:     !strings.EqualFold(inq.InquiryType, "soft"),
		})
	}

	for _, pr := range cp.PublicRecord {
		report.PublicRecords = append(report.PublicRecords, model.PublicRecord{
			Type:    pr.RecordType,
			Court:   pr.CourtName,
			FiledAt: date(pr.FilingDate),
			Amount:  money(pr.Amount),
			Status:  pr.Status,
		})
		if classifyItemType(pr.RecordType) == model.ItemBankruptcy {
			report.NegativeItems = append(report.NegativeItems, model.NegativeItem{
				Creditor:      firstNonEmpty(pr.CourtName, "Public Record"),
				Type:          model.ItemBankruptcy,
				Balance:       money(pr.Amount),
				ReportedAt:    date(pr.FilingDate),
				AccountNumber: "",
				Status:        pr.Status,
			})
		}
	}

	return report, nil
}

// experianAccountType maps Experian account type codes to canonical names.
func experianAccountType(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "CC", "R":
		return "credit_card"
	case "I", "IL":
		return "installment"
	case "M":
		return "mortgage"
	case "A":
		return "auto"
	case "":
		return ""
	default:
		return strings.ToLower(code)
	}
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
