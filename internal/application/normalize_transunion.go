package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// TransUnion's wire format. Everything nests under document/response/
// subject/subjectRecord; scores arrive signed and zero-padded; collections
// and trades are separate segments under the credit block.
type transunionPayload struct {
	Document *struct {
		Response struct {
			TransactionDate string `json:"transactionDate"`
			TransactionID   string `json:"transactionId"`
			Subject         struct {
				SubjectRecord *struct {
					Custom struct {
						Credit transunionCredit `json:"credit"`
					} `json:"custom"`
					AddOnProduct []struct {
						ScoreModel struct {
							Score struct {
								Results   string `json:"results"`
								ScoreCard string `json:"scoreCard"`
								Factors   struct {
									Factor []struct {
										Rank int    `json:"rank"`
										Code string `json:"code"`
									} `json:"factor"`
								} `json:"factors"`
							} `json:"score"`
						} `json:"scoreModel"`
					} `json:"addOnProduct"`
				} `json:"subjectRecord"`
			} `json:"subject"`
		} `json:"response"`
	} `json:"document"`
}

type transunionCredit struct {
	Trade []struct {
		Subscriber struct {
			Name struct {
				Unparsed string `json:"unparsed"`
			} `json:"name"`
		} `json:"subscriber"`
		AccountNumber string `json:"accountNumber"`
		Account       struct {
			Type string `json:"type"`
		} `json:"account"`
		CurrentBalance float64 `json:"currentBalance"`
		CreditLimit    float64 `json:"creditLimit"`
		DateOpened     string  `json:"dateOpened"`
		DateEffective  string  `json:"dateEffective"`
		DateClosed     string  `json:"dateClosed"`
		AccountRating  string  `json:"accountRating"`
		PaymentHistory struct {
			MaxDelinquency string `json:"maxDelinquency"`
		} `json:"paymentHistory"`
	} `json:"trade"`
	Collection []struct {
		Subscriber struct {
			Name struct {
				Unparsed string `json:"unparsed"`
			} `json:"name"`
		} `json:"subscriber"`
		AccountNumber  string  `json:"accountNumber"`
		CurrentBalance float64 `json:"currentBalance"`
		DateEffective  string  `json:"dateEffective"`
		Status         string  `json:"status"`
	} `json:"collection"`
	Inquiry []struct {
		Subscriber struct {
			Name struct {
				Unparsed string `json:"unparsed"`
			} `json:"name"`
		} `json:"subscriber"`
		Date string `json:"date"`
		Type string `json:"type"`
	} `json:"inquiry"`
	PublicRecord []struct {
		Type      string  `json:"type"`
		CourtName string  `json:"courtName"`
		DateFiled string  `json:"dateFiled"`
		Amount    float64 `json:"amount"`
		Status    string  `json:"status"`
	} `json:"publicRecord"`
}

// transunionFactorDescriptions is the subset of score factor codes
// TransUnion returns without text.
var transunionFactorDescriptions = map[string]string{
	"01": "Proportion of balances to credit limits is too high",
	"05": "Too many accounts with balances",
	"13": "Time since delinquency is too recent or unknown",
	"18": "Number of accounts with delinquency",
	"21": "Amount past due on accounts",
}

// normalizeTransUnion maps a TransUnion document payload onto the canonical
// model. Account ratings other than "01" (pays as agreed) are derogatory.
func normalizeTransUnion(body json.RawMessage) (model.Report, error) {
	var payload transunionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Report{}, &model.NormalizationError{Bureau: model.BureauTransUnion, Reason: fmt.Sprintf("decode payload: %v", err)}
	}
	if payload.Document == nil || payload.Document.Response.Subject.SubjectRecord == nil {
		return model.Report{}, &model.NormalizationError{Bureau: model.BureauTransUnion, Reason: "missing document subjectRecord root node"}
	}
	resp := payload.Document.Response
	record := resp.Subject.SubjectRecord
	credit := record.Custom.Credit

	report := model.Report{
		ReportID:      resp.TransactionID,
		ReportDate:    date(resp.TransactionDate),
		GeneratedAt:   date(resp.TransactionDate),
		Accounts:      []model.Account{},
		NegativeItems: []model.NegativeItem{},
		Inquiries:     []model.Inquiry{},
		PublicRecords: []model.PublicRecord{},
	}

	if len(record.AddOnProduct) > 0 {
		score := record.AddOnProduct[0].ScoreModel.Score
		factors := make([]model.ScoreFactor, 0, len(score.Factors.Factor))
		for _, f := range score.Factors.Factor {
			factors = append(factors, model.ScoreFactor{
				Code:        f.Code,
				Description: transunionFactorDescriptions[f.Code],
			})
		}
		report.Score = model.Score{
			Value:   scoreValue(score.Results),
			Model:   score.ScoreCard,
			Factors: factors,
		}
	}

	for _, t := range credit.Trade {
		masked := model.MaskAccountNumber(t.AccountNumber)
		report.Accounts = append(report.Accounts, model.Account{
			CreditorName:   t.Subscriber.Name.Unparsed,
			AccountNumber:  masked,
			AccountType:    transunionAccountType(t.Account.Type),
			Balance:        t.CurrentBalance,
			CreditLimit:    t.CreditLimit,
			PaymentStatus:  t.AccountRating,
			IsOpen:         t.DateClosed == "",
			OpenedAt:       date(t.DateOpened),
			LastReportedAt: date(t.DateEffective),
		})

		if transunionDerogatory(t.AccountRating) {
			itemType := classifyItemType(t.PaymentHistory.MaxDelinquency)
			if itemType == model.ItemOther {
				itemType = transunionRatingItemType(t.AccountRating)
			}
			report.NegativeItems = append(report.NegativeItems, model.NegativeItem{
				Creditor:      firstNonEmpty(t.Subscriber.Name.Unparsed, "Unknown Creditor"),
				Type:          itemType,
				Balance:       t.CurrentBalance,
				ReportedAt:    date(t.DateEffective),
				AccountNumber: masked,
				Status:        t.AccountRating,
			})
		}
	}

	for _, c := range credit.Collection {
		report.NegativeItems = append(report.NegativeItems, model.NegativeItem{
			Creditor:      firstNonEmpty(c.Subscriber.Name.Unparsed, "Unknown Collector"),
			Type:          model.ItemCollection,
			Balance:       c.CurrentBalance,
			ReportedAt:    date(c.DateEffective),
			AccountNumber: model.MaskAccountNumber(c.AccountNumber),
			Status:        c.Status,
		})
	}

	for _, inq := range credit.Inquiry {
		report.Inquiries = append(report.Inquiries, model.Inquiry{
			Creditor: inq.Subscriber.Name.Unparsed,
			Date:     date(inq.Date),
			Hard:     !strings.EqualFold(inq.Type, "soft"),
		})
	}

	for _, pr := range credit.PublicRecord {
		report.PublicRecords = append(report.PublicRecords, model.PublicRecord{
			Type:    pr.Type,
			Court:   pr.CourtName,
			FiledAt: date(pr.DateFiled),
			Amount:  pr.Amount,
			Status:  pr.Status,
		})
		if classifyItemType(pr.Type) == model.ItemBankruptcy {
			report.NegativeItems = append(report.NegativeItems, model.NegativeItem{
				Creditor:      firstNonEmpty(pr.CourtName, "Public Record"),
				Type:          model.ItemBankruptcy,
				Balance:       pr.Amount,
				ReportedAt:    date(pr.DateFiled),
				AccountNumber: "",
				Status:        pr.Status,
			})
		}
	}

	return report, nil
}

// transunionAccountType maps TransUnion account type codes to canonical names.
func transunionAccountType(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "CC", "CH":
		return "credit_card"
	case "AU":
		return "auto"
	case "MG", "RE":
		return "mortgage"
	case "IN":
		return "installment"
	case "":
		return ""
	default:
		return strings.ToLower(code)
	}
}

// transunionDerogatory reports whether an account rating is derogatory.
// "01" is pays-as-agreed; "UR"/"UC" are unrated.
func transunionDerogatory(rating string) bool {
	r := strings.ToUpper(strings.TrimSpace(rating))
	return r != "" && r != "01" && r != "UR" && r != "UC"
}

// transunionRatingItemType maps MOP account ratings to the taxonomy.
func transunionRatingItemType(rating string) model.NegativeItemType {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "09", "9B":
		return model.ItemChargeOff
	case "8A", "08":
		return model.ItemRepossession
	case "02", "03", "04", "05":
		return model.ItemLatePayment
	default:
		return model.ItemOther
	}
}
