package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SandboxReportIDPrefix marks synthetic reports produced by a sandbox
// adapter. Sandbox payloads are already canonical and bypass per-provider
// mapping in the normalizer.
const SandboxReportIDPrefix = "SBX-"

// RawReport is the opaque, provider-shaped payload returned by a bureau
// adapter. It is never persisted in the canonical model; only the matching
// provider's normalizer consumes it.
type RawReport struct {
	Bureau  Bureau
	Body    json.RawMessage
	Sandbox bool
}

// Score is a credit score with its model label and factor explanations.
type Score struct {
	Value   int           `json:"value"` // 0 means absent; otherwise in [300,850].
	Model   string        `json:"model"`
	Factors []ScoreFactor `json:"factors"`
}

// ScoreFactor is one (code, description) explanation attached to a score.
type ScoreFactor struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Account is one normalized tradeline.
type Account struct {
	CreditorName   string    `json:"creditor_name"`
	AccountNumber  string    `json:"account_number"` // Masked; at most last 4 digits.
	AccountType    string    `json:"account_type"`
	Balance        float64   `json:"balance"`
	CreditLimit    float64   `json:"credit_limit"` // 0 when the provider reports none.
	PaymentStatus  string    `json:"payment_status"`
	IsOpen         bool      `json:"is_open"`
	OpenedAt       time.Time `json:"opened_at"`
	LastReportedAt time.Time `json:"last_reported_at"`
}

// NegativeItemType is the fixed internal taxonomy for derogatory items.
type NegativeItemType string

const (
	ItemCollection   NegativeItemType = "collection"
	ItemChargeOff    NegativeItemType = "charge_off"
	ItemLatePayment  NegativeItemType = "late_payment"
	ItemBankruptcy   NegativeItemType = "bankruptcy"
	ItemForeclosure  NegativeItemType = "foreclosure"
	ItemRepossession NegativeItemType = "repossession"
	ItemInquiry      NegativeItemType = "inquiry"
	ItemOther        NegativeItemType = "other"
)

// NegativeItem is one derogatory tradeline or record.
type NegativeItem struct {
	Creditor      string           `json:"creditor"`
	Type          NegativeItemType `json:"type"`
	Balance       float64          `json:"balance"`
	ReportedAt    time.Time        `json:"reported_at"`
	AccountNumber string           `json:"account_number"` // Masked.
	Status        string           `json:"status"`
}

// Key returns the identity key used for exact-match set comparison across
// snapshots. No fuzzy matching.
func (n NegativeItem) Key() string {
	return n.Creditor + "|" + string(n.Type) + "|" + n.AccountNumber
}

// Inquiry is one credit inquiry.
type Inquiry struct {
	Creditor string    `json:"creditor"`
	Date     time.Time `json:"date"`
	Hard     bool      `json:"hard"`
}

// Key returns the identity key for inquiry comparison.
func (i Inquiry) Key() string {
	return i.Creditor + "|" + i.Date.UTC().Format("2006-01-02")
}

// PublicRecord is one public record entry (bankruptcy filing, lien, judgment).
type PublicRecord struct {
	Type    string    `json:"type"`
	Court   string    `json:"court"`
	FiledAt time.Time `json:"filed_at"`
	Amount  float64   `json:"amount"`
	Status  string    `json:"status"`
}

// ReportSummary holds aggregates recomputed from the normalized line items.
// Provider-supplied summaries are observed to disagree with their own line
// items, so they are never trusted.
type ReportSummary struct {
	TotalAccounts     int     `json:"total_accounts"`
	OpenAccounts      int     `json:"open_accounts"`
	ClosedAccounts    int     `json:"closed_accounts"`
	TotalBalance      float64 `json:"total_balance"`
	NegativeItemCount int     `json:"negative_item_count"`
	HardInquiryCount  int     `json:"hard_inquiry_count"`
	UtilizationRate   float64 `json:"utilization_rate"` // Percent, revolving balance over limit.
}

// Report is the canonical normalized credit report, the unit produced by
// normalization and wrapped by a Snapshot.
type Report struct {
	Bureau        Bureau         `json:"bureau"`
	ReportID      string         `json:"report_id"`
	ReportDate    time.Time      `json:"report_date"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Score         Score          `json:"score"`
	Accounts      []Account      `json:"accounts"`
	NegativeItems []NegativeItem `json:"negative_items"`
	Inquiries     []Inquiry      `json:"inquiries"`
	PublicRecords []PublicRecord `json:"public_records"`
	Summary       ReportSummary  `json:"summary"`
}

// IsSandbox reports whether this report was synthesized by a sandbox adapter.
func (r Report) IsSandbox() bool {
	return strings.HasPrefix(r.ReportID, SandboxReportIDPrefix)
}

// Validate enforces the canonical model invariants: score in [300,850] or
// absent, non-empty creditor and type on every negative item, and account
// numbers masked to at most the last 4 digits.
func (r Report) Validate() error {
	if r.Score.Value != 0 && (r.Score.Value < 300 || r.Score.Value > 850) {
		return fmt.Errorf("score %d outside [300,850]", r.Score.Value)
	}
	for i, item := range r.NegativeItems {
		if item.Creditor == "" {
			return fmt.Errorf("negative item %d has empty creditor", i)
		}
		if item.Type == "" {
			return fmt.Errorf("negative item %d has empty type", i)
		}
		if !isMasked(item.AccountNumber) {
			return fmt.Errorf("negative item %d account number not masked", i)
		}
	}
	for i, acct := range r.Accounts {
		if !isMasked(acct.AccountNumber) {
			return fmt.Errorf("account %d number not masked", i)
		}
	}
	return nil
}

// MaskAccountNumber reduces an account number to its last 4 digits prefixed
// with "****". Already-masked and short inputs pass through unchanged.
func MaskAccountNumber(raw string) string {
	digits := make([]rune, 0, len(raw))
	for _, ch := range raw {
		if ch >= '0' && ch <= '9' {
			digits = append(digits, ch)
		}
	}
	if len(digits) <= 4 {
		if strings.HasPrefix(raw, "****") {
			return raw
		}
		if len(digits) == 0 {
			return ""
		}
		return "****" + string(digits)
	}
	return "****" + string(digits[len(digits)-4:])
}

// isMasked returns true when the account number exposes at most 4 digits.
func isMasked(num string) bool {
	count := 0
	for _, ch := range num {
		if ch >= '0' && ch <= '9' {
			count++
		}
	}
	return count <= 4
}
