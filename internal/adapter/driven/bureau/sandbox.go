package bureau

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BureauClient = (*sandboxClient)(nil)

// sandboxClient synthesizes plausible canonical reports for environments
// without live credentials, so downstream normalization, snapshotting, and
// change detection can be fully exercised.
type sandboxClient struct {
	bureau model.Bureau
	now    func() time.Time
}

// NewSandbox creates a sandbox client for the given bureau.
func NewSandbox(bureau model.Bureau) driven.BureauClient {
	return &sandboxClient{bureau: bureau, now: time.Now}
}

func (c *sandboxClient) Bureau() model.Bureau { return c.bureau }

func (c *sandboxClient) Live() bool { return false }

// Pull generates a canonical report seeded by (identity, bureau, day).
// Same-day pulls for the same subject are identical, so repeated pulls diff
// cleanly to zero changes; content drifts day to day.
func (c *sandboxClient) Pull(_ context.Context, identity model.SubjectIdentity) (model.RawReport, error) {
	now := c.now().UTC()
	rng := rand.New(rand.NewSource(sandboxSeed(identity, c.bureau, now)))

	report := generateSandboxReport(rng, c.bureau, identity, now)

	body, err := json.Marshal(report)
	if err != nil {
		return model.RawReport{}, fmt.Errorf("marshal sandbox report: %w", err)
	}

	return model.RawReport{Bureau: c.bureau, Body: body, Sandbox: true}, nil
}

// sandboxSeed hashes the identity, bureau, and calendar day into a stable seed.
func sandboxSeed(identity model.SubjectIdentity, bureau model.Bureau, now time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(identity.FirstName))
	_, _ = h.Write([]byte(identity.LastName))
	_, _ = h.Write([]byte(identity.NationalIDLast4))
	_, _ = h.Write([]byte(bureau))
	_, _ = h.Write([]byte(now.Format("2006-01-02")))
	return int64(h.Sum64())
}

var sandboxCreditors = []string{
	"Capital One", "Chase Card Services", "Discover Bank", "Wells Fargo",
	"Bank of America", "Citibank", "Synchrony Bank", "US Bank",
	"Navy Federal CU", "American Express",
}

var sandboxCollectors = []string{
	"Midland Credit Management", "Portfolio Recovery Associates",
	"LVNV Funding", "Enhanced Recovery Company", "IC System",
}

var sandboxFactors = []model.ScoreFactor{
	{Code: "01", Description: "Proportion of balances to credit limits is too high"},
	{Code: "05", Description: "Too many accounts with balances"},
	{Code: "13", Description: "Time since delinquency is too recent or unknown"},
	{Code: "18", Description: "Number of accounts with delinquency"},
	{Code: "21", Description: "Amount past due on accounts"},
}

// generateSandboxReport builds a full canonical report: bounded score,
// realistic tradelines, and 0-4 negative items skewed upward as the score
// drops.
func generateSandboxReport(rng *rand.Rand, bureau model.Bureau, identity model.SubjectIdentity, now time.Time) model.Report {
	score := 540 + rng.Intn(290) // [540, 830)

	accountCount := 3 + rng.Intn(5)
	accounts := make([]model.Account, 0, accountCount)
	for i := 0; i < accountCount; i++ {
		creditor := sandboxCreditors[rng.Intn(len(sandboxCreditors))]
		limit := float64(1000 + rng.Intn(19)*500)
		accounts = append(accounts, model.Account{
			CreditorName:   creditor,
			AccountNumber:  model.MaskAccountNumber(fmt.Sprintf("%08d", rng.Intn(100000000))),
			AccountType:    "credit_card",
			Balance:        float64(rng.Intn(int(limit))),
			CreditLimit:    limit,
			PaymentStatus:  "current",
			IsOpen:         rng.Intn(5) != 0,
			OpenedAt:       now.AddDate(-1-rng.Intn(8), -rng.Intn(12), 0),
			LastReportedAt: now.AddDate(0, 0, -rng.Intn(30)),
		})
	}

	// Weak scores carry more derogatory items.
	maxItems := 0
	switch {
	case score < 600:
		maxItems = 4
	case score < 680:
		maxItems = 3
	case score < 740:
		maxItems = 2
	default:
		maxItems = 1
	}
	itemCount := rng.Intn(maxItems + 1)
	itemTypes := []model.NegativeItemType{model.ItemCollection, model.ItemChargeOff, model.ItemLatePayment}
	items := make([]model.NegativeItem, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		itemType := itemTypes[rng.Intn(len(itemTypes))]
		creditor := sandboxCollectors[rng.Intn(len(sandboxCollectors))]
		if itemType == model.ItemLatePayment {
			creditor = sandboxCreditors[rng.Intn(len(sandboxCreditors))]
		}
		items = append(items, model.NegativeItem{
			Creditor:      creditor,
			Type:          itemType,
			Balance:       float64(100 + rng.Intn(4900)),
			ReportedAt:    now.AddDate(0, -rng.Intn(24), 0),
			AccountNumber: model.MaskAccountNumber(fmt.Sprintf("%08d", rng.Intn(100000000))),
			Status:        "open",
		})
	}

	inquiryCount := rng.Intn(4)
	inquiries := make([]model.Inquiry, 0, inquiryCount)
	for i := 0; i < inquiryCount; i++ {
		inquiries = append(inquiries, model.Inquiry{
			Creditor: sandboxCreditors[rng.Intn(len(sandboxCreditors))],
			Date:     now.AddDate(0, 0, -rng.Intn(365)),
			Hard:     rng.Intn(3) != 0,
		})
	}

	factorCount := 2 + rng.Intn(3)
	factors := make([]model.ScoreFactor, 0, factorCount)
	for _, idx := range rng.Perm(len(sandboxFactors))[:factorCount] {
		factors = append(factors, sandboxFactors[idx])
	}

	return model.Report{
		Bureau:      bureau,
		ReportID:    fmt.Sprintf("%s%s-%s-%d", model.SandboxReportIDPrefix, bureau, now.Format("20060102"), rng.Intn(1000000)),
		ReportDate:  now,
		GeneratedAt: now,
		Score: model.Score{
			Value:   score,
			Model:   "VantageScore 3.0",
			Factors: factors,
		},
		Accounts:      accounts,
		NegativeItems: items,
		Inquiries:     inquiries,
		PublicRecords: []model.PublicRecord{},
		Summary:       model.Summarize(accounts, items, inquiries),
	}
}
