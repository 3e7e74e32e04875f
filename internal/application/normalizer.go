// Package application contains use-case orchestration services and the
// pure domain algorithms: normalization, change detection, and
// cross-bureau analysis.
package application

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// Normalize maps a raw provider payload into the canonical Report model.
// Pure, no I/O. Sandbox payloads are already canonical and pass through
// unchanged. Partial or sparse provider data is tolerated via defaulting;
// only a missing structural root node fails with *model.NormalizationError.
func Normalize(raw model.RawReport) (model.Report, error) {
	if raw.Sandbox {
		return normalizeSandbox(raw)
	}

	var report model.Report
	var err error
	switch raw.Bureau {
	case model.BureauExperian:
		report, err = normalizeExperian(raw.Body)
	case model.BureauEquifax:
		report, err = normalizeEquifax(raw.Body)
	case model.BureauTransUnion:
		report, err = normalizeTransUnion(raw.Body)
	default:
		return model.Report{}, fmt.Errorf("unknown bureau %q", raw.Bureau)
	}
	if err != nil {
		return model.Report{}, err
	}

	report.Bureau = raw.Bureau
	if report.ReportID == "" {
		// Synthetic identifier when the provider omits one.
		report.ReportID = fmt.Sprintf("%s-%d", strings.ToUpper(string(raw.Bureau)[:3]), report.ReportDate.Unix())
	}
	// Never trust provider summaries; they disagree with their own line items.
	report.Summary = model.Summarize(report.Accounts, report.NegativeItems, report.Inquiries)

	if err := report.Validate(); err != nil {
		return model.Report{}, &model.NormalizationError{Bureau: raw.Bureau, Reason: err.Error()}
	}

	return report, nil
}

// normalizeSandbox decodes an already-canonical sandbox report. Sandbox
// reports carry the reserved report-id prefix and re-normalize to
// themselves.
func normalizeSandbox(raw model.RawReport) (model.Report, error) {
	var report model.Report
	if err := json.Unmarshal(raw.Body, &report); err != nil {
		return model.Report{}, &model.NormalizationError{Bureau: raw.Bureau, Reason: fmt.Sprintf("decode sandbox report: %v", err)}
	}
	if !report.IsSandbox() {
		return model.Report{}, &model.NormalizationError{Bureau: raw.Bureau, Reason: "sandbox payload missing reserved report id prefix"}
	}
	return report, nil
}

// classifyItemType maps a provider-specific status or narrative code onto
// the fixed internal negative-item taxonomy.
func classifyItemType(code string) model.NegativeItemType {
	c := strings.ToLower(strings.TrimSpace(code))
	switch {
	case c == "":
		return model.ItemOther
	case strings.Contains(c, "collection") || c == "col" || c == "9":
		return model.ItemCollection
	case strings.Contains(c, "charge") || c == "co" || c == "chargeoff" || c == "8":
		return model.ItemChargeOff
	case strings.Contains(c, "late") || strings.Contains(c, "past due") || c == "30" || c == "60" || c == "90" || c == "120":
		return model.ItemLatePayment
	case strings.Contains(c, "bankrupt") || c == "bk" || c == "7" || c == "13":
		return model.ItemBankruptcy
	case strings.Contains(c, "foreclos"):
		return model.ItemForeclosure
	case strings.Contains(c, "repo"):
		return model.ItemRepossession
	case strings.Contains(c, "inquiry"):
		return model.ItemInquiry
	default:
		return model.ItemOther
	}
}

// money parses a provider amount that may arrive as "1500", "$1,500.00",
// or empty. Missing or malformed values default to 0.
func money(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// date parses a provider date across the formats the three bureaus use.
// Missing or malformed values default to the zero time.
var dateFormats = []string{"2006-01-02", "01/02/2006", "01/2006", "20060102", time.RFC3339}

func date(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// scoreValue parses a provider score that may arrive zero-padded ("0712")
// or signed ("+0712"). Out-of-range values are treated as absent.
func scoreValue(s string) int {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "+"))
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimLeft(s, "0"))
	if err != nil {
		return 0
	}
	if v < 300 || v > 850 {
		return 0
	}
	return v
}
