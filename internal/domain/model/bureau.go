// Package model defines the canonical domain types for credit report
// ingestion: normalized reports, immutable snapshots, detected changes,
// and the pull audit trail.
package model

import "fmt"

// Bureau identifies one of the three external credit-reporting providers.
type Bureau string

const (
	BureauExperian   Bureau = "experian"
	BureauEquifax    Bureau = "equifax"
	BureauTransUnion Bureau = "transunion"
)

// AllBureaus lists every supported bureau in canonical order. Iteration
// order matters for deterministic fan-out and analysis output.
func AllBureaus() []Bureau {
	return []Bureau{BureauExperian, BureauEquifax, BureauTransUnion}
}

// ParseBureau converts a string to a Bureau, rejecting unknown values.
func ParseBureau(s string) (Bureau, error) {
	switch Bureau(s) {
	case BureauExperian, BureauEquifax, BureauTransUnion:
		return Bureau(s), nil
	}
	return "", fmt.Errorf("unknown bureau %q", s)
}

// BureauAvailability reports whether a bureau has live credentials
// configured or is running in sandbox mode.
type BureauAvailability struct {
	Bureau  Bureau
	Live    bool
	Sandbox bool
}
