// Package driven defines the driven ports (outbound dependencies) of the
// credit report core.
package driven

import (
	"context"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// BureauClient defines the driven port for pulling a raw report from one
// credit bureau. Implementations are either live HTTP clients or sandbox
// generators; callers can distinguish via Live().
type BureauClient interface {
	// Pull fetches a raw provider-shaped report for the given identity.
	// Fails with *model.AuthenticationError or *model.UpstreamError.
	Pull(ctx context.Context, identity model.SubjectIdentity) (model.RawReport, error)
	// Bureau returns the provider this client speaks to.
	Bureau() model.Bureau
	// Live reports whether this client uses real credentials (false in
	// sandbox mode).
	Live() bool
}

// BureauProvider resolves the client for each bureau and reports which
// bureaus run live versus in sandbox mode.
type BureauProvider interface {
	For(bureau model.Bureau) BureauClient
	Availability() []model.BureauAvailability
}
