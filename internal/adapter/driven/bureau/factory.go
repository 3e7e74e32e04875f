package bureau

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/creditwatch/creditwatch/internal/config"
	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BureauProvider = (*Factory)(nil)

// Factory builds and holds one client per bureau: a live HTTP client when
// credentials are configured, otherwise the sandbox generator. The degrade
// to sandbox is decided once at construction and logged explicitly.
type Factory struct {
	clients map[model.Bureau]driven.BureauClient
}

// NewFactory constructs clients for all three bureaus from config.
func NewFactory(cfg *config.Config) *Factory {
	httpc := &http.Client{Timeout: cfg.PullTimeout}

	clients := make(map[model.Bureau]driven.BureauClient, 3)
	for _, bureau := range model.AllBureaus() {
		creds := cfg.Bureaus[bureau]
		if creds.HasCredentials() {
			clients[bureau] = &liveClient{
				bureau:       bureau,
				clientID:     creds.ClientID,
				clientSecret: creds.ClientSecret,
				baseURL:      creds.BaseURL,
				spec:         specFor(bureau),
				httpc:        httpc,
			}
			slog.Info("bureau client created", "bureau", bureau, "mode", "live")
		} else {
			clients[bureau] = NewSandbox(bureau)
			slog.Warn("no credentials configured, degrading to sandbox mode",
				"bureau", bureau,
			)
		}
	}

	return &Factory{clients: clients}
}

// For returns the client for the given bureau.
func (f *Factory) For(bureau model.Bureau) driven.BureauClient {
	return f.clients[bureau]
}

// Availability reports live-vs-sandbox mode per bureau in canonical order.
func (f *Factory) Availability() []model.BureauAvailability {
	out := make([]model.BureauAvailability, 0, 3)
	for _, bureau := range model.AllBureaus() {
		live := f.clients[bureau].Live()
		out = append(out, model.BureauAvailability{
			Bureau:  bureau,
			Live:    live,
			Sandbox: !live,
		})
	}
	return out
}

// specFor returns the wire spec for a bureau.
func specFor(bureau model.Bureau) providerSpec {
	switch bureau {
	case model.BureauExperian:
		return experianSpec()
	case model.BureauEquifax:
		return equifaxSpec()
	default:
		return transunionSpec()
	}
}

// newTestClient builds a live client against an arbitrary base URL with a
// short timeout. Used by tests with httptest servers.
func newTestClient(bureau model.Bureau, baseURL, clientID, clientSecret string) *liveClient {
	return &liveClient{
		bureau:       bureau,
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		spec:         specFor(bureau),
		httpc:        &http.Client{Timeout: 5 * time.Second},
	}
}
