// Package bureau implements the BureauClient port: one live HTTP client
// per credit bureau plus a sandbox generator used when a bureau has no
// configured credentials.
package bureau

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BureauClient = (*liveClient)(nil)

// providerSpec captures the per-provider wire differences: endpoint paths
// and the payload shape built from a subject identity.
type providerSpec struct {
	tokenPath    string
	reportPath   string
	buildPayload func(identity model.SubjectIdentity) any
}

// liveClient pulls reports from a real bureau API using OAuth2
// client-credentials bearer tokens.
type liveClient struct {
	bureau       model.Bureau
	clientID     string
	clientSecret string
	baseURL      string
	spec         providerSpec
	httpc        *http.Client
}

// Bureau returns the provider this client speaks to.
func (c *liveClient) Bureau() model.Bureau { return c.bureau }

// Live reports that this client uses real credentials.
func (c *liveClient) Live() bool { return true }

// Pull fetches a raw report for the given identity. It authenticates via
// the cached bearer token, posts the provider-shaped request payload, and
// surfaces the verbatim provider response body.
func (c *liveClient) Pull(ctx context.Context, identity model.SubjectIdentity) (model.RawReport, error) {
	token, err := tokens.get(ctx, c)
	if err != nil {
		return model.RawReport{}, err
	}

	payload, err := json.Marshal(c.spec.buildPayload(identity))
	if err != nil {
		return model.RawReport{}, fmt.Errorf("marshal %s request payload: %w", c.bureau, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.spec.reportPath, bytes.NewReader(payload))
	if err != nil {
		return model.RawReport{}, fmt.Errorf("build %s report request: %w", c.bureau, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return model.RawReport{}, &model.UpstreamError{Bureau: c.bureau, Reason: fmt.Sprintf("report request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.RawReport{}, &model.UpstreamError{Bureau: c.bureau, Reason: fmt.Sprintf("read report response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Drop the cached token so the next pull re-authenticates.
		tokens.invalidate(c.bureau)
		return model.RawReport{}, &model.AuthenticationError{Bureau: c.bureau, Reason: fmt.Sprintf("report endpoint rejected credentials (status %d)", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return model.RawReport{}, &model.UpstreamError{Bureau: c.bureau, Status: resp.StatusCode, Reason: truncate(string(body), 200)}
	}

	if !json.Valid(body) {
		return model.RawReport{}, &model.UpstreamError{Bureau: c.bureau, Status: resp.StatusCode, Reason: "response body is not valid JSON"}
	}

	slog.Debug("bureau report pulled",
		"bureau", c.bureau,
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	return model.RawReport{Bureau: c.bureau, Body: body}, nil
}

// truncate bounds provider error bodies before they land in logs and
// pull records.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
