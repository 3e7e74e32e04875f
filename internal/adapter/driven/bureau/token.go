package bureau

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// tokenRefreshSkew is how close to expiry a cached token may get before it
// is refreshed.
const tokenRefreshSkew = 60 * time.Second

// tokens is the adapter-scoped token cache keyed by provider. It starts
// empty and is only reachable from this package.
var tokens = newTokenCache()

// tokenCache caches one bearer token per provider. Refresh runs under a
// per-provider lock so concurrent pulls against an expired token trigger a
// single re-authentication call instead of a thundering herd.
type tokenCache struct {
	mu      sync.Mutex
	entries map[model.Bureau]*tokenEntry
}

type tokenEntry struct {
	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func newTokenCache() *tokenCache {
	return &tokenCache{entries: make(map[model.Bureau]*tokenEntry)}
}

// get returns a valid bearer token for the client's provider, refreshing
// via the provider's token endpoint when the cached token is absent or
// within the refresh skew of expiry.
func (tc *tokenCache) get(ctx context.Context, c *liveClient) (string, error) {
	tc.mu.Lock()
	entry, ok := tc.entries[c.bureau]
	if !ok {
		entry = &tokenEntry{}
		tc.entries[c.bureau] = entry
	}
	tc.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.accessToken != "" && time.Until(entry.expiresAt) > tokenRefreshSkew {
		return entry.accessToken, nil
	}

	token, expiresIn, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	entry.accessToken = token
	entry.expiresAt = time.Now().Add(expiresIn)
	return token, nil
}

// invalidate drops the cached token for a provider after a rejected request
// so the next pull re-authenticates.
func (tc *tokenCache) invalidate(bureau model.Bureau) {
	tc.mu.Lock()
	entry, ok := tc.entries[bureau]
	tc.mu.Unlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.accessToken = ""
	entry.expiresAt = time.Time{}
	entry.mu.Unlock()
}

// tokenResponse is the OAuth2 client-credentials grant response shared by
// all three providers.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// fetchToken performs the client-credentials grant against the provider's
// token endpoint.
func (c *liveClient) fetchToken(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.spec.tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", 0, &model.AuthenticationError{Bureau: c.bureau, Reason: fmt.Sprintf("token request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &model.AuthenticationError{Bureau: c.bureau, Reason: fmt.Sprintf("token endpoint returned status %d", resp.StatusCode)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", 0, &model.AuthenticationError{Bureau: c.bureau, Reason: fmt.Sprintf("decode token response: %v", err)}
	}
	if tr.AccessToken == "" {
		return "", 0, &model.AuthenticationError{Bureau: c.bureau, Reason: "token endpoint returned empty access_token"}
	}

	expiresIn := time.Duration(tr.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = 10 * time.Minute
	}

	return tr.AccessToken, expiresIn, nil
}
