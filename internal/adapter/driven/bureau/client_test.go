package bureau

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

var testIdentity = model.SubjectIdentity{
	FirstName:       "Jane",
	LastName:        "Doe",
	DOB:             "1988-04-12",
	NationalIDLast4: "1234",
}

// bureauServer is an httptest stand-in for one provider: a token endpoint
// plus a report endpoint.
type bureauServer struct {
	*httptest.Server
	tokenCalls  atomic.Int64
	reportCalls atomic.Int64

	tokenStatus  int
	token        string
	expiresIn    int
	reportStatus int
	reportBody   string
}

func newBureauServer(t *testing.T, bureau model.Bureau) *bureauServer {
	t.Helper()

	bs := &bureauServer{
		tokenStatus:  http.StatusOK,
		token:        "tok-1",
		expiresIn:    3600,
		reportStatus: http.StatusOK,
		reportBody:   `{"creditProfile": {}}`,
	}

	spec := specFor(bureau)
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+spec.tokenPath, func(w http.ResponseWriter, r *http.Request) {
		bs.tokenCalls.Add(1)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "token request must use basic auth")
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))

		w.WriteHeader(bs.tokenStatus)
		if bs.tokenStatus == http.StatusOK {
			_ = json.NewEncoder(w).Encode(tokenResponse{
				AccessToken: bs.token,
				TokenType:   "Bearer",
				ExpiresIn:   bs.expiresIn,
			})
		}
	})
	mux.HandleFunc("POST "+spec.reportPath, func(w http.ResponseWriter, r *http.Request) {
		bs.reportCalls.Add(1)
		assert.Equal(t, "Bearer "+bs.token, r.Header.Get("Authorization"))

		w.WriteHeader(bs.reportStatus)
		_, _ = w.Write([]byte(bs.reportBody))
	})

	bs.Server = httptest.NewServer(mux)
	t.Cleanup(bs.Close)
	return bs
}

func resetTokens(t *testing.T) {
	t.Helper()
	tokens = newTokenCache()
	t.Cleanup(func() { tokens = newTokenCache() })
}

func TestLiveClientPull(t *testing.T) {
	resetTokens(t)
	srv := newBureauServer(t, model.BureauExperian)
	client := newTestClient(model.BureauExperian, srv.URL, "client-id", "client-secret")

	raw, err := client.Pull(context.Background(), testIdentity)
	require.NoError(t, err)

	assert.Equal(t, model.BureauExperian, raw.Bureau)
	assert.False(t, raw.Sandbox)
	assert.JSONEq(t, `{"creditProfile": {}}`, string(raw.Body))
	assert.True(t, client.Live())
}

func TestLiveClientReusesCachedToken(t *testing.T) {
	resetTokens(t)
	srv := newBureauServer(t, model.BureauEquifax)
	client := newTestClient(model.BureauEquifax, srv.URL, "client-id", "client-secret")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.Pull(ctx, testIdentity)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), srv.tokenCalls.Load())
	assert.Equal(t, int64(3), srv.reportCalls.Load())
}

func TestLiveClientTokenFailure(t *testing.T) {
	resetTokens(t)
	srv := newBureauServer(t, model.BureauExperian)
	srv.tokenStatus = http.StatusUnauthorized
	client := newTestClient(model.BureauExperian, srv.URL, "client-id", "client-secret")

	_, err := client.Pull(context.Background(), testIdentity)
	require.Error(t, err)

	var authErr *model.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.BureauExperian, authErr.Bureau)
	assert.Equal(t, int64(0), srv.reportCalls.Load())
}

func TestLiveClientRejectedTokenIsInvalidated(t *testing.T) {
	resetTokens(t)
	srv := newBureauServer(t, model.BureauTransUnion)
	client := newTestClient(model.BureauTransUnion, srv.URL, "client-id", "client-secret")
	ctx := context.Background()

	// Seed the cache.
	_, err := client.Pull(ctx, testIdentity)
	require.NoError(t, err)
	require.Equal(t, int64(1), srv.tokenCalls.Load())

	// The provider starts rejecting the token.
	srv.reportStatus = http.StatusUnauthorized
	_, err = client.Pull(ctx, testIdentity)
	var authErr *model.AuthenticationError
	require.ErrorAs(t, err, &authErr)

	// Next pull re-authenticates instead of reusing the dropped token.
	srv.reportStatus = http.StatusOK
	_, err = client.Pull(ctx, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, int64(2), srv.tokenCalls.Load())
}

func TestLiveClientUpstreamError(t *testing.T) {
	resetTokens(t)
	srv := newBureauServer(t, model.BureauExperian)
	srv.reportStatus = http.StatusServiceUnavailable
	srv.reportBody = "maintenance window"
	client := newTestClient(model.BureauExperian, srv.URL, "client-id", "client-secret")

	_, err := client.Pull(context.Background(), testIdentity)
	require.Error(t, err)

	var upstream *model.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.Status)
	assert.Contains(t, upstream.Reason, "maintenance window")
}

func TestLiveClientRejectsNonJSONBody(t *testing.T) {
	resetTokens(t)
	srv := newBureauServer(t, model.BureauExperian)
	srv.reportBody = "<html>load balancer error page</html>"
	client := newTestClient(model.BureauExperian, srv.URL, "client-id", "client-secret")

	_, err := client.Pull(context.Background(), testIdentity)
	require.Error(t, err)

	var upstream *model.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Contains(t, upstream.Reason, "not valid JSON")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "0123456789...", truncate("0123456789ABCDEF", 10))
}
