package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sagarc03/lfsgate"
	lfshttp "github.com/sagarc03/lfsgate/http"
	"github.com/sagarc03/lfsgate/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityHandler(t *testing.T, want string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, want, lfshttp.Identity(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func testCredentials() *keybackend.MapCredentialStore {
	return keybackend.NewMapCredentialStore(map[string]string{"alice": "wonderland"})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		cfg      lfshttp.AuthConfig
		user     string
		password string
		wantCode int
		wantID   string
	}{
		{
			name:     "public without credentials",
			cfg:      lfshttp.AuthConfig{Store: testCredentials()},
			wantCode: http.StatusOK,
		},
		{
			name:     "public with valid credentials keeps identity",
			cfg:      lfshttp.AuthConfig{Store: testCredentials()},
			user:     "alice",
			password: "wonderland",
			wantCode: http.StatusOK,
			wantID:   "alice",
		},
		{
			name:     "public with wrong password",
			cfg:      lfshttp.AuthConfig{Store: testCredentials()},
			user:     "alice",
			password: "nope",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "private without credentials",
			cfg:      lfshttp.AuthConfig{Required: true, Store: testCredentials()},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "private with unknown user",
			cfg:      lfshttp.AuthConfig{Required: true, Store: testCredentials()},
			user:     "mallory",
			password: "wonderland",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "private with valid credentials",
			cfg:      lfshttp.AuthConfig{Required: true, Store: testCredentials()},
			user:     "alice",
			password: "wonderland",
			wantCode: http.StatusOK,
			wantID:   "alice",
		},
		{
			name:     "public without store treats the caller as anonymous",
			cfg:      lfshttp.AuthConfig{},
			user:     "bob",
			password: "anything",
			wantCode: http.StatusOK,
			wantID:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := lfshttp.AuthMiddleware(tt.cfg)(identityHandler(t, tt.wantID))

			req := httptest.NewRequest(http.MethodGet, "/assets/info/lfs/locks", nil)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.password)
			}
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestLinkAuthMiddleware(t *testing.T) {
	signer, err := lfsgate.NewLinkSigner("link-secret")
	require.NoError(t, err)

	oid := testOID
	private := lfshttp.AuthMiddleware(lfshttp.AuthConfig{Required: true, Store: testCredentials()})

	r := chi.NewRouter()
	r.With(lfshttp.LinkAuthMiddleware(signer, private)).Get("/{repo}/info/lfs/objects/{oid}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/assets/info/lfs/objects/"+oid, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	expires := time.Now().Add(time.Hour)

	assert.Equal(t, http.StatusOK, send(signer.Sign(http.MethodGet, "assets", oid, expires)))
	assert.Equal(t, http.StatusUnauthorized, send(signer.Sign(http.MethodPut, "assets", oid, expires)), "method is signed")
	assert.Equal(t, http.StatusUnauthorized, send(signer.Sign(http.MethodGet, "other", oid, expires)), "repo is signed")
	assert.Equal(t, http.StatusUnauthorized, send(signer.Sign(http.MethodGet, "assets", oid, time.Now().Add(-time.Minute))))
	assert.Equal(t, http.StatusUnauthorized, send(""), "falls back to basic auth")
}
