package http

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sagarc03/lfsgate"
)

// AuthConfig controls basic authentication for one group of routes.
type AuthConfig struct {
	// Required rejects requests without valid credentials.
	Required bool
	// Store resolves passwords. Credentials sent to a public route are
	// still checked when a store is set. Without a store every caller of a
	// public route is anonymous.
	Store lfsgate.CredentialStore
}

type identityKey struct{}

// Identity returns the authenticated user of the request, or "" for
// anonymous requests. It is the session identity locks are owned by.
func Identity(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(string)
	return id
}

func withIdentity(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// authenticate resolves the basic auth identity of r under cfg.
func authenticate(r *http.Request, cfg AuthConfig) (string, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		if cfg.Required {
			return "", fmt.Errorf("authenticate: %w: missing credentials", lfsgate.ErrUnauthorized)
		}
		return "", nil
	}

	if cfg.Store == nil {
		if cfg.Required {
			return "", fmt.Errorf("authenticate: %w: no credential store", lfsgate.ErrUnauthorized)
		}
		// Unverifiable credentials are ignored.
		return "", nil
	}

	expected, err := cfg.Store.Lookup(username)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(password)) != 1 {
		return "", fmt.Errorf("authenticate: %w: invalid password for %s", lfsgate.ErrUnauthorized, username)
	}

	return username, nil
}

// AuthMiddleware creates middleware that enforces HTTP basic authentication
// and records the caller's identity in the request context.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, cfg)
			if err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

// LinkAuthMiddleware accepts a signed transfer link as proof of access to
// the object named by the {repo} and {oid} route parameters. Requests
// without a link signature fall through to fallback.
func LinkAuthMiddleware(signer *lfsgate.LinkSigner, fallback func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := fallback(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if signer == nil || !lfsgate.IsLinkAuthorization(header) {
				guarded.ServeHTTP(w, r)
				return
			}

			repo := chi.URLParam(r, "repo")
			oid := chi.URLParam(r, "oid")
			if err := signer.Verify(r.Method, repo, oid, header); err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
