// Package auth verifies bearer tokens against the identity provider
package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

type ctxKey struct{}

// User is the authenticated caller.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// FromContext returns the authenticated user, if any.
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}

// WithUser attaches an authenticated user to the context.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// Verifier resolves bearer tokens to users via the identity provider's
// userinfo endpoint, with a short cache so hot tokens don't hit the
// provider on every request.
type Verifier struct {
	identityURL string
	http        *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	user    User
	expires time.Time
}

// NewVerifier creates a verifier. An empty identityURL disables remote
// verification: every request runs as a local development user.
func NewVerifier(identityURL string) *Verifier {
	return &Verifier{
		identityURL: identityURL,
		http:        &http.Client{Timeout: 10 * time.Second},
		cache:       make(map[string]cacheEntry),
		ttl:         time.Minute,
		now:         time.Now,
	}
}

// Verify resolves a bearer token to a user.
func (v *Verifier) Verify(ctx context.Context, token string) (User, error) {
	if v.identityURL == "" {
		return User{ID: "local-user", Name: "Local User"}, nil
	}
	if token == "" {
		return User{}, apperrors.New(apperrors.CodeUnauthorized, "missing bearer token")
	}

	if u, ok := v.cached(token); ok {
		return u, nil
	}

	url := strings.TrimRight(v.identityURL, "/") + "/userinfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return User{}, apperrors.Wrap(err, apperrors.CodeInternal, "build userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.http.Do(req)
	if err != nil {
		return User{}, apperrors.Wrap(err, apperrors.CodeUnavailable, "identity provider unreachable")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return User{}, apperrors.New(apperrors.CodeUnauthorized, "token rejected")
		}
		return User{}, apperrors.FromStatus(resp.StatusCode, string(body))
	}

	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return User{}, apperrors.Wrap(err, apperrors.CodeProviderError, "decode userinfo")
	}
	if u.ID == "" {
		// Some providers use the OIDC claim name.
		var claims struct {
			Sub string `json:"sub"`
		}
		_ = json.Unmarshal(body, &claims)
		u.ID = claims.Sub
	}
	if u.ID == "" {
		return User{}, apperrors.New(apperrors.CodeUnauthorized, "userinfo missing subject")
	}

	v.store(token, u)
	return u, nil
}

func (v *Verifier) cached(token string) (User, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.cache[token]
	if !ok || v.now().After(e.expires) {
		delete(v.cache, token)
		return User{}, false
	}
	return e.user, true
}

func (v *Verifier) store(token string, u User) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache[token] = cacheEntry{user: u, expires: v.now().Add(v.ttl)}
}

// Middleware rejects requests without a valid bearer token and attaches the
// resolved user to the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		user, err := v.Verify(r.Context(), token)
		if err != nil {
			trace.Logger(r.Context()).Warn("auth failed", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	// Websocket clients can't set headers from the browser.
	return r.URL.Query().Get("token")
}
