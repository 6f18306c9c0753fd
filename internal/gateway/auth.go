package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Authenticator attaches credentials to an outgoing request.
type Authenticator interface {
	Apply(ctx context.Context, req *http.Request) error
}

// Refresher is implemented by authenticators whose credentials expire. The
// client forces a single refresh after a 401/403 before retrying once.
type Refresher interface {
	ForceRefresh(ctx context.Context) error
}

// StaticBearer authenticates with a fixed secret key.
type StaticBearer struct {
	Key string
}

func (a StaticBearer) Apply(_ context.Context, req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+a.Key)
	return nil
}

// TokenSource obtains a fresh bearer token and its lifetime.
type TokenSource func(ctx context.Context) (token string, ttl time.Duration, err error)

// refreshSkew renews tokens slightly before their stated expiry so requests
// never go out with a token about to die in flight.
const refreshSkew = 5 * time.Minute

// TokenAuthenticator holds an expiring bearer token refreshed lazily from a
// TokenSource. The mutex makes refreshes single-flight: concurrent callers
// block on the one in-progress refresh and reuse its result.
type TokenAuthenticator struct {
	mu        sync.Mutex
	source    TokenSource
	token     string
	expiresAt time.Time
}

// NewTokenAuthenticator creates an authenticator over the given source.
func NewTokenAuthenticator(source TokenSource) *TokenAuthenticator {
	return &TokenAuthenticator{source: source}
}

func (a *TokenAuthenticator) Apply(ctx context.Context, req *http.Request) error {
	token, err := a.tokenFor(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (a *TokenAuthenticator) tokenFor(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.expiresAt) {
		return a.token, nil
	}
	return a.refreshLocked(ctx)
}

// ForceRefresh discards the current token and fetches a new one. Used when
// the provider rejects a token before its recorded expiry.
func (a *TokenAuthenticator) ForceRefresh(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	_, err := a.refreshLocked(ctx)
	return err
}

func (a *TokenAuthenticator) refreshLocked(ctx context.Context) (string, error) {
	token, ttl, err := a.source(ctx)
	if err != nil {
		return "", err
	}
	a.token = token
	a.expiresAt = time.Now().Add(ttl - refreshSkew)
	return token, nil
}
