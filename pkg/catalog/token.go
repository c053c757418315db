// Token cache for the catalog service. The credential is service-level
// (client-credentials grant), so a single process-wide cache is shared
// by every request. The cached value is replaced wholesale on expiry and
// never torn down.

package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// expiryMargin is subtracted from the upstream expiry so a token is
// refreshed well before the service would reject it.
const expiryMargin = 300 * time.Second

// TokenSource caches a bearer token obtained via the client-credentials
// grant. Concurrent callers that observe an expired token collapse into
// a single in-flight exchange; everyone receives the same fresh token or
// the same error.
type TokenSource struct {
	mu     sync.RWMutex
	token  string
	expiry time.Time

	group singleflight.Group

	// exchange performs the credential exchange. Replaced in tests.
	exchange func(ctx context.Context) (*oauth2.Token, error)
	// now is the clock used for expiry checks. Replaced in tests.
	now func() time.Time
}

// NewTokenSource returns a token source that exchanges the supplied
// client credentials at tokenURL. No network call is made until the
// first Token request.
func NewTokenSource(clientID, clientSecret, tokenURL string) *TokenSource {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return &TokenSource{
		exchange: conf.Token,
		now:      time.Now,
	}
}

// Token returns a bearer token guaranteed to be inside its validity
// window. The cached value is returned while fresh; otherwise one
// credential exchange runs and its result is stored for subsequent
// calls. A failed exchange returns an *AuthError and leaves the cache
// unchanged so the next caller retries.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := s.cached(); ok {
		return tok, nil
	}
	v, err, _ := s.group.Do("token", func() (any, error) {
		// A caller queued behind the winning refresh re-checks the
		// cache instead of issuing a second exchange.
		if tok, ok := s.cached(); ok {
			return tok, nil
		}
		fresh, err := s.exchange(ctx)
		if err != nil {
			return nil, &AuthError{Err: err}
		}
		s.mu.Lock()
		s.token = fresh.AccessToken
		s.expiry = fresh.Expiry.Add(-expiryMargin)
		s.mu.Unlock()
		return fresh.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// cached returns the stored token when it is still inside the safety
// margin.
func (s *TokenSource) cached() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token != "" && s.now().Before(s.expiry) {
		return s.token, true
	}
	return "", false
}
