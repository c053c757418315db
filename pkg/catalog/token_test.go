package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// fixedClock returns a now function pinned to t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestTokenCachedUntilExpiry verifies that two calls inside the validity
// window perform exactly one credential exchange.
func TestTokenCachedUntilExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	exchanges := 0
	src := &TokenSource{
		now: fixedClock(now),
		exchange: func(ctx context.Context) (*oauth2.Token, error) {
			exchanges++
			return &oauth2.Token{AccessToken: "tok-1", Expiry: now.Add(time.Hour)}, nil
		},
	}

	for i := 0; i < 2; i++ {
		tok, err := src.Token(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok != "tok-1" {
			t.Fatalf("expected tok-1, got %s", tok)
		}
	}
	if exchanges != 1 {
		t.Errorf("expected exactly one exchange, got %d", exchanges)
	}
}

// TestTokenRefreshedInsideSafetyMargin ensures a token is replaced once
// the clock enters the 300 second margin before upstream expiry, even
// though the upstream expiry itself has not passed.
func TestTokenRefreshedInsideSafetyMargin(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := start
	exchanges := 0
	src := &TokenSource{
		now: func() time.Time { return current },
		exchange: func(ctx context.Context) (*oauth2.Token, error) {
			exchanges++
			return &oauth2.Token{AccessToken: "tok", Expiry: current.Add(time.Hour)}, nil
		},
	}

	if _, err := src.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	// 56 minutes in: upstream expiry is 4 minutes away, inside the
	// 5 minute margin, so the cache must refresh.
	current = start.Add(56 * time.Minute)
	if _, err := src.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if exchanges != 2 {
		t.Errorf("expected refresh inside margin, got %d exchanges", exchanges)
	}
}

// TestTokenExchangeFailureLeavesCacheUntouched checks that a failed
// exchange surfaces an AuthError and that a later successful exchange
// still works (the failure did not poison the cache).
func TestTokenExchangeFailureLeavesCacheUntouched(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fail := true
	src := &TokenSource{
		now: fixedClock(now),
		exchange: func(ctx context.Context) (*oauth2.Token, error) {
			if fail {
				return nil, errors.New("upstream says no")
			}
			return &oauth2.Token{AccessToken: "tok-2", Expiry: now.Add(time.Hour)}, nil
		},
	}

	_, err := src.Token(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}

	fail = false
	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if tok != "tok-2" {
		t.Errorf("expected tok-2, got %s", tok)
	}
}

// TestTokenConcurrentRefreshCollapses launches many concurrent callers
// against a cold cache and expects a single exchange to serve them all.
func TestTokenConcurrentRefreshCollapses(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	exchanges := 0
	release := make(chan struct{})
	src := &TokenSource{
		now: fixedClock(now),
		exchange: func(ctx context.Context) (*oauth2.Token, error) {
			mu.Lock()
			exchanges++
			mu.Unlock()
			<-release
			return &oauth2.Token{AccessToken: "tok", Expiry: now.Add(time.Hour)}, nil
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tok, err := src.Token(context.Background()); err != nil || tok != "tok" {
				t.Errorf("token = %q, err = %v", tok, err)
			}
		}()
	}
	// Give the goroutines time to pile up behind the in-flight exchange
	// before letting it complete.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if exchanges != 1 {
		t.Errorf("expected one collapsed exchange, got %d", exchanges)
	}
}
