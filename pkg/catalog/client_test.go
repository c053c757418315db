package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

// staticToken satisfies the tokener interface with a fixed value.
type staticToken struct{ err error }

func (s staticToken) Token(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "test-token", nil
}

// newTestClient wires a Client against the supplied test server.
func newTestClient(srv *httptest.Server) *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Client{
		httpClient: srv.Client(),
		tokens:     staticToken{},
		baseURL:    srv.URL,
		market:     "US",
		log:        log,
	}
}

func TestSearchArtistsPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Daft Punk" || q.Get("type") != "artist" || q.Get("limit") != "5" {
			t.Errorf("unexpected query %v", q)
		}
		w.Write([]byte(`{"artists":{"items":[
			{"id":"a1","name":"Daft Punk","external_urls":{"spotify":"u1"}},
			{"id":"a2","name":"Daft Punk Tribute","external_urls":{"spotify":"u2"}}
		]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	res := c.Search(context.Background(), "Daft Punk", KindArtist, 5)
	if len(res.Artists) != 2 {
		t.Fatalf("expected 2 artists, got %d", len(res.Artists))
	}
	// Results must come back unmodified and in upstream order.
	if res.Artists[0].ID != "a1" || res.Artists[1].ID != "a2" {
		t.Errorf("unexpected order: %+v", res.Artists)
	}
}

func TestSearchDegradesToEmptyOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	res := c.Search(context.Background(), "anything", KindTrack, 10)
	if len(res.Tracks) != 0 {
		t.Errorf("expected empty result, got %d tracks", len(res.Tracks))
	}
}

func TestArtistPropagatesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.Artist(context.Background(), "missing")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", ue.Status)
	}
}

func TestArtistRejectsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Well-formed JSON missing the identity fields the application
		// depends on.
		w.Write([]byte(`{"images":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.Artist(context.Background(), "a1")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError for malformed payload, got %v", err)
	}
}

func TestArtistOptionalFieldsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"a1","name":"Solo","external_urls":{"spotify":"u"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	a, err := c.Artist(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	if a.Followers != nil || a.Popularity != nil {
		t.Errorf("expected optional fields to stay nil: %+v", a)
	}
}

func TestGetSurfacesAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach upstream without a token")
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.tokens = staticToken{err: &AuthError{Err: errors.New("exchange failed")}}
	_, err := c.Artist(context.Background(), "a1")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestSeveralArtistsPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "a1,a2" {
			t.Errorf("unexpected ids %q", got)
		}
		w.Write([]byte(`{"artists":[
			{"id":"a1","name":"First","external_urls":{"spotify":"u1"}},
			{"id":"a2","name":"Second","external_urls":{"spotify":"u2"}}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	artists, err := c.SeveralArtists(context.Background(), []string{"a1", "a2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(artists) != 2 || artists[0].ID != "a1" || artists[1].ID != "a2" {
		t.Errorf("expected requested order [a1 a2], got %+v", artists)
	}
}

func TestSeveralArtistsRejectsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"artists":[{"images":[]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.SeveralArtists(context.Background(), []string{"a1"})
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError for malformed payload, got %v", err)
	}
}

func TestArtistAlbumsRejectsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"release_date":"2024-01-01"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.ArtistAlbums(context.Background(), "a1", 10)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError for album missing identity, got %v", err)
	}
}

func TestArtistTopTracksRejectsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks":[{"popularity":50}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.ArtistTopTracks(context.Background(), "a1", 10)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError for track missing identity, got %v", err)
	}
}

func TestSearchDegradesOnMalformedItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks":{"items":[{"popularity":10}]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	res := c.Search(context.Background(), "anything", KindTrack, 10)
	if len(res.Tracks) != 0 {
		t.Errorf("expected empty result for malformed items, got %+v", res.Tracks)
	}
}

func TestAvailableGenres(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommendations/available-genre-seeds" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"genres":["rock","jazz","k-pop"]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	genres := c.AvailableGenres(context.Background())
	if len(genres) != 3 || genres[0] != "rock" {
		t.Errorf("unexpected genres: %v", genres)
	}
}

func TestAvailableGenresDegradesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if genres := c.AvailableGenres(context.Background()); len(genres) != 0 {
		t.Errorf("expected empty genres on failure, got %v", genres)
	}
}

func TestTopTracksSortsByPopularity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks":{"items":[
			{"id":"t1","name":"Mid","popularity":50,"album":{"id":"b","name":"B"},"external_urls":{"spotify":"u"}},
			{"id":"t2","name":"Hot","popularity":90,"album":{"id":"b","name":"B"},"external_urls":{"spotify":"u"}},
			{"id":"t3","name":"Cold","popularity":10,"album":{"id":"b","name":"B"},"external_urls":{"spotify":"u"}}
		]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	tracks := c.TopTracks(context.Background(), 10)
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(tracks))
	}
	if tracks[0].ID != "t2" || tracks[1].ID != "t1" || tracks[2].ID != "t3" {
		t.Errorf("expected popularity order t2,t1,t3: %+v", tracks)
	}
}

func TestBestImagePicksLargest(t *testing.T) {
	images := []Image{
		{URL: "small", Width: 64},
		{URL: "large", Width: 640},
		{URL: "medium", Width: 300},
	}
	if got := BestImage(images); got != "large" {
		t.Errorf("expected large, got %s", got)
	}
	if got := BestImage(nil); got != "" {
		t.Errorf("expected empty string for no images, got %s", got)
	}
}
