// HTTP client for the catalog read endpoints. Every request is
// authorized with a token from the TokenSource and bounded by the
// underlying http.Client timeout so one slow upstream call cannot stall
// an aggregate read indefinitely.
//
// Error policy follows the two read classes the application has:
// single-entity detail reads (Artist, ArtistTopTracks, ArtistAlbums,
// RelatedArtists, SeveralArtists) return the upstream error to the
// caller because there is no partial result to fall back to; list reads
// (Search, NewReleases, TopTracks, AvailableGenres) log the failure and
// return an empty slice so a missing panel never blanks a whole screen.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the catalog API root.
	DefaultBaseURL = "https://api.spotify.com/v1"
	// DefaultTokenURL is the auth endpoint for the client-credentials grant.
	DefaultTokenURL = "https://accounts.spotify.com/api/token"

	defaultTimeout = 8 * time.Second
	defaultMarket  = "US"

	// topTracksQuery is the stand-in for a real trending feed: a recency
	// search whose results are re-sorted by popularity. Replace here if
	// the upstream service grows a genuine trending endpoint.
	topTracksQuery = "year:2024-2025"
)

// upstreamRequests counts catalog API calls by logical operation and
// outcome for diagnostics on the /metrics endpoint.
var upstreamRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_upstream_requests_total",
		Help: "Catalog API requests issued, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

func init() {
	prometheus.MustRegister(upstreamRequests)
}

// tokener is the subset of TokenSource the client needs. It allows the
// token cache to be replaced in tests.
type tokener interface {
	Token(ctx context.Context) (string, error)
}

// Client issues authorized reads against the catalog service.
type Client struct {
	httpClient *http.Client
	tokens     tokener
	baseURL    string
	market     string
	log        *logrus.Logger
}

// New returns a Client using the supplied token source. The logger
// receives degrade-to-empty diagnostics; passing nil uses the standard
// logrus logger.
func New(tokens *TokenSource, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		baseURL:    DefaultBaseURL,
		market:     defaultMarket,
		log:        log,
	}
}

// SetBaseURL overrides the API root. Used by tests to point the client
// at a local server.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// get performs an authorized GET against endpoint, decoding the JSON
// body into v. op is the logical operation name used for metrics and
// log fields.
func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values, v any) error {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		upstreamRequests.WithLabelValues(op, "auth_error").Inc()
		return err
	}
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &UpstreamError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		upstreamRequests.WithLabelValues(op, "error").Inc()
		return &UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamRequests.WithLabelValues(op, "error").Inc()
		return &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		upstreamRequests.WithLabelValues(op, "error").Inc()
		return &UpstreamError{Endpoint: endpoint, Err: fmt.Errorf("decode: %w", err)}
	}
	upstreamRequests.WithLabelValues(op, "ok").Inc()
	return nil
}

// degrade logs a swallowed list-read failure at warn level.
func (c *Client) degrade(op string, err error) {
	c.log.WithError(err).WithField("operation", op).Warn("catalog read degraded to empty result")
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

// Search queries the catalog for entities of the given kind. Any
// upstream failure yields an empty result, never an error.
func (c *Client) Search(ctx context.Context, query string, kind SearchKind, limit int) SearchResult {
	if query == "" || !kind.Valid() {
		return SearchResult{}
	}
	params := url.Values{
		"q":     {query},
		"type":  {string(kind)},
		"limit": {fmt.Sprint(clampLimit(limit))},
	}
	var body struct {
		Tracks  *struct{ Items []Track }  `json:"tracks"`
		Albums  *struct{ Items []Album }  `json:"albums"`
		Artists *struct{ Items []Artist } `json:"artists"`
	}
	if err := c.get(ctx, "search", "/search", params, &body); err != nil {
		c.degrade("search", err)
		return SearchResult{}
	}
	var res SearchResult
	var invalid error
	switch kind {
	case KindTrack:
		if body.Tracks != nil {
			res.Tracks = body.Tracks.Items
		}
		invalid = validateTracks(res.Tracks)
	case KindAlbum:
		if body.Albums != nil {
			res.Albums = body.Albums.Items
		}
		invalid = validateAlbums(res.Albums)
	case KindArtist:
		if body.Artists != nil {
			res.Artists = body.Artists.Items
		}
		invalid = validateArtists(res.Artists)
	}
	if invalid != nil {
		c.degrade("search", &UpstreamError{Endpoint: "/search", Err: invalid})
		return SearchResult{}
	}
	return res
}

// Artist fetches a single artist by ID. Failures propagate to the
// caller; a detail page has nothing to render without its subject.
func (c *Client) Artist(ctx context.Context, id string) (Artist, error) {
	var a Artist
	if err := c.get(ctx, "artist", "/artists/"+url.PathEscape(id), nil, &a); err != nil {
		return Artist{}, err
	}
	if err := validateArtist(a); err != nil {
		return Artist{}, &UpstreamError{Endpoint: "/artists/" + id, Err: err}
	}
	return a, nil
}

// SeveralArtists fetches up to 50 artists in one call, preserving the
// order of ids in the response.
func (c *Client) SeveralArtists(ctx context.Context, ids []string) ([]Artist, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := url.Values{"ids": {strings.Join(ids, ",")}}
	var body struct {
		Artists []Artist `json:"artists"`
	}
	if err := c.get(ctx, "several_artists", "/artists", params, &body); err != nil {
		return nil, err
	}
	if err := validateArtists(body.Artists); err != nil {
		return nil, &UpstreamError{Endpoint: "/artists", Err: err}
	}
	return body.Artists, nil
}

// ArtistTopTracks returns the artist's most popular tracks, truncated to
// limit.
func (c *Client) ArtistTopTracks(ctx context.Context, id string, limit int) ([]Track, error) {
	params := url.Values{"market": {c.market}}
	var body struct {
		Tracks []Track `json:"tracks"`
	}
	if err := c.get(ctx, "artist_top_tracks", "/artists/"+url.PathEscape(id)+"/top-tracks", params, &body); err != nil {
		return nil, err
	}
	if err := validateTracks(body.Tracks); err != nil {
		return nil, &UpstreamError{Endpoint: "/artists/" + id + "/top-tracks", Err: err}
	}
	if limit > 0 && len(body.Tracks) > limit {
		body.Tracks = body.Tracks[:limit]
	}
	return body.Tracks, nil
}

// ArtistAlbums returns the artist's albums and singles, newest first as
// ordered by the upstream service.
func (c *Client) ArtistAlbums(ctx context.Context, id string, limit int) ([]Album, error) {
	params := url.Values{
		"include_groups": {"album,single"},
		"market":         {c.market},
		"limit":          {fmt.Sprint(clampLimit(limit))},
	}
	var body struct {
		Items []Album `json:"items"`
	}
	if err := c.get(ctx, "artist_albums", "/artists/"+url.PathEscape(id)+"/albums", params, &body); err != nil {
		return nil, err
	}
	if err := validateAlbums(body.Items); err != nil {
		return nil, &UpstreamError{Endpoint: "/artists/" + id + "/albums", Err: err}
	}
	return body.Items, nil
}

// RelatedArtists returns artists similar to the given one, truncated to
// limit.
func (c *Client) RelatedArtists(ctx context.Context, id string, limit int) ([]Artist, error) {
	var body struct {
		Artists []Artist `json:"artists"`
	}
	if err := c.get(ctx, "related_artists", "/artists/"+url.PathEscape(id)+"/related-artists", nil, &body); err != nil {
		return nil, err
	}
	if err := validateArtists(body.Artists); err != nil {
		return nil, &UpstreamError{Endpoint: "/artists/" + id + "/related-artists", Err: err}
	}
	if limit > 0 && len(body.Artists) > limit {
		body.Artists = body.Artists[:limit]
	}
	return body.Artists, nil
}

// NewReleases returns recently released albums. Failures degrade to an
// empty slice.
func (c *Client) NewReleases(ctx context.Context, limit int) []Album {
	params := url.Values{
		"limit":   {fmt.Sprint(clampLimit(limit))},
		"country": {c.market},
	}
	var body struct {
		Albums struct {
			Items []Album `json:"items"`
		} `json:"albums"`
	}
	if err := c.get(ctx, "new_releases", "/browse/new-releases", params, &body); err != nil {
		c.degrade("new_releases", err)
		return nil
	}
	if err := validateAlbums(body.Albums.Items); err != nil {
		c.degrade("new_releases", &UpstreamError{Endpoint: "/browse/new-releases", Err: err})
		return nil
	}
	return body.Albums.Items
}

// TopTracks returns broadly popular tracks: a recency search re-sorted
// by popularity. Failures degrade to an empty slice.
func (c *Client) TopTracks(ctx context.Context, limit int) []Track {
	res := c.Search(ctx, topTracksQuery, KindTrack, limit)
	tracks := res.Tracks
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Popularity > tracks[j].Popularity
	})
	return tracks
}

// AvailableGenres returns the seed genres the recommendation endpoint
// accepts. Failures degrade to an empty slice.
func (c *Client) AvailableGenres(ctx context.Context) []string {
	var body struct {
		Genres []string `json:"genres"`
	}
	if err := c.get(ctx, "available_genres", "/recommendations/available-genre-seeds", nil, &body); err != nil {
		c.degrade("available_genres", err)
		return nil
	}
	return body.Genres
}

// recommend issues a seed-based recommendation call. Errors propagate so
// the fallback chains in aggregate.go can react to them.
func (c *Client) recommend(ctx context.Context, seeds url.Values, limit int) ([]Track, error) {
	params := url.Values{
		"limit":  {fmt.Sprint(clampLimit(limit))},
		"market": {c.market},
	}
	for k, vs := range seeds {
		params[k] = vs
	}
	var body struct {
		Tracks []Track `json:"tracks"`
	}
	if err := c.get(ctx, "recommendations", "/recommendations", params, &body); err != nil {
		return nil, err
	}
	if err := validateTracks(body.Tracks); err != nil {
		return nil, &UpstreamError{Endpoint: "/recommendations", Err: err}
	}
	return body.Tracks, nil
}
