// Package handlers groups the HTTP handlers for the JSON API. The
// Application struct bundles the dependencies the handlers need; routes
// are registered in cmd/web. Handlers follow one propagation policy
// throughout: catalog detail reads and all writes surface errors to the
// client, aggregate and personalization reads never do.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"TuneCircle/pkg/catalog"
	"TuneCircle/pkg/db"
)

// CatalogService is the subset of the catalog client the handlers use.
// It allows the concrete client to be replaced in tests.
type CatalogService interface {
	Search(ctx context.Context, query string, kind catalog.SearchKind, limit int) catalog.SearchResult
	Artist(ctx context.Context, id string) (catalog.Artist, error)
	SeveralArtists(ctx context.Context, ids []string) ([]catalog.Artist, error)
	ArtistTopTracks(ctx context.Context, id string, limit int) ([]catalog.Track, error)
	ArtistAlbums(ctx context.Context, id string, limit int) ([]catalog.Album, error)
	RelatedArtists(ctx context.Context, id string, limit int) ([]catalog.Artist, error)
	NewReleases(ctx context.Context, limit int) []catalog.Album
	TopTracks(ctx context.Context, limit int) []catalog.Track
	ArtistAlbumsFromList(ctx context.Context, artistIDs []string, limitPerArtist int) []catalog.Album
	ArtistTopTracksFanout(ctx context.Context, artistIDs []string, perArtist int) []catalog.Track
	RecommendationsByArtists(ctx context.Context, artistIDs []string, limit int) []catalog.Track
	RecommendationsByGenre(ctx context.Context, genre string, limit int) []catalog.Track
	RecommendationsByGenres(ctx context.Context, genres []string, limit int) []catalog.Track
	AvailableGenres(ctx context.Context) []string
}

// Compile-time check that the concrete client satisfies the interface.
var _ CatalogService = (*catalog.Client)(nil)

// Application holds the dependencies used by the HTTP handlers.
type Application struct {
	Catalog CatalogService
	DB      *db.DB
	SignKey []byte
	Log     *logrus.Logger

	// RatingHooks run after a rating upsert commits. Hook errors are
	// logged and swallowed; they can never fail or roll back the write.
	RatingHooks []RatingHook
}

// logger returns the configured logger, falling back to the standard
// one so handlers never nil-check.
func (app *Application) logger() *logrus.Logger {
	if app.Log != nil {
		return app.Log
	}
	return logrus.StandardLogger()
}

// respondError maps an error from the store or catalog layers to an
// HTTP status per the application's taxonomy: missing rows are 404,
// catalog auth and upstream failures are 502 (404 when the upstream
// itself said so), everything else is a 500.
func (app *Application) respondError(w http.ResponseWriter, err error) {
	var ue *catalog.UpstreamError
	var ae *catalog.AuthError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		respondJSONError(w, http.StatusNotFound, "not found")
	case errors.As(err, &ue):
		if ue.Status == http.StatusNotFound {
			respondJSONError(w, http.StatusNotFound, "not found")
			return
		}
		app.logger().WithError(err).Error("catalog upstream failure")
		respondJSONError(w, http.StatusBadGateway, "catalog unavailable")
	case errors.As(err, &ae):
		app.logger().WithError(err).Error("catalog auth failure")
		respondJSONError(w, http.StatusBadGateway, "catalog unavailable")
	default:
		app.logger().WithError(err).Error("internal error")
		respondJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// limitParam parses the limit query parameter, falling back to def and
// clamping to max.
func limitParam(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
