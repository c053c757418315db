// Handlers for catalog browse endpoints: search, artist detail pages,
// new releases, top tracks and the personalized aggregates seeded from
// the caller's favorite artists.

package handlers

import (
	"net/http"
	"strings"

	"TuneCircle/pkg/catalog"
)

// SearchJSON handles /api/search?q=...&type=track|album|artist&limit=N.
// Upstream failures surface as an empty list, never an error.
func (app *Application) SearchJSON(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondJSONError(w, http.StatusBadRequest, "q is required")
		return
	}
	kind := catalog.SearchKind(r.URL.Query().Get("type"))
	if kind == "" {
		kind = catalog.KindTrack
	}
	if !kind.Valid() {
		respondJSONError(w, http.StatusBadRequest, "type must be track, album or artist")
		return
	}
	limit := limitParam(r, 20, 50)
	res := app.Catalog.Search(r.Context(), q, kind, limit)
	switch kind {
	case catalog.KindTrack:
		respondJSON(w, http.StatusOK, map[string]any{"tracks": emptyIfNil(res.Tracks)})
	case catalog.KindAlbum:
		respondJSON(w, http.StatusOK, map[string]any{"albums": emptyIfNil(res.Albums)})
	case catalog.KindArtist:
		respondJSON(w, http.StatusOK, map[string]any{"artists": emptyIfNil(res.Artists)})
	}
}

// ArtistJSON handles /api/artists/{id} and its sub-resources
// /top-tracks, /albums and /related. These are detail-page reads, so
// upstream failures propagate as error responses.
func (app *Application) ArtistJSON(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/artists/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		respondJSONError(w, http.StatusBadRequest, "artist id is required")
		return
	}
	switch sub {
	case "":
		artist, err := app.Catalog.Artist(r.Context(), id)
		if err != nil {
			app.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, artist)
	case "top-tracks":
		tracks, err := app.Catalog.ArtistTopTracks(r.Context(), id, limitParam(r, 10, 50))
		if err != nil {
			app.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"tracks": emptyIfNil(tracks)})
	case "albums":
		albums, err := app.Catalog.ArtistAlbums(r.Context(), id, limitParam(r, 20, 50))
		if err != nil {
			app.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"albums": emptyIfNil(albums)})
	case "related":
		artists, err := app.Catalog.RelatedArtists(r.Context(), id, limitParam(r, 10, 50))
		if err != nil {
			app.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"artists": emptyIfNil(artists)})
	default:
		respondJSONError(w, http.StatusNotFound, "not found")
	}
}

// NewReleasesJSON returns recently released albums, degrading to an
// empty list on upstream failure.
func (app *Application) NewReleasesJSON(w http.ResponseWriter, r *http.Request) {
	albums := app.Catalog.NewReleases(r.Context(), limitParam(r, 20, 50))
	respondJSON(w, http.StatusOK, map[string]any{"albums": emptyIfNil(albums)})
}

// TopTracksJSON returns broadly popular tracks, degrading to an empty
// list on upstream failure.
func (app *Application) TopTracksJSON(w http.ResponseWriter, r *http.Request) {
	tracks := app.Catalog.TopTracks(r.Context(), limitParam(r, 20, 50))
	respondJSON(w, http.StatusOK, map[string]any{"tracks": emptyIfNil(tracks)})
}

// RecommendationsJSON returns personalized tracks. A genres parameter
// (comma separated) seeds the multi-genre chain, a single genre the
// genre chain; otherwise the signed-in user's favorite artists seed the
// artist chain. All chains degrade rather than error.
func (app *Application) RecommendationsJSON(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 20, 50)
	if genres := splitParam(r.URL.Query().Get("genres")); len(genres) > 0 {
		tracks := app.Catalog.RecommendationsByGenres(r.Context(), genres, limit)
		respondJSON(w, http.StatusOK, map[string]any{"tracks": emptyIfNil(tracks)})
		return
	}
	if genre := r.URL.Query().Get("genre"); genre != "" {
		tracks := app.Catalog.RecommendationsByGenre(r.Context(), genre, limit)
		respondJSON(w, http.StatusOK, map[string]any{"tracks": emptyIfNil(tracks)})
		return
	}
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	seeds := app.favoriteArtistIDs(r, userID)
	tracks := app.Catalog.RecommendationsByArtists(r.Context(), seeds, limit)
	respondJSON(w, http.StatusOK, map[string]any{"tracks": emptyIfNil(tracks)})
}

// FavoriteArtistReleasesJSON returns the latest albums from the caller's
// favorite artists: the parallel per-artist fan-out, deduplicated and
// sorted by release date.
func (app *Application) FavoriteArtistReleasesJSON(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	seeds := app.favoriteArtistIDs(r, userID)
	albums := app.Catalog.ArtistAlbumsFromList(r.Context(), seeds, limitParam(r, 3, 10))
	respondJSON(w, http.StatusOK, map[string]any{"albums": emptyIfNil(albums)})
}

// FavoriteArtistTracksJSON returns top tracks from the caller's favorite
// artists, concatenated in favorites order.
func (app *Application) FavoriteArtistTracksJSON(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	seeds := app.favoriteArtistIDs(r, userID)
	tracks := app.Catalog.ArtistTopTracksFanout(r.Context(), seeds, limitParam(r, 4, 10))
	respondJSON(w, http.StatusOK, map[string]any{"tracks": emptyIfNil(tracks)})
}

// GenresJSON lists the seed genres the recommendation endpoint accepts,
// degrading to an empty list on upstream failure.
func (app *Application) GenresJSON(w http.ResponseWriter, r *http.Request) {
	genres := app.Catalog.AvailableGenres(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{"genres": emptyIfNil(genres)})
}

// ArtistsBatchJSON handles /api/artists?ids=a,b,c: one batched lookup
// for up to 50 artists, preserving the requested order.
func (app *Application) ArtistsBatchJSON(w http.ResponseWriter, r *http.Request) {
	ids := splitParam(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		respondJSONError(w, http.StatusBadRequest, "ids is required")
		return
	}
	if len(ids) > 50 {
		ids = ids[:50]
	}
	artists, err := app.Catalog.SeveralArtists(r.Context(), ids)
	if err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"artists": emptyIfNil(artists)})
}

// splitParam splits a comma separated query parameter, dropping empty
// segments.
func splitParam(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// favoriteArtistIDs loads the user's favorite artist IDs as fan-out
// seeds. A store failure degrades to no seeds; the aggregates then fall
// back to unpersonalized results.
func (app *Application) favoriteArtistIDs(r *http.Request, userID string) []string {
	fas, err := app.DB.ListFavoriteArtists(r.Context(), userID)
	if err != nil {
		app.logger().WithError(err).Warn("loading favorite artists for seeds")
		return nil
	}
	ids := make([]string, len(fas))
	for i, fa := range fas {
		ids[i] = fa.ArtistID
	}
	return ids
}

// emptyIfNil keeps JSON list fields as [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
