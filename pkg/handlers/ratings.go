// Rating endpoints: upsert with post-commit hooks, reads, delete,
// per-item average, and the stitched review feeds.

package handlers

import (
	"context"
	"math"
	"net/http"

	"TuneCircle/pkg/db"
	"TuneCircle/pkg/feed"
)

// maxReviewLength bounds the free-text review attached to a rating.
const maxReviewLength = 500

// RatingEvent describes a committed rating for post-commit hooks. The
// artist fields come from the request payload, not the stored row, since
// the store only keeps a display string of artist names.
type RatingEvent struct {
	Rating     db.Rating
	ArtistID   string
	ArtistName string
}

// RatingHook runs after a rating upsert commits. Hooks must not assume
// they can fail the write: errors are logged and swallowed.
type RatingHook func(ctx context.Context, ev RatingEvent) error

// AutoFavoriteArtist returns the default hook: a track rated 4 stars or
// higher adds its artist to the rater's favorite artists. Duplicate
// artists are a no-op in the store.
func AutoFavoriteArtist(store *db.DB) RatingHook {
	return func(ctx context.Context, ev RatingEvent) error {
		if ev.Rating.Rating < 4 || ev.Rating.ItemType != "track" || ev.ArtistID == "" {
			return nil
		}
		return store.AddFavoriteArtist(ctx, ev.Rating.UserID, db.FavoriteArtist{
			ArtistID: ev.ArtistID,
			Name:     ev.ArtistName,
			ImageURL: ev.Rating.ItemImage,
		})
	}
}

// runRatingHooks executes each hook independently; one failing hook
// never prevents the others from running nor surfaces to the client.
func (app *Application) runRatingHooks(ctx context.Context, ev RatingEvent) {
	for _, hook := range app.RatingHooks {
		if err := hook(ctx, ev); err != nil {
			app.logger().WithError(err).WithFields(map[string]any{
				"user_id": ev.Rating.UserID,
				"item_id": ev.Rating.ItemID,
			}).Error("rating hook failed")
		}
	}
}

// validRatingValue enforces the half-star scale: 0.5 through 5.0 in 0.5
// steps.
func validRatingValue(v float64) bool {
	if v < 0.5 || v > 5 {
		return false
	}
	scaled := v * 2
	return scaled == math.Trunc(scaled)
}

func validItemType(t string) bool {
	switch t {
	case "track", "album", "artist":
		return true
	}
	return false
}

// Ratings dispatches /api/ratings by method.
func (app *Application) Ratings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		app.saveRating(w, r)
	case http.MethodGet:
		app.getRatings(w, r)
	case http.MethodDelete:
		app.deleteRating(w, r)
	default:
		respondJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// saveRating upserts the caller's rating for an item, then runs the
// post-commit hooks. Validation happens before any store call.
func (app *Application) saveRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		ItemID      string  `json:"item_id"`
		ItemType    string  `json:"item_type"`
		ItemName    string  `json:"item_name"`
		ItemImage   *string `json:"item_image"`
		ItemArtists *string `json:"item_artists"`
		Rating      float64 `json:"rating"`
		Review      string  `json:"review"`
		ArtistID    string  `json:"artist_id"`
		ArtistName  string  `json:"artist_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case req.ItemID == "" || req.ItemName == "":
		respondJSONError(w, http.StatusBadRequest, "item_id and item_name are required")
		return
	case !validItemType(req.ItemType):
		respondJSONError(w, http.StatusBadRequest, "item_type must be track, album or artist")
		return
	case !validRatingValue(req.Rating):
		respondJSONError(w, http.StatusBadRequest, "rating must be between 0.5 and 5 in half-star steps")
		return
	case len(req.Review) > maxReviewLength:
		respondJSONError(w, http.StatusBadRequest, "review must be at most 500 characters")
		return
	}

	stored, err := app.DB.SaveRating(r.Context(), db.Rating{
		UserID:      userID,
		ItemID:      req.ItemID,
		ItemType:    req.ItemType,
		ItemName:    req.ItemName,
		ItemImage:   req.ItemImage,
		ItemArtists: req.ItemArtists,
		Rating:      req.Rating,
		Review:      req.Review,
	})
	if err != nil {
		app.respondError(w, err)
		return
	}
	app.runRatingHooks(r.Context(), RatingEvent{
		Rating:     stored,
		ArtistID:   req.ArtistID,
		ArtistName: req.ArtistName,
	})
	respondJSON(w, http.StatusOK, stored)
}

// getRatings returns one rating when item_id is given, otherwise the
// caller's rating list optionally filtered by item_type.
func (app *Application) getRatings(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	if itemID := r.URL.Query().Get("item_id"); itemID != "" {
		rating, err := app.DB.GetRating(r.Context(), userID, itemID)
		if err != nil {
			app.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rating)
		return
	}
	ratings, err := app.DB.ListUserRatings(r.Context(), userID, r.URL.Query().Get("item_type"))
	if err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, emptyIfNil(ratings))
}

func (app *Application) deleteRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	itemID := r.URL.Query().Get("item_id")
	if itemID == "" {
		respondJSONError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	if err := app.DB.DeleteRating(r.Context(), userID, itemID); err != nil {
		app.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RatingAverageJSON returns the community average for an item. Items
// nobody rated yield average 0 with count 0 rather than a 404.
func (app *Application) RatingAverageJSON(w http.ResponseWriter, r *http.Request) {
	itemID := r.URL.Query().Get("item_id")
	if itemID == "" {
		respondJSONError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	avg, count, err := app.DB.AverageRating(r.Context(), itemID)
	if err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"average": avg, "count": count})
}

// RecentReviewsJSON returns the newest ratings across all users with
// author profiles stitched in.
func (app *Application) RecentReviewsJSON(w http.ResponseWriter, r *http.Request) {
	reviews, err := feed.Recent(r.Context(), app.DB, limitParam(r, 10, 50))
	if err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// FollowingFeedJSON returns the newest ratings from users the caller
// follows, stitched with author profiles.
func (app *Application) FollowingFeedJSON(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	reviews, err := feed.Following(r.Context(), app.DB, userID, limitParam(r, 20, 50))
	if err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// ItemReviewsJSON returns every review of one catalog item, stitched
// with author profiles.
func (app *Application) ItemReviewsJSON(w http.ResponseWriter, r *http.Request) {
	itemID := r.URL.Query().Get("item_id")
	if itemID == "" {
		respondJSONError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	reviews, err := feed.ForItem(r.Context(), app.DB, itemID)
	if err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}
