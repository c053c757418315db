// Social endpoints: follow/unfollow, follow status, user search,
// public profiles and the favorite-artist list used to seed the
// personalized catalog reads.

package handlers

import (
	"net/http"
	"strings"

	"TuneCircle/pkg/catalog"
	"TuneCircle/pkg/db"
)

// Onboarding bounds for the favorite-artist list.
const (
	minOnboardingArtists = 3
	maxOnboardingArtists = 10
)

// Follow dispatches /api/follow by method: POST follows, DELETE
// unfollows, GET reports counts and whether the caller follows the
// queried user.
func (app *Application) Follow(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		app.follow(w, r)
	case http.MethodDelete:
		app.unfollow(w, r)
	case http.MethodGet:
		app.followStatus(w, r)
	default:
		respondJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (app *Application) follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		FollowingID string `json:"following_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FollowingID == "" {
		respondJSONError(w, http.StatusBadRequest, "following_id is required")
		return
	}
	if req.FollowingID == userID {
		respondJSONError(w, http.StatusBadRequest, "cannot follow yourself")
		return
	}
	if err := app.DB.Follow(r.Context(), userID, req.FollowingID); err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (app *Application) unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	followingID := r.URL.Query().Get("following_id")
	if followingID == "" {
		respondJSONError(w, http.StatusBadRequest, "following_id is required")
		return
	}
	if err := app.DB.Unfollow(r.Context(), userID, followingID); err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// followStatus is readable without a session; isFollowing is only
// meaningful for signed-in callers and stays false otherwise.
func (app *Application) followStatus(w http.ResponseWriter, r *http.Request) {
	targetID := r.URL.Query().Get("user_id")
	if targetID == "" {
		respondJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	followers, following, err := app.DB.FollowCounts(r.Context(), targetID)
	if err != nil {
		app.respondError(w, err)
		return
	}
	isFollowing := false
	if callerID, err := app.userFromCookie(r); err == nil {
		isFollowing, err = app.DB.IsFollowing(r.Context(), callerID, targetID)
		if err != nil {
			app.respondError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"followerCount":  followers,
		"followingCount": following,
		"isFollowing":    isFollowing,
	})
}

// UserSearchJSON handles /api/users?q=...: fuzzy username search.
// Queries shorter than two characters return an empty list.
func (app *Application) UserSearchJSON(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) < 2 {
		respondJSON(w, http.StatusOK, map[string]any{"users": []db.Profile{}})
		return
	}
	users, err := app.DB.SearchProfiles(r.Context(), q, 10)
	if err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": emptyIfNil(users)})
}

// ProfileJSON handles /api/profiles/{id}: GET serves the public profile,
// PUT lets a signed-in user edit their own.
func (app *Application) ProfileJSON(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/profiles/")
	if id == "" || strings.Contains(id, "/") {
		respondJSONError(w, http.StatusBadRequest, "profile id is required")
		return
	}
	switch r.Method {
	case http.MethodGet:
		profile, err := app.DB.GetProfile(r.Context(), id)
		if err != nil {
			app.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, profile)
	case http.MethodPut:
		app.updateProfile(w, r, id)
	default:
		respondJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (app *Application) updateProfile(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	if userID != id {
		respondJSONError(w, http.StatusForbidden, "cannot edit another user's profile")
		return
	}
	var req struct {
		Username  string  `json:"username"`
		AvatarURL *string `json:"avatar_url"`
		Bio       *string `json:"bio"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 {
		respondJSONError(w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	}
	if err := app.DB.UpdateProfile(r.Context(), id, req.Username, req.AvatarURL, req.Bio); err != nil {
		app.respondError(w, err)
		return
	}
	profile, err := app.DB.GetProfile(r.Context(), id)
	if err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Favorites dispatches /api/favorites: GET lists the caller's favorite
// artists, PUT replaces the whole list (onboarding).
func (app *Application) Favorites(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		app.listFavorites(w, r)
	case http.MethodPut:
		app.replaceFavorites(w, r)
	default:
		respondJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (app *Application) listFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	fas, err := app.DB.ListFavoriteArtists(r.Context(), userID)
	if err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"artists": emptyIfNil(fas)})
}

// replaceFavorites sets the caller's favorite-artist list. Onboarding
// requires between 3 and 10 artists, each with an ID and a name.
func (app *Application) replaceFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Artists []db.FavoriteArtist `json:"artists"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Artists) < minOnboardingArtists || len(req.Artists) > maxOnboardingArtists {
		respondJSONError(w, http.StatusBadRequest, "pick between 3 and 10 favorite artists")
		return
	}
	for _, fa := range req.Artists {
		if fa.ArtistID == "" || fa.Name == "" {
			respondJSONError(w, http.StatusBadRequest, "every artist needs an id and a name")
			return
		}
	}
	app.fillFavoriteArtwork(r, req.Artists)
	if err := app.DB.ReplaceFavoriteArtists(r.Context(), userID, req.Artists); err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// fillFavoriteArtwork looks up artwork for favorites submitted without
// an image via one batched artist read. A catalog failure degrades to
// saving the list without artwork.
func (app *Application) fillFavoriteArtwork(r *http.Request, fas []db.FavoriteArtist) {
	var missing []string
	for _, fa := range fas {
		if fa.ImageURL == nil {
			missing = append(missing, fa.ArtistID)
		}
	}
	if len(missing) == 0 {
		return
	}
	artists, err := app.Catalog.SeveralArtists(r.Context(), missing)
	if err != nil {
		app.logger().WithError(err).Warn("artwork lookup for favorite artists")
		return
	}
	images := make(map[string]string, len(artists))
	for _, a := range artists {
		if u := catalog.BestImage(a.Images); u != "" {
			images[a.ID] = u
		}
	}
	for i := range fas {
		if fas[i].ImageURL == nil {
			if u, ok := images[fas[i].ArtistID]; ok {
				img := u
				fas[i].ImageURL = &img
			}
		}
	}
}
