// Package feed assembles review feeds by stitching rating rows with the
// profiles of their authors. Ratings and profiles live in separate
// tables with no join available to the HTTP layer, so the distinct
// author set is fetched in one batched call and merged in memory. The
// same contract serves the recent-reviews feed, the following feed and
// per-item review listings.

package feed

import (
	"context"

	"TuneCircle/pkg/db"
)

// placeholderUsername is shown for ratings whose author has no profile
// row (deleted or not yet materialized accounts).
const placeholderUsername = "Unknown User"

// ProfileLister is the subset of the store the stitcher needs.
type ProfileLister interface {
	ProfilesByIDs(ctx context.Context, ids []string) ([]db.Profile, error)
}

// Review is a rating with its author's public profile embedded.
type Review struct {
	db.Rating
	Profile db.Profile `json:"user_profile"`
}

// StitchProfiles joins ratings with their authors' profiles. The input
// order is preserved. Authors missing from the profile store get a
// placeholder profile; a failed profile fetch degrades every entry to
// the placeholder rather than failing the feed.
func StitchProfiles(ctx context.Context, profiles ProfileLister, ratings []db.Rating) []Review {
	if len(ratings) == 0 {
		return []Review{}
	}

	// Distinct author set for one batched lookup.
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range ratings {
		if _, ok := seen[r.UserID]; !ok {
			seen[r.UserID] = struct{}{}
			ids = append(ids, r.UserID)
		}
	}

	byID := make(map[string]db.Profile)
	if ps, err := profiles.ProfilesByIDs(ctx, ids); err == nil {
		for _, p := range ps {
			byID[p.ID] = p
		}
	}

	out := make([]Review, len(ratings))
	for i, r := range ratings {
		p, ok := byID[r.UserID]
		if !ok {
			p = db.Profile{ID: r.UserID, Username: placeholderUsername}
		}
		out[i] = Review{Rating: r, Profile: p}
	}
	return out
}

// RatingLister is the subset of the store the feed builders need.
type RatingLister interface {
	ProfileLister
	RecentRatings(ctx context.Context, limit int) ([]db.Rating, error)
	RatingsByUsers(ctx context.Context, userIDs []string, limit int) ([]db.Rating, error)
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)
	ItemRatings(ctx context.Context, itemID string) ([]db.Rating, error)
}

// Recent returns the newest ratings across all users, stitched with
// author profiles.
func Recent(ctx context.Context, store RatingLister, limit int) ([]Review, error) {
	ratings, err := store.RecentRatings(ctx, limit)
	if err != nil {
		return nil, err
	}
	return StitchProfiles(ctx, store, ratings), nil
}

// Following returns the newest ratings authored by users that userID
// follows. A user following nobody gets an empty feed, not an error.
func Following(ctx context.Context, store RatingLister, userID string, limit int) ([]Review, error) {
	ids, err := store.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	ratings, err := store.RatingsByUsers(ctx, ids, limit)
	if err != nil {
		return nil, err
	}
	return StitchProfiles(ctx, store, ratings), nil
}

// ForItem returns every review of one catalog item, stitched with
// author profiles.
func ForItem(ctx context.Context, store RatingLister, itemID string) ([]Review, error) {
	ratings, err := store.ItemRatings(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return StitchProfiles(ctx, store, ratings), nil
}
