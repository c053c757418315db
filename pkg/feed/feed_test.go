package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"TuneCircle/pkg/db"
)

// fakeStore implements RatingLister from in-memory fixtures.
type fakeStore struct {
	profiles   []db.Profile
	profileErr error
	recent     []db.Rating
	byUsers    []db.Rating
	following  []string
	item       []db.Rating

	gotProfileIDs []string
}

func (f *fakeStore) ProfilesByIDs(ctx context.Context, ids []string) ([]db.Profile, error) {
	f.gotProfileIDs = ids
	return f.profiles, f.profileErr
}

func (f *fakeStore) RecentRatings(ctx context.Context, limit int) ([]db.Rating, error) {
	return f.recent, nil
}

func (f *fakeStore) RatingsByUsers(ctx context.Context, ids []string, limit int) ([]db.Rating, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return f.byUsers, nil
}

func (f *fakeStore) FollowingIDs(ctx context.Context, id string) ([]string, error) {
	return f.following, nil
}

func (f *fakeStore) ItemRatings(ctx context.Context, itemID string) ([]db.Rating, error) {
	return f.item, nil
}

func rating(user, item string) db.Rating {
	return db.Rating{UserID: user, ItemID: item, ItemType: "track", ItemName: item, Rating: 4, CreatedAt: time.Now()}
}

// TestStitchPreservesOrderAndFillsPlaceholder covers the core contract:
// three ratings from two users, one of whom has no profile row.
func TestStitchPreservesOrderAndFillsPlaceholder(t *testing.T) {
	store := &fakeStore{profiles: []db.Profile{{ID: "u1", Username: "ada"}}}
	ratings := []db.Rating{rating("u1", "a"), rating("u2", "b"), rating("u1", "c")}

	got := StitchProfiles(context.Background(), store, ratings)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ItemID != want {
			t.Errorf("order not preserved at %d: %s", i, got[i].ItemID)
		}
	}
	if got[0].Profile.Username != "ada" || got[2].Profile.Username != "ada" {
		t.Errorf("known profile not stitched: %+v", got)
	}
	if got[1].Profile.Username != "Unknown User" {
		t.Errorf("missing profile should get placeholder, got %q", got[1].Profile.Username)
	}
	// The lookup must be batched over the distinct author set.
	if len(store.gotProfileIDs) != 2 {
		t.Errorf("expected 2 distinct ids fetched, got %v", store.gotProfileIDs)
	}
}

// TestStitchToleratesProfileFetchFailure: the feed still renders, every
// author degraded to the placeholder.
func TestStitchToleratesProfileFetchFailure(t *testing.T) {
	store := &fakeStore{profileErr: errors.New("profiles unavailable")}
	got := StitchProfiles(context.Background(), store, []db.Rating{rating("u1", "a")})
	if len(got) != 1 || got[0].Profile.Username != "Unknown User" {
		t.Errorf("expected placeholder on fetch failure, got %+v", got)
	}
}

func TestStitchEmptyInput(t *testing.T) {
	got := StitchProfiles(context.Background(), &fakeStore{}, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestFollowingFeedEmptyWhenFollowingNobody(t *testing.T) {
	store := &fakeStore{following: nil, byUsers: []db.Rating{rating("u9", "x")}}
	got, err := Following(context.Background(), store, "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty feed, got %+v", got)
	}
}

func TestFollowingFeedStitches(t *testing.T) {
	store := &fakeStore{
		following: []string{"u2"},
		byUsers:   []db.Rating{rating("u2", "x")},
		profiles:  []db.Profile{{ID: "u2", Username: "bob"}},
	}
	got, err := Following(context.Background(), store, "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Profile.Username != "bob" {
		t.Errorf("unexpected feed: %+v", got)
	}
}
