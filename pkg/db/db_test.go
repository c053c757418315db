package db

import (
	"context"
	"database/sql"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// TestSaveRatingUpsert verifies that rating the same item twice results
// in exactly one stored row reflecting the latest value.
func TestSaveRatingUpsert(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	first, err := d.SaveRating(ctx, Rating{
		UserID: "u1", ItemID: "track-1", ItemType: "track",
		ItemName: "Song", Rating: 3, Review: "ok",
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.SaveRating(ctx, Rating{
		UserID: "u1", ItemID: "track-1", ItemType: "track",
		ItemName: "Song", Rating: 4.5, Review: "grew on me",
	})
	if err != nil {
		t.Fatal(err)
	}

	all, err := d.ListUserRatings(ctx, "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one row after upsert, got %d", len(all))
	}
	if all[0].Rating != 4.5 || all[0].Review != "grew on me" {
		t.Errorf("row does not reflect latest value: %+v", all[0])
	}
	// created_at survives the update, updated_at moves.
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed on upsert: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestDeleteRatingMissing(t *testing.T) {
	d := newTestDB(t)
	if err := d.DeleteRating(context.Background(), "u1", "nope"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestAverageRating(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	for i, r := range []float64{4, 5} {
		if _, err := d.SaveRating(ctx, Rating{
			UserID: string(rune('a' + i)), ItemID: "album-1", ItemType: "album",
			ItemName: "LP", Rating: r,
		}); err != nil {
			t.Fatal(err)
		}
	}
	avg, count, err := d.AverageRating(ctx, "album-1")
	if err != nil {
		t.Fatal(err)
	}
	if avg != 4.5 || count != 2 {
		t.Errorf("expected avg 4.5 over 2 ratings, got %v over %d", avg, count)
	}

	avg, count, err = d.AverageRating(ctx, "never-rated")
	if err != nil {
		t.Fatal(err)
	}
	if avg != 0 || count != 0 {
		t.Errorf("expected zero average for unrated item, got %v/%d", avg, count)
	}
}

func TestListUserRatingsTypeFilter(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	seed := []Rating{
		{UserID: "u1", ItemID: "t1", ItemType: "track", ItemName: "T", Rating: 4},
		{UserID: "u1", ItemID: "a1", ItemType: "album", ItemName: "A", Rating: 3},
	}
	for _, r := range seed {
		if _, err := d.SaveRating(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	tracks, err := d.ListUserRatings(ctx, "u1", "track")
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 1 || tracks[0].ItemID != "t1" {
		t.Errorf("unexpected filtered ratings: %+v", tracks)
	}
}

func TestUsersAndProfiles(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	u, err := d.CreateUser(ctx, "ada@example.com", "ada", "hash")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.CreateUser(ctx, "ada@example.com", "ada2", "hash"); err == nil {
		t.Error("expected duplicate email to fail")
	}

	got, err := d.GetUserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Errorf("expected id %s, got %s", u.ID, got.ID)
	}

	// Batched profile fetch skips unknown ids silently.
	ps, err := d.ProfilesByIDs(ctx, []string{u.ID, "ghost"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 1 || ps[0].Username != "ada" {
		t.Errorf("unexpected profiles: %+v", ps)
	}

	found, err := d.SearchProfiles(ctx, "AD", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Errorf("expected case-insensitive substring match, got %+v", found)
	}
}

func TestFollows(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	if err := d.Follow(ctx, "u1", "u2"); err != nil {
		t.Fatal(err)
	}
	// Following again is idempotent.
	if err := d.Follow(ctx, "u1", "u2"); err != nil {
		t.Fatal(err)
	}
	followers, following, err := d.FollowCounts(ctx, "u2")
	if err != nil {
		t.Fatal(err)
	}
	if followers != 1 || following != 0 {
		t.Errorf("expected 1 follower, got %d/%d", followers, following)
	}
	ok, err := d.IsFollowing(ctx, "u1", "u2")
	if err != nil || !ok {
		t.Errorf("expected u1 to follow u2: %v %v", ok, err)
	}
	if err := d.Unfollow(ctx, "u1", "u2"); err != nil {
		t.Fatal(err)
	}
	if err := d.Unfollow(ctx, "u1", "u2"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for missing edge, got %v", err)
	}
}

func TestFavoriteArtistDedup(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	fa := FavoriteArtist{ArtistID: "ar1", Name: "Band"}
	if err := d.AddFavoriteArtist(ctx, "u1", fa); err != nil {
		t.Fatal(err)
	}
	// Same artist again must not create a duplicate.
	if err := d.AddFavoriteArtist(ctx, "u1", fa); err != nil {
		t.Fatal(err)
	}
	if err := d.AddFavoriteArtist(ctx, "u1", FavoriteArtist{ArtistID: "ar2", Name: "Other"}); err != nil {
		t.Fatal(err)
	}

	fas, err := d.ListFavoriteArtists(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(fas) != 2 {
		t.Fatalf("expected 2 favorites, got %d", len(fas))
	}
	if fas[0].ArtistID != "ar1" || fas[0].Position != 1 || fas[1].Position != 2 {
		t.Errorf("unexpected ordering: %+v", fas)
	}
}

func TestReplaceFavoriteArtists(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	if err := d.AddFavoriteArtist(ctx, "u1", FavoriteArtist{ArtistID: "old", Name: "Old"}); err != nil {
		t.Fatal(err)
	}
	repl := []FavoriteArtist{
		{ArtistID: "n1", Name: "One"},
		{ArtistID: "n2", Name: "Two"},
		{ArtistID: "n3", Name: "Three"},
	}
	if err := d.ReplaceFavoriteArtists(ctx, "u1", repl); err != nil {
		t.Fatal(err)
	}
	fas, err := d.ListFavoriteArtists(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(fas) != 3 || fas[0].ArtistID != "n1" || fas[2].Position != 3 {
		t.Errorf("replace did not take: %+v", fas)
	}
}
