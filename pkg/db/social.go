// Follow relationships and favorite artists. Follows are directed
// edges deduplicated by pair; favorite artists are an ordered per-user
// list deduplicated by artist ID, fed both by onboarding and by the
// auto-favorite side effect of high track ratings.

package db

import (
	"context"
	"database/sql"
	"time"
)

// Follow records that follower now follows following. Inserting an
// existing edge is a no-op so the operation is idempotent.
func (db *DB) Follow(ctx context.Context, followerID, followingID string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO follows(follower_id, following_id, created_at) VALUES(?, ?, ?)`,
		followerID, followingID, time.Now().UTC())
	return err
}

// Unfollow removes the follow edge. sql.ErrNoRows is returned when the
// edge did not exist.
func (db *DB) Unfollow(ctx context.Context, followerID, followingID string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id=? AND following_id=?`, followerID, followingID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FollowCounts returns how many users follow userID and how many userID
// follows.
func (db *DB) FollowCounts(ctx context.Context, userID string) (followers, following int, err error) {
	if err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE following_id=?`, userID).Scan(&followers); err != nil {
		return 0, 0, err
	}
	if err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id=?`, userID).Scan(&following); err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// IsFollowing reports whether follower follows following.
func (db *DB) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id=? AND following_id=?`,
		followerID, followingID).Scan(&n)
	return n > 0, err
}

// FollowingIDs returns the IDs of every user that followerID follows.
func (db *DB) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT following_id FROM follows WHERE follower_id=?`, followerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FavoriteArtist is one entry in a user's ordered favorite-artist list.
type FavoriteArtist struct {
	ArtistID string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"image"`
	Position int     `json:"position"`
}

// AddFavoriteArtist appends an artist to the user's favorites at the
// next free position. An artist already in the list is left unchanged so
// repeated high ratings for the same artist are a no-op.
func (db *DB) AddFavoriteArtist(ctx context.Context, userID string, fa FavoriteArtist) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO favorite_artists(user_id, artist_id, name, image_url, position)
		VALUES(?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM favorite_artists WHERE user_id=?))`,
		userID, fa.ArtistID, fa.Name, fa.ImageURL, userID)
	return err
}

// ListFavoriteArtists returns the user's favorite artists in list order.
func (db *DB) ListFavoriteArtists(ctx context.Context, userID string) ([]FavoriteArtist, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT artist_id, name, image_url, position FROM favorite_artists WHERE user_id=? ORDER BY position`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var fas []FavoriteArtist
	for rows.Next() {
		var fa FavoriteArtist
		if err := rows.Scan(&fa.ArtistID, &fa.Name, &fa.ImageURL, &fa.Position); err != nil {
			return nil, err
		}
		fas = append(fas, fa)
	}
	return fas, rows.Err()
}

// ReplaceFavoriteArtists swaps the user's entire favorite list for the
// given one, assigning positions in slice order. Used by onboarding
// where the user picks their initial set.
func (db *DB) ReplaceFavoriteArtists(ctx context.Context, userID string, fas []FavoriteArtist) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM favorite_artists WHERE user_id=?`, userID); err != nil {
		return err
	}
	for i, fa := range fas {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO favorite_artists(user_id, artist_id, name, image_url, position) VALUES(?, ?, ?, ?, ?)`,
			userID, fa.ArtistID, fa.Name, fa.ImageURL, i+1); err != nil {
			return err
		}
	}
	return tx.Commit()
}
