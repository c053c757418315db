// Rating storage. A rating is keyed by (user_id, item_id) with upsert
// semantics: rating an item again replaces the stored value and bumps
// updated_at while created_at keeps the time of the first rating.

package db

import (
	"context"
	"database/sql"
	"time"
)

// Rating is a stored rating row, optionally carrying review text and
// denormalized item metadata captured at rating time so feeds render
// without extra catalog calls.
type Rating struct {
	UserID      string    `json:"user_id"`
	ItemID      string    `json:"item_id"`
	ItemType    string    `json:"item_type"`
	ItemName    string    `json:"item_name"`
	ItemImage   *string   `json:"item_image"`
	ItemArtists *string   `json:"item_artists"`
	Rating      float64   `json:"rating"`
	Review      string    `json:"review"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const ratingColumns = `user_id, item_id, item_type, item_name, item_image, item_artists, rating, review, created_at, updated_at`

func scanRating(row interface{ Scan(...any) error }) (Rating, error) {
	var r Rating
	err := row.Scan(&r.UserID, &r.ItemID, &r.ItemType, &r.ItemName, &r.ItemImage,
		&r.ItemArtists, &r.Rating, &r.Review, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// SaveRating inserts or updates the rating for (r.UserID, r.ItemID) and
// returns the stored row. Timestamps are managed here: created_at is set
// on first insert only.
func (db *DB) SaveRating(ctx context.Context, r Rating) (Rating, error) {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO ratings(`+ratingColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, item_id) DO UPDATE SET
			item_type=excluded.item_type,
			item_name=excluded.item_name,
			item_image=excluded.item_image,
			item_artists=excluded.item_artists,
			rating=excluded.rating,
			review=excluded.review,
			updated_at=excluded.updated_at`,
		r.UserID, r.ItemID, r.ItemType, r.ItemName, r.ItemImage, r.ItemArtists,
		r.Rating, r.Review, now, now)
	if err != nil {
		return Rating{}, err
	}
	return db.GetRating(ctx, r.UserID, r.ItemID)
}

// GetRating returns the rating a user gave an item. sql.ErrNoRows is
// returned when the user has not rated it.
func (db *DB) GetRating(ctx context.Context, userID, itemID string) (Rating, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE user_id=? AND item_id=?`, userID, itemID)
	return scanRating(row)
}

// DeleteRating removes a user's rating for an item. sql.ErrNoRows is
// returned when the rating does not exist which allows callers to
// respond with a 404.
func (db *DB) DeleteRating(ctx context.Context, userID, itemID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM ratings WHERE user_id=? AND item_id=?`, userID, itemID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListUserRatings returns a user's ratings, newest first, optionally
// filtered by item type.
func (db *DB) ListUserRatings(ctx context.Context, userID, itemType string) ([]Rating, error) {
	q := `SELECT ` + ratingColumns + ` FROM ratings WHERE user_id=?`
	args := []any{userID}
	if itemType != "" {
		q += ` AND item_type=?`
		args = append(args, itemType)
	}
	q += ` ORDER BY updated_at DESC`
	return db.queryRatings(ctx, q, args...)
}

// RecentRatings returns the newest ratings across all users for the
// recent-reviews feed.
func (db *DB) RecentRatings(ctx context.Context, limit int) ([]Rating, error) {
	return db.queryRatings(ctx,
		`SELECT `+ratingColumns+` FROM ratings ORDER BY created_at DESC LIMIT ?`, limit)
}

// RatingsByUsers returns the newest ratings authored by any of the given
// users. Used for the following feed; an empty id set yields no rows.
func (db *DB) RatingsByUsers(ctx context.Context, userIDs []string, limit int) ([]Rating, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	placeholders := ""
	args := make([]any, 0, len(userIDs)+1)
	for i, id := range userIDs {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, id)
	}
	args = append(args, limit)
	return db.queryRatings(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE user_id IN (`+placeholders+`) ORDER BY created_at DESC LIMIT ?`,
		args...)
}

// ItemRatings returns every rating for one catalog item, newest first.
func (db *DB) ItemRatings(ctx context.Context, itemID string) ([]Rating, error) {
	return db.queryRatings(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE item_id=? ORDER BY created_at DESC`, itemID)
}

// AverageRating returns the mean rating and rating count for an item. A
// never-rated item yields (0, 0) and no error.
func (db *DB) AverageRating(ctx context.Context, itemID string) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(*) FROM ratings WHERE item_id=?`, itemID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}

func (db *DB) queryRatings(ctx context.Context, query string, args ...any) ([]Rating, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rs []Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	// rows.Err returns the first error encountered while iterating.
	return rs, rows.Err()
}
