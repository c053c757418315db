// Package db provides the persistence layer used by the application. It
// wraps a SQLite database and exposes helper methods for users and
// profiles, ratings with reviews, follow relationships and favorite
// artists. Callers are expected to open a single DB instance using New
// and reuse it for all operations.
//
// Uniqueness constraints carry the application invariants: at most one
// rating per (user, item), one follow edge per (follower, following)
// pair and one favorite entry per (user, artist).

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a sql.DB connection and exposes helper methods for the
// application's persistence layer.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path. If the file does not
// exist it is created along with the required schema. The returned DB
// value wraps the sql.DB connection for use by the rest of the
// application.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			avatar_url TEXT,
			bio TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			item_type TEXT NOT NULL,
			item_name TEXT NOT NULL,
			item_image TEXT,
			item_artists TEXT,
			rating REAL NOT NULL,
			review TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rating_user_item ON ratings(user_id, item_id)`,
		`CREATE TABLE IF NOT EXISTS follows (
			follower_id TEXT NOT NULL,
			following_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_follow_pair ON follows(follower_id, following_id)`,
		`CREATE TABLE IF NOT EXISTS favorite_artists (
			user_id TEXT NOT NULL,
			artist_id TEXT NOT NULL,
			name TEXT NOT NULL,
			image_url TEXT,
			position INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_fav_user_artist ON favorite_artists(user_id, artist_id)`,
	}
	// Execute the schema creation statements. Errors here likely mean the
	// database file is not writable.
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}
