// User and profile storage. The users table doubles as the profile
// store: the private columns (email, password hash) are only read by the
// auth handlers while Profile carries the public subset embedded in
// feeds and search results.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a full account row including credentials.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	AvatarURL    *string
	Bio          *string
	CreatedAt    time.Time
}

// Profile is the public subset of a user shown next to ratings and in
// user search. AvatarURL and Bio are nil when the user never set them.
type Profile struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio,omitempty"`
}

// CreateUser inserts a new account and returns it. The ID is a random
// UUID. A unique-constraint violation on email is returned unchanged so
// callers can map it to a conflict response.
func (db *DB) CreateUser(ctx context.Context, email, username, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO users(id, email, username, password_hash, created_at) VALUES(?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the account for an email address. sql.ErrNoRows
// is returned when no account exists.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, avatar_url, bio, created_at FROM users WHERE email=?`, email).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.AvatarURL, &u.Bio, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetProfile returns the public profile for a user ID. sql.ErrNoRows is
// returned when the user does not exist.
func (db *DB) GetProfile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := db.QueryRowContext(ctx,
		`SELECT id, username, avatar_url, bio FROM users WHERE id=?`, id).
		Scan(&p.ID, &p.Username, &p.AvatarURL, &p.Bio)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// ProfilesByIDs returns the profiles matching the given id set in one
// batched query. IDs with no matching row are simply absent from the
// result; callers substitute placeholders as needed.
func (db *DB) ProfilesByIDs(ctx context.Context, ids []string) ([]Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, avatar_url, bio FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ps []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL, &p.Bio); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

// SearchProfiles returns profiles whose username contains the query
// substring, case-insensitively, up to limit rows.
func (db *DB) SearchProfiles(ctx context.Context, query string, limit int) ([]Profile, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, avatar_url, bio FROM users WHERE username LIKE ? COLLATE NOCASE ORDER BY username LIMIT ?`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ps []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL, &p.Bio); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

// UpdateProfile sets the mutable profile fields for a user. sql.ErrNoRows
// is returned when the user does not exist.
func (db *DB) UpdateProfile(ctx context.Context, id, username string, avatarURL, bio *string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET username=?, avatar_url=?, bio=? WHERE id=?`,
		username, avatarURL, bio, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
