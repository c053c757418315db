// Authentication endpoints and session helpers. Sessions are an
// HMAC-signed user-id cookie; CSRF protection uses a random token stored
// in a cookie which clients must echo back in the `X-CSRF-Token` header
// for all state-changing requests. Passwords are stored as bcrypt
// hashes.

package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const sessionCookie = "tc_user_id"

// signValue computes an HMAC signature for value and appends it using
// the format value|signature. The signature is base64 URL encoded so it
// can be safely stored in cookies.
func signValue(value string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	sig := mac.Sum(nil)
	return value + "|" + base64.RawURLEncoding.EncodeToString(sig)
}

// verifyValue checks the HMAC signature appended to signed. It returns
// the original value and true when the signature matches the key.
func verifyValue(signed string, key []byte) (string, bool) {
	parts := strings.Split(signed, "|")
	if len(parts) != 2 {
		return "", false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(parts[0]))
	expected := mac.Sum(nil)
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || !hmac.Equal(expected, sig) {
		return "", false
	}
	return parts[0], true
}

// setCSRFToken generates a new random token and sets it in a cookie.
// The cookie is not HttpOnly so client-side scripts can read the value
// and attach it to subsequent requests.
func setCSRFToken(w http.ResponseWriter, secure bool) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     "csrf_token",
		Value:    token,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// verifyCSRF compares the X-CSRF-Token header with the csrf_token
// cookie in constant time.
func verifyCSRF(r *http.Request) bool {
	c, err := r.Cookie("csrf_token")
	if err != nil {
		return false
	}
	header := r.Header.Get("X-CSRF-Token")
	if header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(header)) == 1
}

// userFromCookie returns the verified user ID from the session cookie.
// An error is returned when the cookie is missing or has been tampered
// with.
func (app *Application) userFromCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", err
	}
	if v, ok := verifyValue(c.Value, app.SignKey); ok {
		return v, nil
	}
	return "", fmt.Errorf("invalid signature")
}

// requireUser is a helper used by handlers to enforce authentication.
// It writes a 401 response on failure and returns the user ID
// otherwise. State-changing requests additionally need a valid CSRF
// token.
func (app *Application) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := app.userFromCookie(r)
	if err != nil {
		respondJSONError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead && !verifyCSRF(r) {
		respondJSONError(w, http.StatusForbidden, "invalid csrf token")
		return "", false
	}
	return id, true
}

// setSession signs the user ID into the session cookie and issues a
// fresh CSRF token.
func (app *Application) setSession(w http.ResponseWriter, r *http.Request, userID string) error {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signValue(userID, app.SignKey),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	_, err := setCSRFToken(w, r.TLS != nil)
	return err
}

// SignUp creates a new account and opens a session for it.
func (app *Application) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	switch {
	case !strings.Contains(req.Email, "@"):
		respondJSONError(w, http.StatusBadRequest, "a valid email is required")
		return
	case len(req.Username) < 3:
		respondJSONError(w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	case len(req.Password) < 8:
		respondJSONError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		app.respondError(w, err)
		return
	}
	user, err := app.DB.CreateUser(r.Context(), req.Email, req.Username, string(hash))
	if err != nil {
		// The unique email constraint is the expected failure here.
		if strings.Contains(err.Error(), "UNIQUE") {
			respondJSONError(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		app.respondError(w, err)
		return
	}
	if err := app.setSession(w, r, user.ID); err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": user.ID, "username": user.Username})
}

// Login verifies credentials and opens a session.
func (app *Application) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := app.DB.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		// The same response for unknown email and wrong password keeps
		// account existence unguessable.
		if errors.Is(err, sql.ErrNoRows) {
			respondJSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		app.respondError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondJSONError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := app.setSession(w, r, user.ID); err != nil {
		app.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": user.ID, "username": user.Username})
}

// Logout clears the session cookie.
func (app *Application) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
