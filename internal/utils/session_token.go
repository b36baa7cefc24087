package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/transit-admin-console/internal/model"
)

// ErrInvalidSession is returned for tokens that fail signature, expiry or
// shape checks.
var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims carries the logged-in user inside the cookie token.
type SessionClaims struct {
	User model.Session `json:"user"`
	jwt.RegisteredClaims
}

// NewSessionToken signs an HS256 token for sess that expires after ttl.  It
// returns the token and its expiry.
func NewSessionToken(secret string, sess model.Session, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := SessionClaims{
		User: sess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseSessionToken verifies raw and returns the session inside.  A token
// whose user has no truthy id is rejected like a forged one.
func ParseSessionToken(secret, raw string) (model.Session, error) {
	var claims SessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return model.Session{}, ErrInvalidSession
	}
	if !claims.User.LoggedIn() {
		return model.Session{}, ErrInvalidSession
	}
	return claims.User, nil
}
