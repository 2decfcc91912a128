// Package session encodes the token state into a signed, opaque cookie value.
// The cookie is the only store: the gateway keeps no server-side session state.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rick1290/estuary-auth/internal/models"
)

// ErrInvalidCookie covers every way a cookie can fail to decode: bad
// signature, wrong algorithm, expired envelope, or garbage input. Callers
// treat all of them as "no session".
var ErrInvalidCookie = errors.New("invalid or expired session cookie")

type cookieClaims struct {
	State models.TokenState `json:"state"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session cookie values with HS256.
type Codec struct {
	secret []byte
	maxAge time.Duration
}

// NewCodec creates a Codec. maxAge bounds the cookie envelope itself and is
// independent of the access token expiry carried inside the state.
func NewCodec(secret string, maxAge time.Duration) *Codec {
	return &Codec{secret: []byte(secret), maxAge: maxAge}
}

// Encode wraps the state in a signed JWT.
func (c *Codec) Encode(state *models.TokenState) (string, error) {
	now := time.Now()
	claims := cookieClaims{
		State: *state,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode verifies the cookie value and returns the embedded state.
func (c *Codec) Decode(value string) (*models.TokenState, error) {
	var claims cookieClaims
	token, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidCookie
	}

	state := claims.State
	return &state, nil
}
