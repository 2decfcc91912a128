package models

import "time"

// Session is the externally visible projection of a TokenState. It is derived
// on every read and never stored.
type Session struct {
	AccessToken          string       `json:"accessToken,omitempty"`
	RefreshToken         string       `json:"refreshToken,omitempty"`
	AccessTokenExpiresAt *time.Time   `json:"accessTokenExpiresAt,omitempty"`
	Error                string       `json:"error,omitempty"`
	User                 *UserProfile `json:"user,omitempty"`
}

// NewSession projects a TokenState into the session shape consumed by the
// application. An errored state exposes only the error and the user snapshot;
// token fields are omitted even if stray values are still present.
func NewSession(state *TokenState) *Session {
	if state == nil {
		return nil
	}

	session := &Session{}
	if !state.User.IsZero() {
		user := state.User
		session.User = &user
	}

	if state.Errored() {
		session.Error = state.Error
		return session
	}

	session.AccessToken = state.AccessToken
	session.RefreshToken = state.RefreshToken
	if !state.AccessTokenExpiresAt.IsZero() {
		expiresAt := state.AccessTokenExpiresAt
		session.AccessTokenExpiresAt = &expiresAt
	}
	return session
}
