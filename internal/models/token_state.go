package models

import "time"

// ErrRefreshAccessToken is the error value surfaced to session consumers when
// the refresh token itself has been rejected and a fresh login is required.
const ErrRefreshAccessToken = "RefreshAccessTokenError"

// TokenState is the persisted unit of the session lifecycle. It travels inside
// the signed session cookie; no server-side copy exists. An empty string or
// zero time means the field is absent.
type TokenState struct {
	AccessToken          string      `json:"access_token,omitempty"`
	RefreshToken         string      `json:"refresh_token,omitempty"`
	AccessTokenExpiresAt time.Time   `json:"access_token_expires_at,omitzero"`
	Error                string      `json:"error,omitempty"`
	User                 UserProfile `json:"user"`
}

// Errored reports whether the state has latched the terminal refresh failure.
// An errored state stays errored until a fresh login replaces it wholesale.
func (s *TokenState) Errored() bool {
	return s.Error != ""
}

// NeedsRefresh reports whether the access token is missing or inside the
// buffer window before expiry at the given instant.
func (s *TokenState) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	if s.AccessTokenExpiresAt.IsZero() {
		return true
	}
	return !now.Before(s.AccessTokenExpiresAt.Add(-buffer))
}

// Invalidate clears every token field and latches the refresh failure.
// Invariant: an errored state never carries tokens.
func (s *TokenState) Invalidate() {
	s.AccessToken = ""
	s.RefreshToken = ""
	s.AccessTokenExpiresAt = time.Time{}
	s.Error = ErrRefreshAccessToken
}
