package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/rick1290/estuary-auth/internal/backend"
	"github.com/rick1290/estuary-auth/internal/models"
)

var (
	ErrAuthenticationDenied = errors.New("authentication denied")
)

// SessionService owns the token lifecycle: it is the only component that
// creates or mutates a TokenState. Resolve and UpdateUser return the next
// state plus a flag telling the caller whether the session cookie must be
// rewritten; on a transient backend failure the prior state comes back
// untouched so the next read can retry.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*models.TokenState, error)
	Resolve(ctx context.Context, state *models.TokenState) (*models.TokenState, bool)
	UpdateUser(ctx context.Context, state *models.TokenState) (*models.TokenState, bool)
}

type sessionService struct {
	backend   backend.Client
	accessTTL time.Duration
	buffer    time.Duration
}

// NewSessionService creates a new SessionService. accessTTL is the fixed
// validity window applied after a refresh; buffer is the safety margin
// before expiry inside which a refresh is proactively triggered.
func NewSessionService(client backend.Client, accessTTL, buffer time.Duration) SessionService {
	return &sessionService{
		backend:   client,
		accessTTL: accessTTL,
		buffer:    buffer,
	}
}

// Login exchanges credentials for an initial token state. Any failure —
// rejected credentials, transport error, malformed body — is authentication
// denied: no partial state is ever produced.
func (s *sessionService) Login(ctx context.Context, email, password string) (*models.TokenState, error) {
	result, err := s.backend.Login(ctx, email, password)
	if err != nil {
		log.Printf("SessionService.Login: authentication denied for %s: %v", email, err)
		return nil, ErrAuthenticationDenied
	}

	ttl := result.ExpiresIn
	if ttl <= 0 {
		ttl = s.accessTTL
	}

	return &models.TokenState{
		AccessToken:          result.AccessToken,
		RefreshToken:         result.RefreshToken,
		AccessTokenExpiresAt: time.Now().Add(ttl),
		User:                 result.User,
	}, nil
}

// Resolve is the per-read lifecycle decision. A fresh token passes through
// with no network call; a token inside the buffer window is refreshed; an
// errored state is returned verbatim until a new login replaces it.
func (s *sessionService) Resolve(ctx context.Context, state *models.TokenState) (*models.TokenState, bool) {
	if state == nil {
		return nil, false
	}
	if state.Errored() {
		return state, false
	}
	if !state.NeedsRefresh(time.Now(), s.buffer) {
		return state, false
	}
	return s.refresh(ctx, state)
}

// refresh performs one refresh call and applies the transition. A 401/403
// from the backend latches the terminal error and clears every token field.
// Any other failure keeps the prior state unchanged so a backend blip never
// forces a logout.
func (s *sessionService) refresh(ctx context.Context, state *models.TokenState) (*models.TokenState, bool) {
	if state.RefreshToken == "" {
		next := *state
		next.Invalidate()
		return &next, true
	}

	result, err := s.backend.Refresh(ctx, state.RefreshToken)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			log.Printf("SessionService.refresh: refresh token rejected, ending session")
			next := *state
			next.Invalidate()
			return &next, true
		}
		log.Printf("SessionService.refresh: transient failure, keeping prior tokens: %v", err)
		return state, false
	}

	next := *state
	next.AccessToken = result.AccessToken
	if result.RefreshToken != "" {
		// rotation is optional per response; keep the prior token otherwise
		next.RefreshToken = result.RefreshToken
	}
	next.AccessTokenExpiresAt = time.Now().Add(s.accessTTL)
	next.Error = ""
	return &next, true
}

// UpdateUser replaces the user snapshot wholesale from the backend's /me
// endpoint. A 401 on the fetch routes into the refresh-or-error path; after
// a successful refresh the fetch is retried once.
func (s *sessionService) UpdateUser(ctx context.Context, state *models.TokenState) (*models.TokenState, bool) {
	current, changed := s.Resolve(ctx, state)
	if current == nil || current.Errored() || current.AccessToken == "" {
		return current, changed
	}

	user, err := s.backend.CurrentUser(ctx, current.AccessToken)
	if err == nil {
		next := *current
		next.User = current.User.Merge(*user)
		return &next, true
	}

	if !errors.Is(err, backend.ErrUnauthorized) {
		log.Printf("SessionService.UpdateUser: transient failure, keeping snapshot: %v", err)
		return current, changed
	}

	// Access token rejected despite looking valid; force the refresh path.
	refreshed, rotated := s.refresh(ctx, current)
	if refreshed.Errored() {
		return refreshed, true
	}
	if !rotated {
		// Transient refresh failure: the rejected token is all we have, so
		// retrying the fetch would only 401 again. Keep the prior state and
		// let a later read resolve it.
		return current, changed
	}

	user, err = s.backend.CurrentUser(ctx, refreshed.AccessToken)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			log.Printf("SessionService.UpdateUser: profile fetch rejected after refresh, ending session")
			next := *refreshed
			next.Invalidate()
			return &next, true
		}
		log.Printf("SessionService.UpdateUser: transient failure after refresh: %v", err)
		return refreshed, true
	}

	next := *refreshed
	next.User = refreshed.User.Merge(*user)
	return &next, true
}
