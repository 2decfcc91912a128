package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rick1290/estuary-auth/internal/models"
)

var (
	// ErrUnauthorized means the backend explicitly rejected the credentials
	// or token (HTTP 401/403). It is the only error that ends a session.
	ErrUnauthorized = errors.New("backend rejected credentials or token")
	// ErrUnavailable covers transport failures and unexpected statuses; the
	// caller is expected to retry on a later read.
	ErrUnavailable = errors.New("backend request failed")
	// ErrMalformedResponse means the backend answered 2xx with a body that
	// does not match the documented contract.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// LoginResult is the decoded body of a successful login call.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	User         models.UserProfile
}

// RefreshResult is the decoded body of a successful refresh call.
// RefreshToken is empty when the backend chose not to rotate it.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// Client is the outbound contract against the Django auth API. The gateway
// never talks to the backend outside of these three calls.
type Client interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
	CurrentUser(ctx context.Context, accessToken string) (*models.UserProfile, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a Client against the given base URL. Every outbound
// call is bounded by the supplied timeout on top of the request context.
func NewHTTPClient(baseURL string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Login performs the one credential exchange with the backend.
func (c *httpClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.post(ctx, "/api/v1/auth/login/", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: login returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		AccessToken  string          `json:"access_token"`
		RefreshToken string          `json:"refresh_token"`
		ExpiresIn    int64           `json:"expires_in"`
		User         json.RawMessage `json:"user"`
	}
	if err := decodeBody(resp.Body, &payload); err != nil {
		return nil, err
	}
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		return nil, fmt.Errorf("%w: login body missing tokens", ErrMalformedResponse)
	}

	user, err := decodeUser(payload.User)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    time.Duration(payload.ExpiresIn) * time.Second,
		User:         user,
	}, nil
}

// Refresh exchanges the refresh token for a new access token. A 401/403 maps
// to ErrUnauthorized; every other failure maps to ErrUnavailable so the
// caller can keep the prior state and retry later.
func (c *httpClient) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	body, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.post(ctx, "/api/v1/auth/token/refresh/", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: refresh returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := decodeBody(resp.Body, &payload); err != nil {
		return nil, err
	}
	if payload.Access == "" {
		return nil, fmt.Errorf("%w: refresh body missing access token", ErrMalformedResponse)
	}

	return &RefreshResult{AccessToken: payload.Access, RefreshToken: payload.Refresh}, nil
}

// CurrentUser fetches a fresh profile snapshot with the given access token.
func (c *httpClient) CurrentUser(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/auth/me/", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: me returned status %d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	user, err := decodeUser(raw)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *httpClient) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func decodeBody(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// decodeUser decodes a backend user object, coercing the id to a string.
// Django serializers emit numeric ids; federated providers emit strings.
func decodeUser(raw json.RawMessage) (models.UserProfile, error) {
	if len(raw) == 0 {
		return models.UserProfile{}, fmt.Errorf("%w: missing user object", ErrMalformedResponse)
	}

	var payload struct {
		ID    any    `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Image string `json:"image"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return models.UserProfile{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var id string
	switch v := payload.ID.(type) {
	case nil:
		id = ""
	case string:
		id = v
	case json.Number:
		id = v.String()
	default:
		id = fmt.Sprint(v)
	}

	return models.UserProfile{
		ID:    id,
		Email: payload.Email,
		Name:  payload.Name,
		Image: payload.Image,
	}, nil
}
