package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rick1290/estuary-auth/internal/backend"
)

func newClient(t *testing.T, handler http.HandlerFunc) backend.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return backend.NewHTTPClient(srv.URL, 5*time.Second)
}

func TestLogin_DecodesBodyAndCoercesUserID(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "x", body["password"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "A1",
			"refresh_token": "R1",
			"expires_in": 1800,
			"user": {"id": 7, "email": "a@b.com", "name": "Ada"}
		}`))
	})

	result, err := client.Login(context.Background(), "a@b.com", "x")

	require.NoError(t, err)
	assert.Equal(t, "A1", result.AccessToken)
	assert.Equal(t, "R1", result.RefreshToken)
	assert.Equal(t, 1800*time.Second, result.ExpiresIn)
	assert.Equal(t, "7", result.User.ID, "numeric ids are coerced to strings")
	assert.Equal(t, "a@b.com", result.User.Email)
	assert.Equal(t, "Ada", result.User.Name)
}

func TestLogin_StringUserID(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"access_token": "A1",
			"refresh_token": "R1",
			"user": {"id": "usr_42", "email": "a@b.com"}
		}`))
	})

	result, err := client.Login(context.Background(), "a@b.com", "x")

	require.NoError(t, err)
	assert.Equal(t, "usr_42", result.User.ID)
	assert.Zero(t, result.ExpiresIn, "absent expires_in decodes to zero for the caller to default")
}

func TestLogin_RejectedCredentials(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	result, err := client.Login(context.Background(), "a@b.com", "wrong")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}

func TestLogin_ServerError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Login(context.Background(), "a@b.com", "x")

	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestLogin_MalformedBody(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing tokens", `{"user": {"id": 7}}`},
		{"missing user", `{"access_token": "A1", "refresh_token": "R1"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})

			_, err := client.Login(context.Background(), "a@b.com", "x")

			assert.ErrorIs(t, err, backend.ErrMalformedResponse)
		})
	}
}

func TestLogin_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse connections
	client := backend.NewHTTPClient(srv.URL, time.Second)

	_, err := client.Login(context.Background(), "a@b.com", "x")

	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestRefresh_Success_NoRotation(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/token/refresh/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "R1", body["refresh"])

		w.Write([]byte(`{"access": "A2"}`))
	})

	result, err := client.Refresh(context.Background(), "R1")

	require.NoError(t, err)
	assert.Equal(t, "A2", result.AccessToken)
	assert.Empty(t, result.RefreshToken)
}

func TestRefresh_Success_WithRotation(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access": "A2", "refresh": "R2"}`))
	})

	result, err := client.Refresh(context.Background(), "R1")

	require.NoError(t, err)
	assert.Equal(t, "A2", result.AccessToken)
	assert.Equal(t, "R2", result.RefreshToken)
}

func TestRefresh_Unauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := client.Refresh(context.Background(), "R1")

		assert.ErrorIs(t, err, backend.ErrUnauthorized)
	}
}

func TestRefresh_ServerError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Refresh(context.Background(), "R1")

	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestRefresh_MissingAccessField(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"refresh": "R2"}`))
	})

	_, err := client.Refresh(context.Background(), "R1")

	assert.ErrorIs(t, err, backend.ErrMalformedResponse)
}

func TestCurrentUser_SendsBearerToken(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/auth/me/", r.URL.Path)
		assert.Equal(t, "Bearer A1", r.Header.Get("Authorization"))

		w.Write([]byte(`{"id": 7, "email": "a@b.com", "name": "Ada", "image": "https://cdn/x.png"}`))
	})

	user, err := client.CurrentUser(context.Background(), "A1")

	require.NoError(t, err)
	assert.Equal(t, "7", user.ID)
	assert.Equal(t, "https://cdn/x.png", user.Image)
}

func TestCurrentUser_Unauthorized(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.CurrentUser(context.Background(), "stale")

	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}

func TestContextCancellation(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Refresh(ctx, "R1")

	assert.ErrorIs(t, err, backend.ErrUnavailable)
}
