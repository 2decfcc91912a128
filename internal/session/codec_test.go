package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rick1290/estuary-auth/internal/models"
	"github.com/rick1290/estuary-auth/internal/session"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := session.NewCodec("test-secret", time.Hour)
	state := &models.TokenState{
		AccessToken:          "A1",
		RefreshToken:         "R1",
		AccessTokenExpiresAt: time.Now().Add(20 * time.Minute).Truncate(time.Second),
		User:                 models.UserProfile{ID: "7", Email: "a@b.com", Name: "Ada"},
	}

	encoded, err := codec.Encode(state)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, state.AccessToken, decoded.AccessToken)
	assert.Equal(t, state.RefreshToken, decoded.RefreshToken)
	assert.True(t, state.AccessTokenExpiresAt.Equal(decoded.AccessTokenExpiresAt))
	assert.Equal(t, state.User, decoded.User)
}

func TestCodec_RoundTrip_ErroredState(t *testing.T) {
	codec := session.NewCodec("test-secret", time.Hour)
	state := &models.TokenState{
		Error: models.ErrRefreshAccessToken,
		User:  models.UserProfile{ID: "7"},
	}

	encoded, err := codec.Encode(state)
	require.NoError(t, err)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.Errored())
	assert.Empty(t, decoded.AccessToken)
}

func TestCodec_WrongSecret(t *testing.T) {
	encoded, err := session.NewCodec("secret-a", time.Hour).Encode(&models.TokenState{AccessToken: "A1"})
	require.NoError(t, err)

	_, err = session.NewCodec("secret-b", time.Hour).Decode(encoded)
	assert.ErrorIs(t, err, session.ErrInvalidCookie)
}

func TestCodec_TamperedPayload(t *testing.T) {
	codec := session.NewCodec("test-secret", time.Hour)
	encoded, err := codec.Encode(&models.TokenState{AccessToken: "A1"})
	require.NoError(t, err)

	tampered := encoded[:len(encoded)-4] + "AAAA"
	_, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, session.ErrInvalidCookie)
}

func TestCodec_Garbage(t *testing.T) {
	codec := session.NewCodec("test-secret", time.Hour)

	for _, value := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.Decode(value)
		assert.ErrorIs(t, err, session.ErrInvalidCookie)
	}
}

func TestCodec_ExpiredEnvelope(t *testing.T) {
	codec := session.NewCodec("test-secret", -time.Minute)
	encoded, err := codec.Encode(&models.TokenState{AccessToken: "A1"})
	require.NoError(t, err)

	_, err = codec.Decode(encoded)
	assert.ErrorIs(t, err, session.ErrInvalidCookie)
}

func TestCodec_RejectsUnsignedToken(t *testing.T) {
	codec := session.NewCodec("test-secret", time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"state": map[string]any{"access_token": "forged"},
	})
	value, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(value)
	assert.ErrorIs(t, err, session.ErrInvalidCookie)
}
