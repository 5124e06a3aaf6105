package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticatorRoundTrip(t *testing.T) {
	a := NewAuthenticator("s3cret", time.Hour)

	token, err := a.IssueToken("ci")
	require.NoError(t, err)

	subject, err := a.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ci", subject)

	_, err = NewAuthenticator("other", time.Hour).Validate(token)
	assert.Error(t, err)

	_, err = a.IssueToken("")
	assert.Error(t, err)
}

func TestAuthenticatorRejectsExpiredTokens(t *testing.T) {
	a := NewAuthenticator("s3cret", -time.Minute)
	token, err := a.IssueToken("ci")
	require.NoError(t, err)

	_, err = a.Validate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthenticatorRejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "ci",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = NewAuthenticator("s3cret", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestRunsRequireBearerToken(t *testing.T) {
	a := NewAuthenticator("s3cret", time.Hour)
	h := NewRouter(newMemStore(), RouterOptions{Auth: a})

	rec := serve(t, h, "/runs")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization required", decode[ErrorResponse](t, rec).Message)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid authorization format", decode[ErrorResponse](t, rec).Message)

	token, err := a.IssueToken("ci")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/runs/"+runA.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusOK, serve(t, h, "/healthz").Code, "health stays public")
}
