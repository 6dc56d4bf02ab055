package jwttoken

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "credmint/pkg/domain-errors"
)

const (
	sessionID = "0b6f0a1e-6c8e-4a53-9d7e-2f1b1c1f7a10"
	tokenTTL  = 15 * time.Minute
)

func newService(clk clock.Clock) *CallbackService {
	return NewCallbackService("test-signing-key", "test-issuer", tokenTTL, WithClock(clk))
}

func Test_IssueAndValidate(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newService(clk)

	token, err := svc.Issue(sessionID, "coinbase")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token, sessionID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, "coinbase", claims.Provider)
	assert.WithinDuration(t, clk.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
	assert.NotEmpty(t, claims.ID)
}

func Test_Issue_EmptySession(t *testing.T) {
	_, err := newService(clock.NewMock()).Issue("", "x")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_Validate_ExpiredToken(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newService(clk)

	token, err := svc.Issue(sessionID, "binance")
	require.NoError(t, err)

	clk.Add(tokenTTL + time.Second)
	_, err = svc.Validate(token, sessionID)
	require.ErrorContains(t, err, "callback token expired")
}

func Test_Validate_Rejects(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newService(clk)
	token, err := svc.Issue(sessionID, "x")
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := svc.Validate("", sessionID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("invalid-token-string", sessionID)
		require.ErrorContains(t, err, "invalid callback token")
	})
	t.Run("other session", func(t *testing.T) {
		_, err := svc.Validate(token, "another-session")
		require.ErrorContains(t, err, "another session")
	})
	t.Run("other key", func(t *testing.T) {
		other := NewCallbackService("other-key", "test-issuer", tokenTTL, WithClock(clk))
		_, err := other.Validate(token, sessionID)
		require.ErrorContains(t, err, "invalid callback token")
	})
	t.Run("other issuer", func(t *testing.T) {
		other := NewCallbackService("test-signing-key", "someone-else", tokenTTL, WithClock(clk))
		_, err := other.Validate(token, sessionID)
		require.ErrorContains(t, err, "invalid callback token")
	})
	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, CallbackClaims{SessionID: sessionID})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.Validate(raw, sessionID)
		require.ErrorContains(t, err, "invalid callback token")
	})
}
