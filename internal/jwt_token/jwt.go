// Package jwttoken issues and checks the short-lived tokens embedded in
// proof-service callback URLs.
package jwttoken

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "credmint/pkg/domain-errors"
)

const audience = "verify-callback"

// CallbackClaims binds a token to a single verification session.
type CallbackClaims struct {
	SessionID string `json:"sid"`
	Provider  string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// CallbackService handles callback token creation and validation.
type CallbackService struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
	clock      clock.Clock
}

type Option func(*CallbackService)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(c clock.Clock) Option {
	return func(s *CallbackService) { s.clock = c }
}

func NewCallbackService(signingKey, issuer string, tokenTTL time.Duration, opts ...Option) *CallbackService {
	s := &CallbackService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
		clock:      clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs an HS256 token for sessionID.
func (s *CallbackService) Issue(sessionID, provider string) (string, error) {
	if sessionID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "session id cannot be empty")
	}
	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, CallbackClaims{
		SessionID: sessionID,
		Provider:  provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate checks signature, expiry, issuer and audience, and that the
// token was issued for sessionID.
func (s *CallbackService) Validate(tokenString, sessionID string) (*CallbackClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing callback token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &CallbackClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "callback token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid callback token")
	}

	claims, ok := parsed.Claims.(*CallbackClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid callback token")
	}
	if claims.SessionID != sessionID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "callback token issued for another session")
	}
	return claims, nil
}
