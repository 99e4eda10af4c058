package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/markawm/acme-github-issues/core"
)

const (
	AppAssertionTTL  = 5 * time.Minute
	AppAssertionSkew = 5 * time.Minute
)

type AppSignerConfig struct {
	AppID      string
	PrivateKey *ecdsa.PrivateKey
	Now        func() time.Time
	NewID      func() string
}

// AppSigner mints the app-level assertion presented to the installation token endpoint.
type AppSigner struct {
	appID string
	key   *ecdsa.PrivateKey
	now   func() time.Time
	newID func() string
}

func NewAppSigner(cfg AppSignerConfig) *AppSigner {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &AppSigner{
		appID: strings.TrimSpace(cfg.AppID),
		key:   cfg.PrivateKey,
		now:   now,
		newID: newID,
	}
}

func (s *AppSigner) AppID() string {
	if s == nil {
		return ""
	}
	return s.appID
}

func (s *AppSigner) Mint(_ context.Context) (core.SignedAssertion, error) {
	if s == nil {
		return core.SignedAssertion{}, core.NewSigningError(nil, "auth: app signer is not configured")
	}
	return mintAppAssertion(s.appID, s.key, s.now().UTC(), s.newID())
}

// MintAppAssertion signs {jti, nbf, iat, exp, sub} with ES256.
func MintAppAssertion(appID string, key *ecdsa.PrivateKey, now time.Time) (core.SignedAssertion, error) {
	return mintAppAssertion(strings.TrimSpace(appID), key, now.UTC(), uuid.NewString())
}

func mintAppAssertion(appID string, key *ecdsa.PrivateKey, now time.Time, jti string) (core.SignedAssertion, error) {
	if appID == "" {
		return core.SignedAssertion{}, core.NewSigningError(nil, "auth: app id is required")
	}
	if key == nil {
		return core.SignedAssertion{}, core.NewSigningError(nil, "auth: private key is required")
	}
	if key.Curve != elliptic.P256() {
		return core.SignedAssertion{}, core.NewSigningError(nil, "auth: "+jwtAlgES256+" requires a P-256 key")
	}

	claims := jwt.RegisteredClaims{
		ID:        jti,
		Subject:   appID,
		NotBefore: jwt.NewNumericDate(now.Add(-AppAssertionSkew)),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(AppAssertionTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		return core.SignedAssertion{}, core.NewSigningError(err, "auth: could not sign app jwt")
	}

	// exp is read back from the signed token rather than reusing the local value.
	return NewSignedAssertion(token, now), nil
}
