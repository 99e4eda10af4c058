package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/markawm/acme-github-issues/core"
)

const jwtAlgES256 = "ES256"

// DecodeExpiry reads the exp claim without verifying the signature. The issuer is
// trusted by transport, so the token is only inspected, never validated.
func DecodeExpiry(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, fmt.Errorf("auth: token is empty")
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("auth: parse token claims: %w", err)
	}
	expiresAt, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("auth: read exp claim: %w", err)
	}
	if expiresAt == nil {
		return time.Time{}, fmt.Errorf("auth: token has no exp claim")
	}
	return expiresAt.Time.UTC(), nil
}

// NewSignedAssertion pairs a token with the expiry from its own claims. Tokens whose
// expiry cannot be read are born expired so they are fetched again on next use.
func NewSignedAssertion(token string, now time.Time) core.SignedAssertion {
	expiresAt, err := DecodeExpiry(token)
	if err != nil {
		expiresAt = core.ExpiredAt(now)
	}
	return core.SignedAssertion{
		Token:     strings.TrimSpace(token),
		ExpiresAt: expiresAt,
	}
}
