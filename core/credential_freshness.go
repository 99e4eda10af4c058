package core

import (
	"strings"
	"time"
)

// TokenRefreshBuffer keeps a token from expiring while a request is in flight.
const TokenRefreshBuffer = 30 * time.Second

// SignedAssertion is a compact JWS plus the expiry read back from its own claims.
type SignedAssertion struct {
	Token     string
	ExpiresAt time.Time
}

// CachedToken is a bearer token held in a TokenCache slot.
type CachedToken struct {
	Token     string
	ExpiresAt time.Time
}

func (a SignedAssertion) Cached() CachedToken {
	return CachedToken{Token: a.Token, ExpiresAt: a.ExpiresAt}
}

// IsExpired reports whether the token is inside the refresh buffer. The boundary is inclusive.
func (t CachedToken) IsExpired(now time.Time) bool {
	return IsTokenExpired(now, t.ExpiresAt, TokenRefreshBuffer)
}

func (t CachedToken) Usable(now time.Time) bool {
	return strings.TrimSpace(t.Token) != "" && !t.IsExpired(now)
}

func IsTokenExpired(now time.Time, expiresAt time.Time, buffer time.Duration) bool {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if buffer < 0 {
		buffer = 0
	}
	return !expiresAt.After(now.Add(buffer))
}

// ExpiredAt is the expiry assigned to tokens whose exp claim cannot be read.
func ExpiredAt(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return now.Add(-time.Millisecond)
}
