package token

import (
	"time"

	"golang.org/x/oauth2"
)

const (
	// ExpiryBuffer is subtracted from expires_in when a token is received so
	// the token is treated as expired before the identity platform does.
	ExpiryBuffer = 300 * time.Second

	// DefaultExpiresIn is assumed when a token response omits expires_in.
	DefaultExpiresIn int64 = 3600
)

// Record is the cached token triple. ExpiresAt is unix epoch seconds.
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// NewRecord builds a record for a token received at now.
// expires_at = now + expiresIn - 300; a non-positive expiresIn means DefaultExpiresIn.
func NewRecord(accessToken, refreshToken string, expiresIn int64, now time.Time) Record {
	if expiresIn <= 0 {
		expiresIn = DefaultExpiresIn
	}
	return Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Unix() + expiresIn - int64(ExpiryBuffer/time.Second),
	}
}

// FromOAuth2 converts a token returned by golang.org/x/oauth2 into a record.
func FromOAuth2(t *oauth2.Token, now time.Time) Record {
	if t == nil {
		return Record{}
	}
	var expiresIn int64
	if !t.Expiry.IsZero() {
		expiresIn = int64(t.Expiry.Sub(now) / time.Second)
	}
	if expiresIn <= 0 && t.ExpiresIn > 0 {
		expiresIn = t.ExpiresIn
	}
	return NewRecord(t.AccessToken, t.RefreshToken, expiresIn, now)
}

// IsZero reports whether the record is the unauthenticated zero record.
func (r Record) IsZero() bool {
	return r == Record{}
}

// Expiry returns ExpiresAt as a time.
func (r Record) Expiry() time.Time {
	if r.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(r.ExpiresAt, 0)
}

// Valid reports whether the access token is present and not yet expired at now.
func (r Record) Valid(now time.Time) bool {
	return r.AccessToken != "" && now.Unix() < r.ExpiresAt
}

// OAuth2 returns the record as an oauth2 bearer token.
func (r Record) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: r.RefreshToken,
		Expiry:       r.Expiry(),
	}
}
