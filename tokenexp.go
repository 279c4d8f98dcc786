package tmauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// resolveLifetime picks the access-token lifetime in seconds for a commit.
// Order: explicit expires_in from the server, the token's own exp claim
// (refresh responses omit the lifetime), then the configured fallback.
func (c *Client) resolveLifetime(accessToken string, expiresIn int64) int64 {
	if expiresIn > 0 {
		return expiresIn
	}
	if c.config.Tokens.DeriveExpiryFromJWT {
		if ttl, ok := jwtLifetime(accessToken, c.now()); ok {
			return ttl
		}
	}
	return int64(c.config.Tokens.FallbackAccessTTL / time.Second)
}

// jwtLifetime derives the remaining lifetime from the exp claim. The parse is
// unverified: this client never validates signatures, it only needs the
// expiry hint the issuer embedded.
func jwtLifetime(token string, now time.Time) (int64, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false
	}
	ttl := int64(exp.Time.Sub(now) / time.Second)
	if ttl <= 0 {
		return 0, false
	}
	return ttl, true
}
