package explorer

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// SessionClaims binds a map client to its session. It carries no user
// identity.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func MakeToken(secret, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	cl := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	return t.SignedString([]byte(secret))
}
