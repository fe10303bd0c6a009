// Package auth issues and checks the tokens spectators use to follow a
// match's live turn feed.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

// DefaultTokenTTL bounds how long a spectator token stays valid.
const DefaultTokenTTL = 12 * time.Hour

// Claims holds the JWT payload. An empty MatchID grants access to every match.
type Claims struct {
	SpectatorID string `json:"spectator_id"`
	MatchID     string `json:"match_id,omitempty"`
	jwt.RegisteredClaims
}

// CanWatch reports whether the token may follow matchID.
func (c *Claims) CanWatch(matchID string) bool {
	return c.MatchID == "" || c.MatchID == matchID
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret []byte
	expiry time.Duration
}

// NewJWTManager creates a JWTManager with the given secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: DefaultTokenTTL,
	}
}

// WithExpiry returns a copy of m issuing tokens valid for d.
func (m *JWTManager) WithExpiry(d time.Duration) *JWTManager {
	return &JWTManager{secret: m.secret, expiry: d}
}

// GenerateSpectatorToken creates a token for spectatorID scoped to matchID.
func (m *JWTManager) GenerateSpectatorToken(spectatorID, matchID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		SpectatorID: spectatorID,
		MatchID:     matchID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   spectatorID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT string, returning the claims.
func (m *JWTManager) ValidateToken(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
