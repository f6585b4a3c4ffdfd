package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Sunshine050/emergency-project-sub001/models"
)

// wsTokenTTL bounds how long a websocket handshake token stays valid.
// Reconnects fetch a fresh one from /auth/token.
const wsTokenTTL = 12 * time.Hour

// ActorClaims carries the resolved actor inside the websocket JWT
type ActorClaims struct {
	OrganizationID string      `json:"organizationID"`
	Role           models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueWSToken signs a JWT the client presents on the websocket
// handshake. The gateway trusts these claims as its auth context.
func IssueWSToken(secret string, actor models.Actor) (string, error) {
	claims := ActorClaims{
		OrganizationID: actor.OrganizationID,
		Role:           actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(wsTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseWSToken validates a websocket handshake token and returns the
// actor it was issued for
func ParseWSToken(secret, tokenString string) (models.Actor, error) {
	claims := &ActorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Actor{}, err
	}
	if !token.Valid {
		return models.Actor{}, fmt.Errorf("invalid token")
	}
	return models.Actor{
		UserID:         claims.Subject,
		OrganizationID: claims.OrganizationID,
		Role:           claims.Role,
	}, nil
}
