package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// Role identifies which side of the marketplace a session belongs to.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
)

// ErrInvalidToken is returned when a session token fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Session identifies an authenticated actor. Operations receive it
// explicitly instead of reading ambient globals.
type Session struct {
	ActorID string
	Role    Role
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the actor.
func (t *TokenIssuer) Issue(actorID string, role Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  actorID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token, returning the session it encodes.
func (t *TokenIssuer) Verify(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	roleStr, _ := claims["role"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	role := Role(roleStr)
	if role != RoleCustomer && role != RoleDriver {
		return nil, ErrInvalidToken
	}

	return &Session{ActorID: sub, Role: role}, nil
}
