// Package auth validates the bearer tokens that identify the caller of the
// tasks API. Issuing tokens exists for local tooling only: the API itself has
// no login flow.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService issues and validates HS256 access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for userID.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks the signature and time claims of tokenString and
	// returns its claims. Failures are reported as ErrInvalidToken,
	// ErrExpiredToken, ErrTokenNotYetValid or ErrMissingSubject.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an access token.
type Claims struct {
	// UserID is the owner every task operation is scoped to.
	UserID uuid.UUID `json:"uid,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
