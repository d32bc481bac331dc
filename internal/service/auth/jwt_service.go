// Package auth validates bearer tokens and extracts the caller's identity.
// Tokens are issued by an external identity service; this package only
// verifies them, so there are no generation operations.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenValidator validates JWT access tokens issued by the identity service.
type TokenValidator interface {
	// ValidateToken validates the provided access token string and extracts
	// the claims. Returns ErrExpiredToken, ErrTokenNotYetValid or
	// ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated identity carried by an access token.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
