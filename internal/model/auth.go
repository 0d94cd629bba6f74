package model

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims mirrors the claims issued by the platform's auth service. This
// subsystem only validates tokens, it never issues them.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Handle string    `json:"handle"`
}
