package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
)

// JWTService validates the bearer tokens issued by the platform's auth
// layer. Both the REST middleware and the websocket handshake go through it
// with the same secret and algorithm.
type JWTService interface {
	ValidateToken(token string) (*model.TokenClaims, error)
	GenerateToken(userID uuid.UUID, handle string) (string, error)
}

type jwtService struct {
	secret      []byte
	expiryHours int
}

func NewJWTService(secret string, expiryHours int) JWTService {
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &jwtService{secret: []byte(secret), expiryHours: expiryHours}
}

func (s *jwtService) ValidateToken(tokenStr string) (*model.TokenClaims, error) {
	claims := &model.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token missing user id")
	}
	return claims, nil
}

// GenerateToken mirrors the auth service's token shape. Used by tooling and
// tests; production tokens come from the auth service itself.
func (s *jwtService) GenerateToken(userID uuid.UUID, handle string) (string, error) {
	now := time.Now()
	claims := &model.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expiryHours) * time.Hour)),
			Subject:   userID.String(),
		},
		UserID: userID,
		Handle: handle,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
