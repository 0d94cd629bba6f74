package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 1)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "alice")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Handle)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", 1)
	verifier := NewJWTService("secret-b", 1)

	token, err := issuer.GenerateToken(uuid.New(), "alice")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("secret", 1)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
