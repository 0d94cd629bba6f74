package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/auth"
)

func setupAuthRouter(jwtSvc auth.JWTService) (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	var seen uuid.UUID
	engine.Use(NewAuthMiddleware(jwtSvc).Authenticate())
	engine.GET("/protected", func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		seen = id
		c.Status(http.StatusOK)
	})
	return engine, &seen
}

func TestAuthenticatePassesValidToken(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", 1)
	engine, seen := setupAuthRouter(jwtSvc)

	userID := uuid.New()
	token, err := jwtSvc.GenerateToken(userID, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, *seen)
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	engine, _ := setupAuthRouter(auth.NewJWTService("secret", 1))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	engine, _ := setupAuthRouter(auth.NewJWTService("secret", 1))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsForgedToken(t *testing.T) {
	engine, _ := setupAuthRouter(auth.NewJWTService("secret", 1))

	forged, err := auth.NewJWTService("other-secret", 1).GenerateToken(uuid.New(), "mallory")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
