package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
)

// TestAccessToken is the raw token placed in the context by MockAuth
const TestAccessToken = "test-access-token"

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "https://test.auth0.com/",
			Subject: subject,
		},
	}
}

// MockAuth stands in for middleware.EnsureValidToken and authenticates every
// request as userID
func MockAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("access_token", TestAccessToken)
		c.Set("validated_claims", MockValidatedClaims(userID))
		c.Next()
	}
}
