package testutil

import (
	"github.com/arco-atelier/arco-api/middleware"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{},
	}
}

// MockAuthMiddleware stores the same context values the real JWT middleware does.
// An empty auth0ID simulates a guest request on optional-auth routes.
func MockAuthMiddleware(auth0ID, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth0ID != "" {
			c.Set(middleware.ContextUserID, auth0ID)
			c.Set(middleware.ContextAccessToken, accessToken)
			c.Set(middleware.ContextClaims, MockValidatedClaims(auth0ID, "https://test.auth0.com/"))
		}
		c.Next()
	}
}
