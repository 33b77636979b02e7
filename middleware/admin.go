package middleware

import (
	"errors"
	"net/http"

	"github.com/arco-atelier/arco-api/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContextCurrentUser holds the *models.User loaded by RequireUser or RequireAdmin
const ContextCurrentUser = "current_user"

// RequireUser loads the caller's profile row. Routes behind it can rely on CurrentUser.
func RequireUser(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadUser(c, db, log)
		if !ok {
			return
		}
		c.Set(ContextCurrentUser, user)
		c.Next()
	}
}

// RequireAdmin re-reads the caller's role from the database on every request
// instead of trusting anything cached in the token or session.
func RequireAdmin(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadUser(c, db, log)
		if !ok {
			return
		}

		if !user.IsAdmin() {
			log.Warn("Non-admin user attempted admin access",
				zap.Uint("user_id", user.ID),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Admin access required",
				},
			})
			return
		}

		c.Set(ContextCurrentUser, user)
		c.Next()
	}
}

// LoadOptionalUser attaches the caller's profile when the request carries a token.
// Guests pass through without a current user.
func LoadOptionalUser(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := GetUserID(c); err != nil {
			c.Next()
			return
		}
		user, ok := loadUser(c, db, log)
		if !ok {
			return
		}
		c.Set(ContextCurrentUser, user)
		c.Next()
	}
}

// CurrentUser returns the profile stored by RequireUser, RequireAdmin or LoadOptionalUser
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextCurrentUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// CurrentUserID returns the caller's user id, or nil for guests
func CurrentUserID(c *gin.Context) *uint {
	user, ok := CurrentUser(c)
	if !ok {
		return nil
	}
	id := user.ID
	return &id
}

func loadUser(c *gin.Context, db *gorm.DB, log *zap.Logger) (*models.User, bool) {
	// Extract Auth0 user ID from JWT token
	auth0ID, err := GetUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, false
	}

	// Find the user in the database
	var user models.User
	if err := db.WithContext(c.Request.Context()).Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "User profile not found. Please create a profile first.",
				},
			})
			return nil, false
		}
		log.Error("Failed to load user", zap.String("auth0_id", auth0ID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load user profile",
			},
		})
		return nil, false
	}

	return &user, true
}
