package controllers

import (
	"net/http"
	"strings"

	"github.com/arco-atelier/arco-api/middleware"
	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/services"
	"github.com/arco-atelier/arco-api/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  string `json:"name" binding:"omitempty,max=100"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty,max=20"`
}

// UserController serves the caller's own profile
type UserController struct {
	db    *gorm.DB
	auth0 services.UserInfoProvider
	log   *zap.Logger
}

// NewUserController creates a UserController
func NewUserController(db *gorm.DB, auth0 services.UserInfoProvider, log *zap.Logger) *UserController {
	return &UserController{db: db, auth0: auth0, log: log}
}

// CreateUser handles POST /api/v1/users - creates the profile from Auth0 userinfo.
// New profiles are always customers; admins are promoted in the database.
func (uc *UserController) CreateUser(c *gin.Context) {
	// Get the Auth0 user ID from the validated JWT
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	// Get the access token to call Auth0's /userinfo endpoint
	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	userInfo, err := uc.auth0.GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		uc.log.Error("Failed to fetch userinfo", zap.String("auth0_id", auth0ID), zap.Error(err))
		respondError(c, http.StatusBadGateway, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	if userInfo.Email == "" {
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}

	name := userInfo.Name
	if name == "" {
		name = strings.Split(userInfo.Email, "@")[0]
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    name,
		Email:   userInfo.Email,
		Role:    models.RoleCustomer,
	}

	if err := uc.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists")
			return
		}
		uc.log.Error("Failed to create user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	uc.log.Info("User created", zap.Uint("id", user.ID), zap.String("auth0_id", auth0ID))
	respondData(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/me - gets current user's profile
func (uc *UserController) GetMyProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	respondData(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/me - updates current user's profile
func (uc *UserController) UpdateMyProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	// Update fields if provided
	updates := make(map[string]any)
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}

	// If no fields to update, return current user
	if len(updates) == 0 {
		respondData(c, http.StatusOK, user)
		return
	}

	db := uc.db.WithContext(c.Request.Context())
	if err := db.Model(user).Updates(updates).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
			return
		}
		uc.log.Error("Failed to update user", zap.Uint("id", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user profile")
		return
	}

	// Fetch updated user to return
	var updated models.User
	if err := db.First(&updated, user.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated profile")
		return
	}

	respondData(c, http.StatusOK, updated)
}
