package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arco-atelier/arco-api/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAdminTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	require.NoError(t, db.Create(&models.User{Auth0ID: "auth0|admin", Name: "Admin", Email: "admin@arco.kr", Role: models.RoleAdmin}).Error)
	require.NoError(t, db.Create(&models.User{Auth0ID: "auth0|customer", Name: "Customer", Email: "customer@arco.kr", Role: models.RoleCustomer}).Error)
	return db
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAdminTestDB(t)

	tests := []struct {
		name         string
		auth0ID      string
		wantStatus   int
		wantCode     string
		wantHandlers bool
	}{
		{"admin passes", "auth0|admin", http.StatusOK, "", true},
		{"customer is forbidden", "auth0|customer", http.StatusForbidden, "FORBIDDEN", false},
		{"unknown user", "auth0|ghost", http.StatusNotFound, "USER_NOT_FOUND", false},
		{"no token", "", http.StatusUnauthorized, "UNAUTHORIZED", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			router := gin.New()
			router.GET("/admin",
				func(c *gin.Context) {
					if tt.auth0ID != "" {
						c.Set(ContextUserID, tt.auth0ID)
					}
					c.Next()
				},
				RequireAdmin(db, zap.NewNop()),
				func(c *gin.Context) {
					reached = true
					user, ok := CurrentUser(c)
					assert.True(t, ok)
					assert.Equal(t, models.RoleAdmin, user.Role)
					c.Status(http.StatusOK)
				},
			)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantHandlers, reached)
			if tt.wantCode != "" {
				var response map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, tt.wantCode, response["error"].(map[string]interface{})["code"])
			}
		})
	}
}

func TestRequireAdmin_RoleChangeTakesEffectImmediately(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAdminTestDB(t)

	router := gin.New()
	router.GET("/admin",
		func(c *gin.Context) { c.Set(ContextUserID, "auth0|admin"); c.Next() },
		RequireAdmin(db, zap.NewNop()),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Demote the admin; the very next request must be rejected
	require.NoError(t, db.Model(&models.User{}).Where("auth0_id = ?", "auth0|admin").Update("role", models.RoleCustomer).Error)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoadOptionalUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAdminTestDB(t)

	t.Run("guest passes without user", func(t *testing.T) {
		router := gin.New()
		router.GET("/checkout", LoadOptionalUser(db, zap.NewNop()), func(c *gin.Context) {
			assert.Nil(t, CurrentUserID(c))
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkout", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("signed in user is attached", func(t *testing.T) {
		router := gin.New()
		router.GET("/checkout",
			func(c *gin.Context) { c.Set(ContextUserID, "auth0|customer"); c.Next() },
			LoadOptionalUser(db, zap.NewNop()),
			func(c *gin.Context) {
				id := CurrentUserID(c)
				if assert.NotNil(t, id) {
					assert.NotZero(t, *id)
				}
				c.Status(http.StatusOK)
			})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkout", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
