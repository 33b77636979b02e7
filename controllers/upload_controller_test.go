package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/services"
	"github.com/arco-atelier/arco-api/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newUploadRouter(t *testing.T, db *gorm.DB, images services.ImageService, videos services.VideoService, auth0ID string) *gin.Engine {
	t.Helper()

	uc := NewUploadController(db, images, videos, zap.NewNop())

	router := setupTestRouter()
	router.POST("/uploads/review-images", handlers(asUser(db, auth0ID), uc.UploadReviewImage)...)

	admin := router.Group("/admin", asAdmin(db, auth0ID)...)
	admin.POST("/uploads/images", uc.UploadImage)
	admin.DELETE("/uploads/images", uc.DeleteImage)
	admin.POST("/videos", uc.UploadVideo)
	admin.GET("/videos/:id", uc.VideoStatus)
	return router
}

func TestUploadImage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateUser(t, db, adminAuth0ID, models.RoleAdmin)
	images := services.NewMockImageService()
	router := newUploadRouter(t, db, images, &services.MockVideoService{}, adminAuth0ID)

	tests := []struct {
		name           string
		field          string
		filename       string
		content        []byte
		fields         map[string]string
		expectedStatus int
		expectedCode   string
		expectedPrefix string
	}{
		{"Default folder", "image", "hoodie.jpg", []byte("jpeg-bytes"), nil, http.StatusCreated, "", "products/"},
		{"Look folder", "image", "look.PNG", []byte("png-bytes"), map[string]string{"folder": "looks"}, http.StatusCreated, "", "looks/"},
		{"Unknown folder", "image", "hoodie.jpg", []byte("jpeg-bytes"), map[string]string{"folder": "secrets"}, http.StatusBadRequest, "INVALID_FOLDER", ""},
		{"Wrong extension", "image", "hoodie.gif", []byte("gif-bytes"), nil, http.StatusBadRequest, "INVALID_FILE_FORMAT", ""},
		{"Empty file", "image", "hoodie.jpg", []byte{}, nil, http.StatusBadRequest, "EMPTY_FILE", ""},
		{"No file", "", "", nil, nil, http.StatusBadRequest, "MISSING_FILE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, "/admin/uploads/images", tt.field, tt.filename, tt.content, tt.fields)
			w, response := serve(t, router, req)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(response))
				return
			}
			data := dataMap(t, response)
			key := data["key"].(string)
			assert.True(t, strings.HasPrefix(key, tt.expectedPrefix), key)
			assert.Equal(t, "https://cdn.arco.test/"+key, data["url"])
		})
	}

	assert.Len(t, images.Uploaded, 2)
}

func TestUploadReviewImage_ForcesReviewFolder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateUser(t, db, customerAuth0ID, models.RoleCustomer)
	images := services.NewMockImageService()
	router := newUploadRouter(t, db, images, &services.MockVideoService{}, customerAuth0ID)

	req := multipartRequest(t, "/uploads/review-images", "image", "dog.webp", []byte("webp-bytes"), map[string]string{"folder": "products"})
	w, response := serve(t, router, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(dataMap(t, response)["key"].(string), "reviews/"))

	req = multipartRequest(t, "/admin/uploads/images", "image", "dog.webp", []byte("webp-bytes"), nil)
	w, response = serve(t, router, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(response))
	assert.Len(t, images.Uploaded, 1)
}

func TestDeleteImage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateUser(t, db, adminAuth0ID, models.RoleAdmin)
	images := services.NewMockImageService()
	router := newUploadRouter(t, db, images, &services.MockVideoService{}, adminAuth0ID)

	tests := []struct {
		name           string
		key            string
		expectedStatus int
		expectedCode   string
	}{
		{"Valid key", "products/abc.jpg", http.StatusOK, ""},
		{"Missing key", "", http.StatusBadRequest, "INVALID_IMAGE_KEY"},
		{"Path traversal", "products/../config.env", http.StatusBadRequest, "INVALID_IMAGE_KEY"},
		{"Unknown folder", "private/abc.jpg", http.StatusBadRequest, "INVALID_IMAGE_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := performRequest(t, router, http.MethodDelete, "/admin/uploads/images?key="+tt.key, nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, errorCode(response))
		})
	}

	assert.Equal(t, []string{"products/abc.jpg"}, images.Deleted)
}

func TestUploadVideo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateUser(t, db, adminAuth0ID, models.RoleAdmin)
	look := testutil.CreateLook(t, db, "spring-picnic", 150000)
	videos := &services.MockVideoService{Video: &services.Video{ID: "vid_123", Status: "processing"}}
	router := newUploadRouter(t, db, services.NewMockImageService(), videos, adminAuth0ID)

	req := multipartRequest(t, "/admin/videos", "video", "shoot.mp4", []byte("mp4-bytes"), map[string]string{"look_id": fmt.Sprint(look.ID)})
	w, response := serve(t, router, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "vid_123", dataMap(t, response)["id"])

	var stored models.PhotoshootLook
	require.NoError(t, db.First(&stored, look.ID).Error)
	require.NotNil(t, stored.VideoID)
	assert.Equal(t, "vid_123", *stored.VideoID)

	tests := []struct {
		name           string
		filename       string
		fields         map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{"Unknown look", "shoot.mp4", map[string]string{"look_id": "999"}, http.StatusNotFound, "LOOK_NOT_FOUND"},
		{"Malformed look id", "shoot.mp4", map[string]string{"look_id": "abc"}, http.StatusBadRequest, "INVALID_ID"},
		{"Not a video", "shoot.avi", nil, http.StatusBadRequest, "INVALID_FILE_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, "/admin/videos", "video", tt.filename, []byte("bytes"), tt.fields)
			w, response := serve(t, router, req)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, errorCode(response))
		})
	}
}

func TestVideoStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateUser(t, db, adminAuth0ID, models.RoleAdmin)

	ready := &services.MockVideoService{Video: &services.Video{Status: services.VideoStatusReady, HLSURL: "https://stream.arco.test/vid_123.m3u8"}}
	router := newUploadRouter(t, db, services.NewMockImageService(), ready, adminAuth0ID)

	w, response := performRequest(t, router, http.MethodGet, "/admin/videos/vid_123", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, response)
	assert.Equal(t, true, data["ready"])
	assert.Equal(t, "vid_123", data["video"].(map[string]any)["id"])

	unconfigured := &services.MockVideoService{Err: services.ErrVideoNotConfigured}
	router = newUploadRouter(t, db, services.NewMockImageService(), unconfigured, adminAuth0ID)

	w, response = performRequest(t, router, http.MethodGet, "/admin/videos/vid_123", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "VIDEO_SERVICE_UNAVAILABLE", errorCode(response))
}
