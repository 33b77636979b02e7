package controllers

import (
	"net/http"
	"strconv"

	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadController stores catalog images in object storage and videos in the video service
type UploadController struct {
	db     *gorm.DB
	images services.ImageService
	videos services.VideoService
	log    *zap.Logger
}

// NewUploadController creates an UploadController
func NewUploadController(db *gorm.DB, images services.ImageService, videos services.VideoService, log *zap.Logger) *UploadController {
	return &UploadController{db: db, images: images, videos: videos, log: log}
}

// UploadImage handles POST /api/v1/admin/uploads/images - multipart "image" plus "folder"
func (uc *UploadController) UploadImage(c *gin.Context) {
	folder := c.PostForm("folder")
	if folder == "" {
		folder = "products"
	}
	uc.upload(c, folder)
}

// UploadReviewImage handles POST /api/v1/uploads/review-images. Customers may only write to reviews/.
func (uc *UploadController) UploadReviewImage(c *gin.Context) {
	uc.upload(c, "reviews")
}

func (uc *UploadController) upload(c *gin.Context, folder string) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the 'image' field")
		return
	}

	uploaded, err := uc.images.UploadImage(c.Request.Context(), fileHeader, folder)
	if err != nil {
		handleServiceError(c, uc.log, err)
		return
	}

	uc.log.Info("Image uploaded", zap.String("key", uploaded.Key))
	respondData(c, http.StatusCreated, uploaded)
}

// DeleteImage handles DELETE /api/v1/admin/uploads/images?key=products/abc.jpg
func (uc *UploadController) DeleteImage(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		respondError(c, http.StatusBadRequest, "INVALID_IMAGE_KEY", "key is required")
		return
	}

	if err := uc.images.DeleteImage(c.Request.Context(), key); err != nil {
		handleServiceError(c, uc.log, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"key": key})
}

// UploadVideo handles POST /api/v1/admin/videos - multipart "video" and an optional "look_id"
// that receives the new video id.
func (uc *UploadController) UploadVideo(c *gin.Context) {
	fileHeader, err := c.FormFile("video")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "A video file is required in the 'video' field")
		return
	}

	var lookID uint64
	if raw := c.PostForm("look_id"); raw != "" {
		lookID, err = strconv.ParseUint(raw, 10, 64)
		if err != nil || lookID == 0 {
			respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid look_id")
			return
		}
		var count int64
		if err := uc.db.WithContext(c.Request.Context()).Model(&models.PhotoshootLook{}).Where("id = ?", lookID).Count(&count).Error; err != nil {
			handleServiceError(c, uc.log, err)
			return
		}
		if count == 0 {
			handleServiceError(c, uc.log, services.ErrLookNotFound)
			return
		}
	}

	video, err := uc.videos.Upload(c.Request.Context(), fileHeader)
	if err != nil {
		handleServiceError(c, uc.log, err)
		return
	}

	if lookID != 0 {
		err := uc.db.WithContext(c.Request.Context()).Model(&models.PhotoshootLook{}).
			Where("id = ?", lookID).
			Update("video_id", video.ID).Error
		if err != nil {
			handleServiceError(c, uc.log, err)
			return
		}
	}

	respondData(c, http.StatusCreated, video)
}

// VideoStatus handles GET /api/v1/admin/videos/:id - polls the encoding state
func (uc *UploadController) VideoStatus(c *gin.Context) {
	video, err := uc.videos.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, uc.log, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"video": video,
		"ready": video.Ready(),
	})
}
