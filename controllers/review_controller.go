package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/arco-atelier/arco-api/middleware"
	"github.com/arco-atelier/arco-api/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateReviewRequest represents the request body for a new review
type CreateReviewRequest struct {
	ReviewableType string   `json:"reviewable_type" binding:"required,oneof=product photoshoot"`
	ReviewableID   uint     `json:"reviewable_id" binding:"required"`
	Rating         int      `json:"rating" binding:"required,min=1,max=5"`
	Content        string   `json:"content" binding:"required,min=1,max=2000"`
	Images         []string `json:"images" binding:"max=5"`
}

// ReviewResponse is the public view of a review; it exposes only the author's name
type ReviewResponse struct {
	ID             uint      `json:"id"`
	ReviewableType string    `json:"reviewable_type"`
	ReviewableID   uint      `json:"reviewable_id"`
	Rating         int       `json:"rating"`
	Content        string    `json:"content"`
	Images         []string  `json:"images"`
	AuthorName     string    `json:"author_name"`
	CreatedAt      time.Time `json:"created_at"`
}

func toReviewResponse(r models.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:             r.ID,
		ReviewableType: r.ReviewableType,
		ReviewableID:   r.ReviewableID,
		Rating:         r.Rating,
		Content:        r.Content,
		Images:         r.Images,
		CreatedAt:      r.CreatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if r.User != nil {
		resp.AuthorName = r.User.Name
	}
	return resp
}

// ReviewController serves customer reviews and their moderation
type ReviewController struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewReviewController creates a ReviewController
func NewReviewController(db *gorm.DB, log *zap.Logger) *ReviewController {
	return &ReviewController{db: db, log: log, now: time.Now}
}

// ListReviews handles GET /api/v1/reviews?type=product&id=1 - approved reviews of one item
func (rc *ReviewController) ListReviews(c *gin.Context) {
	reviewableType := c.Query("type")
	if reviewableType != models.ReviewableProduct && reviewableType != models.ReviewablePhotoshoot {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "type must be product or photoshoot")
		return
	}
	reviewableID, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || reviewableID == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return
	}

	p := parsePagination(c)
	q := rc.db.WithContext(c.Request.Context()).Model(&models.Review{}).
		Where("reviewable_type = ? AND reviewable_id = ? AND is_approved = ?", reviewableType, reviewableID, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		handleServiceError(c, rc.log, err)
		return
	}

	var reviews []models.Review
	opts := p.listOptions()
	if err := q.Preload("User").Order("created_at DESC, id DESC").Limit(opts.Limit).Offset(opts.Offset).Find(&reviews).Error; err != nil {
		handleServiceError(c, rc.log, err)
		return
	}

	resp := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		resp = append(resp, toReviewResponse(r))
	}
	respondPage(c, resp, p, total)
}

// CreateReview handles POST /api/v1/reviews. New reviews wait for admin approval.
func (rc *ReviewController) CreateReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if !rc.reviewableExists(c, req.ReviewableType, req.ReviewableID) {
		return
	}

	images := req.Images
	if images == nil {
		images = []string{}
	}
	review := models.Review{
		ReviewableType: req.ReviewableType,
		ReviewableID:   req.ReviewableID,
		UserID:         user.ID,
		Rating:         req.Rating,
		Content:        req.Content,
		Images:         images,
	}
	if err := rc.db.WithContext(c.Request.Context()).Create(&review).Error; err != nil {
		handleServiceError(c, rc.log, err)
		return
	}

	rc.log.Info("Review submitted", zap.Uint("id", review.ID), zap.Uint("user_id", user.ID))
	respondData(c, http.StatusCreated, review)
}

// ListPendingReviews handles GET /api/v1/admin/reviews - reviews awaiting moderation
func (rc *ReviewController) ListPendingReviews(c *gin.Context) {
	p := parsePagination(c)
	q := rc.db.WithContext(c.Request.Context()).Model(&models.Review{}).Where("is_approved = ?", false)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		handleServiceError(c, rc.log, err)
		return
	}

	reviews := []models.Review{}
	opts := p.listOptions()
	if err := q.Preload("User").Order("created_at ASC, id ASC").Limit(opts.Limit).Offset(opts.Offset).Find(&reviews).Error; err != nil {
		handleServiceError(c, rc.log, err)
		return
	}

	respondPage(c, reviews, p, total)
}

// ApproveReview handles PATCH /api/v1/admin/reviews/:id/approve
func (rc *ReviewController) ApproveReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	db := rc.db.WithContext(c.Request.Context())
	var review models.Review
	if err := db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
			return
		}
		handleServiceError(c, rc.log, err)
		return
	}

	if !review.IsApproved {
		approvedAt := rc.now().UTC()
		if err := db.Model(&review).Updates(map[string]any{"is_approved": true, "approved_at": approvedAt}).Error; err != nil {
			handleServiceError(c, rc.log, err)
			return
		}
		review.IsApproved = true
		review.ApprovedAt = &approvedAt
	}

	respondData(c, http.StatusOK, review)
}

// RejectReview handles DELETE /api/v1/admin/reviews/:id. Rejected reviews are deleted.
func (rc *ReviewController) RejectReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res := rc.db.WithContext(c.Request.Context()).Delete(&models.Review{}, id)
	if res.Error != nil {
		handleServiceError(c, rc.log, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
		return
	}

	rc.log.Info("Review rejected", zap.Uint("id", id))
	respondData(c, http.StatusOK, gin.H{"id": id})
}

func (rc *ReviewController) reviewableExists(c *gin.Context, reviewableType string, id uint) bool {
	var model any = &models.Product{}
	code, message := "PRODUCT_NOT_FOUND", "Product not found"
	if reviewableType == models.ReviewablePhotoshoot {
		model = &models.PhotoshootLook{}
		code, message = "LOOK_NOT_FOUND", "Photoshoot look not found"
	}

	var count int64
	if err := rc.db.WithContext(c.Request.Context()).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		handleServiceError(c, rc.log, err)
		return false
	}
	if count == 0 {
		respondError(c, http.StatusNotFound, code, message)
		return false
	}
	return true
}
