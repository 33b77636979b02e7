package controllers

import (
	"net/http"
	"strings"

	"github.com/arco-atelier/arco-api/middleware"
	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateInquiryRequest represents the request body for sending a question.
// Signed-in customers may omit name and email; their profile fills them in.
type CreateInquiryRequest struct {
	Name    string `json:"name" binding:"max=100"`
	Email   string `json:"email" binding:"omitempty,email"`
	Subject string `json:"subject" binding:"required,max=200"`
	Content string `json:"content" binding:"required,max=5000"`
}

// AnswerInquiryRequest represents the admin's answer
type AnswerInquiryRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// InquiryController serves customer inquiries
type InquiryController struct {
	db            *gorm.DB
	notifications *services.NotificationService
	log           *zap.Logger
}

// NewInquiryController creates an InquiryController
func NewInquiryController(db *gorm.DB, notifications *services.NotificationService, log *zap.Logger) *InquiryController {
	return &InquiryController{db: db, notifications: notifications, log: log}
}

// CreateInquiry handles POST /api/v1/inquiries
func (ic *InquiryController) CreateInquiry(c *gin.Context) {
	var req CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	inquiry := models.Inquiry{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: strings.TrimSpace(req.Subject),
		Content: req.Content,
		Status:  models.InquiryPending,
	}
	if user, ok := middleware.CurrentUser(c); ok {
		inquiry.UserID = &user.ID
		if inquiry.Name == "" {
			inquiry.Name = user.Name
		}
		if inquiry.Email == "" {
			inquiry.Email = user.Email
		}
	}
	if inquiry.Name == "" || inquiry.Email == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "name and email are required")
		return
	}

	if err := ic.notifications.CreateInquiry(c.Request.Context(), &inquiry); err != nil {
		handleServiceError(c, ic.log, err)
		return
	}

	respondData(c, http.StatusCreated, inquiry)
}

// ListMyInquiries handles GET /api/v1/inquiries
func (ic *InquiryController) ListMyInquiries(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	inquiries := []models.Inquiry{}
	if err := ic.db.WithContext(c.Request.Context()).
		Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Find(&inquiries).Error; err != nil {
		handleServiceError(c, ic.log, err)
		return
	}

	respondData(c, http.StatusOK, inquiries)
}

// ListInquiries handles GET /api/v1/admin/inquiries?status=
func (ic *InquiryController) ListInquiries(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != models.InquiryPending && status != models.InquiryAnswered {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown inquiry status")
		return
	}

	p := parsePagination(c)
	q := ic.db.WithContext(c.Request.Context()).Model(&models.Inquiry{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		handleServiceError(c, ic.log, err)
		return
	}

	inquiries := []models.Inquiry{}
	opts := p.listOptions()
	if err := q.Order("created_at DESC, id DESC").Limit(opts.Limit).Offset(opts.Offset).Find(&inquiries).Error; err != nil {
		handleServiceError(c, ic.log, err)
		return
	}

	respondPage(c, inquiries, p, total)
}

// AnswerInquiry handles POST /api/v1/admin/inquiries/:id/answer. The customer is emailed the answer.
func (ic *InquiryController) AnswerInquiry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AnswerInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "answer must not be blank")
		return
	}

	inquiry, err := ic.notifications.AnswerInquiry(c.Request.Context(), id, req.Answer)
	if err != nil {
		handleServiceError(c, ic.log, err)
		return
	}

	respondData(c, http.StatusOK, inquiry)
}
