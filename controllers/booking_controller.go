package controllers

import (
	"net/http"

	"github.com/arco-atelier/arco-api/middleware"
	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateBookingRequest represents the request body for reserving a photoshoot slot
type CreateBookingRequest struct {
	PhotoshootLookID uint   `json:"photoshoot_look_id" binding:"required"`
	BookingDate      string `json:"booking_date" binding:"required"`
	BookingTime      string `json:"booking_time" binding:"required"`
	CustomerName     string `json:"customer_name" binding:"required"`
	CustomerPhone    string `json:"customer_phone" binding:"required"`
	CustomerEmail    string `json:"customer_email" binding:"omitempty,email"`
	PetName          string `json:"pet_name" binding:"required"`
	PetAge           string `json:"pet_age"`
	PetSize          string `json:"pet_size"`
	Request          string `json:"request"`
}

// UpdateBookingStatusRequest represents the request body for an admin booking transition
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BookingController serves photoshoot reservations
type BookingController struct {
	db       *gorm.DB
	bookings *services.BookingService
	log      *zap.Logger
}

// NewBookingController creates a BookingController
func NewBookingController(db *gorm.DB, bookings *services.BookingService, log *zap.Logger) *BookingController {
	return &BookingController{db: db, bookings: bookings, log: log}
}

// Availability handles GET /api/v1/photoshoots/:slug/availability?date=YYYY-MM-DD
func (bc *BookingController) Availability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "date is required")
		return
	}

	look, ok := findActiveLook(c, bc.db, bc.log)
	if !ok {
		return
	}

	slots, err := bc.bookings.Availability(c.Request.Context(), look.ID, date)
	if err != nil {
		handleServiceError(c, bc.log, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"photoshoot_look_id": look.ID,
		"date":               date,
		"slots":              slots,
	})
}

// CreateBooking handles POST /api/v1/bookings. Guests may book; signed-in users get it on their account.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	booking, err := bc.bookings.Create(c.Request.Context(), services.BookingInput{
		UserID:           middleware.CurrentUserID(c),
		PhotoshootLookID: req.PhotoshootLookID,
		Date:             req.BookingDate,
		Time:             req.BookingTime,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		PetName:          req.PetName,
		PetAge:           req.PetAge,
		PetSize:          req.PetSize,
		Request:          req.Request,
	})
	if err != nil {
		handleServiceError(c, bc.log, err)
		return
	}

	respondData(c, http.StatusCreated, booking)
}

// ListMyBookings handles GET /api/v1/bookings
func (bc *BookingController) ListMyBookings(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	p := parsePagination(c)
	bookings, total, err := bc.bookings.List(c.Request.Context(), services.BookingFilter{
		ListOptions: p.listOptions(),
		UserID:      &user.ID,
	})
	if err != nil {
		handleServiceError(c, bc.log, err)
		return
	}

	respondPage(c, bookings, p, total)
}

// ListBookings handles GET /api/v1/admin/bookings?status=&date=
func (bc *BookingController) ListBookings(c *gin.Context) {
	status := models.BookingStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown booking status")
		return
	}

	p := parsePagination(c)
	bookings, total, err := bc.bookings.List(c.Request.Context(), services.BookingFilter{
		ListOptions: p.listOptions(),
		Status:      status,
		Date:        c.Query("date"),
	})
	if err != nil {
		handleServiceError(c, bc.log, err)
		return
	}

	respondPage(c, bookings, p, total)
}

// GetBooking handles GET /api/v1/admin/bookings/:id
func (bc *BookingController) GetBooking(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	booking, err := bc.bookings.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, bc.log, err)
		return
	}

	respondData(c, http.StatusOK, booking)
}

// UpdateBookingStatus handles PATCH /api/v1/admin/bookings/:id/status
func (bc *BookingController) UpdateBookingStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	booking, err := bc.bookings.UpdateStatus(c.Request.Context(), id, models.BookingStatus(req.Status))
	if err != nil {
		handleServiceError(c, bc.log, err)
		return
	}

	respondData(c, http.StatusOK, booking)
}
