package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BookingInput is a reservation request
type BookingInput struct {
	UserID           *uint
	PhotoshootLookID uint
	Date             string
	Time             string
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	PetName          string
	PetAge           string
	PetSize          string
	Request          string
}

// SlotAvailability tells whether a time slot can still be booked
type SlotAvailability struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// BookingFilter narrows a booking listing
type BookingFilter struct {
	ListOptions
	Status models.BookingStatus
	Date   string
	UserID *uint
}

// BookingService reserves photoshoot slots
type BookingService struct {
	db    *gorm.DB
	cache Cache
	loc   *time.Location
	log   *zap.Logger
	now   func() time.Time
}

// NewBookingService creates a BookingService. Dates are interpreted in loc.
// cache may be nil; when set, booking writes drop the cached dashboard.
func NewBookingService(db *gorm.DB, cache Cache, loc *time.Location, log *zap.Logger) *BookingService {
	return &BookingService{db: db, cache: cache, loc: loc, log: log, now: time.Now}
}

// Create inserts a pending booking priced at the look's current price
func (s *BookingService) Create(ctx context.Context, in BookingInput) (*models.Booking, error) {
	if err := s.checkDate(in.Date); err != nil {
		return nil, err
	}
	if !models.IsValidTimeSlot(in.Time) {
		return nil, ErrInvalidTimeSlot
	}

	look, err := s.activeLook(ctx, in.PhotoshootLookID)
	if err != nil {
		return nil, err
	}

	booking := models.Booking{
		PhotoshootLookID: look.ID,
		UserID:           in.UserID,
		BookingDate:      in.Date,
		BookingTime:      in.Time,
		CustomerName:     strings.TrimSpace(in.CustomerName),
		CustomerPhone:    strings.TrimSpace(in.CustomerPhone),
		CustomerEmail:    strings.TrimSpace(in.CustomerEmail),
		PetName:          strings.TrimSpace(in.PetName),
		PetAge:           in.PetAge,
		PetSize:          in.PetSize,
		Request:          in.Request,
		Status:           models.BookingStatusPending,
		TotalAmount:      look.Price,
	}

	// The partial unique index rejects a second active booking for the slot
	if err := s.db.WithContext(ctx).Create(&booking).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	invalidateDashboard(ctx, s.cache, s.log)

	s.log.Info("Booking created",
		zap.Uint("id", booking.ID),
		zap.Uint("look_id", look.ID),
		zap.String("date", booking.BookingDate),
		zap.String("time", booking.BookingTime),
	)

	booking.PhotoshootLook = look
	return &booking, nil
}

// Availability lists every slot of date with whether it is still free
func (s *BookingService) Availability(ctx context.Context, lookID uint, date string) ([]SlotAvailability, error) {
	if _, err := time.ParseInLocation(models.BookingDateLayout, date, s.loc); err != nil {
		return nil, ErrInvalidBookingDate
	}

	var taken []string
	err := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("photoshoot_look_id = ? AND booking_date = ? AND status <> ?", lookID, date, models.BookingStatusCancelled).
		Pluck("booking_time", &taken).Error
	if err != nil {
		return nil, fmt.Errorf("load booked slots: %w", err)
	}

	busy := make(map[string]bool, len(taken))
	for _, t := range taken {
		busy[t] = true
	}

	past := s.checkDate(date) != nil
	slots := make([]SlotAvailability, 0, len(models.BookingTimeSlots))
	for _, t := range models.BookingTimeSlots {
		slots = append(slots, SlotAvailability{Time: t, Available: !past && !busy[t]})
	}
	return slots, nil
}

// List returns bookings ordered by date and time
func (s *BookingService) List(ctx context.Context, f BookingFilter) ([]models.Booking, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Booking{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Date != "" {
		q = q.Where("booking_date = ?", f.Date)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	bookings := []models.Booking{}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	err := q.Preload("PhotoshootLook").
		Order("booking_date DESC, booking_time ASC, id DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, total, nil
}

// Get loads a booking with its look
func (s *BookingService) Get(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Preload("PhotoshootLook").First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return &booking, nil
}

// UpdateStatus applies an admin transition
func (s *BookingService) UpdateStatus(ctx context.Context, id uint, next models.BookingStatus) (*models.Booking, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s -> %s: %w", booking.Status, next, ErrInvalidTransition)
	}

	res := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, booking.Status).
		Update("status", next)
	if res.Error != nil {
		return nil, fmt.Errorf("update booking status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("booking changed concurrently: %w", ErrInvalidTransition)
	}
	invalidateDashboard(ctx, s.cache, s.log)

	s.log.Info("Booking status updated",
		zap.Uint("id", booking.ID),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(next)),
	)
	return s.Get(ctx, id)
}

// checkDate rejects malformed dates and dates before today in the shop's time zone
func (s *BookingService) checkDate(date string) error {
	day, err := time.ParseInLocation(models.BookingDateLayout, date, s.loc)
	if err != nil {
		return ErrInvalidBookingDate
	}
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if day.Before(today) {
		return fmt.Errorf("%s is in the past: %w", date, ErrInvalidBookingDate)
	}
	return nil
}

func (s *BookingService) activeLook(ctx context.Context, id uint) (*models.PhotoshootLook, error) {
	var look models.PhotoshootLook
	err := s.db.WithContext(ctx).First(&look, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load photoshoot look: %w", err)
	}
	if !look.IsActive {
		return nil, ErrLookInactive
	}
	return &look, nil
}
