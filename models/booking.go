package models

import (
	"slices"
	"time"
)

// BookingStatus is the state of a photoshoot reservation
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingTimeSlots is the fixed list of start times customers can choose from
var BookingTimeSlots = []string{"10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

// BookingDateLayout is the format of Booking.BookingDate
const BookingDateLayout = "2006-01-02"

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

// Valid reports whether s is a known booking status
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a booking in status s may move to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return slices.Contains(bookingTransitions[s], next)
}

// IsValidTimeSlot reports whether slot is one of BookingTimeSlots
func IsValidTimeSlot(slot string) bool {
	return slices.Contains(BookingTimeSlots, slot)
}

// Booking is a reservation of a photoshoot look for a date and time slot.
// At most one non-cancelled booking may hold a (look, date, slot) triple; see Migrate.
type Booking struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	PhotoshootLookID uint            `gorm:"not null;index" json:"photoshoot_look_id"`
	PhotoshootLook   *PhotoshootLook `gorm:"foreignKey:PhotoshootLookID" json:"photoshoot_look,omitempty"`
	UserID           *uint           `gorm:"index" json:"user_id"`
	BookingDate      string          `gorm:"type:varchar(10);not null;index" json:"booking_date"`
	BookingTime      string          `gorm:"type:varchar(5);not null" json:"booking_time"`
	CustomerName     string          `gorm:"not null" json:"customer_name"`
	CustomerPhone    string          `gorm:"not null" json:"customer_phone"`
	CustomerEmail    string          `json:"customer_email"`
	PetName          string          `gorm:"not null" json:"pet_name"`
	PetAge           string          `json:"pet_age"`
	PetSize          string          `json:"pet_size"`
	Request          string          `gorm:"type:text" json:"request"`
	Status           BookingStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalAmount      int64           `gorm:"not null" json:"total_amount"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}
