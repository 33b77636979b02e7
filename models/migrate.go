package models

import (
	"fmt"

	"gorm.io/gorm"
)

// All returns every model managed by Migrate
func All() []any {
	return []any{
		&User{},
		&Product{},
		&PhotoshootLook{},
		&CheckoutSession{},
		&Order{},
		&Booking{},
		&Coupon{},
		&CouponRedemption{},
		&Review{},
		&Inquiry{},
		&StockNotification{},
	}
}

// Migrate creates or updates the schema. Works on PostgreSQL and SQLite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// A slot is held by at most one booking that is not cancelled
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_active_slot
ON bookings (photoshoot_look_id, booking_date, booking_time)
WHERE status <> 'cancelled'`).Error; err != nil {
		return fmt.Errorf("create booking slot index: %w", err)
	}

	return nil
}
