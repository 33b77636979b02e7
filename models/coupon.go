package models

import (
	"strings"
	"time"
)

// Discount types
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon scopes
const (
	CouponScopeAll         = "all"
	CouponScopeProducts    = "products"
	CouponScopePhotoshoots = "photoshoots"
)

// Coupon is a discount code. Code is stored upper case and compared case-insensitively.
type Coupon struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Code              string    `gorm:"uniqueIndex;not null" json:"code"`
	Name              string    `json:"name"`
	DiscountType      string    `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue     int64     `gorm:"not null;check:discount_value >= 0" json:"discount_value"`
	MinOrderAmount    int64     `gorm:"not null;default:0" json:"min_order_amount"`
	MaxDiscountAmount *int64    `json:"max_discount_amount"` // nullable cap
	UsageLimit        *int      `json:"usage_limit"`         // nullable, unlimited when nil
	UsedCount         int       `gorm:"not null;default:0" json:"used_count"`
	ValidFrom         time.Time `gorm:"not null" json:"valid_from"`
	ValidUntil        time.Time `gorm:"not null" json:"valid_until"`
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"`
	ApplicableTo      string    `gorm:"type:varchar(20);not null;default:'all'" json:"applicable_to"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Coupon model
func (Coupon) TableName() string {
	return "coupons"
}

// NormalizeCouponCode trims and upper-cases a user supplied code
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AppliesTo reports whether the coupon covers scope (products or photoshoots)
func (c Coupon) AppliesTo(scope string) bool {
	return c.ApplicableTo == "" || c.ApplicableTo == CouponScopeAll || c.ApplicableTo == scope
}

// CouponRedemption records one use of a coupon by an order
type CouponRedemption struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CouponID       uint      `gorm:"not null;index" json:"coupon_id"`
	UserID         *uint     `gorm:"index" json:"user_id"`
	OrderID        uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	DiscountAmount int64     `gorm:"not null" json:"discount_amount"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for the CouponRedemption model
func (CouponRedemption) TableName() string {
	return "coupon_redemptions"
}
