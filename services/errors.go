package services

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrQuantityInvalid    = errors.New("quantity must be > 0")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductInactive    = errors.New("product is not available")
	ErrInvalidOption      = errors.New("invalid size or color")
	ErrOutOfStock         = errors.New("insufficient stock")
	ErrProductInStock     = errors.New("product is in stock")
	ErrCheckoutNotFound   = errors.New("checkout session not found")
	ErrAmountMismatch     = errors.New("payment amount does not match order total")
	ErrPaymentNotVerified = errors.New("payment was not confirmed by the gateway")
	ErrTotalMismatch      = errors.New("order total does not match its items")
	ErrDuplicateOrder     = errors.New("order already exists for this payment")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidStatus      = errors.New("unknown status")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrRefundFailed       = errors.New("payment refund failed")
	ErrLookNotFound       = errors.New("photoshoot look not found")
	ErrLookInactive       = errors.New("photoshoot look is not available")
	ErrInvalidBookingDate = errors.New("invalid booking date")
	ErrInvalidTimeSlot    = errors.New("invalid booking time slot")
	ErrSlotUnavailable    = errors.New("time slot already booked")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrInquiryNotFound    = errors.New("inquiry not found")
	ErrInquiryAnswered    = errors.New("inquiry already answered")
	ErrVideoNotConfigured = errors.New("video service is not configured")
)

// CouponError is returned by checkout when the supplied coupon cannot be applied
type CouponError struct {
	Code    string
	Message string
}

func (e *CouponError) Error() string {
	return e.Message
}

// GatewayError is an error response from a remote API (payment gateway, video service)
type GatewayError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}
