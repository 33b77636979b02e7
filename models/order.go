package models

import (
	"fmt"
	"time"
)

// OrderStatus is the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderTransitions lists the statuses an admin may move an order to from each status
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusCancelled}, // paid is reached only through gateway confirmation
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusCompleted},
}

// RevenueStatuses are the statuses counted as sales by the dashboard
var RevenueStatuses = []OrderStatus{
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order in status s may move to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is a frozen snapshot of a cart line taken at purchase time.
// It is stored inline with the order so later catalog edits never change it.
type OrderItem struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// LineTotal returns price * quantity
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// OrderItems is the snapshot collection stored as JSON
type OrderItems []OrderItem

// Subtotal sums every line total
func (items OrderItems) Subtotal() int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// ShippingAddress holds the delivery fields collected at checkout
type ShippingAddress struct {
	RecipientName string `gorm:"not null" json:"recipient_name" binding:"required"`
	Phone         string `gorm:"not null" json:"phone" binding:"required"`
	Email         string `json:"email" binding:"omitempty,email"`
	PostalCode    string `gorm:"not null" json:"postal_code" binding:"required"`
	Address1      string `gorm:"not null" json:"address1" binding:"required"`
	Address2      string `json:"address2"`
	Memo          string `json:"memo"`
}

// Order is a paid purchase. It is created only after the payment gateway confirmed the payment.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID          *uint           `gorm:"index" json:"user_id"` // nullable, guest checkout
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Items           OrderItems      `gorm:"serializer:json;not null" json:"items"`
	Shipping        ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	TotalAmount     int64           `gorm:"not null" json:"total_amount"`
	DiscountAmount  int64           `gorm:"not null;default:0" json:"discount_amount"`
	ShippingFee     int64           `gorm:"not null;default:0" json:"shipping_fee"`
	CouponID        *uint           `json:"coupon_id,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentKey      string          `json:"payment_key"`
	PaymentOrderID  string          `gorm:"uniqueIndex;not null" json:"payment_order_id"` // gateway orderId
	TrackingCarrier *string         `json:"tracking_carrier,omitempty"`
	TrackingNumber  *string         `json:"tracking_number,omitempty"`
	CancelReason    *string         `gorm:"type:text" json:"cancel_reason,omitempty"`
	Restocked       bool            `gorm:"not null;default:false" json:"restocked"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// ExpectedTotal computes subtotal - discount + shipping fee from the snapshot
func (o Order) ExpectedTotal() int64 {
	return o.Items.Subtotal() - o.DiscountAmount + o.ShippingFee
}

// CheckoutStatus is the state of a pending payment
type CheckoutStatus string

const (
	CheckoutPendingPayment CheckoutStatus = "pending_payment"
	CheckoutPaid           CheckoutStatus = "paid"
	CheckoutFailed         CheckoutStatus = "failed"
)

// CheckoutSession stores the cart snapshot and computed totals between checkout and payment confirmation.
// The gateway only ever sees PaymentOrderID and TotalAmount; the order is built from this row.
type CheckoutSession struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentOrderID string          `gorm:"uniqueIndex;not null" json:"payment_order_id"`
	UserID         *uint           `gorm:"index" json:"user_id"`
	Items          OrderItems      `gorm:"serializer:json;not null" json:"items"`
	Shipping       ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	CouponID       *uint           `json:"coupon_id,omitempty"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	Subtotal       int64           `gorm:"not null" json:"subtotal"`
	DiscountAmount int64           `gorm:"not null;default:0" json:"discount_amount"`
	ShippingFee    int64           `gorm:"not null;default:0" json:"shipping_fee"`
	TotalAmount    int64           `gorm:"not null" json:"total_amount"`
	Status         CheckoutStatus  `gorm:"type:varchar(20);not null;default:'pending_payment'" json:"status"`
	FailureCode    *string         `json:"failure_code,omitempty"`
	FailureMessage *string         `gorm:"type:text" json:"failure_message,omitempty"`
	OrderID        *uint           `json:"order_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the CheckoutSession model
func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}

// OrderName is the short description shown by the payment widget, e.g. "Knit Hoodie 외 2건"
func (s CheckoutSession) OrderName() string {
	if len(s.Items) == 0 {
		return ""
	}
	if len(s.Items) == 1 {
		return s.Items[0].Name
	}
	return fmt.Sprintf("%s 외 %d건", s.Items[0].Name, len(s.Items)-1)
}
