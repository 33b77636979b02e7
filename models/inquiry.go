package models

import "time"

// Inquiry statuses
const (
	InquiryPending  = "pending"
	InquiryAnswered = "answered"
)

// Inquiry is a customer question answered by an admin. Answered is final.
type Inquiry struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     *uint      `gorm:"index" json:"user_id"` // nullable, guests may ask too
	Name       string     `gorm:"not null" json:"name"`
	Email      string     `gorm:"not null" json:"email"`
	Subject    string     `gorm:"not null" json:"subject"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Answer     *string    `gorm:"type:text" json:"answer,omitempty"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Inquiry model
func (Inquiry) TableName() string {
	return "inquiries"
}

// Stock notification statuses
const (
	StockNotificationPending  = "pending"
	StockNotificationNotified = "notified"
)

// StockNotification is a request to be emailed when a sold-out product is restocked
type StockNotification struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ProductID  uint       `gorm:"not null;index" json:"product_id"`
	Email      string     `gorm:"not null" json:"email"`
	Size       string     `json:"size,omitempty"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for the StockNotification model
func (StockNotification) TableName() string {
	return "stock_notifications"
}
