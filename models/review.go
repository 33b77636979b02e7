package models

import "time"

// Reviewable types
const (
	ReviewableProduct    = "product"
	ReviewablePhotoshoot = "photoshoot"
)

// Review is a customer rating of a product or photoshoot look.
// It stays hidden until an admin approves it.
type Review struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ReviewableType string     `gorm:"type:varchar(20);not null;index:idx_reviewable" json:"reviewable_type"`
	ReviewableID   uint       `gorm:"not null;index:idx_reviewable" json:"reviewable_id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	User           *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Rating         int        `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Images         []string   `gorm:"serializer:json" json:"images"`
	IsApproved     bool       `gorm:"not null;default:false;index" json:"is_approved"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}
