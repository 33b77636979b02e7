package models

import (
	"slices"
	"time"
)

// Product is a purchasable catalog item. Products are deactivated, never deleted.
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Slug          string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name          string    `gorm:"not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	Price         int64     `gorm:"not null;check:price >= 0" json:"price"`
	StockQuantity int       `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	Sizes         []string  `gorm:"serializer:json" json:"sizes"`
	Colors        []string  `gorm:"serializer:json" json:"colors"`
	Images        []string  `gorm:"serializer:json" json:"images"`
	Tags          []string  `gorm:"serializer:json" json:"tags"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// HasSize reports whether size is offered. Products without sizes accept only an empty size.
func (p Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return size == ""
	}
	return slices.Contains(p.Sizes, size)
}

// HasColor reports whether color is offered. Products without colors accept only an empty color.
func (p Product) HasColor(color string) bool {
	if len(p.Colors) == 0 {
		return color == ""
	}
	return slices.Contains(p.Colors, color)
}

// PhotoshootLook is a bookable photoshoot package
type PhotoshootLook struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Slug            string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name            string    `gorm:"not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Price           int64     `gorm:"not null;check:price >= 0" json:"price"`
	DurationMinutes int       `gorm:"not null;default:60" json:"duration_minutes"`
	IncludedItems   []string  `gorm:"serializer:json" json:"included_items"`
	Images          []string  `gorm:"serializer:json" json:"images"`
	VideoID         *string   `json:"video_id,omitempty"` // nullable, id returned by the video service
	IsActive        bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the PhotoshootLook model
func (PhotoshootLook) TableName() string {
	return "photoshoot_looks"
}
