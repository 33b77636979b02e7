// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/arco-atelier/arco-api/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// A single connection is used so transactions serialize the way row locks would.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	if err := models.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// CreateUser inserts a user with the given Auth0 id and role
func CreateUser(t *testing.T, db *gorm.DB, auth0ID, role string) models.User {
	t.Helper()

	user := models.User{
		Auth0ID: auth0ID,
		Name:    "User " + auth0ID,
		Email:   auth0ID + "@example.com",
		Role:    role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateProduct inserts an active product with the given price and stock
func CreateProduct(t *testing.T, db *gorm.DB, slug string, price int64, stock int) models.Product {
	t.Helper()

	product := models.Product{
		Slug:          slug,
		Name:          "Product " + slug,
		Price:         price,
		StockQuantity: stock,
		Sizes:         []string{"S", "M", "L"},
		Colors:        []string{"ivory", "black"},
		Images:        []string{},
		Tags:          []string{"new"},
		IsActive:      true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return product
}

// CreateLook inserts an active photoshoot look with the given price
func CreateLook(t *testing.T, db *gorm.DB, slug string, price int64) models.PhotoshootLook {
	t.Helper()

	look := models.PhotoshootLook{
		Slug:            slug,
		Name:            "Look " + slug,
		Price:           price,
		DurationMinutes: 60,
		IncludedItems:   []string{"10 retouched photos"},
		Images:          []string{},
		IsActive:        true,
	}
	if err := db.Create(&look).Error; err != nil {
		t.Fatalf("Failed to create photoshoot look: %v", err)
	}
	return look
}
