package services

import (
	"bytes"
	"mime/multipart"
	"testing"
	"time"

	"github.com/arco-atelier/arco-api/config"
	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var seoul = mustLoadLocation("Asia/Seoul")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testConfig() *config.Config {
	return &config.Config{
		GoEnv:                 "test",
		AppURL:                "https://arco.test",
		TossClientKey:         "test_ck_123",
		TossSecretKey:         "test_sk_123",
		ShippingFee:           3000,
		FreeShippingThreshold: 50000,
		RestockOnCancel:       true,
		Timezone:              "Asia/Seoul",
		DashboardCacheTTL:     time.Minute,
	}
}

func testShipping() models.ShippingAddress {
	return models.ShippingAddress{
		RecipientName: "김아르",
		Phone:         "010-1234-5678",
		Email:         "buyer@example.com",
		PostalCode:    "06000",
		Address1:      "서울특별시 강남구 테헤란로 1",
	}
}

type checkoutFixture struct {
	db       *gorm.DB
	gateway  *MockPaymentGateway
	cache    *MemoryCache
	coupons  *CouponService
	checkout *CheckoutService
	orders   *OrderService
}

func newCheckoutFixture(t *testing.T, cfg *config.Config) *checkoutFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	gateway := NewMockPaymentGateway()
	cache := NewMemoryCache()
	coupons := NewCouponService(db, log)

	return &checkoutFixture{
		db:       db,
		gateway:  gateway,
		cache:    cache,
		coupons:  coupons,
		checkout: NewCheckoutService(db, gateway, coupons, cache, cfg, log),
		orders:   NewOrderService(db, gateway, cache, cfg, log),
	}
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

// createMultipartFileHeader builds a real FileHeader the way gin parses an upload
func createMultipartFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(content)
	writer.Close()

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	if err != nil {
		t.Fatalf("Failed to parse form: %v", err)
	}
	return form.File["file"][0]
}
