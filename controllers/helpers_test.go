package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arco-atelier/arco-api/config"
	"github.com/arco-atelier/arco-api/middleware"
	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	customerAuth0ID = "auth0|customer123"
	adminAuth0ID    = "auth0|admin123"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
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

// asUser authenticates the request as auth0ID and loads the profile like the real route chain
func asUser(db *gorm.DB, auth0ID string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		testutil.MockAuthMiddleware(auth0ID, "token-"+auth0ID),
		middleware.RequireUser(db, zap.NewNop()),
	}
}

// asAdmin authenticates the request and requires the admin role
func asAdmin(db *gorm.DB, auth0ID string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		testutil.MockAuthMiddleware(auth0ID, "token-"+auth0ID),
		middleware.RequireAdmin(db, zap.NewNop()),
	}
}

// asOptional attaches a profile when auth0ID is set and lets guests through otherwise
func asOptional(db *gorm.DB, auth0ID string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		testutil.MockAuthMiddleware(auth0ID, "token-"+auth0ID),
		middleware.LoadOptionalUser(db, zap.NewNop()),
	}
}

func handlers(chain []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(chain, h)
}

// performRequest sends a JSON request and decodes the envelope
func performRequest(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return serve(t, router, jsonRequest(t, method, path, body))
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(t *testing.T, router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, decodeResponse(t, w)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func errorCode(response map[string]any) string {
	errObj, ok := response["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}

func dataMap(t *testing.T, response map[string]any) map[string]any {
	t.Helper()

	data, ok := response["data"].(map[string]any)
	require.True(t, ok, "data is not an object: %v", response["data"])
	return data
}

func dataList(t *testing.T, response map[string]any) []any {
	t.Helper()

	data, ok := response["data"].([]any)
	require.True(t, ok, "data is not a list: %v", response["data"])
	return data
}

// multipartRequest builds a multipart form with one file field and extra text fields
func multipartRequest(t *testing.T, path, field, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
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

// createPaidOrder inserts a paid order for userID without going through checkout
func createPaidOrder(t *testing.T, db *gorm.DB, userID *uint, product models.Product, qty int) models.Order {
	t.Helper()

	paidAt := time.Now().UTC()
	ref := uuid.NewString()
	order := models.Order{
		OrderNumber: "ARCO-TEST-" + ref[:8],
		UserID:      userID,
		Status:      models.OrderStatusPaid,
		Items: models.OrderItems{
			{ProductID: product.ID, Name: product.Name, Price: product.Price, Quantity: qty, Size: "M", Color: "ivory"},
		},
		Shipping:       testShipping(),
		TotalAmount:    product.Price * int64(qty),
		PaymentMethod:  "카드",
		PaymentKey:     "pay_" + ref,
		PaymentOrderID: "ARCO-" + ref,
		PaidAt:         &paidAt,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}
