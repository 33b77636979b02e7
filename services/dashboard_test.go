package services

import (
	"context"
	"testing"
	"time"

	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Wednesday 2025-03-12 15:30 in Seoul
var dashboardNow = time.Date(2025, 3, 12, 15, 30, 0, 0, seoul)

func uintPtr(v uint) *uint { return &v }

func dashOrder(userID *uint, at time.Time, amount int64, items ...models.OrderItem) models.Order {
	return models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPaid,
		TotalAmount: amount,
		Items:       items,
		CreatedAt:   at,
	}
}

func TestGrowthPercent(t *testing.T) {
	assert.Equal(t, 0.0, GrowthPercent(100000, 0), "no previous revenue means zero growth")
	assert.Equal(t, 0.0, GrowthPercent(0, 0))
	assert.Equal(t, 50.0, GrowthPercent(150000, 100000))
	assert.Equal(t, -100.0, GrowthPercent(0, 20000))
	assert.Equal(t, 33.3, GrowthPercent(40000, 30000))
}

func TestComputeDashboard_Partitions(t *testing.T) {
	orders := []models.Order{
		dashOrder(nil, time.Date(2025, 3, 12, 0, 0, 0, 0, seoul), 10000),   // today, first instant
		dashOrder(nil, time.Date(2025, 3, 11, 23, 59, 0, 0, seoul), 20000), // yesterday
		dashOrder(nil, time.Date(2025, 3, 10, 9, 0, 0, 0, seoul), 30000),   // Monday this week
		dashOrder(nil, time.Date(2025, 3, 9, 22, 0, 0, 0, seoul), 40000),   // Sunday last week
		dashOrder(nil, time.Date(2025, 3, 1, 10, 0, 0, 0, seoul), 50000),   // this month
		dashOrder(nil, time.Date(2025, 2, 28, 10, 0, 0, 0, seoul), 60000),  // last month
		dashOrder(nil, time.Date(2025, 1, 15, 10, 0, 0, 0, seoul), 70000),  // older
	}

	stats := ComputeDashboard(orders, nil, dashboardNow, seoul)

	assert.Equal(t, PeriodSummary{Revenue: 10000, Orders: 1}, stats.Revenue.Today)
	assert.Equal(t, PeriodSummary{Revenue: 20000, Orders: 1}, stats.Revenue.Yesterday)
	assert.Equal(t, PeriodSummary{Revenue: 60000, Orders: 3}, stats.Revenue.ThisWeek)
	assert.Equal(t, PeriodSummary{Revenue: 40000, Orders: 1}, stats.Revenue.LastWeek)
	assert.Equal(t, PeriodSummary{Revenue: 150000, Orders: 5}, stats.Revenue.ThisMonth)
	assert.Equal(t, PeriodSummary{Revenue: 60000, Orders: 1}, stats.Revenue.LastMonth)

	assert.Equal(t, -50.0, stats.Growth.Daily)
	assert.Equal(t, 50.0, stats.Growth.Weekly)
	assert.Equal(t, 150.0, stats.Growth.Monthly)
	assert.Equal(t, int64(30000), stats.AverageOrderValue)
}

func TestComputeDashboard_DayBoundariesUseLocation(t *testing.T) {
	// 2025-03-11 16:00 UTC is 2025-03-12 01:00 in Seoul
	orders := []models.Order{dashOrder(nil, time.Date(2025, 3, 11, 16, 0, 0, 0, time.UTC), 10000)}

	stats := ComputeDashboard(orders, nil, dashboardNow, seoul)

	assert.Equal(t, 1, stats.Revenue.Today.Orders)
	assert.Equal(t, 1, stats.HourlyOrders[1])
	assert.Equal(t, 1, stats.WeekdayOrders[time.Wednesday])
}

func TestComputeDashboard_Customers(t *testing.T) {
	orders := []models.Order{
		dashOrder(uintPtr(1), dashboardNow.AddDate(0, 0, -1), 10000),
		dashOrder(uintPtr(1), dashboardNow.AddDate(0, 0, -40), 10000),
		dashOrder(uintPtr(2), dashboardNow.AddDate(0, 0, -2), 10000),
		dashOrder(uintPtr(3), dashboardNow.AddDate(0, 0, -60), 10000),
		dashOrder(nil, dashboardNow.AddDate(0, 0, -1), 10000), // guest
	}

	stats := ComputeDashboard(orders, nil, dashboardNow, seoul)

	assert.Equal(t, 3, stats.TotalCustomers)
	assert.Equal(t, 2, stats.ActiveCustomers)
	assert.Equal(t, 33.3, stats.RepeatPurchaseRate)
}

func TestComputeDashboard_TopProducts(t *testing.T) {
	var orders []models.Order
	for i := uint(1); i <= 12; i++ {
		orders = append(orders, dashOrder(nil, dashboardNow.AddDate(0, 0, -1), 0,
			models.OrderItem{ProductID: i, Name: "P", Price: 1000, Quantity: int(i)},
		))
	}
	orders = append(orders, dashOrder(nil, dashboardNow, 0,
		models.OrderItem{ProductID: 1, Name: "Renamed", Price: 1000, Quantity: 20},
	))

	stats := ComputeDashboard(orders, nil, dashboardNow, seoul)

	require.Len(t, stats.TopProducts, TopProductsLimit)
	assert.Equal(t, ProductSales{ProductID: 1, Name: "Renamed", Quantity: 21, Revenue: 21000}, stats.TopProducts[0])
	assert.Equal(t, uint(12), stats.TopProducts[1].ProductID)
	assert.Equal(t, uint(4), stats.TopProducts[9].ProductID)
}

func TestComputeDashboard_Empty(t *testing.T) {
	stats := ComputeDashboard(nil, nil, dashboardNow, seoul)

	assert.Zero(t, stats.Revenue.Today.Revenue)
	assert.Zero(t, stats.Growth.Monthly)
	assert.Zero(t, stats.RepeatPurchaseRate)
	assert.NotNil(t, stats.TopProducts)
	assert.NotNil(t, stats.BookingsByStatus)
}

func TestComputeDashboard_Bookings(t *testing.T) {
	bookings := []models.Booking{
		{Status: models.BookingStatusPending},
		{Status: models.BookingStatusPending},
		{Status: models.BookingStatusConfirmed},
	}

	stats := ComputeDashboard(nil, bookings, dashboardNow, seoul)

	assert.Equal(t, map[string]int{"pending": 2, "confirmed": 1}, stats.BookingsByStatus)
}

func TestDashboardService_StatsAndCache(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	ctx := context.Background()

	svc := NewDashboardService(f.db, f.cache, time.Minute, seoul, zap.NewNop())

	require.NoError(t, f.db.Create(&models.Inquiry{Name: "a", Email: "a@example.com", Subject: "s", Content: "c", Status: models.InquiryPending}).Error)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Revenue.Today.Orders)
	assert.Equal(t, int64(1), stats.PendingInquiries)

	// Cached until an order write invalidates it
	_, err = f.cache.Get(ctx, dashboardCacheKey)
	require.NoError(t, err)

	p := testutil.CreateProduct(t, f.db, "dash", 10000, 5)
	res := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "")
	_, err = f.checkout.Confirm(ctx, ConfirmInput{PaymentKey: "pk", OrderID: res.OrderID, Amount: res.Amount})
	require.NoError(t, err)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Revenue.ThisMonth.Orders)
	assert.Equal(t, int64(13000), stats.Revenue.ThisMonth.Revenue)
	require.Len(t, stats.RecentOrders, 1)
	require.Len(t, stats.TopProducts, 1)
	assert.Equal(t, p.ID, stats.TopProducts[0].ProductID)
}

func TestDashboardService_WithoutCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewDashboardService(db, nil, time.Minute, seoul, zap.NewNop())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, stats)
}
