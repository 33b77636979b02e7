package services

import (
	"math"
	"sort"
	"time"

	"github.com/arco-atelier/arco-api/models"
)

// TopProductsLimit is the size of the bestseller ranking
const TopProductsLimit = 10

// PeriodSummary is the revenue and order count of a period
type PeriodSummary struct {
	Revenue int64 `json:"revenue"`
	Orders  int   `json:"orders"`
}

// RevenueSummary groups the calendar periods shown on the dashboard
type RevenueSummary struct {
	Today     PeriodSummary `json:"today"`
	Yesterday PeriodSummary `json:"yesterday"`
	ThisWeek  PeriodSummary `json:"this_week"`
	LastWeek  PeriodSummary `json:"last_week"`
	ThisMonth PeriodSummary `json:"this_month"`
	LastMonth PeriodSummary `json:"last_month"`
}

// Growth holds period-over-period revenue growth in percent
type Growth struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
}

// ProductSales is one row of the bestseller ranking
type ProductSales struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

// DashboardStats is everything the admin dashboard displays
type DashboardStats struct {
	GeneratedAt        time.Time      `json:"generated_at"`
	Revenue            RevenueSummary `json:"revenue"`
	Growth             Growth         `json:"growth"`
	AverageOrderValue  int64          `json:"average_order_value"`
	TotalCustomers     int            `json:"total_customers"`
	ActiveCustomers    int            `json:"active_customers"`
	RepeatPurchaseRate float64        `json:"repeat_purchase_rate"`
	TopProducts        []ProductSales `json:"top_products"`
	HourlyOrders       [24]int        `json:"hourly_orders"`
	WeekdayOrders      [7]int         `json:"weekday_orders"` // index 0 is Sunday
	BookingsByStatus   map[string]int `json:"bookings_by_status"`
	PendingInquiries   int64          `json:"pending_inquiries"`
	RecentOrders       []models.Order `json:"recent_orders"`
}

// GrowthPercent returns (cur-prev)/prev*100 rounded to one decimal, or 0 when prev is 0
func GrowthPercent(cur, prev int64) float64 {
	if prev == 0 {
		return 0
	}
	return round1(float64(cur-prev) / float64(prev) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ComputeDashboard aggregates orders (expected to hold only revenue statuses) and bookings
// as seen at now, with day boundaries taken in loc.
func ComputeDashboard(orders []models.Order, bookings []models.Booking, now time.Time, loc *time.Location) DashboardStats {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	tomorrow := today.AddDate(0, 0, 1)
	yesterday := today.AddDate(0, 0, -1)
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7)) // Monday
	lastWeekStart := weekStart.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	lastMonthStart := monthStart.AddDate(0, -1, 0)
	nextMonthStart := monthStart.AddDate(0, 1, 0)
	recentStart := now.AddDate(0, 0, -30)

	stats := DashboardStats{
		GeneratedAt:      now,
		TopProducts:      []ProductSales{},
		BookingsByStatus: map[string]int{},
	}

	ordersPerUser := map[uint]int{}
	activeUsers := map[uint]struct{}{}
	sales := map[uint]*ProductSales{}

	in := func(t, from, to time.Time) bool {
		return !t.Before(from) && t.Before(to)
	}
	add := func(p *PeriodSummary, amount int64) {
		p.Revenue += amount
		p.Orders++
	}

	for _, o := range orders {
		at := o.CreatedAt.In(loc)

		switch {
		case in(at, today, tomorrow):
			add(&stats.Revenue.Today, o.TotalAmount)
		case in(at, yesterday, today):
			add(&stats.Revenue.Yesterday, o.TotalAmount)
		}
		switch {
		case in(at, weekStart, weekStart.AddDate(0, 0, 7)):
			add(&stats.Revenue.ThisWeek, o.TotalAmount)
		case in(at, lastWeekStart, weekStart):
			add(&stats.Revenue.LastWeek, o.TotalAmount)
		}
		switch {
		case in(at, monthStart, nextMonthStart):
			add(&stats.Revenue.ThisMonth, o.TotalAmount)
		case in(at, lastMonthStart, monthStart):
			add(&stats.Revenue.LastMonth, o.TotalAmount)
		}

		if o.UserID != nil {
			ordersPerUser[*o.UserID]++
		}

		if !at.Before(recentStart) && !at.After(now) {
			stats.HourlyOrders[at.Hour()]++
			stats.WeekdayOrders[at.Weekday()]++
			if o.UserID != nil {
				activeUsers[*o.UserID] = struct{}{}
			}
		}

		for _, it := range o.Items {
			ps, ok := sales[it.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: it.ProductID}
				sales[it.ProductID] = ps
			}
			ps.Name = it.Name
			ps.Quantity += it.Quantity
			ps.Revenue += it.LineTotal()
		}
	}

	stats.Growth = Growth{
		Daily:   GrowthPercent(stats.Revenue.Today.Revenue, stats.Revenue.Yesterday.Revenue),
		Weekly:  GrowthPercent(stats.Revenue.ThisWeek.Revenue, stats.Revenue.LastWeek.Revenue),
		Monthly: GrowthPercent(stats.Revenue.ThisMonth.Revenue, stats.Revenue.LastMonth.Revenue),
	}
	if stats.Revenue.ThisMonth.Orders > 0 {
		stats.AverageOrderValue = stats.Revenue.ThisMonth.Revenue / int64(stats.Revenue.ThisMonth.Orders)
	}

	stats.TotalCustomers = len(ordersPerUser)
	stats.ActiveCustomers = len(activeUsers)
	if len(ordersPerUser) > 0 {
		repeat := 0
		for _, n := range ordersPerUser {
			if n > 1 {
				repeat++
			}
		}
		stats.RepeatPurchaseRate = round1(float64(repeat) / float64(len(ordersPerUser)) * 100)
	}

	for _, ps := range sales {
		stats.TopProducts = append(stats.TopProducts, *ps)
	}
	sort.Slice(stats.TopProducts, func(i, j int) bool {
		a, b := stats.TopProducts[i], stats.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.ProductID < b.ProductID
	})
	if len(stats.TopProducts) > TopProductsLimit {
		stats.TopProducts = stats.TopProducts[:TopProductsLimit]
	}

	for _, b := range bookings {
		stats.BookingsByStatus[string(b.Status)]++
	}

	return stats
}
