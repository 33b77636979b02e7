package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arco-atelier/arco-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dashboardCacheKey = "arco:dashboard:stats"

// DashboardService loads the data behind the admin dashboard and caches the result
type DashboardService struct {
	db    *gorm.DB
	cache Cache
	ttl   time.Duration
	loc   *time.Location
	log   *zap.Logger
	now   func() time.Time
}

// NewDashboardService creates a DashboardService. A nil cache recomputes on every call.
func NewDashboardService(db *gorm.DB, cache Cache, ttl time.Duration, loc *time.Location, log *zap.Logger) *DashboardService {
	return &DashboardService{db: db, cache: cache, ttl: ttl, loc: loc, log: log, now: time.Now}
}

// Stats returns the cached dashboard or computes a fresh one
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	if cached := s.cached(ctx); cached != nil {
		return cached, nil
	}

	var orders []models.Order
	if err := s.db.WithContext(ctx).Where("status IN ?", models.RevenueStatuses).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var bookings []models.Booking
	if err := s.db.WithContext(ctx).Select("id", "status").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	stats := ComputeDashboard(orders, bookings, s.now(), s.loc)

	err := s.db.WithContext(ctx).Model(&models.Inquiry{}).
		Where("status = ?", models.InquiryPending).
		Count(&stats.PendingInquiries).Error
	if err != nil {
		return nil, fmt.Errorf("count inquiries: %w", err)
	}

	stats.RecentOrders = []models.Order{}
	err = s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(5).Find(&stats.RecentOrders).Error
	if err != nil {
		return nil, fmt.Errorf("load recent orders: %w", err)
	}

	s.store(ctx, &stats)
	return &stats, nil
}

func (s *DashboardService) cached(ctx context.Context) *DashboardStats {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, dashboardCacheKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("Dashboard cache read failed", zap.Error(err))
		}
		return nil
	}

	var stats DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.log.Warn("Dashboard cache entry is corrupt", zap.Error(err))
		return nil
	}
	return &stats
}

func (s *DashboardService) store(ctx context.Context, stats *DashboardStats) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		s.log.Warn("Failed to encode dashboard stats", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.ttl); err != nil {
		s.log.Warn("Dashboard cache write failed", zap.Error(err))
	}
}

// invalidateDashboard drops the cached dashboard after an order write
func invalidateDashboard(ctx context.Context, cache Cache, log *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, dashboardCacheKey); err != nil {
		log.Warn("Dashboard cache invalidation failed", zap.Error(err))
	}
}
