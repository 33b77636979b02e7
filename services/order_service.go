package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arco-atelier/arco-api/config"
	"github.com/arco-atelier/arco-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListOptions is a page of a listing
type ListOptions struct {
	Limit  int
	Offset int
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	ListOptions
	Status models.OrderStatus
	UserID *uint
}

// OrderService manages orders after they were placed
type OrderService struct {
	db              *gorm.DB
	gateway         PaymentGateway
	cache           Cache
	restockOnCancel bool
	log             *zap.Logger
}

// NewOrderService creates an OrderService. cache may be nil.
func NewOrderService(db *gorm.DB, gateway PaymentGateway, cache Cache, cfg *config.Config, log *zap.Logger) *OrderService {
	return &OrderService{
		db:              db,
		gateway:         gateway,
		cache:           cache,
		restockOnCancel: cfg.RestockOnCancel,
		log:             log,
	}
}

// List returns orders newest first and the total count matching the filter
func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	orders := []models.Order{}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// Get loads an order by id
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return &order, nil
}

// GetForUser loads an order owned by userID. Other users' orders are reported as not found.
func (s *OrderService) GetForUser(ctx context.Context, id, userID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return &order, nil
}

// UpdateStatus moves an order along its lifecycle. Cancelling a paid order refunds it.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, next models.OrderStatus, reason string) (*models.Order, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s -> %s: %w", order.Status, next, ErrInvalidTransition)
	}

	if next == models.OrderStatusCancelled {
		return s.cancel(ctx, order, reason)
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Update("status", next)
	if res.Error != nil {
		return nil, fmt.Errorf("update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("order changed concurrently: %w", ErrInvalidTransition)
	}

	s.log.Info("Order status updated",
		zap.Uint("id", order.ID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)),
	)
	invalidateDashboard(ctx, s.cache, s.log)
	return s.Get(ctx, id)
}

// SetTracking records the carrier and tracking number of a shipment
func (s *OrderService) SetTracking(ctx context.Context, id uint, carrier, number string) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case models.OrderStatusPaid, models.OrderStatusProcessing, models.OrderStatusShipped:
	default:
		return nil, fmt.Errorf("tracking on %s order: %w", order.Status, ErrInvalidTransition)
	}

	carrier = strings.TrimSpace(carrier)
	number = strings.TrimSpace(number)
	err = s.db.WithContext(ctx).Model(order).Updates(map[string]any{
		"tracking_carrier": carrier,
		"tracking_number":  number,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update tracking: %w", err)
	}

	s.log.Info("Tracking assigned", zap.Uint("id", order.ID), zap.String("carrier", carrier))
	return s.Get(ctx, id)
}

// cancel refunds the payment, then flips the status and optionally restores stock in one transaction
func (s *OrderService) cancel(ctx context.Context, order *models.Order, reason string) (*models.Order, error) {
	if reason == "" {
		reason = "관리자 취소"
	}
	charged := order.Status != models.OrderStatusPending && order.PaymentKey != ""

	if charged {
		if err := s.gateway.Cancel(ctx, order.PaymentKey, reason); err != nil {
			s.log.Error("Refund failed", zap.Uint("id", order.ID), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrRefundFailed, err)
		}
	}

	restock := charged && s.restockOnCancel && !order.Restocked

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Updates(map[string]any{
				"status":        models.OrderStatusCancelled,
				"cancel_reason": reason,
				"restocked":     restock || order.Restocked,
			})
		if res.Error != nil {
			return fmt.Errorf("cancel order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order changed concurrently: %w", ErrInvalidTransition)
		}

		if !restock {
			return nil
		}
		for productID, qty := range quantities(order.Items) {
			err := tx.Model(&models.Product{}).
				Where("id = ?", productID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).Error
			if err != nil {
				return fmt.Errorf("restock product %d: %w", productID, err)
			}
		}
		return nil
	})
	if err != nil {
		// The payment is already refunded at this point
		s.log.Error("Order refunded but not marked cancelled", zap.Uint("id", order.ID), zap.Error(err))
		return nil, err
	}

	s.log.Info("Order cancelled",
		zap.Uint("id", order.ID),
		zap.Bool("refunded", charged),
		zap.Bool("restocked", restock),
	)
	invalidateDashboard(ctx, s.cache, s.log)
	return s.Get(ctx, order.ID)
}
