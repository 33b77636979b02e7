package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arco-atelier/arco-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationService sends customer emails: restock notices and inquiry answers
type NotificationService struct {
	db     *gorm.DB
	mailer Mailer
	cache  Cache
	appURL string
	log    *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a NotificationService. cache may be nil.
func NewNotificationService(db *gorm.DB, mailer Mailer, cache Cache, appURL string, log *zap.Logger) *NotificationService {
	return &NotificationService{db: db, mailer: mailer, cache: cache, appURL: appURL, log: log, now: time.Now}
}

// Subscribe registers email for a restock notice of a sold-out product.
// A second pending subscription for the same product and email returns the first.
func (s *NotificationService) Subscribe(ctx context.Context, productID uint, email, size string) (*models.StockNotification, error) {
	var product models.Product
	err := s.db.WithContext(ctx).First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}
	if product.StockQuantity > 0 {
		return nil, ErrProductInStock
	}

	email = strings.ToLower(strings.TrimSpace(email))

	var existing models.StockNotification
	err = s.db.WithContext(ctx).
		Where("product_id = ? AND email = ? AND status = ?", productID, email, models.StockNotificationPending).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load stock notification: %w", err)
	}

	n := models.StockNotification{
		ProductID: productID,
		Email:     email,
		Size:      size,
		Status:    models.StockNotificationPending,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, fmt.Errorf("create stock notification: %w", err)
	}
	return &n, nil
}

// NotifyRestock emails every pending subscriber of a product that is back in stock
// and marks them notified. Failed sends stay pending. Returns the number sent.
func (s *NotificationService) NotifyRestock(ctx context.Context, productID uint) (int, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		return 0, fmt.Errorf("load product: %w", err)
	}
	if product.StockQuantity <= 0 || !product.IsActive {
		return 0, nil
	}

	var pending []models.StockNotification
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, models.StockNotificationPending).
		Find(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("load stock notifications: %w", err)
	}

	sent := 0
	for _, n := range pending {
		msg := EmailMessage{
			To:      n.Email,
			Subject: fmt.Sprintf("[ARCO] %s 재입고 안내", product.Name),
			Text: fmt.Sprintf("요청하신 상품 %s이(가) 재입고되었습니다.\n\n지금 확인하기: %s/products/%s\n",
				product.Name, s.appURL, product.Slug),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.log.Warn("Restock notice not sent", zap.Uint("notification_id", n.ID), zap.Error(err))
			continue
		}

		notifiedAt := s.now().UTC()
		err := s.db.WithContext(ctx).Model(&models.StockNotification{}).
			Where("id = ? AND status = ?", n.ID, models.StockNotificationPending).
			Updates(map[string]any{"status": models.StockNotificationNotified, "notified_at": notifiedAt}).Error
		if err != nil {
			return sent, fmt.Errorf("mark stock notification: %w", err)
		}
		sent++
	}

	if sent > 0 {
		s.log.Info("Restock notices sent", zap.Uint("product_id", productID), zap.Int("count", sent))
	}
	return sent, nil
}

// CreateInquiry stores a new pending inquiry
func (s *NotificationService) CreateInquiry(ctx context.Context, inquiry *models.Inquiry) error {
	inquiry.Status = models.InquiryPending
	if err := s.db.WithContext(ctx).Create(inquiry).Error; err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	invalidateDashboard(ctx, s.cache, s.log)

	s.log.Info("Inquiry received", zap.Uint("id", inquiry.ID))
	return nil
}

// AnswerInquiry stores the answer and emails it to the customer.
// An email failure is logged; the answer is still saved.
func (s *NotificationService) AnswerInquiry(ctx context.Context, id uint, answer string) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	err := s.db.WithContext(ctx).First(&inquiry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInquiryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load inquiry: %w", err)
	}
	if inquiry.Status == models.InquiryAnswered {
		return nil, ErrInquiryAnswered
	}

	answeredAt := s.now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Inquiry{}).
		Where("id = ? AND status = ?", inquiry.ID, models.InquiryPending).
		Updates(map[string]any{
			"status":      models.InquiryAnswered,
			"answer":      answer,
			"answered_at": answeredAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("answer inquiry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInquiryAnswered
	}
	invalidateDashboard(ctx, s.cache, s.log)

	inquiry.Status = models.InquiryAnswered
	inquiry.Answer = &answer
	inquiry.AnsweredAt = &answeredAt

	msg := EmailMessage{
		To:      inquiry.Email,
		Subject: "[ARCO] 문의하신 내용에 답변드립니다: " + inquiry.Subject,
		Text:    fmt.Sprintf("%s님, 안녕하세요.\n\n문의 내용:\n%s\n\n답변:\n%s\n", inquiry.Name, inquiry.Content, answer),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("Inquiry answer email not sent", zap.Uint("inquiry_id", inquiry.ID), zap.Error(err))
	}

	return &inquiry, nil
}
