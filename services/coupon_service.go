package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arco-atelier/arco-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Coupon rejection codes
const (
	CouponNotFound          = "COUPON_NOT_FOUND"
	CouponInactive          = "COUPON_INACTIVE"
	CouponNotStarted        = "COUPON_NOT_STARTED"
	CouponExpired           = "COUPON_EXPIRED"
	CouponNotApplicable     = "COUPON_NOT_APPLICABLE"
	CouponBelowMinimum      = "COUPON_BELOW_MINIMUM"
	CouponUsageLimitReached = "COUPON_USAGE_LIMIT_REACHED"
)

// CouponValidation is the outcome of checking a coupon against an order amount
type CouponValidation struct {
	Valid          bool   `json:"valid"`
	Code           string `json:"code,omitempty"`
	Message        string `json:"message,omitempty"`
	CouponID       uint   `json:"coupon_id,omitempty"`
	CouponCode     string `json:"coupon_code,omitempty"`
	DiscountType   string `json:"discount_type,omitempty"`
	DiscountValue  int64  `json:"discount_value,omitempty"`
	DiscountAmount int64  `json:"discount_amount"`
}

func rejectCoupon(code, message string) CouponValidation {
	return CouponValidation{Valid: false, Code: code, Message: message}
}

// EvaluateCoupon checks a loaded coupon against orderAmount at time now. It never writes.
func EvaluateCoupon(c *models.Coupon, orderAmount int64, scope string, now time.Time) CouponValidation {
	if !c.IsActive {
		return rejectCoupon(CouponInactive, "사용할 수 없는 쿠폰입니다.")
	}
	if now.Before(c.ValidFrom) {
		return rejectCoupon(CouponNotStarted, "아직 사용 기간이 아닌 쿠폰입니다.")
	}
	if now.After(c.ValidUntil) {
		return rejectCoupon(CouponExpired, "사용 기간이 만료된 쿠폰입니다.")
	}
	if scope != "" && !c.AppliesTo(scope) {
		return rejectCoupon(CouponNotApplicable, "이 주문에는 사용할 수 없는 쿠폰입니다.")
	}
	if orderAmount < c.MinOrderAmount {
		return rejectCoupon(CouponBelowMinimum, fmt.Sprintf("%d원 이상 주문 시 사용할 수 있는 쿠폰입니다.", c.MinOrderAmount))
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return rejectCoupon(CouponUsageLimitReached, "쿠폰 사용 한도가 초과되었습니다.")
	}

	return CouponValidation{
		Valid:          true,
		CouponID:       c.ID,
		CouponCode:     c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		DiscountAmount: CouponDiscount(c, orderAmount),
	}
}

// CouponDiscount computes the discount for orderAmount, clamped to the coupon cap and to the amount itself
func CouponDiscount(c *models.Coupon, orderAmount int64) int64 {
	if orderAmount <= 0 {
		return 0
	}

	var discount int64
	switch c.DiscountType {
	case models.DiscountPercentage:
		discount = orderAmount * c.DiscountValue / 100
	case models.DiscountFixed:
		discount = c.DiscountValue
	}

	if c.MaxDiscountAmount != nil && discount > *c.MaxDiscountAmount {
		discount = *c.MaxDiscountAmount
	}
	if discount > orderAmount {
		discount = orderAmount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// CouponService validates and redeems coupons
type CouponService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewCouponService creates a CouponService
func NewCouponService(db *gorm.DB, log *zap.Logger) *CouponService {
	return &CouponService{db: db, log: log, now: time.Now}
}

// Validate looks up code and evaluates it. Only database failures are returned as errors.
func (s *CouponService) Validate(ctx context.Context, code string, orderAmount int64, scope string) (CouponValidation, error) {
	code = models.NormalizeCouponCode(code)
	if code == "" {
		return rejectCoupon(CouponNotFound, "존재하지 않는 쿠폰입니다."), nil
	}

	var coupon models.Coupon
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rejectCoupon(CouponNotFound, "존재하지 않는 쿠폰입니다."), nil
	}
	if err != nil {
		return CouponValidation{}, fmt.Errorf("load coupon: %w", err)
	}

	return EvaluateCoupon(&coupon, orderAmount, scope, s.now()), nil
}

// Redeem consumes one use of the coupon inside tx. It fails with ErrCouponExhausted
// when the usage limit was reached by a concurrent order.
func (s *CouponService) Redeem(tx *gorm.DB, couponID uint, userID *uint, orderID uint, discount int64) error {
	res := tx.Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("increment coupon usage: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCouponExhausted
	}

	redemption := models.CouponRedemption{
		CouponID:       couponID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discount,
	}
	if err := tx.Create(&redemption).Error; err != nil {
		return fmt.Errorf("record coupon redemption: %w", err)
	}
	return nil
}
