package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arco-atelier/arco-api/config"
	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckoutLine is one cart line sent by the client
type CheckoutLine struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CheckoutInput is everything needed to open a checkout session
type CheckoutInput struct {
	UserID     *uint
	Lines      []CheckoutLine
	Shipping   models.ShippingAddress
	CouponCode string
}

// CheckoutResult is what the client needs to open the payment widget
type CheckoutResult struct {
	OrderID    string            `json:"order_id"`
	OrderName  string            `json:"order_name"`
	Amount     int64             `json:"amount"`
	Totals     Totals            `json:"totals"`
	Items      models.OrderItems `json:"items"`
	ClientKey  string            `json:"client_key"`
	SuccessURL string            `json:"success_url"`
	FailURL    string            `json:"fail_url"`
	CouponCode string            `json:"coupon_code,omitempty"`
}

// ConfirmInput is the payment result reported by the client after the widget redirect
type ConfirmInput struct {
	PaymentKey string `json:"paymentKey" binding:"required"`
	OrderID    string `json:"orderId" binding:"required"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
}

// CheckoutService turns carts into paid orders
type CheckoutService struct {
	db        *gorm.DB
	gateway   PaymentGateway
	coupons   *CouponService
	cache     Cache
	shipping  ShippingPolicy
	clientKey string
	appURL    string
	log       *zap.Logger
	now       func() time.Time
}

// NewCheckoutService creates a CheckoutService. cache may be nil.
func NewCheckoutService(db *gorm.DB, gateway PaymentGateway, coupons *CouponService, cache Cache, cfg *config.Config, log *zap.Logger) *CheckoutService {
	return &CheckoutService{
		db:        db,
		gateway:   gateway,
		coupons:   coupons,
		cache:     cache,
		shipping:  ShippingPolicy{Fee: cfg.ShippingFee, FreeThreshold: cfg.FreeShippingThreshold},
		clientKey: cfg.TossClientKey,
		appURL:    cfg.AppURL,
		log:       log,
		now:       time.Now,
	}
}

// Begin validates the cart against the live catalog, freezes it and stores a checkout session
func (s *CheckoutService) Begin(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	q, err := s.price(ctx, in.Lines, in.CouponCode)
	if err != nil {
		return nil, err
	}

	session := models.CheckoutSession{
		PaymentOrderID: newPaymentOrderID(),
		UserID:         in.UserID,
		Items:          q.items,
		Shipping:       in.Shipping,
		CouponID:       q.couponID,
		CouponCode:     q.couponCode,
		Subtotal:       q.totals.Subtotal,
		DiscountAmount: q.totals.Discount,
		ShippingFee:    q.totals.ShippingFee,
		TotalAmount:    q.totals.Total,
		Status:         models.CheckoutPendingPayment,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.log.Info("Checkout session created",
		zap.String("order_id", session.PaymentOrderID),
		zap.Int64("amount", session.TotalAmount),
		zap.Int("lines", len(q.items)),
	)

	return &CheckoutResult{
		OrderID:    session.PaymentOrderID,
		OrderName:  session.OrderName(),
		Amount:     session.TotalAmount,
		Totals:     q.totals,
		Items:      q.items,
		ClientKey:  s.clientKey,
		SuccessURL: s.appURL + "/checkout/success",
		FailURL:    s.appURL + "/checkout/fail",
		CouponCode: q.couponCode,
	}, nil
}

// Quote prices a cart against the live catalog without storing anything
func (s *CheckoutService) Quote(ctx context.Context, lines []CheckoutLine, couponCode string) (*CheckoutResult, error) {
	q, err := s.price(ctx, lines, couponCode)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Amount: q.totals.Total, Totals: q.totals, Items: q.items, CouponCode: q.couponCode}, nil
}

type quote struct {
	items      models.OrderItems
	totals     Totals
	couponID   *uint
	couponCode string
}

// price merges the lines into a cart, snapshots it and applies the coupon to the pre-discount subtotal
func (s *CheckoutService) price(ctx context.Context, lines []CheckoutLine, couponCode string) (*quote, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	cart := NewCart()
	for _, l := range lines {
		if err := cart.Add(models.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, Size: l.Size, Color: l.Color}); err != nil {
			return nil, err
		}
	}

	items, err := s.snapshot(ctx, cart)
	if err != nil {
		return nil, err
	}

	q := &quote{items: items, couponCode: models.NormalizeCouponCode(couponCode)}
	var discount int64
	if q.couponCode != "" {
		v, err := s.coupons.Validate(ctx, q.couponCode, items.Subtotal(), models.CouponScopeProducts)
		if err != nil {
			return nil, err
		}
		if !v.Valid {
			return nil, &CouponError{Code: v.Code, Message: v.Message}
		}
		discount = v.DiscountAmount
		id := v.CouponID
		q.couponID = &id
	}

	q.totals = CalculateTotals(items, discount, s.shipping)
	return q, nil
}

// Confirm verifies the payment with the gateway and creates the order.
// Confirming an already paid session returns the existing order.
func (s *CheckoutService) Confirm(ctx context.Context, in ConfirmInput) (*models.Order, error) {
	session, err := s.findSession(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	if session.Status == models.CheckoutPaid {
		return s.orderForSession(ctx, session.PaymentOrderID)
	}

	// Never trust the amount reported by the client
	if in.Amount != session.TotalAmount {
		s.log.Warn("Payment amount mismatch",
			zap.String("order_id", session.PaymentOrderID),
			zap.Int64("expected", session.TotalAmount),
			zap.Int64("received", in.Amount),
		)
		return nil, ErrAmountMismatch
	}

	// Reject before charging when stock is already gone
	if err := s.checkStock(ctx, session.Items); err != nil {
		return nil, err
	}

	payment, err := s.gateway.Confirm(ctx, in.PaymentKey, session.PaymentOrderID, session.TotalAmount)
	if err != nil {
		// A concurrent confirm may have won the race
		if order, lookupErr := s.orderForSession(ctx, session.PaymentOrderID); lookupErr == nil {
			return order, nil
		}
		var gwErr *GatewayError
		if errors.As(err, &gwErr) {
			s.markFailed(ctx, session.PaymentOrderID, gwErr.Code, gwErr.Message)
		}
		return nil, err
	}

	if payment.Status != PaymentStatusDone || payment.TotalAmount != session.TotalAmount || payment.OrderID != session.PaymentOrderID {
		s.log.Error("Gateway returned unexpected payment",
			zap.String("order_id", session.PaymentOrderID),
			zap.String("status", payment.Status),
			zap.Int64("amount", payment.TotalAmount),
		)
		s.refund(ctx, in.PaymentKey, "결제 검증 실패")
		s.markFailed(ctx, session.PaymentOrderID, "PAYMENT_NOT_VERIFIED", ErrPaymentNotVerified.Error())
		return nil, ErrPaymentNotVerified
	}

	order, err := s.placeOrder(ctx, session, payment)
	if errors.Is(err, ErrDuplicateOrder) {
		// Only a concurrent confirm of the same payment counts as a duplicate
		if existing, lookupErr := s.orderForSession(ctx, session.PaymentOrderID); lookupErr == nil {
			return existing, nil
		}
	}
	if err != nil {
		s.log.Error("Failed to place order after payment",
			zap.String("order_id", session.PaymentOrderID),
			zap.Error(err),
		)
		s.refund(ctx, in.PaymentKey, "주문 처리 실패")
		s.markFailed(ctx, session.PaymentOrderID, "ORDER_FAILED", err.Error())
		return nil, err
	}

	invalidateDashboard(ctx, s.cache, s.log)

	s.log.Info("Order placed",
		zap.Uint("id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("amount", order.TotalAmount),
	)
	return order, nil
}

// Fail records a payment failure reported by the widget redirect and returns the message to show
func (s *CheckoutService) Fail(ctx context.Context, orderID, code, message string) string {
	if orderID != "" {
		s.markFailed(ctx, orderID, code, message)
	}
	return PaymentFailureMessage(code)
}

// placeOrder writes the order, stock decrements, coupon redemption and session update atomically
func (s *CheckoutService) placeOrder(ctx context.Context, session *models.CheckoutSession, payment *Payment) (*models.Order, error) {
	paidAt := s.now().UTC()
	order := models.Order{
		OrderNumber:    newOrderNumber(paidAt, session.ID),
		UserID:         session.UserID,
		Status:         models.OrderStatusPaid,
		Items:          session.Items,
		Shipping:       session.Shipping,
		TotalAmount:    session.TotalAmount,
		DiscountAmount: session.DiscountAmount,
		ShippingFee:    session.ShippingFee,
		CouponID:       session.CouponID,
		PaymentMethod:  payment.Method,
		PaymentKey:     payment.PaymentKey,
		PaymentOrderID: session.PaymentOrderID,
		PaidAt:         &paidAt,
	}
	if order.ExpectedTotal() != order.TotalAmount {
		return nil, ErrTotalMismatch
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			if utils.IsUniqueViolation(err) {
				return ErrDuplicateOrder
			}
			return fmt.Errorf("create order: %w", err)
		}

		for productID, qty := range quantities(session.Items) {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", productID, qty).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
			if res.Error != nil {
				return fmt.Errorf("decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %d: %w", productID, ErrOutOfStock)
			}
		}

		if session.CouponID != nil {
			if err := s.coupons.Redeem(tx, *session.CouponID, session.UserID, order.ID, session.DiscountAmount); err != nil {
				return err
			}
		}

		res := tx.Model(&models.CheckoutSession{}).
			Where("id = ? AND status <> ?", session.ID, models.CheckoutPaid).
			Updates(map[string]any{"status": models.CheckoutPaid, "order_id": order.ID})
		if res.Error != nil {
			return fmt.Errorf("mark checkout paid: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateOrder
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// snapshot loads the products in cart and freezes their name and price into order lines
func (s *CheckoutService) snapshot(ctx context.Context, cart *Cart) (models.OrderItems, error) {
	wanted := cart.QuantityByProduct()
	ids := make([]uint, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := cart.Items()
	for i := range items {
		p, ok := byID[items[i].ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", items[i].ProductID, ErrProductNotFound)
		}
		if !p.IsActive {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrProductInactive)
		}
		if !p.HasSize(items[i].Size) || !p.HasColor(items[i].Color) {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrInvalidOption)
		}
		if p.StockQuantity < wanted[p.ID] {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrOutOfStock)
		}
		items[i].Name = p.Name
		items[i].Price = p.Price
	}
	return items, nil
}

func (s *CheckoutService) checkStock(ctx context.Context, items models.OrderItems) error {
	for productID, qty := range quantities(items) {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND stock_quantity >= ?", productID, qty).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("check stock: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("product %d: %w", productID, ErrOutOfStock)
		}
	}
	return nil
}

func (s *CheckoutService) findSession(ctx context.Context, paymentOrderID string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := s.db.WithContext(ctx).Where("payment_order_id = ?", paymentOrderID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCheckoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	return &session, nil
}

func (s *CheckoutService) orderForSession(ctx context.Context, paymentOrderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("payment_order_id = ?", paymentOrderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return &order, nil
}

// markFailed records a failure unless the session was already paid
func (s *CheckoutService) markFailed(ctx context.Context, paymentOrderID, code, message string) {
	err := s.db.WithContext(ctx).Model(&models.CheckoutSession{}).
		Where("payment_order_id = ? AND status <> ?", paymentOrderID, models.CheckoutPaid).
		Updates(map[string]any{
			"status":          models.CheckoutFailed,
			"failure_code":    code,
			"failure_message": message,
		}).Error
	if err != nil {
		s.log.Error("Failed to mark checkout failed", zap.String("order_id", paymentOrderID), zap.Error(err))
	}
}

func (s *CheckoutService) refund(ctx context.Context, paymentKey, reason string) {
	if err := s.gateway.Cancel(ctx, paymentKey, reason); err != nil {
		s.log.Error("Failed to cancel payment, manual refund required",
			zap.String("payment_key", paymentKey),
			zap.Error(err),
		)
	}
}

// quantities sums quantities per product
func quantities(items models.OrderItems) map[uint]int {
	out := make(map[uint]int, len(items))
	for _, it := range items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

func newPaymentOrderID() string {
	return "ARCO-" + uuid.NewString()
}

// newOrderNumber returns e.g. ARCO20250301-000042; a session yields at most one order
func newOrderNumber(at time.Time, sessionID uint) string {
	return fmt.Sprintf("ARCO%s-%06d", at.Format("20060102"), sessionID)
}

// paymentFailureMessages maps gateway failure codes to customer facing messages
var paymentFailureMessages = map[string]string{
	"PAY_PROCESS_CANCELED":           "결제가 취소되었습니다.",
	"PAY_PROCESS_ABORTED":            "결제 진행 중 오류가 발생하여 결제가 중단되었습니다.",
	"REJECT_CARD_COMPANY":            "카드사에서 결제를 거절했습니다. 다른 카드로 시도해 주세요.",
	"REJECT_CARD_PAYMENT":            "한도 초과 또는 잔액 부족으로 결제에 실패했습니다.",
	"INVALID_CARD_EXPIRATION":        "카드 유효기간을 확인해 주세요.",
	"EXCEED_MAX_DAILY_PAYMENT_COUNT": "하루 결제 가능 횟수를 초과했습니다.",
	"NOT_AVAILABLE_PAYMENT":          "결제가 불가능한 시간대입니다.",
}

// PaymentFailureMessage returns the Korean message for a gateway failure code
func PaymentFailureMessage(code string) string {
	if msg, ok := paymentFailureMessages[code]; ok {
		return msg
	}
	return "결제에 실패했습니다. 잠시 후 다시 시도해 주세요."
}
