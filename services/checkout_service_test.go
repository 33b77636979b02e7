package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func beginCheckout(t *testing.T, f *checkoutFixture, lines []CheckoutLine, coupon string) *CheckoutResult {
	t.Helper()
	res, err := f.checkout.Begin(context.Background(), CheckoutInput{
		Lines:      lines,
		Shipping:   testShipping(),
		CouponCode: coupon,
	})
	require.NoError(t, err)
	return res
}

func TestCheckout_BeginFreezesSnapshot(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "knit-hoodie", 20000, 10)

	res := beginCheckout(t, f, []CheckoutLine{
		{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"},
		{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"},
	}, "")

	assert.NotEmpty(t, res.OrderID)
	assert.Equal(t, "test_ck_123", res.ClientKey)
	assert.Equal(t, "https://arco.test/checkout/success", res.SuccessURL)
	require.Len(t, res.Items, 1, "matching lines are merged")
	assert.Equal(t, 2, res.Items[0].Quantity)
	assert.Equal(t, "Product knit-hoodie", res.OrderName)
	assert.Equal(t, int64(40000), res.Totals.Subtotal)
	assert.Equal(t, int64(3000), res.Totals.ShippingFee)
	assert.Equal(t, int64(43000), res.Amount)

	// Later catalog edits do not touch the stored snapshot
	require.NoError(t, f.db.Model(&p).Update("price", 99000).Error)

	var session models.CheckoutSession
	require.NoError(t, f.db.Where("payment_order_id = ?", res.OrderID).First(&session).Error)
	assert.Equal(t, models.CheckoutPendingPayment, session.Status)
	assert.Equal(t, int64(20000), session.Items[0].Price)
	assert.Equal(t, int64(43000), session.TotalAmount)
	assert.Equal(t, "김아르", session.Shipping.RecipientName)
}

func TestCheckout_BeginRejectsInvalidCarts(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "raincoat", 30000, 2)
	inactive := testutil.CreateProduct(t, f.db, "retired", 30000, 5)
	require.NoError(t, f.db.Model(&inactive).Update("is_active", false).Error)

	tests := []struct {
		name     string
		lines    []CheckoutLine
		expected error
	}{
		{"empty cart", nil, ErrEmptyCart},
		{"zero quantity", []CheckoutLine{{ProductID: p.ID, Quantity: 0, Size: "S", Color: "ivory"}}, ErrQuantityInvalid},
		{"unknown product", []CheckoutLine{{ProductID: 9999, Quantity: 1}}, ErrProductNotFound},
		{"inactive product", []CheckoutLine{{ProductID: inactive.ID, Quantity: 1, Size: "S", Color: "ivory"}}, ErrProductInactive},
		{"invalid size", []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "XXL", Color: "ivory"}}, ErrInvalidOption},
		{"invalid color", []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "pink"}}, ErrInvalidOption},
		{"stock summed across sizes", []CheckoutLine{
			{ProductID: p.ID, Quantity: 2, Size: "S", Color: "ivory"},
			{ProductID: p.ID, Quantity: 1, Size: "M", Color: "ivory"},
		}, ErrOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.checkout.Begin(context.Background(), CheckoutInput{Lines: tt.lines, Shipping: testShipping()})
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	var sessions int64
	f.db.Model(&models.CheckoutSession{}).Count(&sessions)
	assert.Zero(t, sessions)
}

func TestCheckout_BeginWithCoupon(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "cardigan", 25000, 10)

	c := welcomeCoupon()
	c.ID = 0
	c.ValidFrom = time.Now().Add(-time.Hour)
	c.ValidUntil = time.Now().Add(time.Hour)
	require.NoError(t, f.db.Create(&c).Error)

	res := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 2, Size: "M", Color: "black"}}, "welcome10")

	assert.Equal(t, "WELCOME10", res.CouponCode)
	assert.Equal(t, int64(50000), res.Totals.Subtotal)
	assert.Equal(t, int64(5000), res.Totals.Discount)
	assert.Equal(t, int64(0), res.Totals.ShippingFee)
	assert.Equal(t, int64(45000), res.Amount)

	_, err := f.checkout.Begin(context.Background(), CheckoutInput{
		Lines:      []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "M", Color: "black"}},
		Shipping:   testShipping(),
		CouponCode: "WELCOME10",
	})
	var couponErr *CouponError
	require.True(t, errors.As(err, &couponErr))
	assert.Equal(t, CouponBelowMinimum, couponErr.Code)
}

func TestCheckout_Quote(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "beanie", 12000, 10)

	res, err := f.checkout.Quote(context.Background(), []CheckoutLine{{ProductID: p.ID, Quantity: 2, Size: "L", Color: "ivory"}}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(27000), res.Amount)
	assert.Empty(t, res.OrderID)

	var sessions int64
	f.db.Model(&models.CheckoutSession{}).Count(&sessions)
	assert.Zero(t, sessions)
}

func TestCheckout_ConfirmCreatesPaidOrder(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "padding", 60000, 3)

	c := welcomeCoupon()
	c.ID = 0
	c.ValidFrom = time.Now().Add(-time.Hour)
	c.ValidUntil = time.Now().Add(time.Hour)
	require.NoError(t, f.db.Create(&c).Error)

	res := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "black"}}, "WELCOME10")
	require.NoError(t, f.cache.Set(context.Background(), dashboardCacheKey, []byte("{}"), time.Minute))

	order, err := f.checkout.Confirm(context.Background(), ConfirmInput{PaymentKey: "pk_1", OrderID: res.OrderID, Amount: res.Amount})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, int64(54000), order.TotalAmount)
	assert.Equal(t, order.ExpectedTotal(), order.TotalAmount)
	assert.Equal(t, "pk_1", order.PaymentKey)
	assert.Equal(t, res.OrderID, order.PaymentOrderID)
	assert.NotNil(t, order.PaidAt)
	assert.Regexp(t, `^ARCO\d{8}-\d{6,}$`, order.OrderNumber)

	var product models.Product
	require.NoError(t, f.db.First(&product, p.ID).Error)
	assert.Equal(t, 2, product.StockQuantity)

	var coupon models.Coupon
	require.NoError(t, f.db.First(&coupon, c.ID).Error)
	assert.Equal(t, 6, coupon.UsedCount)

	var session models.CheckoutSession
	require.NoError(t, f.db.Where("payment_order_id = ?", res.OrderID).First(&session).Error)
	assert.Equal(t, models.CheckoutPaid, session.Status)
	require.NotNil(t, session.OrderID)
	assert.Equal(t, order.ID, *session.OrderID)

	_, err = f.cache.Get(context.Background(), dashboardCacheKey)
	assert.ErrorIs(t, err, ErrCacheMiss, "order writes invalidate the dashboard cache")
}

func TestCheckout_ConfirmIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "scarf", 15000, 5)
	res := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "")

	in := ConfirmInput{PaymentKey: "pk_dup", OrderID: res.OrderID, Amount: res.Amount}
	first, err := f.checkout.Confirm(context.Background(), in)
	require.NoError(t, err)
	second, err := f.checkout.Confirm(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.gateway.ConfirmCount())

	var orders int64
	f.db.Model(&models.Order{}).Count(&orders)
	assert.Equal(t, int64(1), orders)

	var product models.Product
	require.NoError(t, f.db.First(&product, p.ID).Error)
	assert.Equal(t, 4, product.StockQuantity, "stock is decremented once")
}

func TestCheckout_ConfirmRefundsWhenOrderNumberTaken(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	paidAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.checkout.now = func() time.Time { return paidAt }

	p := testutil.CreateProduct(t, f.db, "poncho", 30000, 5)
	res := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "")

	var session models.CheckoutSession
	require.NoError(t, f.db.Where("payment_order_id = ?", res.OrderID).First(&session).Error)
	require.NoError(t, f.db.Create(&models.Order{
		OrderNumber:    newOrderNumber(paidAt, session.ID),
		Status:         models.OrderStatusPaid,
		Items:          models.OrderItems{},
		PaymentOrderID: "ARCO-someone-else",
	}).Error)

	order, err := f.checkout.Confirm(context.Background(), ConfirmInput{PaymentKey: "pk_taken", OrderID: res.OrderID, Amount: res.Amount})
	require.Error(t, err)
	assert.Nil(t, order)
	assert.Equal(t, 1, f.gateway.ConfirmCount())
	assert.Equal(t, []string{"pk_taken"}, f.gateway.CancelCalls, "the captured payment is refunded")

	var orders int64
	f.db.Model(&models.Order{}).Where("payment_order_id = ?", res.OrderID).Count(&orders)
	assert.Zero(t, orders)

	require.NoError(t, f.db.First(&session, session.ID).Error)
	assert.Equal(t, models.CheckoutFailed, session.Status)

	var product models.Product
	require.NoError(t, f.db.First(&product, p.ID).Error)
	assert.Equal(t, 5, product.StockQuantity)
}

func TestNewOrderNumber_UniquePerSession(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "ARCO20250301-000042", newOrderNumber(at, 42))
	assert.NotEqual(t, newOrderNumber(at, 1), newOrderNumber(at, 2))
	assert.Equal(t, "ARCO20250301-1234567", newOrderNumber(at, 1234567))
}

func TestCheckout_ConfirmRejectsTamperedAmount(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "vest", 30000, 5)
	res := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "")

	_, err := f.checkout.Confirm(context.Background(), ConfirmInput{PaymentKey: "pk", OrderID: res.OrderID, Amount: 100})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Zero(t, f.gateway.ConfirmCount(), "the gateway is never called with a wrong amount")

	_, err = f.checkout.Confirm(context.Background(), ConfirmInput{PaymentKey: "pk", OrderID: "ARCO-unknown", Amount: 100})
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
}

func TestCheckout_ConfirmRequiresVerifiedPayment(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "boots", 30000, 5)
	res := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "")

	f.gateway.Status = "WAITING_FOR_DEPOSIT"
	_, err := f.checkout.Confirm(context.Background(), ConfirmInput{PaymentKey: "pk_wait", OrderID: res.OrderID, Amount: res.Amount})
	assert.ErrorIs(t, err, ErrPaymentNotVerified)
	assert.Equal(t, 1, f.gateway.CancelCount())

	var orders int64
	f.db.Model(&models.Order{}).Count(&orders)
	assert.Zero(t, orders)

	var session models.CheckoutSession
	require.NoError(t, f.db.Where("payment_order_id = ?", res.OrderID).First(&session).Error)
	assert.Equal(t, models.CheckoutFailed, session.Status)
}

func TestCheckout_ConfirmGatewayError(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "cap", 30000, 5)
	res := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "")

	f.gateway.ConfirmErr = &GatewayError{StatusCode: 400, Code: "REJECT_CARD_COMPANY", Message: "rejected"}
	_, err := f.checkout.Confirm(context.Background(), ConfirmInput{PaymentKey: "pk", OrderID: res.OrderID, Amount: res.Amount})

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "REJECT_CARD_COMPANY", gwErr.Code)

	var session models.CheckoutSession
	require.NoError(t, f.db.Where("payment_order_id = ?", res.OrderID).First(&session).Error)
	assert.Equal(t, models.CheckoutFailed, session.Status)
	require.NotNil(t, session.FailureCode)
	assert.Equal(t, "REJECT_CARD_COMPANY", *session.FailureCode)

	var product models.Product
	require.NoError(t, f.db.First(&product, p.ID).Error)
	assert.Equal(t, 5, product.StockQuantity)
}

func TestCheckout_ConcurrentOrdersForLastItem(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "last-one", 30000, 1)

	a := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "")
	b := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, res := range []*CheckoutResult{a, b} {
		wg.Add(1)
		go func(i int, res *CheckoutResult) {
			defer wg.Done()
			_, errs[i] = f.checkout.Confirm(context.Background(), ConfirmInput{PaymentKey: res.OrderID + "-key", OrderID: res.OrderID, Amount: res.Amount})
		}(i, res)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrOutOfStock)
		}
	}
	assert.Equal(t, 1, succeeded)

	var product models.Product
	require.NoError(t, f.db.First(&product, p.ID).Error)
	assert.Equal(t, 0, product.StockQuantity)

	var orders int64
	f.db.Model(&models.Order{}).Count(&orders)
	assert.Equal(t, int64(1), orders)

	// A loser that was already charged gets refunded
	assert.Equal(t, f.gateway.ConfirmCount()-1, f.gateway.CancelCount())
}

func TestCheckout_CouponExhaustedAfterPaymentRefunds(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "socks", 40000, 10)

	c := welcomeCoupon()
	c.ID = 0
	c.UsageLimit = intPtr(1)
	c.UsedCount = 0
	c.ValidFrom = time.Now().Add(-time.Hour)
	c.ValidUntil = time.Now().Add(time.Hour)
	require.NoError(t, f.db.Create(&c).Error)

	a := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "WELCOME10")
	b := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "WELCOME10")

	_, err := f.checkout.Confirm(context.Background(), ConfirmInput{PaymentKey: "pk_a", OrderID: a.OrderID, Amount: a.Amount})
	require.NoError(t, err)

	_, err = f.checkout.Confirm(context.Background(), ConfirmInput{PaymentKey: "pk_b", OrderID: b.OrderID, Amount: b.Amount})
	assert.ErrorIs(t, err, ErrCouponExhausted)
	assert.Equal(t, []string{"pk_b"}, f.gateway.CancelCalls)

	var product models.Product
	require.NoError(t, f.db.First(&product, p.ID).Error)
	assert.Equal(t, 9, product.StockQuantity, "the failed transaction rolled back its stock decrement")
}

func TestCheckout_Fail(t *testing.T) {
	f := newCheckoutFixture(t, testConfig())
	p := testutil.CreateProduct(t, f.db, "bandana", 9000, 10)
	res := beginCheckout(t, f, []CheckoutLine{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "ivory"}}, "")

	msg := f.checkout.Fail(context.Background(), res.OrderID, "PAY_PROCESS_CANCELED", "사용자가 결제를 취소했습니다")
	assert.Equal(t, "결제가 취소되었습니다.", msg)

	var session models.CheckoutSession
	require.NoError(t, f.db.Where("payment_order_id = ?", res.OrderID).First(&session).Error)
	assert.Equal(t, models.CheckoutFailed, session.Status)

	var orders int64
	f.db.Model(&models.Order{}).Count(&orders)
	assert.Zero(t, orders)

	assert.Equal(t, "결제에 실패했습니다. 잠시 후 다시 시도해 주세요.", PaymentFailureMessage("SOMETHING_NEW"))
}
