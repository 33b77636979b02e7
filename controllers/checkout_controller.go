package controllers

import (
	"net/http"

	"github.com/arco-atelier/arco-api/middleware"
	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QuoteRequest prices a cart without opening a checkout
type QuoteRequest struct {
	Items      []services.CheckoutLine `json:"items" binding:"required,min=1,dive"`
	CouponCode string                  `json:"coupon_code"`
}

// CheckoutRequest opens a checkout session for the payment widget
type CheckoutRequest struct {
	Items      []services.CheckoutLine `json:"items" binding:"required,min=1,dive"`
	Shipping   models.ShippingAddress  `json:"shipping" binding:"required"`
	CouponCode string                  `json:"coupon_code"`
}

// CheckoutController drives the cart to order flow
type CheckoutController struct {
	checkout *services.CheckoutService
	log      *zap.Logger
}

// NewCheckoutController creates a CheckoutController
func NewCheckoutController(checkout *services.CheckoutService, log *zap.Logger) *CheckoutController {
	return &CheckoutController{checkout: checkout, log: log}
}

// Quote handles POST /api/v1/checkout/quote
func (cc *CheckoutController) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := cc.checkout.Quote(c.Request.Context(), req.Items, req.CouponCode)
	if err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	respondData(c, http.StatusOK, result)
}

// Begin handles POST /api/v1/checkout. Guests may check out; signed-in users get the order on their account.
func (cc *CheckoutController) Begin(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := cc.checkout.Begin(c.Request.Context(), services.CheckoutInput{
		UserID:     middleware.CurrentUserID(c),
		Lines:      req.Items,
		Shipping:   req.Shipping,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	respondData(c, http.StatusCreated, result)
}

// Confirm handles POST /api/v1/checkout/confirm, called after the widget's success redirect
func (cc *CheckoutController) Confirm(c *gin.Context) {
	var req services.ConfirmInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := cc.checkout.Confirm(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	respondData(c, http.StatusOK, order)
}

// Fail handles GET /api/v1/checkout/fail?code=&message=&orderId=, the widget's failure redirect
func (cc *CheckoutController) Fail(c *gin.Context) {
	code := c.Query("code")
	message := cc.checkout.Fail(c.Request.Context(), c.Query("orderId"), code, c.Query("message"))

	respondData(c, http.StatusOK, gin.H{
		"code":    code,
		"message": message,
	})
}
