package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/services"
	"github.com/arco-atelier/arco-api/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ValidateCouponRequest asks whether a code applies to an order amount
type ValidateCouponRequest struct {
	Code        string `json:"code" binding:"required"`
	OrderAmount int64  `json:"order_amount" binding:"gte=0"`
	Scope       string `json:"scope" binding:"omitempty,oneof=products photoshoots"`
}

// CouponRequest is the body of coupon create and update calls
type CouponRequest struct {
	Code              string    `json:"code" binding:"required,min=2,max=50"`
	Name              string    `json:"name"`
	DiscountType      string    `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue     int64     `json:"discount_value" binding:"required,gt=0"`
	MinOrderAmount    int64     `json:"min_order_amount" binding:"gte=0"`
	MaxDiscountAmount *int64    `json:"max_discount_amount" binding:"omitempty,gt=0"`
	UsageLimit        *int      `json:"usage_limit" binding:"omitempty,gt=0"`
	ValidFrom         time.Time `json:"valid_from" binding:"required"`
	ValidUntil        time.Time `json:"valid_until" binding:"required,gtfield=ValidFrom"`
	IsActive          *bool     `json:"is_active"`
	ApplicableTo      string    `json:"applicable_to" binding:"omitempty,oneof=all products photoshoots"`
}

// CouponController serves coupon validation and admin coupon management
type CouponController struct {
	db      *gorm.DB
	coupons *services.CouponService
	log     *zap.Logger
}

// NewCouponController creates a CouponController
func NewCouponController(db *gorm.DB, coupons *services.CouponService, log *zap.Logger) *CouponController {
	return &CouponController{db: db, coupons: coupons, log: log}
}

// ValidateCoupon handles POST /api/v1/coupons/validate.
// An unusable coupon is still a 200 with valid=false and the reason.
func (cc *CouponController) ValidateCoupon(c *gin.Context) {
	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	scope := req.Scope
	if scope == "" {
		scope = models.CouponScopeProducts
	}

	result, err := cc.coupons.Validate(c.Request.Context(), req.Code, req.OrderAmount, scope)
	if err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	respondData(c, http.StatusOK, result)
}

// ListCoupons handles GET /api/v1/admin/coupons
func (cc *CouponController) ListCoupons(c *gin.Context) {
	coupons := []models.Coupon{}
	if err := cc.db.WithContext(c.Request.Context()).Order("created_at DESC, id DESC").Find(&coupons).Error; err != nil {
		handleServiceError(c, cc.log, err)
		return
	}
	respondData(c, http.StatusOK, coupons)
}

// CreateCoupon handles POST /api/v1/admin/coupons
func (cc *CouponController) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !validPercentage(req) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "percentage discount must be between 1 and 100")
		return
	}

	coupon := models.Coupon{}
	applyCouponRequest(&coupon, req)

	// is_active defaults to true on insert
	err := cc.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&coupon).Error; err != nil {
			return err
		}
		if req.IsActive != nil && !*req.IsActive {
			return tx.Model(&coupon).Update("is_active", false).Error
		}
		return nil
	})
	if err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "COUPON_EXISTS", "A coupon with this code already exists")
			return
		}
		handleServiceError(c, cc.log, err)
		return
	}

	cc.log.Info("Coupon created", zap.Uint("id", coupon.ID), zap.String("code", coupon.Code))
	respondData(c, http.StatusCreated, coupon)
}

// UpdateCoupon handles PUT /api/v1/admin/coupons/:id. The usage counter is never reset here.
func (cc *CouponController) UpdateCoupon(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !validPercentage(req) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "percentage discount must be between 1 and 100")
		return
	}

	coupon, ok := cc.loadCoupon(c, id)
	if !ok {
		return
	}

	applyCouponRequest(coupon, req)
	if err := cc.db.WithContext(c.Request.Context()).Save(coupon).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "COUPON_EXISTS", "A coupon with this code already exists")
			return
		}
		handleServiceError(c, cc.log, err)
		return
	}

	respondData(c, http.StatusOK, coupon)
}

// DeleteCoupon handles DELETE /api/v1/admin/coupons/:id. Redeemed coupons can only be deactivated.
func (cc *CouponController) DeleteCoupon(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	coupon, ok := cc.loadCoupon(c, id)
	if !ok {
		return
	}

	db := cc.db.WithContext(c.Request.Context())
	var redemptions int64
	if err := db.Model(&models.CouponRedemption{}).Where("coupon_id = ?", coupon.ID).Count(&redemptions).Error; err != nil {
		handleServiceError(c, cc.log, err)
		return
	}
	if redemptions > 0 || coupon.UsedCount > 0 {
		respondError(c, http.StatusConflict, "COUPON_IN_USE", "Coupon has been used; deactivate it instead")
		return
	}

	if err := db.Delete(coupon).Error; err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	cc.log.Info("Coupon deleted", zap.Uint("id", coupon.ID), zap.String("code", coupon.Code))
	respondData(c, http.StatusOK, gin.H{"id": coupon.ID})
}

func (cc *CouponController) loadCoupon(c *gin.Context, id uint) (*models.Coupon, bool) {
	var coupon models.Coupon
	err := cc.db.WithContext(c.Request.Context()).First(&coupon, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "COUPON_NOT_FOUND", "Coupon not found")
		return nil, false
	}
	if err != nil {
		handleServiceError(c, cc.log, err)
		return nil, false
	}
	return &coupon, true
}

func validPercentage(req CouponRequest) bool {
	return req.DiscountType != models.DiscountPercentage || req.DiscountValue <= 100
}

func applyCouponRequest(coupon *models.Coupon, req CouponRequest) {
	coupon.Code = models.NormalizeCouponCode(req.Code)
	coupon.Name = req.Name
	coupon.DiscountType = req.DiscountType
	coupon.DiscountValue = req.DiscountValue
	coupon.MinOrderAmount = req.MinOrderAmount
	coupon.MaxDiscountAmount = req.MaxDiscountAmount
	coupon.UsageLimit = req.UsageLimit
	coupon.ValidFrom = req.ValidFrom
	coupon.ValidUntil = req.ValidUntil
	coupon.ApplicableTo = req.ApplicableTo
	if coupon.ApplicableTo == "" {
		coupon.ApplicableTo = models.CouponScopeAll
	}
	coupon.IsActive = req.IsActive == nil || *req.IsActive
}
