package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/arco-atelier/arco-api/services"
	"github.com/arco-atelier/arco-api/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondValidationError reports a request body or query that failed binding
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondData writes the standard success envelope
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondPage writes a page of results with its pagination block
func respondPage(c *gin.Context, data any, p pagination, total int64) {
	totalPages := int(math.Ceil(float64(total) / float64(p.Limit)))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":       p.Page,
			"limit":      p.Limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

type pagination struct {
	Page  int
	Limit int
}

func (p pagination) listOptions() services.ListOptions {
	return services.ListOptions{Limit: p.Limit, Offset: (p.Page - 1) * p.Limit}
}

// parsePagination reads ?page=&limit=, falling back to defaults on missing or bad values
func parsePagination(c *gin.Context) pagination {
	p := pagination{Page: 1, Limit: defaultPageLimit}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		p.Limit = min(v, maxPageLimit)
	}
	return p
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// serviceErrors maps service sentinel errors to HTTP status and error code
var serviceErrors = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrEmptyCart, http.StatusBadRequest, "EMPTY_CART"},
	{services.ErrQuantityInvalid, http.StatusBadRequest, "INVALID_QUANTITY"},
	{services.ErrInvalidOption, http.StatusBadRequest, "INVALID_OPTION"},
	{services.ErrAmountMismatch, http.StatusBadRequest, "AMOUNT_MISMATCH"},
	{services.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{services.ErrInvalidBookingDate, http.StatusBadRequest, "INVALID_DATE"},
	{services.ErrInvalidTimeSlot, http.StatusBadRequest, "INVALID_TIME_SLOT"},
	{services.ErrInvalidFolder, http.StatusBadRequest, "INVALID_FOLDER"},
	{services.ErrInvalidImageKey, http.StatusBadRequest, "INVALID_IMAGE_KEY"},
	{services.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{services.ErrCheckoutNotFound, http.StatusNotFound, "CHECKOUT_NOT_FOUND"},
	{services.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{services.ErrLookNotFound, http.StatusNotFound, "LOOK_NOT_FOUND"},
	{services.ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND"},
	{services.ErrInquiryNotFound, http.StatusNotFound, "INQUIRY_NOT_FOUND"},
	{services.ErrProductInactive, http.StatusConflict, "PRODUCT_UNAVAILABLE"},
	{services.ErrLookInactive, http.StatusConflict, "LOOK_UNAVAILABLE"},
	{services.ErrOutOfStock, http.StatusConflict, "OUT_OF_STOCK"},
	{services.ErrProductInStock, http.StatusConflict, "PRODUCT_IN_STOCK"},
	{services.ErrCouponExhausted, http.StatusConflict, services.CouponUsageLimitReached},
	{services.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{services.ErrSlotUnavailable, http.StatusConflict, "SLOT_UNAVAILABLE"},
	{services.ErrInquiryAnswered, http.StatusConflict, "INQUIRY_ALREADY_ANSWERED"},
	{services.ErrPaymentNotVerified, http.StatusPaymentRequired, "PAYMENT_NOT_VERIFIED"},
	{services.ErrRefundFailed, http.StatusBadGateway, "REFUND_FAILED"},
	{services.ErrVideoNotConfigured, http.StatusServiceUnavailable, "VIDEO_SERVICE_UNAVAILABLE"},
}

// handleServiceError translates an error returned by a service into a response
func handleServiceError(c *gin.Context, log *zap.Logger, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			respondError(c, m.status, m.code, err.Error())
			return
		}
	}

	var couponErr *services.CouponError
	if errors.As(err, &couponErr) {
		respondError(c, http.StatusBadRequest, couponErr.Code, couponErr.Message)
		return
	}

	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	var gwErr *services.GatewayError
	if errors.As(err, &gwErr) {
		log.Warn("Upstream service error", zap.String("code", gwErr.Code), zap.Int("status", gwErr.StatusCode))
		status := http.StatusBadGateway
		if gwErr.StatusCode >= 400 && gwErr.StatusCode < 500 {
			// The upstream rejected the request itself, e.g. a declined card
			status = http.StatusBadRequest
		}
		respondError(c, status, gwErr.Code, gwErr.Message)
		return
	}

	log.Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}
