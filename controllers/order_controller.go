package controllers

import (
	"net/http"

	"github.com/arco-atelier/arco-api/middleware"
	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateOrderStatusRequest represents the request body for moving an order along
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// SetTrackingRequest represents the request body for attaching shipment tracking
type SetTrackingRequest struct {
	Carrier        string `json:"carrier" binding:"required"`
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// OrderController serves order history and admin order management
type OrderController struct {
	orders *services.OrderService
	log    *zap.Logger
}

// NewOrderController creates an OrderController
func NewOrderController(orders *services.OrderService, log *zap.Logger) *OrderController {
	return &OrderController{orders: orders, log: log}
}

// ListMyOrders handles GET /api/v1/orders - the caller's own orders
func (oc *OrderController) ListMyOrders(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	p := parsePagination(c)
	orders, total, err := oc.orders.List(c.Request.Context(), services.OrderFilter{
		ListOptions: p.listOptions(),
		UserID:      &user.ID,
	})
	if err != nil {
		handleServiceError(c, oc.log, err)
		return
	}

	respondPage(c, orders, p, total)
}

// GetMyOrder handles GET /api/v1/orders/:id. Orders of other users are reported as not found.
func (oc *OrderController) GetMyOrder(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := oc.orders.GetForUser(c.Request.Context(), id, user.ID)
	if err != nil {
		handleServiceError(c, oc.log, err)
		return
	}

	respondData(c, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/admin/orders?status=
func (oc *OrderController) ListOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown order status")
		return
	}

	p := parsePagination(c)
	orders, total, err := oc.orders.List(c.Request.Context(), services.OrderFilter{
		ListOptions: p.listOptions(),
		Status:      status,
	})
	if err != nil {
		handleServiceError(c, oc.log, err)
		return
	}

	respondPage(c, orders, p, total)
}

// GetOrder handles GET /api/v1/admin/orders/:id
func (oc *OrderController) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := oc.orders.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, oc.log, err)
		return
	}

	respondData(c, http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/v1/admin/orders/:id/status.
// Cancelling a paid order refunds it through the payment gateway.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := oc.orders.UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status), req.Reason)
	if err != nil {
		handleServiceError(c, oc.log, err)
		return
	}

	respondData(c, http.StatusOK, order)
}

// SetTracking handles PUT /api/v1/admin/orders/:id/tracking
func (oc *OrderController) SetTracking(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SetTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := oc.orders.SetTracking(c.Request.Context(), id, req.Carrier, req.TrackingNumber)
	if err != nil {
		handleServiceError(c, oc.log, err)
		return
	}

	respondData(c, http.StatusOK, order)
}
