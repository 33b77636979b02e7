package controllers

import (
	"net/http"

	"github.com/arco-atelier/arco-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardController serves the admin sales dashboard
type DashboardController struct {
	dashboard *services.DashboardService
	log       *zap.Logger
}

// NewDashboardController creates a DashboardController
func NewDashboardController(dashboard *services.DashboardService, log *zap.Logger) *DashboardController {
	return &DashboardController{dashboard: dashboard, log: log}
}

// GetStats handles GET /api/v1/admin/dashboard
func (dc *DashboardController) GetStats(c *gin.Context) {
	stats, err := dc.dashboard.Stats(c.Request.Context())
	if err != nil {
		handleServiceError(c, dc.log, err)
		return
	}

	respondData(c, http.StatusOK, stats)
}
