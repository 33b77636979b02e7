package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/arco-atelier/arco-api/models"
	"github.com/arco-atelier/arco-api/services"
	"github.com/arco-atelier/arco-api/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductRequest is the body of product create and update calls.
// Pointer fields left out of an update are not changed.
type ProductRequest struct {
	Slug          *string   `json:"slug" binding:"omitempty,min=1,max=100"`
	Name          *string   `json:"name" binding:"omitempty,min=1,max=200"`
	Description   *string   `json:"description"`
	Price         *int64    `json:"price" binding:"omitempty,gte=0"`
	StockQuantity *int      `json:"stock_quantity" binding:"omitempty,gte=0"`
	Sizes         *[]string `json:"sizes"`
	Colors        *[]string `json:"colors"`
	Images        *[]string `json:"images"`
	Tags          *[]string `json:"tags"`
	IsActive      *bool     `json:"is_active"`
}

// LookRequest is the body of photoshoot look create and update calls
type LookRequest struct {
	Slug            *string   `json:"slug" binding:"omitempty,min=1,max=100"`
	Name            *string   `json:"name" binding:"omitempty,min=1,max=200"`
	Description     *string   `json:"description"`
	Price           *int64    `json:"price" binding:"omitempty,gte=0"`
	DurationMinutes *int      `json:"duration_minutes" binding:"omitempty,gt=0"`
	IncludedItems   *[]string `json:"included_items"`
	Images          *[]string `json:"images"`
	VideoID         *string   `json:"video_id"`
	IsActive        *bool     `json:"is_active"`
}

// UpdateStockRequest sets the absolute stock level of a product
type UpdateStockRequest struct {
	StockQuantity *int `json:"stock_quantity" binding:"required,gte=0"`
}

// RestockSubscriptionRequest asks to be emailed when a product is back in stock
type RestockSubscriptionRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Size      string `json:"size"`
}

// CatalogController serves products and photoshoot looks
type CatalogController struct {
	db            *gorm.DB
	notifications *services.NotificationService
	log           *zap.Logger
}

// NewCatalogController creates a CatalogController
func NewCatalogController(db *gorm.DB, notifications *services.NotificationService, log *zap.Logger) *CatalogController {
	return &CatalogController{db: db, notifications: notifications, log: log}
}

// ListProducts handles GET /api/v1/products - active products, optionally filtered by ?tag=
func (cc *CatalogController) ListProducts(c *gin.Context) {
	cc.listProducts(c, true)
}

// ListAllProducts handles GET /api/v1/admin/products - includes inactive products
func (cc *CatalogController) ListAllProducts(c *gin.Context) {
	cc.listProducts(c, false)
}

func (cc *CatalogController) listProducts(c *gin.Context, activeOnly bool) {
	p := parsePagination(c)
	q := cc.db.WithContext(c.Request.Context()).Model(&models.Product{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
		// Tags are stored as a JSON array
		q = q.Where("tags LIKE ?", `%"`+tag+`"%`)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	products := []models.Product{}
	opts := p.listOptions()
	if err := q.Order("created_at DESC, id DESC").Limit(opts.Limit).Offset(opts.Offset).Find(&products).Error; err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	respondPage(c, products, p, total)
}

// GetProduct handles GET /api/v1/products/:slug
func (cc *CatalogController) GetProduct(c *gin.Context) {
	var product models.Product
	err := cc.db.WithContext(c.Request.Context()).
		Where("slug = ? AND is_active = ?", c.Param("slug"), true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
		return
	}
	if err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	respondData(c, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/admin/products
func (cc *CatalogController) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.Slug == nil || req.Name == nil || req.Price == nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "slug, name and price are required")
		return
	}

	product := models.Product{
		Sizes:    []string{},
		Colors:   []string{},
		Images:   []string{},
		Tags:     []string{},
		IsActive: true,
	}
	applyProductRequest(&product, req)

	if err := cc.db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "SLUG_EXISTS", "A product with this slug already exists")
			return
		}
		handleServiceError(c, cc.log, err)
		return
	}

	if req.IsActive != nil && !*req.IsActive {
		// gorm skips false on create because the column has a default
		if err := cc.db.WithContext(c.Request.Context()).Model(&product).Update("is_active", false).Error; err != nil {
			handleServiceError(c, cc.log, err)
			return
		}
		product.IsActive = false
	}

	cc.log.Info("Product created", zap.Uint("id", product.ID), zap.String("slug", product.Slug))
	respondData(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/admin/products/:id
func (cc *CatalogController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	product, ok := cc.loadProduct(c, id)
	if !ok {
		return
	}
	wasSoldOut := product.StockQuantity == 0

	applyProductRequest(product, req)
	if err := cc.db.WithContext(c.Request.Context()).Save(product).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "SLUG_EXISTS", "A product with this slug already exists")
			return
		}
		handleServiceError(c, cc.log, err)
		return
	}

	if wasSoldOut && product.StockQuantity > 0 {
		cc.notifyRestock(c, product.ID)
	}

	respondData(c, http.StatusOK, product)
}

// UpdateStock handles PATCH /api/v1/admin/products/:id/stock.
// Going from sold out to in stock emails pending restock subscribers.
func (cc *CatalogController) UpdateStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	product, ok := cc.loadProduct(c, id)
	if !ok {
		return
	}
	previous := product.StockQuantity

	if err := cc.db.WithContext(c.Request.Context()).Model(product).Update("stock_quantity", *req.StockQuantity).Error; err != nil {
		handleServiceError(c, cc.log, err)
		return
	}
	product.StockQuantity = *req.StockQuantity

	cc.log.Info("Stock updated", zap.Uint("product_id", id), zap.Int("from", previous), zap.Int("to", product.StockQuantity))

	notified := 0
	if previous == 0 && product.StockQuantity > 0 {
		notified = cc.notifyRestock(c, product.ID)
	}

	respondData(c, http.StatusOK, gin.H{
		"product":  product,
		"notified": notified,
	})
}

// DeactivateProduct handles DELETE /api/v1/admin/products/:id. Products are hidden, never deleted.
func (cc *CatalogController) DeactivateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res := cc.db.WithContext(c.Request.Context()).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		handleServiceError(c, cc.log, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"id": id, "is_active": false})
}

// SubscribeRestock handles POST /api/v1/restock-notifications for a sold-out product
func (cc *CatalogController) SubscribeRestock(c *gin.Context) {
	var req RestockSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	n, err := cc.notifications.Subscribe(c.Request.Context(), req.ProductID, req.Email, req.Size)
	if err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	respondData(c, http.StatusCreated, n)
}

// ListLooks handles GET /api/v1/photoshoots
func (cc *CatalogController) ListLooks(c *gin.Context) {
	cc.listLooks(c, true)
}

// ListAllLooks handles GET /api/v1/admin/photoshoots
func (cc *CatalogController) ListAllLooks(c *gin.Context) {
	cc.listLooks(c, false)
}

func (cc *CatalogController) listLooks(c *gin.Context, activeOnly bool) {
	q := cc.db.WithContext(c.Request.Context()).Order("created_at DESC, id DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	looks := []models.PhotoshootLook{}
	if err := q.Find(&looks).Error; err != nil {
		handleServiceError(c, cc.log, err)
		return
	}

	respondData(c, http.StatusOK, looks)
}

// GetLook handles GET /api/v1/photoshoots/:slug
func (cc *CatalogController) GetLook(c *gin.Context) {
	look, ok := findActiveLook(c, cc.db, cc.log)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, look)
}

// CreateLook handles POST /api/v1/admin/photoshoots
func (cc *CatalogController) CreateLook(c *gin.Context) {
	var req LookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.Slug == nil || req.Name == nil || req.Price == nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "slug, name and price are required")
		return
	}

	look := models.PhotoshootLook{
		DurationMinutes: 60,
		IncludedItems:   []string{},
		Images:          []string{},
		IsActive:        true,
	}
	applyLookRequest(&look, req)

	if err := cc.db.WithContext(c.Request.Context()).Create(&look).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "SLUG_EXISTS", "A photoshoot look with this slug already exists")
			return
		}
		handleServiceError(c, cc.log, err)
		return
	}

	if req.IsActive != nil && !*req.IsActive {
		if err := cc.db.WithContext(c.Request.Context()).Model(&look).Update("is_active", false).Error; err != nil {
			handleServiceError(c, cc.log, err)
			return
		}
		look.IsActive = false
	}

	cc.log.Info("Photoshoot look created", zap.Uint("id", look.ID), zap.String("slug", look.Slug))
	respondData(c, http.StatusCreated, look)
}

// UpdateLook handles PUT /api/v1/admin/photoshoots/:id
func (cc *CatalogController) UpdateLook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req LookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := cc.db.WithContext(c.Request.Context())
	var look models.PhotoshootLook
	if err := db.First(&look, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "LOOK_NOT_FOUND", "Photoshoot look not found")
			return
		}
		handleServiceError(c, cc.log, err)
		return
	}

	applyLookRequest(&look, req)
	if err := db.Save(&look).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "SLUG_EXISTS", "A photoshoot look with this slug already exists")
			return
		}
		handleServiceError(c, cc.log, err)
		return
	}

	respondData(c, http.StatusOK, look)
}

// DeactivateLook handles DELETE /api/v1/admin/photoshoots/:id
func (cc *CatalogController) DeactivateLook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res := cc.db.WithContext(c.Request.Context()).Model(&models.PhotoshootLook{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		handleServiceError(c, cc.log, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "LOOK_NOT_FOUND", "Photoshoot look not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"id": id, "is_active": false})
}

func (cc *CatalogController) loadProduct(c *gin.Context, id uint) (*models.Product, bool) {
	var product models.Product
	err := cc.db.WithContext(c.Request.Context()).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
		return nil, false
	}
	if err != nil {
		handleServiceError(c, cc.log, err)
		return nil, false
	}
	return &product, true
}

// notifyRestock emails subscribers; failures never fail the admin request
func (cc *CatalogController) notifyRestock(c *gin.Context, productID uint) int {
	sent, err := cc.notifications.NotifyRestock(c.Request.Context(), productID)
	if err != nil {
		cc.log.Error("Restock notification failed", zap.Uint("product_id", productID), zap.Error(err))
	}
	return sent
}

// findActiveLook loads the active look named by the :slug path parameter
func findActiveLook(c *gin.Context, db *gorm.DB, log *zap.Logger) (*models.PhotoshootLook, bool) {
	var look models.PhotoshootLook
	err := db.WithContext(c.Request.Context()).
		Where("slug = ? AND is_active = ?", c.Param("slug"), true).
		First(&look).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "LOOK_NOT_FOUND", "Photoshoot look not found")
		return nil, false
	}
	if err != nil {
		handleServiceError(c, log, err)
		return nil, false
	}
	return &look, true
}

func applyProductRequest(p *models.Product, req ProductRequest) {
	if req.Slug != nil {
		p.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.StockQuantity != nil {
		p.StockQuantity = *req.StockQuantity
	}
	if req.Sizes != nil {
		p.Sizes = *req.Sizes
	}
	if req.Colors != nil {
		p.Colors = *req.Colors
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

func applyLookRequest(l *models.PhotoshootLook, req LookRequest) {
	if req.Slug != nil {
		l.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.Name != nil {
		l.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.Price != nil {
		l.Price = *req.Price
	}
	if req.DurationMinutes != nil {
		l.DurationMinutes = *req.DurationMinutes
	}
	if req.IncludedItems != nil {
		l.IncludedItems = *req.IncludedItems
	}
	if req.Images != nil {
		l.Images = *req.Images
	}
	if req.VideoID != nil {
		l.VideoID = req.VideoID
	}
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
}
