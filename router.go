package main

import (
	"net/http"
	"time"

	"github.com/arco-atelier/arco-api/config"
	"github.com/arco-atelier/arco-api/controllers"
	"github.com/arco-atelier/arco-api/middleware"
	"github.com/arco-atelier/arco-api/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// dependencies are the long-lived components the routes are built from
type dependencies struct {
	cfg      *config.Config
	db       *gorm.DB
	log      *zap.Logger
	auth     *middleware.Authenticator
	gateway  services.PaymentGateway
	images   services.ImageService
	videos   services.VideoService
	mailer   services.Mailer
	cache    services.Cache // nil when Redis is not configured
	userInfo services.UserInfoProvider
}

func setupRouter(d dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(d.log), middleware.RequestLogger(d.log))
	router.Use(cors.New(corsConfig(d.cfg)))

	loc := d.cfg.Location()
	coupons := services.NewCouponService(d.db, d.log)
	notifications := services.NewNotificationService(d.db, d.mailer, d.cache, d.cfg.AppURL, d.log)
	checkout := services.NewCheckoutService(d.db, d.gateway, coupons, d.cache, d.cfg, d.log)
	orders := services.NewOrderService(d.db, d.gateway, d.cache, d.cfg, d.log)
	bookings := services.NewBookingService(d.db, d.cache, loc, d.log)
	dashboard := services.NewDashboardService(d.db, d.cache, d.cfg.DashboardCacheTTL, loc, d.log)

	userController := controllers.NewUserController(d.db, d.userInfo, d.log)
	catalogController := controllers.NewCatalogController(d.db, notifications, d.log)
	checkoutController := controllers.NewCheckoutController(checkout, d.log)
	orderController := controllers.NewOrderController(orders, d.log)
	bookingController := controllers.NewBookingController(d.db, bookings, d.log)
	couponController := controllers.NewCouponController(d.db, coupons, d.log)
	reviewController := controllers.NewReviewController(d.db, d.log)
	inquiryController := controllers.NewInquiryController(d.db, notifications, d.log)
	uploadController := controllers.NewUploadController(d.db, d.images, d.videos, d.log)
	dashboardController := controllers.NewDashboardController(dashboard, d.log)

	requireToken := d.auth.EnsureValidToken()
	optional := []gin.HandlerFunc{d.auth.OptionalToken(), middleware.LoadOptionalUser(d.db, d.log)}
	user := []gin.HandlerFunc{requireToken, middleware.RequireUser(d.db, d.log)}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus(d.db))

		// Catalog
		v1.GET("/products", catalogController.ListProducts)
		v1.GET("/products/:slug", catalogController.GetProduct)
		v1.POST("/restock-notifications", catalogController.SubscribeRestock)
		v1.GET("/photoshoots", catalogController.ListLooks)
		v1.GET("/photoshoots/:slug", catalogController.GetLook)
		v1.GET("/photoshoots/:slug/availability", bookingController.Availability)
		v1.GET("/reviews", reviewController.ListReviews)
		v1.POST("/coupons/validate", couponController.ValidateCoupon)

		// Guests and signed-in customers
		v1.POST("/checkout/quote", checkoutController.Quote)
		v1.POST("/checkout", append(optional, checkoutController.Begin)...)
		v1.POST("/checkout/confirm", checkoutController.Confirm)
		v1.GET("/checkout/fail", checkoutController.Fail)
		v1.POST("/bookings", append(optional, bookingController.CreateBooking)...)
		v1.POST("/inquiries", append(optional, inquiryController.CreateInquiry)...)

		// Profile creation only needs a token; the profile row does not exist yet
		v1.POST("/users", requireToken, userController.CreateUser)

		me := v1.Group("", user...)
		{
			me.GET("/me", userController.GetMyProfile)
			me.PUT("/me", userController.UpdateMyProfile)
			me.GET("/orders", orderController.ListMyOrders)
			me.GET("/orders/:id", orderController.GetMyOrder)
			me.GET("/bookings", bookingController.ListMyBookings)
			me.GET("/inquiries", inquiryController.ListMyInquiries)
			me.POST("/reviews", reviewController.CreateReview)
			me.POST("/uploads/review-images", uploadController.UploadReviewImage)
		}

		admin := v1.Group("/admin", requireToken, middleware.RequireAdmin(d.db, d.log))
		{
			admin.GET("/dashboard", dashboardController.GetStats)

			admin.GET("/products", catalogController.ListAllProducts)
			admin.POST("/products", catalogController.CreateProduct)
			admin.PUT("/products/:id", catalogController.UpdateProduct)
			admin.PATCH("/products/:id/stock", catalogController.UpdateStock)
			admin.DELETE("/products/:id", catalogController.DeactivateProduct)

			admin.GET("/photoshoots", catalogController.ListAllLooks)
			admin.POST("/photoshoots", catalogController.CreateLook)
			admin.PUT("/photoshoots/:id", catalogController.UpdateLook)
			admin.DELETE("/photoshoots/:id", catalogController.DeactivateLook)

			admin.GET("/orders", orderController.ListOrders)
			admin.GET("/orders/:id", orderController.GetOrder)
			admin.PATCH("/orders/:id/status", orderController.UpdateOrderStatus)
			admin.PUT("/orders/:id/tracking", orderController.SetTracking)

			admin.GET("/bookings", bookingController.ListBookings)
			admin.GET("/bookings/:id", bookingController.GetBooking)
			admin.PATCH("/bookings/:id/status", bookingController.UpdateBookingStatus)

			admin.GET("/coupons", couponController.ListCoupons)
			admin.POST("/coupons", couponController.CreateCoupon)
			admin.PUT("/coupons/:id", couponController.UpdateCoupon)
			admin.DELETE("/coupons/:id", couponController.DeleteCoupon)

			admin.GET("/reviews", reviewController.ListPendingReviews)
			admin.PATCH("/reviews/:id/approve", reviewController.ApproveReview)
			admin.DELETE("/reviews/:id", reviewController.RejectReview)

			admin.GET("/inquiries", inquiryController.ListInquiries)
			admin.POST("/inquiries/:id/answer", inquiryController.AnswerInquiry)

			admin.POST("/uploads/images", uploadController.UploadImage)
			admin.DELETE("/uploads/images", uploadController.DeleteImage)
			admin.POST("/videos", uploadController.UploadVideo)
			admin.GET("/videos/:id", uploadController.VideoStatus)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Route not found",
			},
		})
	})

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		// Credentials cannot be combined with a wildcard origin
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	}
	return c
}
