package routes

import (
	"net/http"

	"github.com/boozebuddy/backend/common/auth"
	"github.com/boozebuddy/backend/common/middleware"
	"github.com/boozebuddy/backend/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups the handlers mounted by RegisterRoutes.
type Controllers struct {
	Products      *controllers.ProductController
	Distributions *controllers.DistributionController
	Analytics     *controllers.AnalyticsController
	QRCodes       *controllers.QRCodeController
	Scans         *controllers.ScanController
}

// RegisterRoutes mounts the public scan endpoints behind the rate limiter and
// everything else behind authentication.
func RegisterRoutes(r *gin.Engine, ctrl Controllers, verifier *auth.TokenVerifier, limiter *middleware.RateLimiter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/")
	if limiter != nil {
		public.Use(limiter.Middleware())
	}
	{
		public.POST("/scans", ctrl.Scans.RecordScan)
		public.POST("/scans/legacy", ctrl.Scans.RecordLegacyScan)
		public.GET("/store/products/:supplier/:store/:product", ctrl.Scans.Landing)
	}

	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware(verifier))

	supplier := authed.Group("/")
	supplier.Use(middleware.SupplierOnly())
	{
		supplier.POST("/products", ctrl.Products.CreateProduct)
		supplier.GET("/products", ctrl.Products.ListProducts)
		supplier.POST("/products/images/presign", ctrl.Products.PresignImageUpload)
		supplier.PUT("/suppliers/me/backside", ctrl.Products.PutBacksideInfo)

		supplier.POST("/distributions", ctrl.Distributions.Distribute)
		supplier.POST("/distributions/retry", ctrl.Distributions.Retry)

		supplier.GET("/analytics/supplier", ctrl.Analytics.SupplierSummary)
		supplier.GET("/analytics/supplier/products", ctrl.Analytics.SupplierProducts)
	}

	authed.GET("/products/:id", ctrl.Products.GetProduct)
	authed.GET("/stores/:storeSlug/qrcodes", ctrl.QRCodes.ListStoreQRCodes)
	authed.GET("/analytics/store", middleware.StoreManagerOnly(), ctrl.Analytics.StoreSummary)
}
