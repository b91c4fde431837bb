package controllers

import (
	"errors"
	"net/http"

	"github.com/boozebuddy/backend/common/logger"
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/boozebuddy/backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScanController serves the public endpoints hit by shoppers scanning a code.
type ScanController struct {
	scans     ScanAPI
	catalog   CatalogAPI
	validator *RequestValidator
}

func NewScanController(scans ScanAPI, catalog CatalogAPI) *ScanController {
	return &ScanController{scans: scans, catalog: catalog, validator: NewRequestValidator()}
}

func (sc *ScanController) RecordScan(c *gin.Context) {
	var req ScanRequest
	if err := sc.validator.BindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	storeID, err := slug.ParseStoreSlug(req.StoreID)
	if err != nil {
		badRequest(c, errors.New("invalid storeId"))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := sc.scans.RecordScan(ctx, req.ProductID, storeID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Landing is the page a QR code opens: it counts the scan and returns the
// product card. A code for a pair that is not in the ledger still renders,
// uncounted.
func (sc *ScanController) Landing(c *gin.Context) {
	storeID, err := sc.validator.ParseStoreSlugParam(c, "store")
	if err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	product, supplier, err := sc.scans.RecordScanBySlugs(ctx, c.Param("supplier"), storeID, c.Param("product"))
	counted := err == nil
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotAssigned) && product != nil:
		logger.FromContext(c).Warn("Scan for undistributed pair",
			zap.String("product_id", product.ID.String()), zap.String("store_id", storeID.String()))
	default:
		handleServiceError(c, err)
		return
	}

	view, err := sc.catalog.ProductCard(ctx, slug.Slugify(supplier.Name), product.Slug)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	ok(c, gin.H{
		"productId": product.ID,
		"storeId":   storeID,
		"counted":   counted,
		"card":      view.Card,
		"backside":  view.Backside,
	})
}

// RecordLegacyScan feeds the deprecated product-level counter.
func (sc *ScanController) RecordLegacyScan(c *gin.Context) {
	var req LegacyScanRequest
	if err := sc.validator.BindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := sc.scans.RecordScanByName(ctx, req.SupplierName, req.ProductName); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Deprecation", "true")
	c.Status(http.StatusNoContent)
}
