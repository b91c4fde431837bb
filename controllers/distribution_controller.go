package controllers

import (
	"context"
	"net/http"

	"github.com/boozebuddy/backend/models"

	"github.com/gin-gonic/gin"
)

type DistributionController struct {
	distributor DistributionAPI
	users       UserLookup
	cache       *CacheManager
	validator   *RequestValidator
}

func NewDistributionController(distributor DistributionAPI, users UserLookup, cache *CacheManager) *DistributionController {
	return &DistributionController{
		distributor: distributor,
		users:       users,
		cache:       cache,
		validator:   NewRequestValidator(),
	}
}

// Distribute answers 200 with the report even when some pairs failed; the
// report's message says how many of the requested codes were generated.
func (dc *DistributionController) Distribute(c *gin.Context) {
	var req DistributeRequest
	if err := dc.validator.BindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	dc.run(c, func(ctx context.Context, supplier *models.User) (*models.DistributionReport, error) {
		return dc.distributor.Distribute(ctx, supplier, req.ProductIDs, req.StoreIDs)
	})
}

// Retry rewrites artifacts for pairs reported as failed by an earlier call.
func (dc *DistributionController) Retry(c *gin.Context) {
	var req RetryRequest
	if err := dc.validator.BindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	dc.run(c, func(ctx context.Context, supplier *models.User) (*models.DistributionReport, error) {
		return dc.distributor.Repair(ctx, supplier, req.Pairs)
	})
}

func (dc *DistributionController) run(c *gin.Context, fn func(context.Context, *models.User) (*models.DistributionReport, error)) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DistributionTimeout)
	defer cancel()

	supplier := currentUser(c, ctx, dc.users)
	if supplier == nil {
		return
	}
	report, err := fn(ctx, supplier)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if report.Generated > 0 {
		dc.cache.Invalidate(ctx)
	}
	status := http.StatusOK
	if report.Generated == 0 && len(report.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, report)
}
