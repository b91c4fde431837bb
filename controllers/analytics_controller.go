package controllers

import (
	apperrors "github.com/boozebuddy/backend/common/errors"
	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	analytics AnalyticsAPI
	users     UserLookup
	validator *RequestValidator
}

func NewAnalyticsController(analytics AnalyticsAPI, users UserLookup) *AnalyticsController {
	return &AnalyticsController{analytics: analytics, users: users, validator: NewRequestValidator()}
}

// SupplierSummary is the supplier dashboard: totals, top item, top store.
func (ac *AnalyticsController) SupplierSummary(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	supplier := currentUser(c, ctx, ac.users)
	if supplier == nil {
		return
	}
	summary, err := ac.analytics.SummarizeSupplier(ctx, supplier.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	ok(c, summary)
}

func (ac *AnalyticsController) SupplierProducts(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	supplier := currentUser(c, ctx, ac.users)
	if supplier == nil {
		return
	}
	rows, err := ac.analytics.ListPerProductScans(ctx, supplier.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	ok(c, gin.H{"products": rows})
}

// StoreSummary is the store manager dashboard, optionally narrowed to one
// supplier with ?supplierId=.
func (ac *AnalyticsController) StoreSummary(c *gin.Context) {
	supplierID, err := ac.validator.ParseOptionalUUIDQuery(c, "supplierId")
	if err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	manager := currentUser(c, ctx, ac.users)
	if manager == nil {
		return
	}
	storeID, ok := storeOf(manager)
	if !ok {
		apperrors.Abort(c, apperrors.ErrForbidden.WithMessage("user has no store"))
		return
	}
	summary, err := ac.analytics.SummarizeStore(ctx, supplierID, storeID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, gin.H{"storeId": storeID, "summary": summary})
}

func storeOf(u *models.User) (slug.StoreSlug, bool) {
	if u.Role != models.RoleStoreManager || u.Store == nil {
		return "", false
	}
	id, err := slug.NewStoreSlug(u.Store.StoreName, u.Store.StoreNumber)
	return id, err == nil
}
