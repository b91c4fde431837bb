package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyticsRouter(a *fakeAnalytics, users fakeUsers) http.Handler {
	ac := NewAnalyticsController(a, users)
	router := newRouter()
	router.GET("/analytics/supplier", ac.SupplierSummary)
	router.GET("/analytics/supplier/products", ac.SupplierProducts)
	router.GET("/analytics/store", ac.StoreSummary)
	return router
}

func TestAnalyticsController_SupplierSummary(t *testing.T) {
	supplier := supplierUser()
	pid := uuid.New()
	a := &fakeAnalytics{summary: &models.ScanSummary{
		Products: []models.ProductScans{{ProductID: pid, Name: "A", TotalScans: 7}},
		TopItem:  models.TopItem{ProductID: pid, Name: "A", TotalScans: 7},
		TopStore: &models.StoreScans{StoreID: "store-1", ScanCount: 7},
	}}
	router := newAnalyticsRouter(a, fakeUsers{supplier.ID: supplier})

	rec := serve(t, router, http.MethodGet, "/analytics/supplier", "", supplier)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, supplier.ID, a.ownerID)

	var summary models.ScanSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, int64(7), summary.TopItem.TotalScans)
	require.NotNil(t, summary.TopStore)
	assert.Equal(t, slug.StoreSlug("store-1"), summary.TopStore.StoreID)
}

func TestAnalyticsController_SupplierProducts(t *testing.T) {
	supplier := supplierUser()
	a := &fakeAnalytics{rows: []models.ProductScans{{ProductID: uuid.New(), Name: "A"}}}
	router := newAnalyticsRouter(a, fakeUsers{supplier.ID: supplier})

	rec := serve(t, router, http.MethodGet, "/analytics/supplier/products", "", supplier)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Products []models.ProductScans `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Products, 1)
}

func TestAnalyticsController_StoreSummary_UsesManagersStore(t *testing.T) {
	manager := managerUser("Main Street", "12")
	a := &fakeAnalytics{summary: &models.ScanSummary{}}
	router := newAnalyticsRouter(a, fakeUsers{manager.ID: manager})

	rec := serve(t, router, http.MethodGet, "/analytics/store", "", manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, slug.StoreSlug("main-street-12"), a.storeID)
	assert.Equal(t, uuid.Nil, a.ownerID)

	supplierID := uuid.New()
	rec = serve(t, router, http.MethodGet, "/analytics/store?supplierId="+supplierID.String(), "", manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, supplierID, a.ownerID)
}

func TestAnalyticsController_StoreSummary_BadSupplierID(t *testing.T) {
	manager := managerUser("Main Street", "12")
	router := newAnalyticsRouter(&fakeAnalytics{}, fakeUsers{manager.ID: manager})

	rec := serve(t, router, http.MethodGet, "/analytics/store?supplierId=nope", "", manager)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsController_StoreSummary_NoStore(t *testing.T) {
	supplier := supplierUser()
	router := newAnalyticsRouter(&fakeAnalytics{}, fakeUsers{supplier.ID: supplier})

	rec := serve(t, router, http.MethodGet, "/analytics/store", "", supplier)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
