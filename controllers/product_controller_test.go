package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boozebuddy/backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, path, body string, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-User-ID", user.ID.String())
		req.Header.Set("X-User-Role", string(user.Role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProductController_CreateProduct(t *testing.T) {
	supplier := supplierUser()
	catalog := &fakeCatalog{}
	pc := NewProductController(catalog, fakeUsers{supplier.ID: supplier})

	router := newRouter()
	router.POST("/products", pc.CreateProduct)

	rec := serve(t, router, http.MethodPost, "/products", `{"name":"Old Barrel","tasteNotes":["oak"]}`, supplier)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, catalog.created)
	assert.Equal(t, "Old Barrel", catalog.created.Name)

	var product models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	assert.Equal(t, supplier.ID, product.UserID)
	assert.Equal(t, "old-barrel", product.Slug)
}

func TestProductController_CreateProduct_MissingName(t *testing.T) {
	supplier := supplierUser()
	catalog := &fakeCatalog{}
	pc := NewProductController(catalog, fakeUsers{supplier.ID: supplier})

	router := newRouter()
	router.POST("/products", pc.CreateProduct)

	rec := serve(t, router, http.MethodPost, "/products", `{"description":"no name"}`, supplier)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, catalog.created)
}

func TestProductController_UnknownUser(t *testing.T) {
	pc := NewProductController(&fakeCatalog{}, fakeUsers{})

	router := newRouter()
	router.GET("/products", pc.ListProducts)

	rec := serve(t, router, http.MethodGet, "/products", "", supplierUser())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductController_MissingAuth(t *testing.T) {
	pc := NewProductController(&fakeCatalog{}, fakeUsers{})

	router := newRouter()
	router.GET("/products", pc.ListProducts)

	rec := serve(t, router, http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductController_ListProducts(t *testing.T) {
	supplier := supplierUser()
	catalog := &fakeCatalog{products: []*models.Product{
		{ID: uuid.New(), UserID: supplier.ID, Name: "A"},
		{ID: uuid.New(), UserID: supplier.ID, Name: "B"},
	}}
	pc := NewProductController(catalog, fakeUsers{supplier.ID: supplier})

	router := newRouter()
	router.GET("/products", pc.ListProducts)

	rec := serve(t, router, http.MethodGet, "/products", "", supplier)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Products []models.Product `json:"products"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Len(t, body.Products, 2)
}

func TestProductController_GetProduct(t *testing.T) {
	supplier := supplierUser()
	p := &models.Product{ID: uuid.New(), UserID: supplier.ID, Name: "A"}
	pc := NewProductController(&fakeCatalog{products: []*models.Product{p}}, fakeUsers{supplier.ID: supplier})

	router := newRouter()
	router.GET("/products/:id", pc.GetProduct)

	rec := serve(t, router, http.MethodGet, "/products/"+p.ID.String(), "", supplier)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, router, http.MethodGet, "/products/"+uuid.NewString(), "", supplier)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, router, http.MethodGet, "/products/not-a-uuid", "", supplier)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductController_PresignImageUpload(t *testing.T) {
	supplier := supplierUser()
	catalog := &fakeCatalog{}
	pc := NewProductController(catalog, fakeUsers{supplier.ID: supplier})

	router := newRouter()
	router.POST("/products/images/presign", pc.PresignImageUpload)

	rec := serve(t, router, http.MethodPost, "/products/images/presign",
		`{"productName":"Old Barrel","contentType":"image/png"}`, supplier)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PUT", body["method"])
	assert.Equal(t, "https://s3.local/upload", body["upload_url"])
	assert.Equal(t, 1, catalog.presignCalls)

	rec = serve(t, router, http.MethodPost, "/products/images/presign", `{"productName":"Old Barrel"}`, supplier)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, catalog.presignCalls)
}
