package controllers

import (
	"context"
	"errors"
	"net"

	"github.com/boozebuddy/backend/common/middleware"
	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/boozebuddy/backend/repository"
	"github.com/boozebuddy/backend/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

func newTestRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "localhost:0",
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis disabled in tests")
		},
	})
}

// newRouter returns a router that authenticates from the gateway headers.
func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.AuthMiddleware(nil))
	return r
}

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func supplierUser() *models.User {
	return &models.User{ID: uuid.New(), Name: "Acme Spirits", Slug: "acme-spirits", Role: models.RoleSupplier}
}

func managerUser(store, number string) *models.User {
	return &models.User{
		ID:    uuid.New(),
		Name:  "Pat",
		Role:  models.RoleStoreManager,
		Store: &models.StoreDetails{StoreName: store, StoreNumber: number},
	}
}

type fakeCatalog struct {
	created      *services.CreateProductRequest
	products     []*models.Product
	card         *services.ProductCardView
	presignCalls int
	err          error
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, supplier *models.User, req services.CreateProductRequest) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &req
	return &models.Product{ID: uuid.New(), UserID: supplier.ID, Name: req.Name, Slug: slug.Slugify(req.Name)}, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, services.ErrNotFound
}

func (f *fakeCatalog) ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*models.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) PutBacksideInfo(ctx context.Context, supplier *models.User, info models.BacksideInfo) error {
	return f.err
}

func (f *fakeCatalog) ProductCard(ctx context.Context, supplierSlug, productSlug string) (*services.ProductCardView, error) {
	if f.card == nil {
		return nil, services.ErrNotFound
	}
	return f.card, nil
}

func (f *fakeCatalog) PresignImageUpload(ctx context.Context, supplier *models.User, productName, contentType string) (*services.PresignedUpload, error) {
	f.presignCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &services.PresignedUpload{UploadURL: "https://s3.local/upload", Key: "suppliers/acme-spirits/products/x/image.png", ExpiresIn: 900}, nil
}

type fakeDistributor struct {
	report    *models.DistributionReport
	err       error
	products  []uuid.UUID
	stores    []uuid.UUID
	pairs     []models.PairRef
	supplier  *models.User
	callCount int
}

func (f *fakeDistributor) Distribute(ctx context.Context, supplier *models.User, productIDs, storeUserIDs []uuid.UUID) (*models.DistributionReport, error) {
	f.callCount++
	f.supplier, f.products, f.stores = supplier, productIDs, storeUserIDs
	return f.report, f.err
}

func (f *fakeDistributor) Repair(ctx context.Context, supplier *models.User, pairs []models.PairRef) (*models.DistributionReport, error) {
	f.callCount++
	f.supplier, f.pairs = supplier, pairs
	return f.report, f.err
}

type fakeAnalytics struct {
	summary *models.ScanSummary
	rows    []models.ProductScans
	ownerID uuid.UUID
	storeID slug.StoreSlug
	err     error
}

func (f *fakeAnalytics) SummarizeSupplier(ctx context.Context, ownerID uuid.UUID) (*models.ScanSummary, error) {
	f.ownerID = ownerID
	return f.summary, f.err
}

func (f *fakeAnalytics) SummarizeStore(ctx context.Context, ownerID uuid.UUID, storeID slug.StoreSlug) (*models.ScanSummary, error) {
	f.ownerID, f.storeID = ownerID, storeID
	return f.summary, f.err
}

func (f *fakeAnalytics) ListPerProductScans(ctx context.Context, ownerID uuid.UUID) ([]models.ProductScans, error) {
	f.ownerID = ownerID
	return f.rows, f.err
}

type fakeRetriever struct {
	codes []models.QRCode
	calls int
	err   error
}

func (f *fakeRetriever) ListDistributed(ctx context.Context, storeID slug.StoreSlug) ([]models.QRCode, error) {
	f.calls++
	return f.codes, f.err
}

type fakeScans struct {
	productID uuid.UUID
	storeID   slug.StoreSlug
	legacy    []string
	product   *models.Product
	supplier  *models.User
	err       error
}

func (f *fakeScans) RecordScan(ctx context.Context, productID uuid.UUID, storeID slug.StoreSlug) error {
	f.productID, f.storeID = productID, storeID
	return f.err
}

func (f *fakeScans) RecordScanByName(ctx context.Context, supplierName, productName string) error {
	f.legacy = append(f.legacy, supplierName+"/"+productName)
	return f.err
}

func (f *fakeScans) RecordScanBySlugs(ctx context.Context, supplierSlug string, storeID slug.StoreSlug, productSlug string) (*models.Product, *models.User, error) {
	f.storeID = storeID
	return f.product, f.supplier, f.err
}
