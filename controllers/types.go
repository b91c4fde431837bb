package controllers

import (
	"context"
	"time"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/boozebuddy/backend/services"

	"github.com/google/uuid"
)

const (
	DefaultCacheTTL       = 5 * time.Minute
	DefaultContextTimeout = 30 * time.Second
	// Fan-outs over many pairs get longer than ordinary requests.
	DistributionTimeout = 2 * time.Minute
)

// UserLookup resolves the authenticated caller.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type CatalogAPI interface {
	CreateProduct(ctx context.Context, supplier *models.User, req services.CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*models.Product, error)
	PutBacksideInfo(ctx context.Context, supplier *models.User, info models.BacksideInfo) error
	ProductCard(ctx context.Context, supplierSlug, productSlug string) (*services.ProductCardView, error)
	PresignImageUpload(ctx context.Context, supplier *models.User, productName, contentType string) (*services.PresignedUpload, error)
}

type DistributionAPI interface {
	Distribute(ctx context.Context, supplier *models.User, productIDs, storeUserIDs []uuid.UUID) (*models.DistributionReport, error)
	Repair(ctx context.Context, supplier *models.User, pairs []models.PairRef) (*models.DistributionReport, error)
}

type AnalyticsAPI interface {
	SummarizeSupplier(ctx context.Context, ownerID uuid.UUID) (*models.ScanSummary, error)
	SummarizeStore(ctx context.Context, ownerID uuid.UUID, storeID slug.StoreSlug) (*models.ScanSummary, error)
	ListPerProductScans(ctx context.Context, ownerID uuid.UUID) ([]models.ProductScans, error)
}

type RetrievalAPI interface {
	ListDistributed(ctx context.Context, storeID slug.StoreSlug) ([]models.QRCode, error)
}

type ScanAPI interface {
	RecordScan(ctx context.Context, productID uuid.UUID, storeID slug.StoreSlug) error
	RecordScanByName(ctx context.Context, supplierName, productName string) error
	RecordScanBySlugs(ctx context.Context, supplierSlug string, storeID slug.StoreSlug, productSlug string) (*models.Product, *models.User, error)
}

// Request payloads.

type DistributeRequest struct {
	ProductIDs []uuid.UUID `json:"productIds" validate:"required,min=1,max=200"`
	StoreIDs   []uuid.UUID `json:"storeIds" validate:"required,min=1,max=200"`
}

type RetryRequest struct {
	Pairs []models.PairRef `json:"pairs" validate:"required,min=1,max=1000,dive"`
}

type ScanRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	StoreID   string    `json:"storeId" validate:"required,max=200"`
}

type LegacyScanRequest struct {
	SupplierName string `json:"supplierName" validate:"required,max=200"`
	ProductName  string `json:"productName" validate:"required,max=200"`
}

type PresignRequest struct {
	ProductName string `json:"productName" validate:"required,max=120"`
	ContentType string `json:"contentType" validate:"required"`
}
