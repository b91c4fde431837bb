package services

import (
	"context"
	"strings"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/boozebuddy/backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger tracks which stores each product was distributed to and counts
// scans per (product, store). Every write is a single conditional update
// in the document store.
type Ledger struct {
	products repository.ProductRepo
	users    repository.UserRepo
	log      *zap.Logger
}

func NewLedger(products repository.ProductRepo, users repository.UserRepo, log *zap.Logger) *Ledger {
	return &Ledger{products: products, users: users, log: log}
}

// Assign appends a fresh assignment for storeID and marks the product
// assigned. It fails with ErrAlreadyAssigned, without side effects, when the
// store is already present.
func (l *Ledger) Assign(ctx context.Context, productID uuid.UUID, storeID slug.StoreSlug) error {
	if productID == uuid.Nil {
		return invalid("productId", "required")
	}
	if storeID == "" {
		return invalid("storeId", "required")
	}
	err := l.products.AppendStoreAssignment(ctx, productID, models.StoreAssignment{StoreID: storeID})
	return fromRepo("append store assignment", "product "+productID.String(), err)
}

// RecordScan counts one scan of the product's QR code at storeID. A scan
// for a store the product was never distributed to fails with
// ErrNotAssigned and creates nothing.
func (l *Ledger) RecordScan(ctx context.Context, productID uuid.UUID, storeID slug.StoreSlug) error {
	if productID == uuid.Nil {
		return invalid("productId", "required")
	}
	if storeID == "" {
		return invalid("storeId", "required")
	}
	err := l.products.IncrementStoreScan(ctx, productID, storeID)
	if err != nil {
		return fromRepo("increment store scan", "product "+productID.String()+" at "+storeID.String(), err)
	}
	scansRecorded.WithLabelValues("store").Inc()
	return nil
}

// RecordScanByName feeds the deprecated product-level counter used by the
// old scan flow that carries no store. Dashboards never read it.
func (l *Ledger) RecordScanByName(ctx context.Context, supplierName, productName string) error {
	supplierName = strings.TrimSpace(supplierName)
	productName = strings.TrimSpace(productName)
	if supplierName == "" {
		return invalid("supplierName", "required")
	}
	if productName == "" {
		return invalid("productName", "required")
	}

	supplier, err := l.users.FindByNameOrEmail(ctx, supplierName)
	if err != nil {
		return fromRepo("find supplier", "supplier "+supplierName, err)
	}
	product, err := l.products.FindByOwnerAndName(ctx, supplier.ID, productName)
	if err != nil {
		return fromRepo("find product", "product "+productName, err)
	}
	if err := l.products.IncrementLegacyScan(ctx, product.ID); err != nil {
		return fromRepo("increment legacy scan", "product "+productName, err)
	}

	l.log.Warn("Recorded scan without store context",
		zap.String("supplier", supplierName),
		zap.String("product_id", product.ID.String()),
	)
	scansRecorded.WithLabelValues("legacy").Inc()
	return nil
}

// RecordScanBySlugs resolves the three path segments of a QR landing URL
// and records the scan. The product and supplier are returned even when the
// scan itself is rejected so the landing page can still render.
func (l *Ledger) RecordScanBySlugs(ctx context.Context, supSlug string, storeID slug.StoreSlug, productSlug string) (*models.Product, *models.User, error) {
	supSlug = slug.Slugify(supSlug)
	productSlug = slug.Slugify(productSlug)
	if supSlug == "" || productSlug == "" {
		return nil, nil, invalid("path", "supplier and product are required")
	}

	supplier, err := l.users.FindBySlug(ctx, supSlug)
	if err != nil {
		return nil, nil, fromRepo("find supplier", "supplier "+supSlug, err)
	}
	product, err := l.products.FindByOwnerAndSlug(ctx, supplier.ID, productSlug)
	if err != nil {
		return nil, supplier, fromRepo("find product", "product "+productSlug, err)
	}
	return product, supplier, l.RecordScan(ctx, product.ID, storeID)
}
