package services

import (
	"context"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/boozebuddy/backend/repository"

	"github.com/google/uuid"
)

// MissingArtifact is a ledger assignment whose SVG or info.json is absent
// from the blob store.
type MissingArtifact struct {
	ProductID uuid.UUID      `json:"productId"`
	Product   string         `json:"product"`
	StoreID   slug.StoreSlug `json:"storeId"`
	Key       string         `json:"key"`
}

// Reconciler compares the assignment ledger against the bucket. Entries it
// reports are candidates for Distributor.Repair.
type Reconciler struct {
	products repository.ProductRepo
	blobs    BlobStore
}

func NewReconciler(products repository.ProductRepo, blobs BlobStore) *Reconciler {
	return &Reconciler{products: products, blobs: blobs}
}

func (r *Reconciler) CheckSupplier(ctx context.Context, supplier *models.User) ([]MissingArtifact, error) {
	if err := checkSupplier(supplier); err != nil {
		return nil, err
	}
	products, err := r.products.FindByOwner(ctx, supplier.ID)
	if err != nil {
		return nil, fromRepo("find products", "supplier", err)
	}

	supSlug := supplierSlug(supplier)
	var missing []MissingArtifact
	for _, p := range products {
		for _, a := range p.Stores {
			for _, key := range []string{svgKey(supSlug, a.StoreID, p.Slug), infoKey(supSlug, a.StoreID, p.Slug)} {
				ok, err := r.blobs.Exists(ctx, key)
				if err != nil {
					return missing, &StorageError{Op: "exists " + key, Err: err}
				}
				if !ok {
					missing = append(missing, MissingArtifact{ProductID: p.ID, Product: p.Name, StoreID: a.StoreID, Key: key})
				}
			}
		}
	}
	return missing, nil
}
