package services

import (
	"context"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/boozebuddy/backend/repository"

	"github.com/google/uuid"
)

// Aggregator reduces the ledger into dashboard summaries.
type Aggregator struct {
	products repository.ProductRepo
}

func NewAggregator(products repository.ProductRepo) *Aggregator {
	return &Aggregator{products: products}
}

// SummarizeSupplier summarizes every product owned by ownerID.
func (a *Aggregator) SummarizeSupplier(ctx context.Context, ownerID uuid.UUID) (*models.ScanSummary, error) {
	products, err := a.load(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}
	summary := Summarize(products)
	return &summary, nil
}

// SummarizeStore is the store-scoped view: each product's total is its count
// at storeID alone. With ownerID == uuid.Nil the product set is every product
// assigned to the store, across suppliers.
func (a *Aggregator) SummarizeStore(ctx context.Context, ownerID uuid.UUID, storeID slug.StoreSlug) (*models.ScanSummary, error) {
	if storeID == "" {
		return nil, invalid("storeId", "required")
	}
	products, err := a.load(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	summary := SummarizeForStore(products, storeID)
	return &summary, nil
}

// ListPerProductScans is the flat per-product listing without the top-N
// derivations.
func (a *Aggregator) ListPerProductScans(ctx context.Context, ownerID uuid.UUID) ([]models.ProductScans, error) {
	products, err := a.load(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}
	return perProductScans(products, nil), nil
}

func (a *Aggregator) load(ctx context.Context, ownerID uuid.UUID, storeID slug.StoreSlug) ([]*models.Product, error) {
	var (
		products []*models.Product
		err      error
	)
	switch {
	case ownerID != uuid.Nil:
		products, err = a.products.FindByOwner(ctx, ownerID)
	case storeID != "":
		products, err = a.products.FindByStore(ctx, storeID)
	default:
		return nil, invalid("ownerId", "required")
	}
	if err != nil {
		return nil, fromRepo("load products", "products", err)
	}
	return products, nil
}

// Summarize computes per-product totals, the top item and the top store
// over products in the given order.
func Summarize(products []*models.Product) models.ScanSummary {
	return summarize(perProductScans(products, nil))
}

// SummarizeForStore filters every product down to its assignment at storeID
// before totals are computed.
func SummarizeForStore(products []*models.Product, storeID slug.StoreSlug) models.ScanSummary {
	return summarize(perProductScans(products, &storeID))
}

func perProductScans(products []*models.Product, only *slug.StoreSlug) []models.ProductScans {
	rows := make([]models.ProductScans, 0, len(products))
	for _, p := range products {
		row := models.ProductScans{
			ProductID:     p.ID,
			Name:          p.Name,
			PerStoreScans: []models.StoreScans{},
		}
		for _, a := range p.Stores {
			if only != nil && a.StoreID != *only {
				continue
			}
			row.PerStoreScans = append(row.PerStoreScans, models.StoreScans{StoreID: a.StoreID, ScanCount: a.ScanCount})
			row.TotalScans += a.ScanCount
		}
		rows = append(rows, row)
	}
	return rows
}

// summarize picks the top item (first wins on ties) and the top store by
// running sum (first encountered wins on ties, nil when nothing was scanned).
func summarize(rows []models.ProductScans) models.ScanSummary {
	summary := models.ScanSummary{Products: rows}

	for i, row := range rows {
		if i == 0 || row.TotalScans > summary.TopItem.TotalScans {
			summary.TopItem = models.TopItem{ProductID: row.ProductID, Name: row.Name, TotalScans: row.TotalScans}
		}
	}

	totals := make(map[slug.StoreSlug]int64)
	var order []slug.StoreSlug
	for _, row := range rows {
		for _, s := range row.PerStoreScans {
			if _, seen := totals[s.StoreID]; !seen {
				order = append(order, s.StoreID)
			}
			totals[s.StoreID] += s.ScanCount
		}
	}
	var best int64
	for _, id := range order {
		if totals[id] > best {
			best = totals[id]
			summary.TopStore = &models.StoreScans{StoreID: id, ScanCount: best}
		}
	}
	return summary
}
