package models

import (
	"time"

	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/google/uuid"
)

// ProductStatus is the lifecycle state of a product.
type ProductStatus string

const (
	ProductStatusPending  ProductStatus = "pending"
	ProductStatusAssigned ProductStatus = "assigned"
)

// MaxListEntries is how many pairings / taste notes are kept per product.
const MaxListEntries = 3

type Origin struct {
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
}

// DisplayStyle holds the card colors chosen by the supplier.
type DisplayStyle struct {
	TextColor   string `json:"textColor" bson:"text_color"`
	BodyColor   string `json:"bodyColor" bson:"body_color"`
	BorderColor string `json:"borderColor" bson:"border_color"`
}

// StoreAssignment records that a product was distributed to a store.
// StoreID is unique within a product's assignment list.
type StoreAssignment struct {
	StoreID       slug.StoreSlug `json:"storeId" bson:"store_id"`
	ScanCount     int64          `json:"scanCount" bson:"scan_count"`
	LastScannedAt *time.Time     `json:"lastScannedAt" bson:"last_scanned_at"`
}

type Product struct {
	ID              uuid.UUID         `json:"id" bson:"_id"`
	UserID          uuid.UUID         `json:"userId" bson:"user_id"`
	Name            string            `json:"name" bson:"name"`
	Slug            string            `json:"slug" bson:"slug"`
	Description     string            `json:"description" bson:"description"`
	Pairings        []string          `json:"pairings" bson:"pairings"`
	TasteNotes      []string          `json:"tasteNotes" bson:"taste_notes"`
	Origin          Origin            `json:"origin" bson:"origin"`
	Image           string            `json:"image" bson:"image"`
	BackgroundImage string            `json:"backgroundImage,omitempty" bson:"background_image,omitempty"`
	Style           DisplayStyle      `json:"style" bson:"style"`
	Status          ProductStatus     `json:"status" bson:"status"`
	Stores          []StoreAssignment `json:"stores" bson:"stores"`
	// Deprecated: LegacyScanCount is only fed by scans without store context.
	// Dashboards read the per-store counters in Stores.
	LegacyScanCount int64     `json:"legacyScanCount" bson:"legacy_scan_count"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
}

// Assignment returns the assignment for storeID, if any.
func (p *Product) Assignment(storeID slug.StoreSlug) (*StoreAssignment, bool) {
	for i := range p.Stores {
		if p.Stores[i].StoreID == storeID {
			return &p.Stores[i], true
		}
	}
	return nil, false
}

// ProductCard is the document written to
// suppliers/<supplier>/products/<product>/product.json.
type ProductCard struct {
	Name            string       `json:"name"`
	Supplier        string       `json:"supplier"`
	Description     string       `json:"description"`
	Pairings        []string     `json:"pairings"`
	TasteNotes      []string     `json:"tasteNotes"`
	Origin          Origin       `json:"origin"`
	Image           string       `json:"image"`
	BackgroundImage string       `json:"backgroundImage,omitempty"`
	Style           DisplayStyle `json:"style"`
}

// BacksideInfo is the supplier-wide content printed on the back of every card.
type BacksideInfo struct {
	Headline string `json:"headline" validate:"max=120"`
	Body     string `json:"body" validate:"max=2000"`
	Website  string `json:"website,omitempty" validate:"omitempty,url"`
}
