package models

import (
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/google/uuid"
)

type StoreScans struct {
	StoreID   slug.StoreSlug `json:"storeId"`
	ScanCount int64          `json:"scanCount"`
}

type ProductScans struct {
	ProductID     uuid.UUID    `json:"productId"`
	Name          string       `json:"name"`
	TotalScans    int64        `json:"totalScans"`
	PerStoreScans []StoreScans `json:"perStoreScans"`
}

// TopItem is never nil in a summary; an empty Name means "no products".
type TopItem struct {
	ProductID  uuid.UUID `json:"productId"`
	Name       string    `json:"name"`
	TotalScans int64     `json:"totalScans"`
}

type ScanSummary struct {
	Products []ProductScans `json:"products"`
	TopItem  TopItem        `json:"topItem"`
	TopStore *StoreScans    `json:"topStore"`
}
