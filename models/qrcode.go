package models

import "github.com/google/uuid"

// QRInfo is the info.json stored next to every QR code SVG. Every field but
// StoreNumber is slugified.
type QRInfo struct {
	ProductName   string `json:"productName"`
	SupplierName  string `json:"supplierName"`
	StoreUsername string `json:"storeUsername"`
	StoreName     string `json:"storeName"`
	StoreNumber   string `json:"storeNumber"`
}

// QRCode is a distributed artifact as seen by a store.
type QRCode struct {
	Key    string `json:"key"`
	SVGURL string `json:"svgUrl"`
	QRInfo
}

// PairRef names one (product, store) pair of a distribution. StoreID is
// derived from the store manager's details and is informational on input.
type PairRef struct {
	ProductID   uuid.UUID `json:"productId" validate:"required"`
	StoreUserID uuid.UUID `json:"storeUserId" validate:"required"`
	StoreID     string    `json:"storeId,omitempty"`
}
