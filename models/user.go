package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSupplier     Role = "supplier"
	RoleStoreManager Role = "store-manager"
)

// StoreDetails is embedded in store-manager users.
type StoreDetails struct {
	StoreName   string `json:"storeName" bson:"store_name"`
	StoreNumber string `json:"storeNumber" bson:"store_number"`
	Address     string `json:"address,omitempty" bson:"address,omitempty"`
}

// User is a supplier or a store manager. Name is the slug source for every
// path derived from this user.
type User struct {
	ID           uuid.UUID     `json:"id" bson:"_id"`
	Name         string        `json:"name" bson:"name"`
	Slug         string        `json:"slug" bson:"slug"`
	Email        string        `json:"email" bson:"email"`
	PasswordHash string        `json:"-" bson:"password_hash"`
	Role         Role          `json:"role" bson:"role"`
	Store        *StoreDetails `json:"store,omitempty" bson:"store,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" bson:"created_at"`
}
