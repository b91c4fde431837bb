package repository

import (
	"context"
	"errors"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyAssigned is returned by AppendStoreAssignment when the store
	// is already in the product's assignment list.
	ErrAlreadyAssigned = errors.New("store already assigned")
	// ErrNotAssigned is returned by IncrementStoreScan when the product has
	// no assignment for the store.
	ErrNotAssigned = errors.New("store not assigned")
	// ErrDuplicate is returned on unique-index violations.
	ErrDuplicate = errors.New("duplicate record")
)

// ProductRepo defines the document-store operations on products.
// AppendStoreAssignment and IncrementStoreScan must be single atomic
// conditional updates.
type ProductRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Product, error)
	// FindByOwnerAndName matches the name case-insensitively and exactly.
	FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*models.Product, error)
	FindByOwnerAndSlug(ctx context.Context, ownerID uuid.UUID, productSlug string) (*models.Product, error)
	FindByStore(ctx context.Context, storeID slug.StoreSlug) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	AppendStoreAssignment(ctx context.Context, id uuid.UUID, assignment models.StoreAssignment) error
	IncrementStoreScan(ctx context.Context, id uuid.UUID, storeID slug.StoreSlug) error
	IncrementLegacyScan(ctx context.Context, id uuid.UUID) error
	EnsureIndexes(ctx context.Context) error
}

// UserRepo defines the lookups this service needs on users. User creation
// belongs to the auth service.
type UserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error)
	// FindByNameOrEmail matches name case-insensitively or email exactly.
	FindByNameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	FindBySlug(ctx context.Context, userSlug string) (*models.User, error)
	EnsureIndexes(ctx context.Context) error
}
