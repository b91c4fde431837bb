package services

import (
	"context"
	"testing"
	"time"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLedger(products *memProducts, users ...*models.User) *Ledger {
	return NewLedger(products, &memUsers{users: users}, zap.NewNop())
}

func TestLedger_Assign_SecondCallReportsAlreadyAssigned(t *testing.T) {
	supplier := newSupplier("Acme Spirits")
	p := newProduct(supplier, "Old Oak", time.Now())
	products := newMemProducts(p)
	ledger := newTestLedger(products)
	ctx := context.Background()

	require.NoError(t, ledger.Assign(ctx, p.ID, "main-st-12"))
	err := ledger.Assign(ctx, p.ID, "main-st-12")
	assert.ErrorIs(t, err, ErrAlreadyAssigned)

	got, _ := products.FindByID(ctx, p.ID)
	require.Len(t, got.Stores, 1)
	assert.Equal(t, slug.StoreSlug("main-st-12"), got.Stores[0].StoreID)
	assert.Equal(t, int64(0), got.Stores[0].ScanCount)
	assert.Nil(t, got.Stores[0].LastScannedAt)
	assert.Equal(t, models.ProductStatusAssigned, got.Status)
}

func TestLedger_Assign_MissingProduct(t *testing.T) {
	ledger := newTestLedger(newMemProducts())
	err := ledger.Assign(context.Background(), uuid.New(), "main-st-12")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_Assign_RequiresStore(t *testing.T) {
	ledger := newTestLedger(newMemProducts())
	err := ledger.Assign(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "storeId", ve.Field)
}

func TestLedger_Assign_ConcurrentDistinctStoresAllLand(t *testing.T) {
	supplier := newSupplier("Acme Spirits")
	p := newProduct(supplier, "Old Oak", time.Now())
	products := newMemProducts(p)
	ledger := newTestLedger(products)

	stores := []slug.StoreSlug{"a-1", "b-2", "c-3", "d-4", "e-5", "f-6"}
	done := make(chan error, len(stores)*2)
	for _, s := range stores {
		for i := 0; i < 2; i++ {
			go func(s slug.StoreSlug) { done <- ledger.Assign(context.Background(), p.ID, s) }(s)
		}
	}
	already := 0
	for i := 0; i < len(stores)*2; i++ {
		if err := <-done; err != nil {
			assert.ErrorIs(t, err, ErrAlreadyAssigned)
			already++
		}
	}

	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Len(t, got.Stores, len(stores))
	assert.Equal(t, len(stores), already)
}

func TestLedger_RecordScan_IncrementsAssignment(t *testing.T) {
	supplier := newSupplier("Acme Spirits")
	p := newProduct(supplier, "Old Oak", time.Now(), assigned("s1", 4))
	products := newMemProducts(p)
	ledger := newTestLedger(products)

	require.NoError(t, ledger.RecordScan(context.Background(), p.ID, "s1"))

	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, int64(5), got.Stores[0].ScanCount)
	assert.NotNil(t, got.Stores[0].LastScannedAt)
}

func TestLedger_RecordScan_UnassignedStoreIsRejected(t *testing.T) {
	supplier := newSupplier("Acme Spirits")
	p := newProduct(supplier, "Old Oak", time.Now())
	products := newMemProducts(p)
	ledger := newTestLedger(products)

	for i := 0; i < 3; i++ {
		err := ledger.RecordScan(context.Background(), p.ID, "s1")
		assert.ErrorIs(t, err, ErrNotAssigned)
	}

	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Empty(t, got.Stores)
	assert.Equal(t, models.ProductStatusPending, got.Status)
}

func TestLedger_RecordScan_MissingProduct(t *testing.T) {
	ledger := newTestLedger(newMemProducts())
	err := ledger.RecordScan(context.Background(), uuid.New(), "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_RecordScanByName_UsesLegacyCounterOnly(t *testing.T) {
	supplier := newSupplier("Acme Spirits")
	p := newProduct(supplier, "Old Oak", time.Now(), assigned("s1", 2))
	products := newMemProducts(p)
	ledger := newTestLedger(products, supplier)

	require.NoError(t, ledger.RecordScanByName(context.Background(), "acme spirits", "OLD OAK"))

	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, int64(1), got.LegacyScanCount)
	assert.Equal(t, int64(2), got.Stores[0].ScanCount)
}

func TestLedger_RecordScanByName_UnknownSupplier(t *testing.T) {
	ledger := newTestLedger(newMemProducts())
	err := ledger.RecordScanByName(context.Background(), "nobody", "Old Oak")
	assert.ErrorIs(t, err, ErrNotFound)

	err = ledger.RecordScanByName(context.Background(), " ", "Old Oak")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLedger_RecordScanBySlugs(t *testing.T) {
	supplier := newSupplier("Acme Spirits")
	p := newProduct(supplier, "Old Oak", time.Now(), assigned("main-st-12", 0))
	products := newMemProducts(p)
	ledger := newTestLedger(products, supplier)

	product, owner, err := ledger.RecordScanBySlugs(context.Background(), "acme-spirits", "main-st-12", "old-oak")
	require.NoError(t, err)
	assert.Equal(t, p.ID, product.ID)
	assert.Equal(t, supplier.ID, owner.ID)

	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, int64(1), got.Stores[0].ScanCount)

	product, _, err = ledger.RecordScanBySlugs(context.Background(), "acme-spirits", "elsewhere-9", "old-oak")
	assert.ErrorIs(t, err, ErrNotAssigned)
	assert.NotNil(t, product, "product is still returned for rendering")
}

func TestLedger_RecordScanBySlugs_SupplierWithoutStoredSlug(t *testing.T) {
	supplier := newSupplier("Acme  Spirits")
	supplier.Slug = ""
	p := newProduct(supplier, "Old Oak", time.Now(), assigned("main-st-12", 0))
	ledger := newTestLedger(newMemProducts(p), supplier)

	product, owner, err := ledger.RecordScanBySlugs(context.Background(), "acme-spirits", "main-st-12", "old-oak")
	require.NoError(t, err)
	assert.Equal(t, p.ID, product.ID)
	assert.Equal(t, supplier.ID, owner.ID)
}
