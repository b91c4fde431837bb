package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/boozebuddy/backend/database"
	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
)

// ProductRepositoryTestSuite runs against a real MongoDB named by
// MONGO_TEST_URL. Each run gets its own database, dropped afterwards.
type ProductRepositoryTestSuite struct {
	suite.Suite
	mongo    *database.Mongo
	products *ProductRepository
	users    *UserRepository
}

func (s *ProductRepositoryTestSuite) SetupSuite() {
	if err := godotenv.Load("../.env.test"); err != nil {
		log.Println("Warning: .env.test file not found. Using system environment variables.")
	}
	uri := os.Getenv("MONGO_TEST_URL")
	if uri == "" {
		s.T().Skip("skipping mongo repository tests; set MONGO_TEST_URL to run")
	}

	m, err := database.Connect(context.Background(), uri, fmt.Sprintf("boozebuddy_test_%d", time.Now().UnixNano()))
	if err != nil {
		s.T().Fatalf("Failed to connect to test database: %v", err)
	}
	s.mongo = m
	s.products = NewProductRepository(m.DB)
	s.users = NewUserRepository(m.DB)
	s.Require().NoError(s.products.EnsureIndexes(context.Background()))
}

func (s *ProductRepositoryTestSuite) TearDownSuite() {
	if s.mongo == nil {
		return
	}
	_ = s.mongo.DB.Drop(context.Background())
	_ = s.mongo.Close(context.Background())
}

func (s *ProductRepositoryTestSuite) BeforeTest(suiteName, testName string) {
	_, err := s.mongo.DB.Collection("products").DeleteMany(context.Background(), bson.M{})
	s.Require().NoError(err)
	_, err = s.mongo.DB.Collection("users").DeleteMany(context.Background(), bson.M{})
	s.Require().NoError(err)
}

func TestProductRepository(t *testing.T) {
	suite.Run(t, new(ProductRepositoryTestSuite))
}

func (s *ProductRepositoryTestSuite) createProduct(name string) *models.Product {
	p := &models.Product{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      name,
		Slug:      slug.Slugify(name),
		Status:    models.ProductStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.products.Create(context.Background(), p))
	return p
}

func (s *ProductRepositoryTestSuite) TestAppendStoreAssignment_SecondAppendHasNoEffect() {
	ctx := context.Background()
	p := s.createProduct("Old Oak")

	s.Require().NoError(s.products.AppendStoreAssignment(ctx, p.ID, models.StoreAssignment{StoreID: "main-st-12"}))
	s.Require().NoError(s.products.IncrementStoreScan(ctx, p.ID, "main-st-12"))

	err := s.products.AppendStoreAssignment(ctx, p.ID, models.StoreAssignment{StoreID: "main-st-12"})
	s.ErrorIs(err, ErrAlreadyAssigned)

	got, err := s.products.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.ProductStatusAssigned, got.Status)
	s.Require().Len(got.Stores, 1)
	s.Equal(int64(1), got.Stores[0].ScanCount, "a rejected append must not reset the counter")
}

func (s *ProductRepositoryTestSuite) TestAppendStoreAssignment_ProductNotFound() {
	err := s.products.AppendStoreAssignment(context.Background(), uuid.New(), models.StoreAssignment{StoreID: "main-st-12"})
	s.ErrorIs(err, ErrNotFound)
}

func (s *ProductRepositoryTestSuite) TestAppendStoreAssignment_ConcurrentDistinctStores() {
	ctx := context.Background()
	p := s.createProduct("Old Oak")

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.products.AppendStoreAssignment(ctx, p.ID, models.StoreAssignment{StoreID: slug.StoreSlug(fmt.Sprintf("store-%d", i))})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		s.NoError(err)
	}

	got, err := s.products.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Len(got.Stores, n)
}

func (s *ProductRepositoryTestSuite) TestIncrementStoreScan() {
	ctx := context.Background()
	p := s.createProduct("Old Oak")
	s.Require().NoError(s.products.AppendStoreAssignment(ctx, p.ID, models.StoreAssignment{StoreID: "main-st-12"}))
	s.Require().NoError(s.products.AppendStoreAssignment(ctx, p.ID, models.StoreAssignment{StoreID: "harbor-7"}))

	s.Require().NoError(s.products.IncrementStoreScan(ctx, p.ID, "harbor-7"))
	s.Require().NoError(s.products.IncrementStoreScan(ctx, p.ID, "harbor-7"))

	got, err := s.products.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), got.Stores[0].ScanCount)
	s.Equal(int64(2), got.Stores[1].ScanCount)
	s.NotNil(got.Stores[1].LastScannedAt)
}

func (s *ProductRepositoryTestSuite) TestIncrementStoreScan_NotAssigned() {
	ctx := context.Background()
	p := s.createProduct("Old Oak")

	err := s.products.IncrementStoreScan(ctx, p.ID, "elsewhere-9")
	s.ErrorIs(err, ErrNotAssigned)

	got, err := s.products.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Empty(got.Stores, "a rejected scan must not create an assignment")

	err = s.products.IncrementStoreScan(ctx, uuid.New(), "elsewhere-9")
	s.ErrorIs(err, ErrNotFound)
}

func (s *ProductRepositoryTestSuite) TestUserFindBySlug_PrefersName() {
	ctx := context.Background()
	users := s.mongo.DB.Collection("users")
	renamed := &models.User{ID: uuid.New(), Name: "Acme  Spirits", Email: "a@example.com", Role: models.RoleSupplier}
	stale := &models.User{ID: uuid.New(), Name: "Harbor Wines", Email: "h@example.com", Slug: "acme-spirits", Role: models.RoleSupplier}
	_, err := users.InsertOne(ctx, stale)
	s.Require().NoError(err)
	_, err = users.InsertOne(ctx, renamed)
	s.Require().NoError(err)

	got, err := s.users.FindBySlug(ctx, "acme-spirits")
	s.Require().NoError(err)
	s.Equal(renamed.ID, got.ID)

	got, err = s.users.FindBySlug(ctx, "harbor-wines")
	s.Require().NoError(err)
	s.Equal(stale.ID, got.ID)

	_, err = s.users.FindBySlug(ctx, "nobody")
	s.ErrorIs(err, ErrNotFound)
}
