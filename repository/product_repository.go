package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductRepository is the MongoDB-backed ProductRepo.
type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection("products"),
	}
}

var productIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "slug", Value: 1}},
		Options: options.Index().SetName("uniq_user_id_slug").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "stores.store_id", Value: 1}},
		Options: options.Index().SetName("idx_stores_store_id"),
	},
}

func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateMany(ctx, productIndexes); err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ProductRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Product, error) {
	return r.find(ctx, bson.M{"user_id": ownerID})
}

func (r *ProductRepository) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*models.Product, error) {
	filter := bson.M{
		"user_id": ownerID,
		"name":    exactInsensitive(name),
	}
	return r.findOne(ctx, filter)
}

func (r *ProductRepository) FindByOwnerAndSlug(ctx context.Context, ownerID uuid.UUID, productSlug string) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"user_id": ownerID, "slug": productSlug})
}

func (r *ProductRepository) FindByStore(ctx context.Context, storeID slug.StoreSlug) ([]*models.Product, error) {
	return r.find(ctx, bson.M{"stores.store_id": storeID})
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	// $push needs an array, never a null field.
	if product.Stores == nil {
		product.Stores = []models.StoreAssignment{}
	}
	_, err := r.collection.InsertOne(ctx, product)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// AppendStoreAssignment pushes the assignment only if no entry with the same
// store id exists, and marks the product assigned, in a single update.
func (r *ProductRepository) AppendStoreAssignment(ctx context.Context, id uuid.UUID, assignment models.StoreAssignment) error {
	filter := bson.M{
		"_id":             id,
		"stores.store_id": bson.M{"$ne": assignment.StoreID},
	}
	update := bson.M{
		"$push": bson.M{"stores": assignment},
		"$set":  bson.M{"status": models.ProductStatusAssigned},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return r.missOrConflict(ctx, id, ErrAlreadyAssigned)
}

func (r *ProductRepository) IncrementStoreScan(ctx context.Context, id uuid.UUID, storeID slug.StoreSlug) error {
	filter := bson.M{"_id": id, "stores.store_id": storeID}
	update := bson.M{
		"$inc": bson.M{"stores.$.scan_count": 1},
		"$set": bson.M{"stores.$.last_scanned_at": time.Now().UTC()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return r.missOrConflict(ctx, id, ErrNotAssigned)
}

func (r *ProductRepository) IncrementLegacyScan(ctx context.Context, id uuid.UUID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"legacy_scan_count": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// missOrConflict tells apart a conditional update that matched nothing
// because the document is gone from one whose condition failed.
func (r *ProductRepository) missOrConflict(ctx context.Context, id uuid.UUID, conflict error) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return conflict
}

func (r *ProductRepository) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, filter).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// find returns products in creation order so aggregation tie-breaks are
// stable between reads.
func (r *ProductRepository) find(ctx context.Context, filter bson.M) ([]*models.Product, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []*models.Product{}
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func exactInsensitive(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}
