package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

var userIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("uniq_email").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetName("idx_slug"),
	},
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []*models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) FindByNameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"name": exactInsensitive(identifier)},
		bson.M{"email": identifier},
	}}
	return r.findOne(ctx, filter)
}

// FindBySlug resolves a URL path segment to a user. Blob paths derive that
// segment from the user's name, so a name that slugifies to userSlug wins;
// the stored slug field is only a fallback since the auth service may leave
// it unset or stale after a rename.
func (r *UserRepository) FindBySlug(ctx context.Context, userSlug string) (*models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"name": slugNamePattern(userSlug)},
		bson.M{"slug": userSlug},
	}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(maxSlugCandidates))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	candidates := []*models.User{}
	if err = cursor.All(ctx, &candidates); err != nil {
		return nil, err
	}
	if u := pickBySlug(candidates, userSlug); u != nil {
		return u, nil
	}
	return nil, ErrNotFound
}

const maxSlugCandidates = 20

// slugNamePattern matches any name that could slugify to s: each hyphen may
// have been a literal hyphen or a whitespace run.
func slugNamePattern(s string) primitive.Regex {
	var b strings.Builder
	b.WriteString(`^\s*`)
	for _, part := range strings.SplitAfter(s, "-") {
		word := strings.TrimSuffix(part, "-")
		b.WriteString(regexp.QuoteMeta(word))
		if word != part {
			b.WriteString(`(?:-|\s+)`)
		}
	}
	b.WriteString(`\s*$`)
	return primitive.Regex{Pattern: b.String(), Options: "i"}
}

func pickBySlug(candidates []*models.User, userSlug string) *models.User {
	for _, u := range candidates {
		if slug.Slugify(u.Name) == userSlug {
			return u
		}
	}
	for _, u := range candidates {
		if u.Slug == userSlug {
			return u
		}
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
