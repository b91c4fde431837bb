package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boozebuddy/backend/models"
	awspkg "github.com/boozebuddy/backend/pkg/aws"
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/boozebuddy/backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultUploadURLTTL = 15 * time.Minute

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// CreateProductRequest is the supplier-provided part of a product.
type CreateProductRequest struct {
	Name            string              `json:"name" validate:"required,max=120"`
	Description     string              `json:"description" validate:"max=2000"`
	Pairings        []string            `json:"pairings" validate:"max=10,dive,max=80"`
	TasteNotes      []string            `json:"tasteNotes" validate:"max=10,dive,max=80"`
	Origin          models.Origin       `json:"origin"`
	Image           string              `json:"image"`
	BackgroundImage string              `json:"backgroundImage"`
	Style           models.DisplayStyle `json:"style"`
}

// ProductCardView is what the QR landing page renders.
type ProductCardView struct {
	Card     models.ProductCard   `json:"card"`
	Backside *models.BacksideInfo `json:"backside,omitempty"`
}

// PresignedUpload is a direct-to-bucket upload slot.
type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Catalog manages products and the supplier documents kept next to them in
// the bucket.
type Catalog struct {
	products  repository.ProductRepo
	blobs     BlobStore
	uploadTTL time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewCatalog(products repository.ProductRepo, blobs BlobStore, log *zap.Logger) *Catalog {
	return &Catalog{
		products:  products,
		blobs:     blobs,
		uploadTTL: DefaultUploadURLTTL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateProduct stores a pending product and writes its product.json card.
// Names are unique per supplier after slugging.
func (c *Catalog) CreateProduct(ctx context.Context, supplier *models.User, req CreateProductRequest) (*models.Product, error) {
	if err := checkSupplier(supplier); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	productSlug := slug.Slugify(name)
	if productSlug == "" {
		return nil, invalid("name", "required")
	}

	_, err := c.products.FindByOwnerAndSlug(ctx, supplier.ID, productSlug)
	switch {
	case err == nil:
		return nil, invalid("name", "a product with this name already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, &StorageError{Op: "check product name", Err: err}
	}

	product := &models.Product{
		ID:              uuid.New(),
		UserID:          supplier.ID,
		Name:            name,
		Slug:            productSlug,
		Description:     strings.TrimSpace(req.Description),
		Pairings:        keepFirst(req.Pairings, models.MaxListEntries),
		TasteNotes:      keepFirst(req.TasteNotes, models.MaxListEntries),
		Origin:          req.Origin,
		Image:           req.Image,
		BackgroundImage: req.BackgroundImage,
		Style:           req.Style,
		Status:          models.ProductStatusPending,
		Stores:          []models.StoreAssignment{},
		CreatedAt:       c.now(),
	}
	if err := c.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("name", "a product with this name already exists")
		}
		return nil, &StorageError{Op: "create product", Err: err}
	}

	if err := putJSON(ctx, c.blobs, productCardKey(supplierSlug(supplier), productSlug), cardFor(supplier, product)); err != nil {
		c.log.Error("Product stored but product.json write failed",
			zap.String("product_id", product.ID.String()), zap.Error(err))
		return product, &StorageError{Op: "write product.json", Err: err}
	}

	c.log.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("supplier_id", supplier.ID.String()),
	)
	return product, nil
}

func (c *Catalog) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := c.products.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo("find product", "product "+id.String(), err)
	}
	return p, nil
}

func (c *Catalog) ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*models.Product, error) {
	products, err := c.products.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fromRepo("list products", "products", err)
	}
	return products, nil
}

// PutBacksideInfo replaces the supplier's backsideInfo.json.
func (c *Catalog) PutBacksideInfo(ctx context.Context, supplier *models.User, info models.BacksideInfo) error {
	if err := checkSupplier(supplier); err != nil {
		return err
	}
	if err := putJSON(ctx, c.blobs, backsideInfoKey(supplierSlug(supplier)), info); err != nil {
		return &StorageError{Op: "write backsideInfo.json", Err: err}
	}
	return nil
}

// ProductCard reads product.json and, when present, backsideInfo.json.
func (c *Catalog) ProductCard(ctx context.Context, supSlug, productSlug string) (*ProductCardView, error) {
	supSlug = slug.Slugify(supSlug)
	productSlug = slug.Slugify(productSlug)

	view := &ProductCardView{}
	if err := c.blobs.GetJSON(ctx, productCardKey(supSlug, productSlug), &view.Card); err != nil {
		if errors.Is(err, awspkg.ErrObjectNotFound) {
			return nil, fmt.Errorf("product card %s/%s: %w", supSlug, productSlug, ErrNotFound)
		}
		return nil, &StorageError{Op: "read product.json", Err: err}
	}

	var backside models.BacksideInfo
	err := c.blobs.GetJSON(ctx, backsideInfoKey(supSlug), &backside)
	switch {
	case err == nil:
		view.Backside = &backside
	case !errors.Is(err, awspkg.ErrObjectNotFound):
		return nil, &StorageError{Op: "read backsideInfo.json", Err: err}
	}
	return view, nil
}

// PresignImageUpload returns a PUT URL for a product image. The object lands
// under the product's folder so it can be referenced before the product exists;
// its extension always follows contentType.
func (c *Catalog) PresignImageUpload(ctx context.Context, supplier *models.User, productName, contentType string) (*PresignedUpload, error) {
	if err := checkSupplier(supplier); err != nil {
		return nil, err
	}
	productSlug := slug.Slugify(productName)
	if productSlug == "" {
		return nil, invalid("productName", "required")
	}
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, invalid("contentType", "must be image/jpeg, image/png or image/webp")
	}

	key := productAssetPrefix(supplierSlug(supplier), productSlug) + "image-" + uuid.NewString() + ext
	url, err := c.blobs.PresignPut(ctx, key, contentType, c.uploadTTL)
	if err != nil {
		return nil, &StorageError{Op: "presign upload", Err: err}
	}
	return &PresignedUpload{UploadURL: url, Key: key, ExpiresIn: int64(c.uploadTTL.Seconds())}, nil
}

func cardFor(supplier *models.User, p *models.Product) models.ProductCard {
	return models.ProductCard{
		Name:            p.Name,
		Supplier:        supplier.Name,
		Description:     p.Description,
		Pairings:        p.Pairings,
		TasteNotes:      p.TasteNotes,
		Origin:          p.Origin,
		Image:           p.Image,
		BackgroundImage: p.BackgroundImage,
		Style:           p.Style,
	}
}

// keepFirst trims entries, drops blanks and keeps at most n.
func keepFirst(in []string, n int) []string {
	out := make([]string, 0, n)
	for _, s := range in {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if len(out) == n {
			break
		}
		out = append(out, s)
	}
	return out
}
