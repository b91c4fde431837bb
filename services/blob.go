package services

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"
)

// BlobStore is the object-storage view the services need. Get and GetJSON
// return an error wrapping aws.ErrObjectNotFound for a missing key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	GetJSON(ctx context.Context, key string, v interface{}) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// EventPublisher publishes domain events (SNS in production).
type EventPublisher interface {
	Publish(ctx context.Context, topicArn, eventType string, payload interface{}) error
}

const (
	contentTypeSVG  = "image/svg+xml"
	contentTypeJSON = "application/json"

	suppliersPrefix = "suppliers/"
	infoFile        = "info.json"
)

// Key scheme. These strings are shared with data already in the bucket.

func productCardKey(supplierSlug, productSlug string) string {
	return suppliersPrefix + supplierSlug + "/products/" + productSlug + "/product.json"
}

func productAssetPrefix(supplierSlug, productSlug string) string {
	return suppliersPrefix + supplierSlug + "/products/" + productSlug + "/"
}

func backsideInfoKey(supplierSlug string) string {
	return suppliersPrefix + supplierSlug + "/backsideInfo.json"
}

func artifactDir(supplierSlug string, store slug.StoreSlug, productSlug string) string {
	return suppliersPrefix + supplierSlug + "/stores/" + store.String() + "/" + productSlug + "/"
}

func svgKey(supplierSlug string, store slug.StoreSlug, productSlug string) string {
	return artifactDir(supplierSlug, store, productSlug) + productSlug + ".svg"
}

func infoKey(supplierSlug string, store slug.StoreSlug, productSlug string) string {
	return artifactDir(supplierSlug, store, productSlug) + infoFile
}

// svgKeyForInfo derives the SVG key that sits next to an info.json key.
func svgKeyForInfo(key string) string {
	dir := strings.TrimSuffix(key, infoFile)
	return dir + path.Base(dir) + ".svg"
}

// qrTargetURL is the landing page a printed QR code opens.
func qrTargetURL(baseURL, supplierSlug string, store slug.StoreSlug, productSlug string) string {
	return strings.TrimRight(baseURL, "/") + "/store/products/" + supplierSlug + "/" + store.String() + "/" + productSlug
}

// supplierSlug is the path segment for a user. Name is the slug source;
// the stored Slug is only used for lookups.
func supplierSlug(u *models.User) string {
	return slug.Slugify(u.Name)
}

func putJSON(ctx context.Context, blobs BlobStore, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return blobs.Put(ctx, key, data, contentTypeJSON)
}
