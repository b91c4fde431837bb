package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boozebuddy/backend/models"
	awspkg "github.com/boozebuddy/backend/pkg/aws"
	"github.com/boozebuddy/backend/pkg/slug"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSignedURLTTL = time.Hour
	retrievalFanOut     = 8
)

// Retriever lists the QR codes distributed to a store.
type Retriever struct {
	blobs BlobStore
	ttl   time.Duration
	log   *zap.Logger
}

func NewRetriever(blobs BlobStore, signedURLTTL time.Duration, log *zap.Logger) *Retriever {
	if signedURLTTL <= 0 {
		signedURLTTL = DefaultSignedURLTTL
	}
	return &Retriever{blobs: blobs, ttl: signedURLTTL, log: log}
}

// ListDistributed scans every key under suppliers/ (the bucket is organized
// supplier-first, so there is no per-store index) and returns one QRCode per
// info.json under /stores/<storeSlug>/ whose SVG is also present. A pair
// with only one of its two objects is not yet fully distributed and is
// left out. Results are sorted by SVG key.
func (r *Retriever) ListDistributed(ctx context.Context, storeID slug.StoreSlug) ([]models.QRCode, error) {
	if storeID == "" {
		return nil, invalid("storeSlug", "required")
	}

	keys, err := r.blobs.List(ctx, suppliersPrefix)
	if err != nil {
		return nil, &StorageError{Op: "list artifacts", Err: err}
	}
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}

	marker := "/stores/" + storeID.String() + "/"
	var (
		mu    sync.Mutex
		byKey = make(map[string]models.QRCode)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(retrievalFanOut)
	for _, k := range keys {
		if !strings.HasSuffix(k, "/"+infoFile) || !strings.Contains(k, marker) {
			continue
		}
		metaKey := k
		svg := svgKeyForInfo(metaKey)
		if !present[svg] {
			r.log.Debug("Skipping partially distributed QR code", zap.String("key", metaKey))
			continue
		}
		g.Go(func() error {
			var info models.QRInfo
			if err := r.blobs.GetJSON(gctx, metaKey, &info); err != nil {
				if errors.Is(err, awspkg.ErrObjectNotFound) {
					return nil
				}
				if errors.Is(err, awspkg.ErrMalformedObject) {
					r.log.Warn("Skipping QR code with unreadable info.json", zap.String("key", metaKey), zap.Error(err))
					return nil
				}
				return &StorageError{Op: "read " + metaKey, Err: err}
			}
			url, err := r.blobs.SignedURL(gctx, svg, r.ttl)
			if err != nil {
				return &StorageError{Op: "sign " + svg, Err: err}
			}
			mu.Lock()
			byKey[svg] = models.QRCode{Key: svg, SVGURL: url, QRInfo: info}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.QRCode, 0, len(byKey))
	for _, code := range byKey {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
