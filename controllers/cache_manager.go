package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	QRCodeListCachePrefix = "qrcodes:v:"
	CacheVersionKey       = "qrcodes:version"
)

// CacheManager caches per-store QR code listings. Every distribution bumps
// the version so stale listings are never read again.
type CacheManager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCacheManager accepts a nil client, in which case every call is a miss.
func NewCacheManager(rdb *redis.Client, ttl time.Duration) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheManager{redis: rdb, ttl: ttl}
}

func (cm *CacheManager) GetQRCodes(ctx context.Context, storeID slug.StoreSlug) ([]models.QRCode, bool) {
	if cm == nil || cm.redis == nil {
		return nil, false
	}
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		return nil, false
	}
	cached, err := cm.redis.Get(ctx, cm.listKey(version, storeID)).Result()
	if err != nil {
		return nil, false
	}
	var codes []models.QRCode
	if err := json.Unmarshal([]byte(cached), &codes); err != nil {
		zap.L().Warn("Failed to unmarshal cached QR codes", zap.Error(err))
		return nil, false
	}
	return codes, true
}

// SetQRCodesAsync stores a listing in the background.
func (cm *CacheManager) SetQRCodesAsync(storeID slug.StoreSlug, codes []models.QRCode) {
	if cm == nil || cm.redis == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getCacheVersion(bgCtx)
		if err != nil {
			return
		}
		payload, err := json.Marshal(codes)
		if err != nil {
			zap.L().Warn("Failed to marshal QR codes for cache", zap.Error(err))
			return
		}
		if err := cm.redis.Set(bgCtx, cm.listKey(version, storeID), payload, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache QR codes", zap.Error(err), zap.String("store_id", storeID.String()))
		}
	}()
}

// Invalidate drops every cached listing by bumping the version.
func (cm *CacheManager) Invalidate(ctx context.Context) {
	if cm == nil || cm.redis == nil {
		return
	}
	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		zap.L().Error("Failed to invalidate QR code cache", zap.Error(err))
		return
	}
	zap.L().Info("QR code cache invalidated", zap.Int64("new_version", newVersion))
}

func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if err == redis.Nil {
		// SetNX so a concurrent Incr is never overwritten.
		if err := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return cm.redis.Get(ctx, CacheVersionKey).Int64()
	}
	if err == nil {
		err = fmt.Errorf("invalid cache version %d", ver)
	}
	return 0, err
}

func (cm *CacheManager) listKey(version int64, storeID slug.StoreSlug) string {
	return fmt.Sprintf("%s%d:store:%s", QRCodeListCachePrefix, version, storeID)
}
