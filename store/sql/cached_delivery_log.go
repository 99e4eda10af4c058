package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/markawm/acme-github-issues/webhooks"
)

const deliveryLogCacheKeyPrefix = "acme-issues::delivery_log::v1"

// CachedDeliveryLog reads through a cache keyed by idempotency key. Writes go to the
// base log and evict the key they touch.
type CachedDeliveryLog struct {
	base  DeliveryLog
	cache repositorycache.CacheService
}

func NewCachedDeliveryLog(base DeliveryLog, cacheService repositorycache.CacheService) (*CachedDeliveryLog, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base delivery log is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: delivery log cache service is required")
	}
	return &CachedDeliveryLog{base: base, cache: cacheService}, nil
}

// DeliveryLogCacheKey is acme-issues::delivery_log::v1::<escaped key>.
func DeliveryLogCacheKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("sqlstore: idempotency key is required")
	}
	return deliveryLogCacheKeyPrefix + "::" + url.PathEscape(key), nil
}

func (c *CachedDeliveryLog) ListByKey(ctx context.Context, key string) ([]webhooks.DeliveryRecord, error) {
	if c == nil || c.base == nil || c.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached delivery log is not configured")
	}
	cacheKey, err := DeliveryLogCacheKey(key)
	if err != nil {
		return nil, err
	}
	records, err := repositorycache.GetOrFetch(ctx, c.cache, cacheKey, func(ctx context.Context) ([]webhooks.DeliveryRecord, error) {
		return c.base.ListByKey(ctx, strings.TrimSpace(key))
	})
	if err != nil {
		return nil, err
	}
	return append([]webhooks.DeliveryRecord(nil), records...), nil
}

func (c *CachedDeliveryLog) RecordDelivery(ctx context.Context, record webhooks.DeliveryRecord) error {
	if c == nil || c.base == nil || c.cache == nil {
		return fmt.Errorf("sqlstore: cached delivery log is not configured")
	}
	if err := c.base.RecordDelivery(ctx, record); err != nil {
		return err
	}
	// deliveries without a key (pings, rejected signatures) are never listed
	cacheKey, err := DeliveryLogCacheKey(record.Key)
	if err != nil {
		return nil
	}
	return c.cache.Delete(ctx, cacheKey)
}

var _ DeliveryLog = (*CachedDeliveryLog)(nil)
