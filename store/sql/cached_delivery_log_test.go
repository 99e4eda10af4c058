package sqlstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/markawm/acme-github-issues/webhooks"
)

type stubDeliveryLog struct {
	mu          sync.Mutex
	records     []webhooks.DeliveryRecord
	listCalls   int
	recordCalls int
	listErr     error
}

func (s *stubDeliveryLog) RecordDelivery(_ context.Context, record webhooks.DeliveryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordCalls++
	s.records = append(s.records, record)
	return nil
}

func (s *stubDeliveryLog) ListByKey(_ context.Context, key string) ([]webhooks.DeliveryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []webhooks.DeliveryRecord{}
	for _, record := range s.records {
		if record.Key == key {
			out = append(out, record)
		}
	}
	return out, nil
}

func TestCachedDeliveryLog_MissFetchThenHit(t *testing.T) {
	base := &stubDeliveryLog{records: []webhooks.DeliveryRecord{{DeliveryID: "d-1", Key: "7:I1", Status: "created"}}}
	cached, err := NewCachedDeliveryLog(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached log: %v", err)
	}

	for i := 0; i < 2; i++ {
		listed, err := cached.ListByKey(context.Background(), "7:I1")
		if err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
		if len(listed) != 1 || listed[0].DeliveryID != "d-1" {
			t.Fatalf("unexpected listing %+v", listed)
		}
	}
	if base.listCalls != 1 {
		t.Fatalf("expected second list to be a cache hit, base calls=%d", base.listCalls)
	}
}

func TestCachedDeliveryLog_RecordEvictsKey(t *testing.T) {
	base := &stubDeliveryLog{}
	cached, err := NewCachedDeliveryLog(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached log: %v", err)
	}
	ctx := context.Background()

	if listed, err := cached.ListByKey(ctx, "7:I1"); err != nil || len(listed) != 0 {
		t.Fatalf("expected empty listing, got %+v err=%v", listed, err)
	}
	if err := cached.RecordDelivery(ctx, webhooks.DeliveryRecord{DeliveryID: "d-2", Key: "7:I1", Status: "updated"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	listed, err := cached.ListByKey(ctx, "7:I1")
	if err != nil {
		t.Fatalf("list after record: %v", err)
	}
	if len(listed) != 1 || listed[0].DeliveryID != "d-2" {
		t.Fatalf("expected fresh listing after eviction, got %+v", listed)
	}
	if base.listCalls != 2 {
		t.Fatalf("expected refetch after eviction, base calls=%d", base.listCalls)
	}
}

func TestCachedDeliveryLog_RecordWithoutKey(t *testing.T) {
	base := &stubDeliveryLog{}
	cached, err := NewCachedDeliveryLog(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached log: %v", err)
	}
	if err := cached.RecordDelivery(context.Background(), webhooks.DeliveryRecord{DeliveryID: "ping", Status: "acked"}); err != nil {
		t.Fatalf("record keyless delivery: %v", err)
	}
	if base.recordCalls != 1 {
		t.Fatalf("expected base write, got %d", base.recordCalls)
	}
}

func TestCachedDeliveryLog_ErrorsAreNotCached(t *testing.T) {
	base := &stubDeliveryLog{listErr: errors.New("db down")}
	cached, err := NewCachedDeliveryLog(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached log: %v", err)
	}
	if _, err := cached.ListByKey(context.Background(), "7:I1"); err == nil {
		t.Fatalf("expected base error")
	}
	base.listErr = nil
	if _, err := cached.ListByKey(context.Background(), "7:I1"); err != nil {
		t.Fatalf("expected recovery after base error, got %v", err)
	}
	if base.listCalls != 2 {
		t.Fatalf("expected base to be retried, calls=%d", base.listCalls)
	}
}

func TestDeliveryLogCacheKey(t *testing.T) {
	key, err := DeliveryLogCacheKey(" 7:I/1 ")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if !strings.HasPrefix(key, deliveryLogCacheKeyPrefix+"::") || !strings.HasSuffix(key, "7:I%2F1") {
		t.Fatalf("unexpected cache key %q", key)
	}
	if _, err := DeliveryLogCacheKey(""); err == nil {
		t.Fatalf("expected empty key to fail")
	}
}

func TestNewCachedDeliveryLog_Dependencies(t *testing.T) {
	if _, err := NewCachedDeliveryLog(nil, newTestCacheService(t)); err == nil {
		t.Fatalf("expected missing base to fail")
	}
	if _, err := NewCachedDeliveryLog(&stubDeliveryLog{}, nil); err == nil {
		t.Fatalf("expected missing cache to fail")
	}
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
