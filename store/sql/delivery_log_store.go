package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/markawm/acme-github-issues/webhooks"
	"github.com/uptrace/bun"
)

// DefaultDeliveryListLimit caps ListByKey results.
const DefaultDeliveryListLimit = 50

// DeliveryLog is the audit trail of processed webhook deliveries.
type DeliveryLog interface {
	webhooks.DeliveryRecorder
	ListByKey(ctx context.Context, key string) ([]webhooks.DeliveryRecord, error)
}

type DeliveryLogStore struct {
	db   *bun.DB
	repo repository.Repository[*deliveryLogRecord]
	now  func() time.Time
}

func NewDeliveryLogStore(db *bun.DB) (*DeliveryLogStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*deliveryLogRecord](db, deliveryLogHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid delivery log repository wiring: %w", err)
		}
	}
	return &DeliveryLogStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *DeliveryLogStore) RecordDelivery(ctx context.Context, record webhooks.DeliveryRecord) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: delivery log store is not configured")
	}
	status := strings.TrimSpace(record.Status)
	if status == "" {
		return fmt.Errorf("sqlstore: delivery status is required")
	}
	now := s.now()
	receivedAt := record.ReceivedAt.UTC()
	if record.ReceivedAt.IsZero() {
		receivedAt = now
	}

	_, err := s.repo.Create(ctx, &deliveryLogRecord{
		ID:             uuid.NewString(),
		DeliveryID:     strings.TrimSpace(record.DeliveryID),
		Event:          strings.TrimSpace(record.Event),
		Action:         strings.TrimSpace(record.Action),
		IdempotencyKey: strings.TrimSpace(record.Key),
		Account:        strings.TrimSpace(record.Account),
		Status:         status,
		EntityID:       strings.TrimSpace(record.EntityID),
		Error:          record.Error,
		ReceivedAt:     receivedAt,
		CreatedAt:      now,
	})
	return err
}

// ListByKey returns the newest deliveries first.
func (s *DeliveryLogStore) ListByKey(ctx context.Context, key string) ([]webhooks.DeliveryRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: delivery log store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("sqlstore: idempotency key is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("idempotency_key", "=", key),
		repository.OrderBy("received_at DESC"),
		repository.SelectPaginate(DefaultDeliveryListLimit, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]webhooks.DeliveryRecord, 0, len(records))
	for _, record := range records {
		out = append(out, deliveryLogToDomain(record))
	}
	return out, nil
}

func deliveryLogToDomain(record *deliveryLogRecord) webhooks.DeliveryRecord {
	if record == nil {
		return webhooks.DeliveryRecord{}
	}
	return webhooks.DeliveryRecord{
		DeliveryID: record.DeliveryID,
		Event:      record.Event,
		Action:     record.Action,
		Key:        record.IdempotencyKey,
		Account:    record.Account,
		Status:     record.Status,
		EntityID:   record.EntityID,
		Error:      record.Error,
		ReceivedAt: record.ReceivedAt.UTC(),
	}
}

var _ DeliveryLog = (*DeliveryLogStore)(nil)
