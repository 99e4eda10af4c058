package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type deliveryLogRecord struct {
	bun.BaseModel `bun:"table:issue_delivery_log,alias:idl"`

	ID             string    `bun:"id,pk"`
	DeliveryID     string    `bun:"delivery_id,notnull"`
	Event          string    `bun:"event,notnull"`
	Action         string    `bun:"action,notnull"`
	IdempotencyKey string    `bun:"idempotency_key,notnull"`
	Account        string    `bun:"account,notnull"`
	Status         string    `bun:"status,notnull"`
	EntityID       string    `bun:"entity_id,notnull"`
	Error          string    `bun:"error,notnull"`
	ReceivedAt     time.Time `bun:"received_at,notnull"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
