package query

import (
	"strings"
)

const TypeListDeliveries = "issues.query.deliveries.list"

type ListDeliveriesMessage struct {
	Key string
}

func (ListDeliveriesMessage) Type() string { return TypeListDeliveries }

func (m ListDeliveriesMessage) Validate() error {
	if strings.TrimSpace(m.Key) == "" {
		return queryValidationError("key", "idempotency key is required")
	}
	return nil
}
