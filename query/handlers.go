package query

import (
	"context"
	"strings"

	"github.com/markawm/acme-github-issues/webhooks"
)

type DeliveryReader interface {
	ListByKey(ctx context.Context, key string) ([]webhooks.DeliveryRecord, error)
}

type ListDeliveriesQuery struct {
	reader DeliveryReader
}

func NewListDeliveriesQuery(reader DeliveryReader) *ListDeliveriesQuery {
	return &ListDeliveriesQuery{reader: reader}
}

func (q *ListDeliveriesQuery) Query(ctx context.Context, msg ListDeliveriesMessage) ([]webhooks.DeliveryRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: delivery reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	records, err := q.reader.ListByKey(ctx, strings.TrimSpace(msg.Key))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []webhooks.DeliveryRecord{}
	}
	return records, nil
}
