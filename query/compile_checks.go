package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/markawm/acme-github-issues/webhooks"
)

var _ gocmd.Querier[ListDeliveriesMessage, []webhooks.DeliveryRecord] = (*ListDeliveriesQuery)(nil)
