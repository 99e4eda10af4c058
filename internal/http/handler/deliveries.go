package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/internal/http/dto"
	"github.com/markawm/acme-github-issues/query"
	"github.com/markawm/acme-github-issues/webhooks"
)

type DeliveryReader interface {
	ListByKey(ctx context.Context, key string) ([]webhooks.DeliveryRecord, error)
}

type DeliveryHandler struct {
	query *query.ListDeliveriesQuery
}

// NewDeliveryHandler serves the delivery log; a nil reader answers 503.
func NewDeliveryHandler(reader DeliveryReader) *DeliveryHandler {
	if reader == nil {
		return &DeliveryHandler{}
	}
	return &DeliveryHandler{query: query.NewListDeliveriesQuery(reader)}
}

func (h *DeliveryHandler) List(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if h.query == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: dto.ErrorBody{
			Message:  "delivery log is disabled",
			TextCode: core.ErrorInternal,
		}})
		return
	}
	records, err := h.query.Query(c.Request.Context(), query.ListDeliveriesMessage{Key: key})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDeliveryListResponse(key, records))
}

func writeError(c *gin.Context, err error) {
	mapped := core.MapError(err)
	status := mapped.Code
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, dto.ErrorResponse{Error: dto.ErrorBody{
		Message:  mapped.Message,
		TextCode: mapped.TextCode,
	}})
}
