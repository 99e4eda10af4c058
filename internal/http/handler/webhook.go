package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/webhooks"
)

// MaxWebhookBodyBytes matches GitHub's 25 MB payload cap.
const MaxWebhookBodyBytes = 25 << 20

type WebhookProcessor interface {
	Process(ctx context.Context, req webhooks.InboundRequest) (webhooks.Result, error)
}

type WebhookHandler struct {
	processor WebhookProcessor
	logger    core.Logger
}

func NewWebhookHandler(processor WebhookProcessor, logger core.Logger) *WebhookHandler {
	return &WebhookHandler{processor: processor, logger: logger}
}

// HandleEvent acknowledges every delivery with an empty 200. Failures only reach the logs.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()
	defer c.Status(http.StatusOK)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodyBytes))
	if err != nil {
		core.LogWithLevel(ctx, h.logger, "error", "failed to read webhook body", map[string]any{
			"error": err.Error(),
		})
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for key, values := range c.Request.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	if h.processor == nil {
		core.LogWithLevel(ctx, h.logger, "error", "webhook processor is not configured", nil)
		return
	}
	result, err := h.processor.Process(ctx, webhooks.InboundRequest{
		Headers:    headers,
		Body:       body,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		core.LogWithLevel(ctx, h.logger, "error", "failed to process webhook", map[string]any{
			"delivery_id":     result.DeliveryID,
			"event":           result.Event,
			"delivery_status": result.Status,
			"error":           err.Error(),
		})
	}
}
