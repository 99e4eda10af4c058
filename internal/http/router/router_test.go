package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/internal/http/dto"
	"github.com/markawm/acme-github-issues/internal/http/handler"
	"github.com/markawm/acme-github-issues/internal/testsupport"
	"github.com/markawm/acme-github-issues/webhooks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProcessor struct {
	calls int
	last  webhooks.InboundRequest
	err   error
}

func (s *stubProcessor) Process(_ context.Context, req webhooks.InboundRequest) (webhooks.Result, error) {
	s.calls++
	s.last = req
	return webhooks.Result{Accepted: true, StatusCode: http.StatusOK, DeliveryID: "d-1", Status: "failed"}, s.err
}

type stubReader struct {
	records []webhooks.DeliveryRecord
	err     error
}

func (s stubReader) ListByKey(context.Context, string) ([]webhooks.DeliveryRecord, error) {
	return s.records, s.err
}

func TestHealth(t *testing.T) {
	engine := New(Handlers{}, RouterConfig{})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestWebhook_PassesHeadersAndBody(t *testing.T) {
	processor := &stubProcessor{}
	engine := New(Handlers{Webhook: handler.NewWebhookHandler(processor, nil)}, RouterConfig{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"action":"opened"}`))
	req.Header.Set("X-GitHub-Event", "issues")
	req.Header.Set("X-GitHub-Delivery", "d-1")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 200, got %d %q", rec.Code, rec.Body.String())
	}
	if processor.calls != 1 {
		t.Fatalf("expected one process call, got %d", processor.calls)
	}
	if processor.last.Headers["X-Github-Event"] != "issues" {
		t.Fatalf("expected canonical header key, got %v", processor.last.Headers)
	}
	if string(processor.last.Body) != `{"action":"opened"}` {
		t.Fatalf("unexpected body %q", processor.last.Body)
	}
	if processor.last.ReceivedAt.IsZero() {
		t.Fatalf("expected receive time")
	}
}

func TestWebhook_FailureStillAcknowledged(t *testing.T) {
	logger := testsupport.NewCaptureLogger()
	processor := &stubProcessor{err: errors.New("backend down")}
	engine := New(Handlers{Webhook: handler.NewWebhookHandler(processor, logger)}, RouterConfig{
		WebhookPath: "/hooks/github",
		Logger:      logger,
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hooks/github", strings.NewReader(`{}`)))

	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 200, got %d %q", rec.Code, rec.Body.String())
	}
	record, ok := logger.Find("failed to process webhook")
	if !ok {
		t.Fatalf("expected failure log")
	}
	if record.Fields["error"] != "backend down" || record.Fields["delivery_id"] != "d-1" {
		t.Fatalf("unexpected log fields %v", record.Fields)
	}
	if _, ok := logger.Find("http request"); !ok {
		t.Fatalf("expected request log")
	}
}

func TestDeliveries_ListByKey(t *testing.T) {
	receivedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reader := stubReader{records: []webhooks.DeliveryRecord{{
		DeliveryID: "d-1",
		Event:      "issues",
		Key:        "7:I1",
		Status:     "created",
		EntityID:   "E1",
		ReceivedAt: receivedAt,
	}}}
	engine := New(Handlers{Deliveries: handler.NewDeliveryHandler(reader)}, RouterConfig{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deliveries/7:I1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body dto.DeliveryListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Key != "7:I1" || len(body.Deliveries) != 1 {
		t.Fatalf("unexpected response %+v", body)
	}
	if body.Deliveries[0].EntityID != "E1" || !body.Deliveries[0].ReceivedAt.Equal(receivedAt) {
		t.Fatalf("unexpected delivery %+v", body.Deliveries[0])
	}
}

func TestDeliveries_ErrorEnvelope(t *testing.T) {
	reader := stubReader{err: core.NewTransportError(errors.New("dial"), "db unavailable", nil)}
	engine := New(Handlers{Deliveries: handler.NewDeliveryHandler(reader)}, RouterConfig{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deliveries/7:I1", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.TextCode != core.ErrorTransportFailed {
		t.Fatalf("unexpected text code %q", body.Error.TextCode)
	}
}

func TestDeliveries_DisabledLog(t *testing.T) {
	engine := New(Handlers{Deliveries: handler.NewDeliveryHandler(nil)}, RouterConfig{})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deliveries/7:I1", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	logger := testsupport.NewCaptureLogger()
	engine := New(Handlers{}, RouterConfig{Logger: logger})
	engine.GET("/panic", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if record, ok := logger.Find("panic recovered"); !ok || record.Fields["panic"] != "boom" {
		t.Fatalf("expected panic log, got %+v", record)
	}
}
