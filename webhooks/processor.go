package webhooks

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/reconcile"
)

const (
	HeaderEvent    = "X-GitHub-Event"
	HeaderDelivery = "X-GitHub-Delivery"

	EventIssues = "issues"
	EventPing   = "ping"
)

// Delivery statuses recorded besides the reconcile.Status values.
const (
	DeliveryStatusIgnored  = "ignored"
	DeliveryStatusAcked    = "acked"
	DeliveryStatusRejected = "rejected"
	DeliveryStatusInvalid  = "invalid"
	DeliveryStatusFailed   = "failed"
)

type InboundRequest struct {
	Headers    map[string]string
	Body       []byte
	ReceivedAt time.Time
}

// Result is always accepted with 200; Status tells what happened to the delivery.
type Result struct {
	Accepted   bool
	StatusCode int
	DeliveryID string
	Event      string
	Status     string
	Outcome    reconcile.Outcome
}

type DeliveryRecord struct {
	DeliveryID string
	Event      string
	Action     string
	Key        string
	Account    string
	Status     string
	EntityID   string
	Error      string
	ReceivedAt time.Time
}

type Verifier interface {
	Verify(ctx context.Context, req InboundRequest) error
}

// Reconciler is satisfied by reconcile.Engine and command.DispatchReconciler.
type Reconciler interface {
	Reconcile(ctx context.Context, event reconcile.IssueEvent) (reconcile.Outcome, error)
}

type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, record DeliveryRecord) error
}

type DeliveryIDExtractor func(req InboundRequest) string

type Processor struct {
	Verifier   Verifier
	Reconciler Reconciler
	Recorder   DeliveryRecorder
	ExtractID  DeliveryIDExtractor
	Logger     core.Logger
	Now        func() time.Time
}

func NewProcessor(verifier Verifier, recorder DeliveryRecorder, reconciler Reconciler) *Processor {
	return &Processor{
		Verifier:   verifier,
		Reconciler: reconciler,
		Recorder:   recorder,
		ExtractID:  DefaultDeliveryIDExtractor,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Process handles one delivery. The returned error describes a failed delivery for
// the caller's logs; the Result is acknowledged either way.
func (p *Processor) Process(ctx context.Context, req InboundRequest) (result Result, err error) {
	result = Result{Accepted: true, StatusCode: http.StatusOK}
	if p == nil || p.Reconciler == nil {
		result.Status = DeliveryStatusFailed
		return result, core.NewDependencyError("webhooks: processor requires a reconciler")
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = p.now()
	}

	result.DeliveryID = p.extractID(req)
	result.Event = strings.ToLower(headerValue(req.Headers, HeaderEvent))
	record := DeliveryRecord{
		DeliveryID: result.DeliveryID,
		Event:      result.Event,
		ReceivedAt: req.ReceivedAt,
	}
	startedAt := time.Now().UTC()
	defer func() {
		record.Status = result.Status
		if err != nil {
			record.Error = err.Error()
		}
		p.record(ctx, record)
		core.ObserveOperation(ctx, p.Logger, startedAt, "webhook_delivery", err, map[string]any{
			"delivery_id":     result.DeliveryID,
			"event":           result.Event,
			"delivery_status": result.Status,
			"key":             record.Key,
		})
	}()

	if p.Verifier != nil {
		if verifyErr := p.Verifier.Verify(ctx, req); verifyErr != nil {
			result.Status = DeliveryStatusRejected
			return result, verifyErr
		}
	}

	switch result.Event {
	case EventIssues, "":
	case EventPing:
		result.Status = DeliveryStatusAcked
		return result, nil
	default:
		result.Status = DeliveryStatusIgnored
		return result, nil
	}

	event, err := reconcile.DecodeIssueEvent(req.Body)
	if err != nil {
		result.Status = DeliveryStatusInvalid
		return result, err
	}
	record.Action = event.Action
	record.Key = event.Key()

	outcome, err := p.Reconciler.Reconcile(ctx, event)
	result.Outcome = outcome
	record.Account = outcome.Account
	record.EntityID = outcome.EntityID
	if err != nil {
		result.Status = DeliveryStatusFailed
		return result, err
	}
	result.Status = string(outcome.Status)
	if outcomeErr := outcome.Err(); outcomeErr != nil {
		record.Error = outcomeErr.Error()
	}
	return result, nil
}

func (p *Processor) record(ctx context.Context, record DeliveryRecord) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.RecordDelivery(ctx, record); err != nil {
		core.LogWithLevel(ctx, p.Logger, "warn", "delivery log write failed", map[string]any{
			"delivery_id": record.DeliveryID,
			"error":       err.Error(),
		})
	}
}

// DefaultDeliveryIDExtractor reads X-GitHub-Delivery; absent ids are recorded as empty.
func DefaultDeliveryIDExtractor(req InboundRequest) string {
	if value := headerValue(req.Headers, HeaderDelivery); value != "" {
		return value
	}
	return headerValue(req.Headers, "x-delivery-id")
}

func (p *Processor) extractID(req InboundRequest) string {
	if p.ExtractID != nil {
		return p.ExtractID(req)
	}
	return DefaultDeliveryIDExtractor(req)
}

func (p *Processor) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func headerValue(headers map[string]string, key string) string {
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
