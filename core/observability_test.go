package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu      *sync.Mutex
	records *[]capturedLog
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return l
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := map[string]any{}
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]capturedLog, len(*l.records))
	copy(out, *l.records)
	return out
}

func TestObserveOperation_Success(t *testing.T) {
	logger := newCaptureLogger()
	ObserveOperation(
		context.Background(),
		logger,
		time.Now().UTC().Add(-10*time.Millisecond),
		"Account Token",
		nil,
		map[string]any{"account": "acme-gh"},
	)

	records := logger.snapshot()
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	record := records[0]
	if record.level != "info" || record.msg != "account_token succeeded" {
		t.Fatalf("unexpected record: %#v", record)
	}
	if record.fields["status"] != "success" || record.fields["account"] != "acme-gh" {
		t.Fatalf("unexpected fields: %#v", record.fields)
	}
}

func TestObserveOperation_EnrichesStructuredErrorFields(t *testing.T) {
	logger := newCaptureLogger()
	richErr := goerrors.New("provider timeout", goerrors.CategoryExternal).
		WithCode(502).
		WithTextCode(ErrorTransportFailed)

	ObserveOperation(context.Background(), logger, time.Now().UTC(), "reconcile", richErr, nil)

	records := logger.snapshot()
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	last := records[0]
	if last.level != "error" {
		t.Fatalf("expected error level, got %q", last.level)
	}
	if last.fields["error_category"] != "external" {
		t.Fatalf("expected error_category external, got %#v", last.fields["error_category"])
	}
	if last.fields["error_text_code"] != ErrorTransportFailed {
		t.Fatalf("expected error_text_code %q, got %#v", ErrorTransportFailed, last.fields["error_text_code"])
	}
}

func TestObserveOperation_PlainErrorHasNoEnvelopeFields(t *testing.T) {
	logger := newCaptureLogger()
	ObserveOperation(context.Background(), logger, time.Now().UTC(), "", errors.New("boom"), nil)

	last := logger.snapshot()[0]
	if last.msg != "unknown failed" {
		t.Fatalf("expected unknown operation name, got %q", last.msg)
	}
	if _, ok := last.fields["error_text_code"]; ok {
		t.Fatalf("expected no text code for plain errors")
	}
}

func TestFlattenFields_SortsKeys(t *testing.T) {
	args := FlattenFields(map[string]any{"b": 2, "a": 1})
	if len(args) != 4 || args[0] != "a" || args[2] != "b" {
		t.Fatalf("expected sorted key/value args, got %#v", args)
	}
	if FlattenFields(nil) != nil {
		t.Fatalf("expected nil for empty fields")
	}
}

func TestLogWithLevel_NilLoggerIsNoop(t *testing.T) {
	LogWithLevel(context.Background(), nil, "error", "ignored", nil)
}
