package testsupport

import (
	"context"
	"sync"

	glog "github.com/goliatone/go-logger/glog"
)

type LogRecord struct {
	Level   string
	Message string
	Fields  map[string]any
}

// CaptureLogger records every call so tests can assert on structured fields.
type CaptureLogger struct {
	mu      *sync.Mutex
	records *[]LogRecord
	fields  map[string]any
}

func NewCaptureLogger() *CaptureLogger {
	records := []LogRecord{}
	return &CaptureLogger{mu: &sync.Mutex{}, records: &records}
}

func (l *CaptureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *CaptureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *CaptureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *CaptureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *CaptureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *CaptureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *CaptureLogger) WithContext(context.Context) glog.Logger {
	return l
}

func (l *CaptureLogger) WithFields(fields map[string]any) glog.Logger {
	merged := map[string]any{}
	for key, value := range l.fields {
		merged[key] = value
	}
	for key, value := range fields {
		merged[key] = value
	}
	return &CaptureLogger{mu: l.mu, records: l.records, fields: merged}
}

func (l *CaptureLogger) record(level string, msg string, args ...any) {
	fields := map[string]any{}
	for key, value := range l.fields {
		fields[key] = value
	}
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, LogRecord{Level: level, Message: msg, Fields: fields})
}

func (l *CaptureLogger) Records() []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogRecord, len(*l.records))
	copy(out, *l.records)
	return out
}

// Find returns the first record with the given message.
func (l *CaptureLogger) Find(message string) (LogRecord, bool) {
	for _, record := range l.Records() {
		if record.Message == message {
			return record, true
		}
	}
	return LogRecord{}, false
}
