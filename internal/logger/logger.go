// Package logger provides structured logging on top of logrus.
// It sets up a JSON formatter with service-level context and provides
// trace ID propagation through context.Context.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// Init creates and returns a structured logger for the given service.
// Unknown levels fall back to info. The logger writes JSON to stdout.
func Init(service, level string) *logrus.Entry {
	return New(os.Stdout, service, level)
}

// New is Init with an explicit writer.
func New(w io.Writer, service, level string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return l.WithField("service", service)
}

// Discard returns a logger that drops everything. Used as the zero value
// for components constructed without a logger.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// WithTraceID stores a trace ID in the context for downstream propagation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from context. Returns "" if not set.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateTraceID creates a trace ID from a token and timestamp.
// Format: "{token}-{unixNano}-{uuid8}".
func GenerateTraceID(token string, ts time.Time) string {
	return fmt.Sprintf("%s-%d-%s", token, ts.UnixNano(), uuid.NewString()[:8])
}

// Fields returns logrus fields carrying the trace ID from context.
// Usage: log.WithFields(logger.Fields(ctx)).Info("msg")
func Fields(ctx context.Context) logrus.Fields {
	tid := TraceID(ctx)
	if tid == "" {
		return logrus.Fields{}
	}
	return logrus.Fields{"trace_id": tid}
}

// From returns base annotated with the trace ID from ctx.
func From(ctx context.Context, base *logrus.Entry) *logrus.Entry {
	if base == nil {
		base = Discard()
	}
	return base.WithFields(Fields(ctx))
}
