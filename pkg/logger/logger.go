// Package logger owns the process-wide zerolog configuration shared by the
// API and the workers.
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup configures the global logger. Local development gets a human-readable
// console stream at debug level; everywhere else output stays JSON for the
// log collector.
func Setup(isLocalDev bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if isLocalDev {
		level = zerolog.DebugLevel
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.SetGlobalLevel(level)
}

// EnrichContextWithLogger stores a request-scoped logger in the context,
// stamped with the active trace and span IDs so punch and email log lines can
// be correlated with their traces. Without a recording span the context is
// returned untouched.
func EnrichContextWithLogger(ctx context.Context) context.Context {
	sCtx := trace.SpanFromContext(ctx).SpanContext()
	if !sCtx.HasTraceID() {
		return ctx
	}

	l := log.With().
		Str("trace_id", sCtx.TraceID().String()).
		Str("span_id", sCtx.SpanID().String()).
		Logger()
	return l.WithContext(ctx)
}
