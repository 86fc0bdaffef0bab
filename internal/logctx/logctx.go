// Package logctx carries the run-scoped logger through context.Context.
//
// A pipeline run starts with WithRun, which tags every line with a run_id
// and phase. Stages then add their own fields:
//
//	ctx, runID := logctx.WithRun(ctx, "ingest")
//	ctx = logctx.WithStr(ctx, "table", "sales")
//	log := logctx.FromContext(ctx)
//	log.Info().Msg("starting ingestion")
package logctx

import (
	"context"

	"github.com/eunmann/vendor-summary-db/pkg/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// loggerKey is the private key type for storing loggers in context.
type loggerKey struct{}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the logger from the context. Without one it returns
// the process logger from pkg/logging. It never returns a zero-value logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
			return logger
		}
	}
	return *logging.L()
}

// WithRun starts a pipeline run: it generates a run ID and attaches a logger
// tagged with run_id and phase.
func WithRun(ctx context.Context, phase string) (context.Context, string) {
	runID := uuid.NewString()
	logger := FromContext(ctx).With().
		Str("run_id", runID).
		Str("phase", phase).
		Logger()
	return WithLogger(ctx, logger), runID
}

// WithStr returns a new context with a logger that has the specified string field added.
func WithStr(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, logger)
}

// WithInt returns a new context with a logger that has the specified int field added.
func WithInt(ctx context.Context, key string, value int) context.Context {
	logger := FromContext(ctx).With().Int(key, value).Logger()
	return WithLogger(ctx, logger)
}
