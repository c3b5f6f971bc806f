package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const (
	loggerKey contextKey = iota
	batchKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithBatch tags the context logger with a batch run ID and remembers the ID.
func WithBatch(ctx context.Context, batchID string) context.Context {
	ctx = context.WithValue(ctx, batchKey, batchID)
	return WithField(ctx, "batch_id", batchID)
}

// BatchID returns the batch run ID stored by WithBatch.
func BatchID(ctx context.Context) string {
	if id, ok := ctx.Value(batchKey).(string); ok {
		return id
	}
	return ""
}

// WithTransform adds the running transform name to the logger.
func WithTransform(ctx context.Context, name string) context.Context {
	return WithField(ctx, "transform", name)
}

// WithObservation adds the observation identity hash to the logger.
func WithObservation(ctx context.Context, idHash string) context.Context {
	return WithField(ctx, "observation", idHash)
}
