package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new run identifier (UUID v4)
func GenerateTraceID() string {
	return uuid.New().String()
}

// NewRunContext tags ctx with a fresh run ID and returns both
func NewRunContext(ctx context.Context) (context.Context, string) {
	id := GenerateTraceID()
	return WithTraceID(ctx, id), id
}

// EnsureTraceID keeps an existing run ID or adds a new one
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		ctx, _ = NewRunContext(ctx)
	}
	return ctx
}

// WithComponent tags logger with the emitting package
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}

// WithOperation tags logger with a pipeline run
func WithOperation(logger *slog.Logger, operationID string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("operation_id", operationID))
}

// WithError adds the error text, or returns logger unchanged for a nil error
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}
