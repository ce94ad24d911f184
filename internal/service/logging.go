package service

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// serviceLogger derives a logger tagged with the service and operation.
func serviceLogger(base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	pairs = append(pairs, attrs...)
	return defaultLogger(base).With(pairs...)
}

// logFailure records err at a level matching its kind: rule violations
// are expected traffic and go to Info, everything else to Error.
func logFailure(ctx context.Context, logger *slog.Logger, msg string, err error) {
	kind := ErrorKind(err)
	if kind == "internal" {
		logger.ErrorContext(ctx, msg, "error", err, "error_kind", kind)
		return
	}
	logger.InfoContext(ctx, msg, "error", err, "error_kind", kind)
}
