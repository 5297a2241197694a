package middleware

import (
	"context"
	"log/slog"
	"time"

	"hotelier/internal/app/commands"
	"hotelier/internal/domain/shared/fault"
)

// Logging records every command outcome. Classified failures are expected
// business outcomes and log at info; everything else is an error.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(start)}
			switch {
			case err == nil:
				logger.DebugContext(ctx, "command handled", attrs...)
			case fault.Kind(err) != nil:
				logger.InfoContext(ctx, "command rejected", append(attrs, "error", err)...)
			default:
				logger.ErrorContext(ctx, "command failed", append(attrs, "error", err)...)
			}
			return res, err
		})
	}
}
