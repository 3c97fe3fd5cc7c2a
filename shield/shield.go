// Package shield provides HTTP middleware for the shell's local API:
// security headers, body limits, and request ID tracing. The shell binds
// to loopback, but the UI layer renders remote content, so the response
// headers stay strict anyway.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxJSONBody(1 << 20))
//	r.Use(shield.RequestID)
package shield

import (
	"context"
	"log/slog"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
