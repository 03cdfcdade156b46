// Package logging defines a minimal structured-logging interface used
// across the service layers. The record core never logs.
package logging

import "context"

// Logger is a context-aware, structured logger. Variadic args are
// key-value pairs.
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}
