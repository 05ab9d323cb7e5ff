// Package producer publishes telemetry events to a message broker.
package producer

import (
	"context"

	"projecthub/backend/internal/telemetry/domain"
)

// Producer emits telemetry events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	Emit(ctx context.Context, event *domain.Event) error
	// Close flushes pending writes and releases the connection. Safe to call twice.
	Close() error
}
