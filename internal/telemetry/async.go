package telemetry

import (
	"context"
	"log/slog"
	"time"

	"projecthub/backend/internal/telemetry/domain"
)

const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long main waits after the HTTP server stops so
// that pending EmitAsync calls can reach their sinks before exporters close.
const ShutdownDrainDuration = emitTimeout

// EmitAsync hands event to emitter on its own goroutine, detached from the
// request context and bounded by emitTimeout. Failures are logged, never returned.
// A nil emitter or event is a no-op.
func EmitAsync(emitter EventEmitter, event *domain.Event) {
	if emitter == nil || event == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			slog.Warn("event emit failed", "event_type", event.EventType, "org_id", event.OrgID, "error", err)
		}
	}()
}
