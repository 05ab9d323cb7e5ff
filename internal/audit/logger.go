package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"projecthub/backend/internal/audit/domain"
	auditrepo "projecthub/backend/internal/audit/repository"
	"projecthub/backend/internal/telemetry"
	telemetrydomain "projecthub/backend/internal/telemetry/domain"
)

// SentinelOrgID is the org_id used for audit events that have no org (e.g. login_failure).
const SentinelOrgID = "_system"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource. Used by auth code paths.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository, an optional IP extractor
// and an optional telemetry emitter that receives a copy of every event.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	emitter     telemetry.EventEmitter
	now         func() time.Time
}

// NewLogger returns a Logger that persists to repo. ipExtractor and emitter may be nil;
// without an extractor the IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, emitter telemetry.EventEmitter) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, emitter: emitter, now: time.Now}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if got := l.ipExtractor(ctx); got != "" {
			ip = got
		}
	}
	if orgID == "" {
		orgID = SentinelOrgID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "audit: failed to log event", "action", action, "resource", resource, "error", err)
	}
	if l.emitter != nil {
		event := &telemetrydomain.Event{
			UserID:    userID,
			EventType: action,
			Source:    resource,
			CreatedAt: entry.CreatedAt,
		}
		if orgID != SentinelOrgID {
			event.OrgID = orgID
		}
		if metadata != "" {
			event.Metadata = []byte(metadata)
		}
		telemetry.EmitAsync(l.emitter, event)
	}
}
