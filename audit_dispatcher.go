package tmauth

import (
	"context"

	"github.com/miniware/tmauth/internal/audit"
)

// Audit event types emitted by the session client.
const (
	auditAutoLogin      = "auto_login"
	auditRegister       = "register"
	auditConflict       = "conflict_detected"
	auditMerge          = "merge"
	auditRefresh        = "refresh"
	auditLogout         = "logout"
	auditSessionExpired = "session_expired"
)

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *audit.Dispatcher {
	return audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
	}, sink)
}

// emitAudit builds and enqueues one audit event. The metadata func is lazy so
// disabled audit costs nothing beyond the nil check.
func (c *Client) emitAudit(ctx context.Context, eventType string, success bool, err error, meta func() map[string]string) {
	if c == nil || c.audit == nil {
		return
	}

	rec := c.store.Current()
	event := AuditEvent{
		Timestamp: c.now().UTC(),
		EventType: eventType,
		UserID:    rec.UserID,
		TenantID:  rec.TenantID,
		InstallID: rec.InstallID,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if meta != nil {
		event.Metadata = meta()
	}

	c.audit.Emit(ctx, event)
}
