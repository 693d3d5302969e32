package auth

import (
	"context"
	"log/slog"
)

// LoginEvent describes one authentication attempt. Reason is the internal
// cause of a failure and must never be shown to the person logging in.
type LoginEvent struct {
	Email   string
	Success bool
	Reason  error
}

// AuditHook observes login attempts. Implementations must not block.
type AuditHook interface {
	LoginAttempt(ctx context.Context, evt LoginEvent)
}

type NopAudit struct{}

func (NopAudit) LoginAttempt(context.Context, LoginEvent) {}

// LogAudit writes login attempts to a slog.Logger.
type LogAudit struct {
	Logger *slog.Logger
}

func (a LogAudit) LoginAttempt(ctx context.Context, evt LoginEvent) {
	if a.Logger == nil {
		return
	}
	if evt.Success {
		a.Logger.InfoContext(ctx, "login succeeded", "email", evt.Email)
		return
	}
	reason := ""
	if evt.Reason != nil {
		reason = evt.Reason.Error()
	}
	a.Logger.WarnContext(ctx, "login failed", "email", evt.Email, "reason", reason)
}

// MultiAudit fans an event out to several hooks in order.
type MultiAudit []AuditHook

func (m MultiAudit) LoginAttempt(ctx context.Context, evt LoginEvent) {
	for _, h := range m {
		if h != nil {
			h.LoginAttempt(ctx, evt)
		}
	}
}
