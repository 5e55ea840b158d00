package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldInvocationID identifies one backend process run.
	FieldInvocationID = "invocation_id"
	// FieldJobID is the CUPS job number.
	FieldJobID = "job_id"
	// FieldUser is the requesting user name.
	FieldUser = "user"
	// FieldTitle is the job title as received from the scheduler.
	FieldTitle = "title"
	// FieldPath is a filesystem path being acted on.
	FieldPath = "path"
	// FieldEventType tags lines with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries an operator-facing remediation hint.
	FieldErrorHint = "error_hint"
	// FieldError is the key used by Error.
	FieldError = "error"
)

type invocationKey struct{}

// WithInvocationID returns a context carrying the invocation id.
func WithInvocationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, invocationKey{}, id)
}

// InvocationIDFromContext returns the invocation id stored by WithInvocationID.
func InvocationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(invocationKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with fields derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := InvocationIDFromContext(ctx); ok {
		return logger.With(slog.String(FieldInvocationID, id))
	}
	return logger
}
