package middleware

import "context"

type contextKey string

const (
	ctxUsername contextKey = "username"
	ctxIsAdmin  contextKey = "is_admin"
)

// UsernameFromContext returns the authenticated caller's username, or "".
func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUsername).(string); ok {
		return v
	}
	return ""
}

func IsAdminFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(ctxIsAdmin).(bool)
	return v
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, username string, isAdmin bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUsername, username)
	return context.WithValue(ctx, ctxIsAdmin, isAdmin)
}
