package middleware

import "context"

type contextKey string

const (
	ctxAdmin        contextKey = "admin"
	ctxAdminSession contextKey = "admin_session"
	ctxCartSession  contextKey = "cart_session"
)

// AdminFromContext returns the authenticated admin username, if any.
func AdminFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdmin).(string); ok {
		return v
	}
	return ""
}

// AdminSessionFromContext returns the token id of the admin session serving
// the request.
func AdminSessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxAdminSession).(string)
	return v
}

func WithAdminSession(ctx context.Context, tokenID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdminSession, tokenID)
}

// CartSessionFromContext returns the cart session id minted or read by CartSession.
func CartSessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartSession).(string); ok {
		return v
	}
	return ""
}

// WithAdmin injects the admin username into the context.
func WithAdmin(ctx context.Context, username string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdmin, username)
}

// WithCartSession injects the cart session id into the context.
func WithCartSession(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartSession, sessionID)
}
