package identity

import "context"

type sessionExemptKey struct{}

// WithoutSession marks a request context as exempt from the authenticated
// request pipeline: no Bearer attach, no proactive refresh, no 401 retry.
// Login and refresh calls use it so they can never recurse into refresh.
func WithoutSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionExemptKey{}, true)
}

// SessionExempt reports whether the context was marked by WithoutSession.
func SessionExempt(ctx context.Context) bool {
	exempt, _ := ctx.Value(sessionExemptKey{}).(bool)
	return exempt
}
