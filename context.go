package tmauth

import (
	"context"

	"github.com/miniware/tmauth/identity"
)

// WithoutSession marks a request context as exempt from the authenticated
// request pipeline: no Bearer attach, no proactive refresh, no 401 retry.
// Use it for calls that must never trigger a refresh.
func WithoutSession(ctx context.Context) context.Context {
	return identity.WithoutSession(ctx)
}
