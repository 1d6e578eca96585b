package auth

import "context"

// Identity is the request-scoped authenticated caller. It is attached to the
// request context by the authentication middleware and read by handlers; no
// global session state exists.
type Identity struct {
	UserID int64
	Role   string
}

type contextKey struct{}

// WithIdentity returns a context carrying the caller's identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom extracts the caller's identity, if any, from the context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
