package httpapi

import "context"

type ctxAuthKey struct{}

// WithAuthenticated stamps ctx with the boolean "caller is authenticated"
// flag used by handlers that need to gate on it. Credential verification
// itself — token issuance, API-key CRUD — is out of scope; this is the slot
// a real auth provider plugs into.
func WithAuthenticated(ctx context.Context, authenticated bool) context.Context {
	return context.WithValue(ctx, ctxAuthKey{}, authenticated)
}

// IsAuthenticated reports whether ctx carries a truthy authenticated flag.
func IsAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(ctxAuthKey{}).(bool)
	return v
}
