package middleware

import "context"

type contextKey string

const ctxPrincipal contextKey = "principal"

// Principal is the authenticated user derived from a verified bearer token.
type Principal struct {
	ID        string
	Email     string
	Name      string
	CreatedAt string
}

// DisplayName returns the profile name, falling back to the email address.
func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	if p, ok := ctx.Value(ctxPrincipal).(Principal); ok && p.ID != "" {
		return p, true
	}
	return Principal{}, false
}

// WithPrincipal injects the principal into the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}
