package internal

import "context"

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

// Principal is the authenticated account attached to a request.
type Principal struct {
	UserID string
	Email  string
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ContextPrincipalKey).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

// UserIDFromContext returns the authenticated user id or "".
func UserIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.UserID
}
