package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const principalContextKey contextKey = "dinaradmin_principal"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok && p != nil
}

// TokenFromRequest returns the session token from the named cookie, falling
// back to an Authorization bearer header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// PrincipalFromRequest decodes the request's session token. It returns nil
// when the token is missing or fails verification.
func (i *Issuer) PrincipalFromRequest(r *http.Request, cookieName string) (*Principal, error) {
	claims, err := i.Decode(TokenFromRequest(r, cookieName))
	if err != nil {
		return nil, err
	}
	return claims.Principal(), nil
}
