package access

import (
	"errors"
	"log/slog"
	"net/http"

	"dinaradmin/internal/auth"
)

// DecisionObserver is notified of every gate decision on a protected path.
type DecisionObserver interface {
	ObserveDecision(outcome string)
}

// Middleware resolves the session token and enforces the gate on every
// request. Allowed requests carry the principal in their context.
func Middleware(g *Gate, issuer *auth.Issuer, cookieName string, logger *slog.Logger, obs DecisionObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !g.Protects(path) {
				next.ServeHTTP(w, r)
				return
			}

			p, err := issuer.PrincipalFromRequest(r, cookieName)
			if err != nil && !errors.Is(err, auth.ErrMissingToken) && logger != nil {
				logger.Debug("rejecting session token", "path", path, "err", err)
			}

			d := g.Decide(path, p)
			if obs != nil {
				obs.ObserveDecision(d.Outcome.String())
			}
			if d.Outcome != Allow {
				if logger != nil && d.Outcome != RedirectLogin {
					logger.Info("access denied", "path", path, "outcome", d.Outcome.String(), "err", d.Err)
				}
				http.Redirect(w, r, d.Location, redirectStatus(r.Method))
				return
			}
			if p != nil {
				r = r.WithContext(auth.WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// redirectStatus keeps the method for safe requests. Anything else is sent on
// as a GET so a form body is never replayed against the login page.
func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusTemporaryRedirect
	}
	return http.StatusSeeOther
}
