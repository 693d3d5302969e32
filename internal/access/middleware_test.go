package access

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinaradmin/internal/auth"
	"dinaradmin/internal/logging"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	cookieName = "admin_session"
)

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveDecision(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func newTestHandler(t *testing.T, obs DecisionObserver) (http.Handler, *auth.Issuer) {
	t.Helper()
	issuer := auth.NewIssuer(testSecret, time.Hour)
	gate := NewGate(DefaultPaths(), DefaultRules())
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := auth.PrincipalFromContext(r.Context()); ok {
			w.Header().Set("X-Principal", p.ID)
		}
		w.WriteHeader(http.StatusOK)
	})
	return Middleware(gate, issuer, cookieName, logging.Discard(), obs)(final), issuer
}

func serve(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func issue(t *testing.T, iss *auth.Issuer, p *auth.Principal) string {
	t.Helper()
	tok, _, err := iss.Issue(p)
	require.NoError(t, err)
	return tok
}

func TestMiddlewareLoginPageIsReachable(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := serve(h, "/admin/login", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareRedirectsWithoutToken(t *testing.T) {
	obs := &recordingObserver{}
	h, _ := newTestHandler(t, obs)

	rec := serve(h, "/admin/orders", "")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/admin/login?callbackUrl=%2Fadmin%2Forders", rec.Header().Get("Location"))
	assert.Equal(t, []string{"login"}, obs.outcomes)
}

func TestMiddlewareTreatsTamperedTokenAsMissing(t *testing.T) {
	h, iss := newTestHandler(t, nil)
	tok := issue(t, iss, principal(auth.RoleAdmin, allPerms()))

	rec := serve(h, "/admin/dashboard", tamper(tok))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/admin/login?callbackUrl=")
}

// tamper flips one character inside the signature segment.
func tamper(tok string) string {
	b := []byte(tok)
	i := len(b) - 10
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestMiddlewareScenarios(t *testing.T) {
	h, iss := newTestHandler(t, nil)

	manager := issue(t, iss, principal(auth.RoleManager, allPerms()))
	rec := serve(h, "/admin/system", manager)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/admin/dashboard?error=insufficient_permissions", rec.Header().Get("Location"))

	inactive := principal(auth.RoleAdmin, allPerms())
	inactive.IsActive = false
	rec = serve(h, "/admin/dashboard", issue(t, iss, inactive))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/admin/login?error=inactive", rec.Header().Get("Location"))

	noOrders := issue(t, iss, principal(auth.RoleAdmin, auth.Permissions{auth.PermViewOrders: false}))
	rec = serve(h, "/admin/orders", noOrders)
	assert.Equal(t, "/admin/dashboard?error=insufficient_permissions", rec.Header().Get("Location"))

	withOrders := issue(t, iss, principal(auth.RoleAdmin, auth.Permissions{auth.PermViewOrders: true}))
	rec = serve(h, "/admin/orders", withOrders)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Principal"))
}

func TestMiddlewareIgnoresUnprotectedPaths(t *testing.T) {
	obs := &recordingObserver{}
	h, _ := newTestHandler(t, obs)

	rec := serve(h, "/orders", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, obs.outcomes)
}

func TestMiddlewareRedirectsPostsAsGet(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/orders", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login?callbackUrl=%2Fadmin%2Forders", rec.Header().Get("Location"))
}

func TestMiddlewareLetsLogoutThroughWithStaleSession(t *testing.T) {
	obs := &recordingObserver{}
	h, iss := newTestHandler(t, obs)
	tok := issue(t, iss, principal(auth.RoleAdmin, allPerms()))

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: tamper(tok)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"allow"}, obs.outcomes)
}
