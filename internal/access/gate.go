package access

import (
	"errors"
	"net/url"
	"strings"

	"dinaradmin/internal/auth"
)

type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectInactive
	RedirectForbidden
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "login"
	case RedirectInactive:
		return "inactive"
	case RedirectForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Error codes placed in the redirect query string for the admin UI.
const (
	CodeInactive                = "inactive"
	CodeInsufficientPermissions = "insufficient_permissions"
)

var ErrInactive = errors.New("account inactive")

// Decision is the gate's answer for one request. Err explains a redirect and
// is nil when allowed.
type Decision struct {
	Outcome  Outcome
	Location string
	Err      error
}

// Paths names the protected area and its entry points. Login and Logout are
// always reachable so a stale session can still be replaced or cleared.
type Paths struct {
	Protected string
	Login     string
	Logout    string
	Dashboard string
}

func DefaultPaths() Paths {
	return Paths{
		Protected: "/admin",
		Login:     "/admin/login",
		Logout:    "/admin/logout",
		Dashboard: "/admin/dashboard",
	}
}

// Gate decides whether a request path may be served to a principal.
type Gate struct {
	paths Paths
	rules []Rule
}

func NewGate(paths Paths, rules []Rule) *Gate {
	return &Gate{paths: paths, rules: rules}
}

func (g *Gate) Paths() Paths {
	return g.paths
}

// Protects reports whether path falls under the protected prefix.
func (g *Gate) Protects(path string) bool {
	p := g.paths.Protected
	return path == p || strings.HasPrefix(path, p+"/")
}

// Decide evaluates path for p, where p is nil when the request carries no
// valid session. Rules are checked in order and the first failure wins.
func (g *Gate) Decide(path string, p *auth.Principal) Decision {
	if path == g.paths.Login || path == g.paths.Logout || !g.Protects(path) {
		return Decision{Outcome: Allow}
	}
	if p == nil {
		return Decision{
			Outcome:  RedirectLogin,
			Location: g.paths.Login + "?callbackUrl=" + url.QueryEscape(path),
			Err:      auth.ErrMissingToken,
		}
	}
	if !p.IsActive {
		return Decision{
			Outcome:  RedirectInactive,
			Location: g.paths.Login + "?error=" + CodeInactive,
			Err:      ErrInactive,
		}
	}
	for _, rule := range g.rules {
		if !rule.Matches(path) {
			continue
		}
		if err := rule.Check(p); err != nil {
			return Decision{
				Outcome:  RedirectForbidden,
				Location: g.paths.Dashboard + "?error=" + CodeInsufficientPermissions,
				Err:      err,
			}
		}
	}
	return Decision{Outcome: Allow}
}

// SafeCallback returns target when it is a local path under the protected
// prefix, otherwise the dashboard path.
func (g *Gate) SafeCallback(target string) string {
	if target == "" || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return g.paths.Dashboard
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || !g.Protects(u.Path) ||
		u.Path == g.paths.Login || u.Path == g.paths.Logout {
		return g.paths.Dashboard
	}
	return u.RequestURI()
}
