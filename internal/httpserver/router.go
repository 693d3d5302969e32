package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"dinaradmin/internal/access"
	"dinaradmin/internal/admin"
	"dinaradmin/internal/auth"
	"dinaradmin/internal/config"
	"dinaradmin/internal/httpx"
	"dinaradmin/internal/observability"
	"dinaradmin/internal/orders"
)

const loginWindow = time.Minute

type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterParams groups the dependencies of the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *config.Config
	Gate    *access.Gate
	Issuer  *auth.Issuer
	Admin   *admin.Handler
	Orders  *orders.Handler
	Metrics *observability.Metrics
	DB      Pinger
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if p.Config.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(accessLog(p.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(p.Config.RequestTimeout))
	r.Use(secureHeaders(p.Logger, p.Config.IsProduction()))
	r.Use(p.Metrics.Middleware)
	var obs access.DecisionObserver
	if p.Metrics != nil {
		obs = p.Metrics
	}
	r.Use(access.Middleware(p.Gate, p.Issuer, p.Config.CookieName, p.Logger, obs))

	r.Get("/healthz", healthz(p.DB))

	r.Route("/orders", p.Orders.MountRoutes)
	r.Route("/admin", func(r chi.Router) {
		p.Admin.MountRoutes(r, loginLimiter(p.Config.LoginRateLimit))
	})
	return r
}

// NewMetricsRouter serves /metrics. It is meant for a separate, private
// listener so the series are not exposed next to the admin UI.
func NewMetricsRouter(m *observability.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	return r
}

// loginLimiter throttles login attempts per client address and, separately,
// per account, so neither rotating addresses nor rotating accounts escapes
// the limit.
func loginLimiter(limit int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return nil
	}
	tooMany := httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
	})
	byIP := httprate.Limit(limit, loginWindow, httprate.WithKeyFuncs(httprate.KeyByIP), tooMany)
	byAccount := httprate.Limit(limit, loginWindow, httprate.WithKeyFuncs(loginAccountKey), tooMany)
	return func(next http.Handler) http.Handler {
		return byIP(byAccount(next))
	}
}

func loginAccountKey(r *http.Request) (string, error) {
	email := auth.NormalizeEmail(r.PostFormValue("email"))
	if email == "" {
		key, err := httprate.KeyByIP(r)
		if err != nil {
			return "", err
		}
		return "ip:" + key, nil
	}
	return "account:" + email, nil
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
