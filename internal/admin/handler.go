package admin

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"dinaradmin/internal/access"
	"dinaradmin/internal/auth"
	"dinaradmin/internal/httpx"
)

const (
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgLoginFailed        = "An error occurred during login. Please try again."
	msgFormExpired        = "Your login form has expired. Please try again."
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*auth.Principal, error)
}

// CookieConfig names the session and form token cookies. Secret signs the
// form tokens.
type CookieConfig struct {
	Name     string
	Secure   bool
	CSRFName string
	Secret   string
}

// Handler serves the login flow and the admin pages behind the access gate.
type Handler struct {
	logger    *slog.Logger
	authn     Authenticator
	issuer    *auth.Issuer
	gate      *access.Gate
	cookie    CookieConfig
	templates *template.Template
	validate  *validator.Validate
	csrf      csrfGuard
}

func NewHandler(logger *slog.Logger, authn Authenticator, issuer *auth.Issuer, gate *access.Gate, cookie CookieConfig) (*Handler, error) {
	tpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if cookie.Secret == "" {
		return nil, errors.New("admin: form token secret is required")
	}
	if cookie.CSRFName == "" {
		cookie.CSRFName = "admin_csrf"
	}
	return &Handler{
		logger:    logger,
		authn:     authn,
		issuer:    issuer,
		gate:      gate,
		cookie:    cookie,
		templates: tpl,
		validate:  validator.New(),
		csrf:      csrfGuard{secret: []byte(cookie.Secret), cookie: cookie.CSRFName, secure: cookie.Secure},
	}, nil
}

// MountRoutes registers the admin routes. loginLimiter wraps POST /login.
func (h *Handler) MountRoutes(r chi.Router, loginLimiter func(http.Handler) http.Handler) {
	if loginLimiter == nil {
		loginLimiter = func(next http.Handler) http.Handler { return next }
	}
	r.Get("/", h.index)
	r.Get("/login", h.showLogin)
	r.With(loginLimiter).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/dashboard", h.dashboard)
	r.Get("/api/session", h.session)
	r.Get("/{section}", h.section)
	r.Get("/{section}/*", h.section)
}

type loginForm struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=128"`
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.gate.Paths().Dashboard, http.StatusFound)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.renderLogin(w, r, http.StatusOK, pageData{
		Code:        q.Get("error"),
		CallbackURL: h.gate.SafeCallback(q.Get("callbackUrl")),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, pageData{Error: msgInvalidCredentials})
		return
	}
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := pageData{
		Email:       form.Email,
		CallbackURL: h.gate.SafeCallback(r.PostFormValue("callbackUrl")),
	}

	if err := h.csrf.verify(r); err != nil {
		data.Error = msgFormExpired
		h.renderLogin(w, r, http.StatusForbidden, data)
		return
	}

	// Malformed input gets the same answer as wrong credentials.
	if err := h.validate.Struct(form); err != nil {
		data.Error = msgInvalidCredentials
		h.renderLogin(w, r, http.StatusUnauthorized, data)
		return
	}

	p, err := h.authn.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			data.Error = msgInvalidCredentials
			h.renderLogin(w, r, http.StatusUnauthorized, data)
			return
		}
		h.logger.Error("login", "err", err)
		data.Error = msgLoginFailed
		h.renderLogin(w, r, http.StatusInternalServerError, data)
		return
	}

	token, exp, err := h.issuer.Issue(p)
	if err != nil {
		h.logger.Error("issue session token", "err", err, "admin", p.ID)
		data.Error = msgLoginFailed
		h.renderLogin(w, r, http.StatusInternalServerError, data)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
	})
	http.Redirect(w, r, data.CallbackURL, http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.csrf.verify(r); err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	http.Redirect(w, r, h.gate.Paths().Login, http.StatusSeeOther)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, h.gate.Paths().Login, http.StatusFound)
		return
	}
	h.renderPage(w, r, "dashboard.html", pageData{
		Title:     "Dashboard",
		Principal: p,
		Nav:       h.navFor(p),
		Code:      r.URL.Query().Get("error"),
	})
}

func (h *Handler) section(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, h.gate.Paths().Login, http.StatusFound)
		return
	}
	s, found := findSection(chi.URLParam(r, "section"))
	if !found {
		http.NotFound(w, r)
		return
	}
	h.renderPage(w, r, "section.html", pageData{
		Title:       s.Title,
		Description: s.Description,
		Principal:   p,
		Nav:         h.navFor(p),
	})
}

type sessionResponse struct {
	User    *auth.Principal `json:"user"`
	Expires time.Time       `json:"expires"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	claims, err := h.issuer.Decode(auth.TokenFromRequest(r, h.cookie.Name))
	if err != nil {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	resp := sessionResponse{User: claims.Principal()}
	if claims.ExpiresAt != nil {
		resp.Expires = claims.ExpiresAt.Time.UTC()
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// navFor lists the sections the gate would let p open.
func (h *Handler) navFor(p *auth.Principal) []navItem {
	items := make([]navItem, 0, len(sections))
	for _, s := range sections {
		path := h.gate.Paths().Protected + "/" + s.Slug
		if h.gate.Decide(path, p).Outcome == access.Allow {
			items = append(items, navItem{Path: path, Label: s.Title})
		}
	}
	return items
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.Title = "Admin Login"
	data.CSRFToken = h.csrf.ensure(w, r)
	if data.CallbackURL == "" {
		data.CallbackURL = h.gate.Paths().Dashboard
	}
	if err := render(w, h.templates, "login.html", status, data); err != nil {
		h.logger.Error("render login", "err", err)
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	data.CSRFToken = h.csrf.ensure(w, r)
	if err := render(w, h.templates, name, http.StatusOK, data); err != nil {
		h.logger.Error("render page", "err", err, "page", name)
	}
}
