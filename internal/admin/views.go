package admin

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"dinaradmin/internal/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

type navItem struct {
	Path  string
	Label string
}

// pageData feeds every template. Code is the machine-readable ?error= value
// set by the access gate; Error is a human message.
type pageData struct {
	Title       string
	Description string
	Principal   *auth.Principal
	Nav         []navItem
	Code        string
	Error       string
	Email       string
	CallbackURL string
	CSRFToken   string
}

type section struct {
	Slug        string
	Title       string
	Description string
}

// sections are the admin areas reachable from the navigation, in menu order.
var sections = []section{
	{Slug: "orders", Title: "Orders", Description: "Customer currency orders."},
	{Slug: "customers", Title: "Customers", Description: "Customer accounts and contact details."},
	{Slug: "analytics", Title: "Analytics", Description: "Sales and exchange-rate analytics."},
	{Slug: "reports", Title: "Reports", Description: "Periodic business reports."},
	{Slug: "admins", Title: "Administrators", Description: "Administrator accounts, roles and permissions."},
	{Slug: "audit", Title: "Audit Log", Description: "Administrative activity history."},
	{Slug: "system", Title: "System", Description: "System configuration."},
}

func findSection(slug string) (section, bool) {
	for _, s := range sections {
		if s.Slug == slug {
			return s, true
		}
	}
	return section{}, false
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

func render(w http.ResponseWriter, tpl *template.Template, name string, status int, data pageData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
