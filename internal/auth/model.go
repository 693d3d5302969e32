package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSupport Role = "support"
)

// Permission keys carried in Admin.Permissions and the session token.
const (
	PermViewOrders    = "canViewOrders"
	PermViewCustomers = "canViewCustomers"
	PermViewAnalytics = "canViewAnalytics"
	PermViewAuditLog  = "canViewAuditLog"
)

// Permissions maps a capability key to whether it is granted. A missing key
// is not granted.
type Permissions map[string]bool

func (p Permissions) Has(key string) bool {
	return p[key]
}

func (p Permissions) clone() Permissions {
	out := make(Permissions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Admin is a stored administrator record.
type Admin struct {
	ID           int64       `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Role         Role        `json:"role"`
	Permissions  Permissions `json:"permissions"`
	IsActive     bool        `json:"isActive"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// ComparePassword reports whether plaintext matches the stored bcrypt hash.
func (a *Admin) ComparePassword(plaintext string) bool {
	if a == nil || a.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)) == nil
}

// Principal is the authenticated identity embedded in the session token.
type Principal struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	IsActive    bool        `json:"isActive"`
}

func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func (p *Principal) Can(permission string) bool {
	return p != nil && p.Permissions.Has(permission)
}
