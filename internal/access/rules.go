package access

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"dinaradmin/internal/auth"
)

var (
	ErrInsufficientRole       = errors.New("insufficient role")
	ErrInsufficientPermission = errors.New("insufficient permission")
)

// Rule is one entry of the ordered route table. Check is only consulted when
// Matches reports true for the request path.
type Rule interface {
	Matches(path string) bool
	Check(p *auth.Principal) error
}

// RoleRule requires the principal's role to be one of Roles.
type RoleRule struct {
	Prefix string
	Roles  []auth.Role
}

func (r RoleRule) Matches(path string) bool {
	return strings.HasPrefix(path, r.Prefix)
}

func (r RoleRule) Check(p *auth.Principal) error {
	if p.HasRole(r.Roles...) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %v", ErrInsufficientRole, r.Prefix, r.Roles)
}

// PermissionRule requires the named permission flag to be true.
type PermissionRule struct {
	Prefix     string
	Permission string
}

func (r PermissionRule) Matches(path string) bool {
	return strings.HasPrefix(path, r.Prefix)
}

func (r PermissionRule) Check(p *auth.Principal) error {
	if p.Can(r.Permission) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s", ErrInsufficientPermission, r.Prefix, r.Permission)
}

// DefaultRules is the built-in route table: admin-only prefixes, then
// manager-or-admin prefixes, then permission-keyed prefixes.
func DefaultRules() []Rule {
	adminOnly := []auth.Role{auth.RoleAdmin}
	managers := []auth.Role{auth.RoleAdmin, auth.RoleManager}
	return []Rule{
		RoleRule{Prefix: "/admin/admins", Roles: adminOnly},
		RoleRule{Prefix: "/admin/system", Roles: adminOnly},
		RoleRule{Prefix: "/admin/audit", Roles: adminOnly},

		RoleRule{Prefix: "/admin/analytics", Roles: managers},
		RoleRule{Prefix: "/admin/reports", Roles: managers},

		PermissionRule{Prefix: "/admin/orders", Permission: auth.PermViewOrders},
		PermissionRule{Prefix: "/admin/customers", Permission: auth.PermViewCustomers},
		PermissionRule{Prefix: "/admin/analytics", Permission: auth.PermViewAnalytics},
		PermissionRule{Prefix: "/admin/audit", Permission: auth.PermViewAuditLog},
	}
}

type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Prefix     string      `yaml:"prefix"`
	Roles      []auth.Role `yaml:"roles"`
	Permission string      `yaml:"permission"`
}

// LoadRules reads an ordered route table from YAML. Each entry must set
// exactly one of roles or permission.
//
//	rules:
//	  - prefix: /admin/system
//	    roles: [admin]
//	  - prefix: /admin/orders
//	    permission: canViewOrders
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	rules := make([]Rule, 0, len(rf.Rules))
	for i, e := range rf.Rules {
		if e.Prefix == "" {
			return nil, fmt.Errorf("rule %d: prefix is required", i)
		}
		switch {
		case len(e.Roles) > 0 && e.Permission != "":
			return nil, fmt.Errorf("rule %d (%s): set roles or permission, not both", i, e.Prefix)
		case len(e.Roles) > 0:
			rules = append(rules, RoleRule{Prefix: e.Prefix, Roles: e.Roles})
		case e.Permission != "":
			rules = append(rules, PermissionRule{Prefix: e.Prefix, Permission: e.Permission})
		default:
			return nil, fmt.Errorf("rule %d (%s): roles or permission is required", i, e.Prefix)
		}
	}
	return rules, nil
}
