package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CredentialStore is the read side of the admin store used on the login path.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Admin, error)
}

var (
	// ErrInvalidCredentials is the only failure callers of Authenticate see
	// for a rejected login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInactiveAccount is recorded for audit only; Authenticate reports it
	// as ErrInvalidCredentials.
	ErrInactiveAccount = errors.New("account inactive")
	// ErrStoreUnavailable wraps credential store failures other than a miss.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// NormalizeEmail trims and lowercases an email address the way postgres
// LOWER does, so lookups agree with the unique index on LOWER(email).
func NormalizeEmail(email string) string {
	// Casers are stateful and must not be shared between goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

// decoyAdmin is compared against when there is no usable account, so a miss
// costs the same bcrypt work as a wrong password.
var decoyAdmin = sync.OnceValue(func() *Admin {
	h, err := bcrypt.GenerateFromPassword([]byte("dinaradmin-no-such-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return &Admin{PasswordHash: string(h)}
})

type Service struct {
	store   CredentialStore
	audit   AuditHook
	logger  *slog.Logger
	compare func(a *Admin, password string) bool
}

func NewService(store CredentialStore, logger *slog.Logger, audit AuditHook) *Service {
	if audit == nil {
		audit = NopAudit{}
	}
	return &Service{store: store, audit: audit, logger: logger, compare: (*Admin).ComparePassword}
}

// Authenticate verifies an email/password pair. Every rejection returns
// ErrInvalidCredentials; only store failures return something else.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	email = NormalizeEmail(email)
	p, reason := s.authenticate(ctx, email, password)
	s.audit.LoginAttempt(ctx, LoginEvent{Email: email, Success: reason == nil, Reason: reason})
	if reason == nil {
		return p, nil
	}
	if errors.Is(reason, ErrStoreUnavailable) {
		if s.logger != nil {
			s.logger.Error("authenticate", "err", reason)
		}
		return nil, reason
	}
	return nil, ErrInvalidCredentials
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*Principal, error) {
	if email == "" || password == "" {
		s.compare(decoyAdmin(), password)
		return nil, ErrInvalidCredentials
	}
	admin, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			s.compare(decoyAdmin(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	target := admin
	if admin.PasswordHash == "" {
		target = decoyAdmin()
	}
	// Every path that reaches a verdict pays for exactly one compare.
	matched := s.compare(target, password)
	if !admin.IsActive {
		return nil, ErrInactiveAccount
	}
	if !matched || admin.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	return principalFor(admin), nil
}

func principalFor(a *Admin) *Principal {
	role := a.Role
	if role == "" {
		role = RoleAdmin
	}
	perms := Permissions{}
	if a.Permissions != nil {
		perms = a.Permissions.clone()
	}
	return &Principal{
		ID:          strconv.FormatInt(a.ID, 10),
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Role:        role,
		Permissions: perms,
		IsActive:    a.IsActive,
	}
}
