package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"dinaradmin/internal/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var (
	ErrAdminNotFound  = errors.New("admin not found")
	ErrDuplicateEmail = errors.New("admin email already exists")
)

const adminColumns = `id, email, password_hash, first_name, last_name, role, permissions, is_active, created_at, updated_at`

// FindByEmail looks the admin up case-insensitively.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	q := `SELECT ` + adminColumns + ` FROM admins WHERE LOWER(email) = LOWER($1)`
	row := s.db.QueryRowContext(ctx, q, email)
	a, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return a, nil
}

type NewAdmin struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        Role
	Permissions Permissions
	IsActive    bool
}

func (s *Store) Create(ctx context.Context, in NewAdmin) (*Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = RoleAdmin
	}
	if in.Permissions == nil {
		in.Permissions = Permissions{}
	}
	perms, err := json.Marshal(in.Permissions)
	if err != nil {
		return nil, err
	}
	q := `
		INSERT INTO admins (email, password_hash, first_name, last_name, role, permissions, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + adminColumns
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, q,
		NormalizeEmail(in.Email),
		string(hash),
		in.FirstName,
		in.LastName,
		in.Role,
		string(perms),
		in.IsActive,
		now,
	)
	a, err := scanAdmin(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (*Admin, error) {
	a := &Admin{}
	var perms []byte
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.Role, &perms, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &a.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions for admin %d: %w", a.ID, err)
		}
	}
	return a, nil
}

type seedFile struct {
	Admins []struct {
		Email       string          `yaml:"email"`
		Password    string          `yaml:"password"`
		FirstName   string          `yaml:"first_name"`
		LastName    string          `yaml:"last_name"`
		Role        Role            `yaml:"role"`
		Permissions map[string]bool `yaml:"permissions"`
		Inactive    bool            `yaml:"inactive"`
	} `yaml:"admins"`
}

// SeedFromFile creates the admins listed in a YAML file. Entries whose email
// already exists are left untouched. A missing file is not an error.
func (s *Store) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	created := 0
	for _, a := range sf.Admins {
		if a.Email == "" || a.Password == "" {
			continue
		}
		if _, err := s.FindByEmail(ctx, a.Email); err == nil {
			continue
		} else if !errors.Is(err, ErrAdminNotFound) {
			return created, err
		}
		_, err := s.Create(ctx, NewAdmin{
			Email:       a.Email,
			Password:    a.Password,
			FirstName:   a.FirstName,
			LastName:    a.LastName,
			Role:        a.Role,
			Permissions: Permissions(a.Permissions),
			IsActive:    !a.Inactive,
		})
		if err != nil && !errors.Is(err, ErrDuplicateEmail) {
			return created, err
		}
		if err == nil {
			created++
		}
	}
	return created, nil
}
