package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("missing session token")
	ErrInvalidSession = errors.New("invalid or expired session")
)

// Claims is the session token payload. The subject carries the admin id.
type Claims struct {
	Email       string      `json:"email"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	IsActive    bool        `json:"isActive"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() *Principal {
	perms := c.Permissions
	if perms == nil {
		perms = Permissions{}
	}
	return &Principal{
		ID:          c.Subject,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Role:        c.Role,
		Permissions: perms,
		IsActive:    c.IsActive,
	}
}

// Issuer mints and verifies stateless HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) Issue(p *Principal) (string, time.Time, error) {
	if p == nil || p.ID == "" {
		return "", time.Time{}, errors.New("issue token: principal without id")
	}
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Email:       p.Email,
		Role:        p.Role,
		Permissions: p.Permissions,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		IsActive:    p.IsActive,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Decode verifies the signature and expiry of tokenStr. Any failure yields
// ErrInvalidSession and no claims.
func (i *Issuer) Decode(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
