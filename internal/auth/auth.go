// Package auth implements explicit caller identity. There is no ambient
// session: every protected operation receives an Identity and the service
// checks ownership in application code.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tabletap/internal/domain"
)

type Role string

const (
	RoleOwner    Role = "owner"    // restaurant staff/owner session
	RoleCustomer Role = "customer" // phone-bound customer session
)

// Identity is what a verified token resolves to. Exactly one of OwnerID or
// Phone is meaningful, depending on Role.
type Identity struct {
	Role    Role
	OwnerID uuid.UUID
	Phone   string
}

type claims struct {
	Role  string `json:"role"`
	Phone string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: 24 * time.Hour}
}

func (t *Tokens) MintOwner(ownerID uuid.UUID) (string, error) {
	return t.mint(claims{
		Role: string(RoleOwner),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// MintCustomer binds a session to a phone number; the tracking feed only
// serves orders belonging to that phone's customer record.
func (t *Tokens) MintCustomer(phone string) (string, error) {
	return t.mint(claims{
		Role:  string(RoleCustomer),
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

func (t *Tokens) mint(c claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

func (t *Tokens) Verify(token string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	switch Role(c.Role) {
	case RoleOwner:
		id, err := uuid.Parse(c.Subject)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
		}
		return Identity{Role: RoleOwner, OwnerID: id}, nil
	case RoleCustomer:
		if c.Phone == "" {
			return Identity{}, fmt.Errorf("%w: missing phone", domain.ErrUnauthorized)
		}
		return Identity{Role: RoleCustomer, Phone: c.Phone}, nil
	default:
		return Identity{}, fmt.Errorf("%w: unknown role", domain.ErrUnauthorized)
	}
}

// RequireOwner checks the owns-restaurant relationship.
func RequireOwner(id Identity, r domain.Restaurant) error {
	if id.Role != RoleOwner || id.OwnerID != r.OwnerID {
		return fmt.Errorf("%w: not the restaurant owner", domain.ErrUnauthorized)
	}
	return nil
}

// RequirePhone checks the owns-phone-session relationship.
func RequirePhone(id Identity, phone string) error {
	if id.Role != RoleCustomer || id.Phone != phone {
		return fmt.Errorf("%w: phone session mismatch", domain.ErrUnauthorized)
	}
	return nil
}
