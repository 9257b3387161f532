package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marinaops/staffdesk/generic"
)

// =============================================================================
// SESSION TOKENS - HS256 JWTs carrying the Session
// =============================================================================

type claims struct {
	EmployeeID string `json:"eid"`
	Name       string `json:"name"`
	IsAdmin    bool   `json:"adm"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	ttl    time.Duration

	// Clock defaults to time.Now. Used for issuing and for expiry checks.
	Clock func() time.Time
}

// NewTokens returns a signer. An empty secret draws a random one.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
	}
	return &Tokens{secret: key, ttl: ttl, Clock: time.Now}, nil
}

// Issue signs s with the configured lifetime.
func (t *Tokens) Issue(s Session) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	c := claims{
		EmployeeID: s.EmployeeID.String(),
		Name:       s.Name,
		IsAdmin:    s.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.EmployeeID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies the signature and expiry. Any failure is ErrUnauthenticated.
func (t *Tokens) Parse(token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (interface{}, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return Session{
		EmployeeID: generic.EntityID(c.EmployeeID),
		Name:       c.Name,
		IsAdmin:    c.IsAdmin,
	}, nil
}

func (t *Tokens) now() time.Time {
	if t.Clock == nil {
		return time.Now()
	}
	return t.Clock()
}
