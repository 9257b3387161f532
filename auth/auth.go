/*
auth.go - Roster-name login with one shared password

PURPOSE:
  Staff log in with their full name as it appears in the roster plus the
  office password. Admin rights come from a configured list of names.

RULES:
  - Names compare after NormalizeName (trim, lowercase, collapse spaces)
  - Unknown name:    ErrNameNotFound (checked before the password)
  - Wrong password:  ErrIncorrectPassword
  - The password is only ever held as a bcrypt hash

SEE ALSO:
  - token.go: signed session tokens issued on success
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/timeoff"
)

var (
	ErrNameNotFound      = errors.New("name not found, enter your full name as it appears in the roster")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrUnauthenticated   = errors.New("not logged in")
	ErrForbidden         = errors.New("admin access required")
)

// EmployeeLister is the slice of the record store login needs.
type EmployeeLister interface {
	ListEmployees(ctx context.Context) ([]timeoff.Employee, error)
}

// Session is what a successful login grants.
type Session struct {
	EmployeeID generic.EntityID `json:"employeeId"`
	Name       string           `json:"name"`
	IsAdmin    bool             `json:"isAdmin"`
}

// NormalizeName trims, lowercases and collapses inner whitespace.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

type Options struct {
	Password     string
	PasswordHash string // wins over Password
	Admins       []string
	Cost         int // bcrypt cost for Password; zero means bcrypt.DefaultCost
}

type Authenticator struct {
	employees EmployeeLister
	hash      []byte
	admins    map[string]bool
}

func NewAuthenticator(employees EmployeeLister, opts Options) (*Authenticator, error) {
	hash := opts.PasswordHash
	if hash == "" {
		if opts.Password == "" {
			return nil, fmt.Errorf("password is required: %w", generic.ErrInvalidInput)
		}
		var err error
		if hash, err = HashPassword(opts.Password, opts.Cost); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	admins := make(map[string]bool, len(opts.Admins))
	for _, name := range opts.Admins {
		if n := NormalizeName(name); n != "" {
			admins[n] = true
		}
	}
	return &Authenticator{employees: employees, hash: []byte(hash), admins: admins}, nil
}

// Login checks name then password against the current roster.
func (a *Authenticator) Login(ctx context.Context, name, password string) (Session, error) {
	emps, err := a.employees.ListEmployees(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("list employees: %w", err)
	}

	needle := NormalizeName(name)
	var found *timeoff.Employee
	for i := range emps {
		if needle != "" && NormalizeName(emps[i].Name) == needle {
			found = &emps[i]
			break
		}
	}
	if found == nil {
		return Session{}, ErrNameNotFound
	}

	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return Session{}, ErrIncorrectPassword
	}

	return Session{
		EmployeeID: found.ID,
		Name:       found.Name,
		IsAdmin:    a.IsAdmin(found.Name),
	}, nil
}

// IsAdmin reports whether name is on the admin list.
func (a *Authenticator) IsAdmin(name string) bool {
	return a.admins[NormalizeName(name)]
}
