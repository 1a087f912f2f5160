package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAdminLoginDisabled is returned when no admin credentials are configured.
	ErrAdminLoginDisabled = errors.New("admin login is not configured")
	// ErrInvalidAdminCredentials is returned for a wrong username or password.
	ErrInvalidAdminCredentials = errors.New("invalid admin credentials")
)

// AdminAuthenticator checks the single operator account configured for the portal.
type AdminAuthenticator struct {
	username     string
	passwordHash []byte
}

// NewAdminAuthenticator accepts a bcrypt hash of the admin password.
func NewAdminAuthenticator(username, passwordHash string) (*AdminAuthenticator, error) {
	username = strings.TrimSpace(username)
	passwordHash = strings.TrimSpace(passwordHash)
	if username == "" || passwordHash == "" {
		return nil, ErrAdminLoginDisabled
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, err
	}
	return &AdminAuthenticator{username: username, passwordHash: []byte(passwordHash)}, nil
}

// Authenticate returns nil when username and password match the configured account.
func (a *AdminAuthenticator) Authenticate(username, password string) error {
	if a == nil {
		return ErrAdminLoginDisabled
	}
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidAdminCredentials
	}
	return nil
}

// Username returns the configured admin account name.
func (a *AdminAuthenticator) Username() string {
	if a == nil {
		return ""
	}
	return a.username
}
