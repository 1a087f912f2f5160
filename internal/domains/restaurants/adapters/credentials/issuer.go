// Package credentials issues and verifies restaurant login secrets.
package credentials

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

const (
	// PasswordLength is the length of generated temporary passwords.
	PasswordLength = 12
	// DefaultTTL bounds how long an unused temporary password stays valid.
	DefaultTTL = 72 * time.Hour
	// alphabet omits look-alike characters (0/O, 1/l/I).
	alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%*"
)

var (
	_ ports.CredentialIssuer   = (*Issuer)(nil)
	_ ports.CredentialRecorder = (*Issuer)(nil)
)

// Issuer generates temporary passwords and stores only their bcrypt hash.
type Issuer struct {
	store ports.CredentialStore
	ttl   time.Duration
	cost  int
	now   func() time.Time
}

// Option customizes the issuer.
type Option func(*Issuer)

// WithTTL sets the temporary password lifetime; zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl >= 0 {
			i.ttl = ttl
		}
	}
}

// WithCost sets the bcrypt cost.
func WithCost(cost int) Option {
	return func(i *Issuer) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			i.cost = cost
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer wires an issuer around a credential store.
func NewIssuer(store ports.CredentialStore, opts ...Option) *Issuer {
	i := &Issuer{store: store, ttl: DefaultTTL, cost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Issue creates a fresh credential pair for r, replacing any earlier one.
func (i *Issuer) Issue(ctx context.Context, r *domain.Restaurant) (domain.Credentials, error) {
	if r == nil {
		return domain.Credentials{}, errors.New("restaurant is nil")
	}
	password, err := GeneratePassword(PasswordLength)
	if err != nil {
		return domain.Credentials{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), i.cost)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("hash temporary password: %w", err)
	}
	creds := domain.Credentials{Username: r.LoginUsername(), TemporaryPassword: password}
	record := ports.CredentialRecord{
		RestaurantID: r.ID,
		Username:     creds.Username,
		PasswordHash: string(hash),
	}
	if i.ttl > 0 {
		expires := i.now().Add(i.ttl)
		record.ExpiresAt = &expires
		creds.ExpiresAt = expires
	}
	if err := i.store.Save(ctx, record); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

// Record stores the hash of credentials another system issued, keeping their
// expiry or applying the issuer TTL when they carry none.
func (i *Issuer) Record(ctx context.Context, restaurantID int64, creds domain.Credentials) error {
	if creds.Username == "" || creds.TemporaryPassword == "" {
		return fmt.Errorf("%w: restaurant %d", ports.ErrMissingCredentials, restaurantID)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.TemporaryPassword), i.cost)
	if err != nil {
		return fmt.Errorf("hash temporary password: %w", err)
	}
	record := ports.CredentialRecord{
		RestaurantID: restaurantID,
		Username:     creds.Username,
		PasswordHash: string(hash),
	}
	switch {
	case !creds.ExpiresAt.IsZero():
		expires := creds.ExpiresAt
		record.ExpiresAt = &expires
	case i.ttl > 0:
		expires := i.now().Add(i.ttl)
		record.ExpiresAt = &expires
	}
	return i.store.Save(ctx, record)
}

// Revoke deletes creds when they are still the pair stored for restaurantID.
// A newer pair issued in the meantime is left untouched.
func (i *Issuer) Revoke(ctx context.Context, restaurantID int64, creds domain.Credentials) error {
	record, err := i.store.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil
		}
		return err
	}
	if record.RestaurantID != restaurantID {
		return nil
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(creds.TemporaryPassword)) != nil {
		return nil
	}
	return i.store.DeleteIssued(ctx, restaurantID, record.PasswordHash)
}

// Verify checks a username/password pair and marks the temporary password as used.
func (i *Issuer) Verify(ctx context.Context, username, password string) (int64, error) {
	record, err := i.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return 0, ports.ErrInvalidCredentials
		}
		return 0, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return 0, ports.ErrInvalidCredentials
	}
	now := i.now()
	if record.UsedAt == nil && record.ExpiresAt != nil && now.After(*record.ExpiresAt) {
		return 0, ports.ErrCredentialsExpired
	}
	if record.UsedAt == nil {
		if err := i.store.MarkUsed(ctx, record.RestaurantID, now); err != nil {
			return 0, err
		}
	}
	return record.RestaurantID, nil
}

// GeneratePassword returns n characters drawn uniformly from the issuer alphabet.
func GeneratePassword(n int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for idx := range out {
		v, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate temporary password: %w", err)
		}
		out[idx] = alphabet[v.Int64()]
	}
	return string(out), nil
}
