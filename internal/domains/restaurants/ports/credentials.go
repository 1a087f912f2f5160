package ports

import (
	"context"
	"errors"
	"time"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid restaurant credentials")
	ErrCredentialsExpired = errors.New("temporary credentials expired")
	// ErrMissingCredentials is returned when an approval response names no temporary password.
	ErrMissingCredentials = errors.New("approval response carried no credentials")
)

// CredentialRecord is the persisted, hashed form of issued credentials.
type CredentialRecord struct {
	RestaurantID int64
	Username     string
	PasswordHash string
	// ExpiresAt bounds the temporary password until it is first used.
	ExpiresAt *time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialStore persists credential hashes. Plaintext never reaches it.
type CredentialStore interface {
	Save(ctx context.Context, record CredentialRecord) error
	GetByUsername(ctx context.Context, username string) (*CredentialRecord, error)
	// DeleteIssued removes the restaurant's credentials only while they still hold passwordHash.
	DeleteIssued(ctx context.Context, restaurantID int64, passwordHash string) error
	MarkUsed(ctx context.Context, restaurantID int64, at time.Time) error
	// PurgeExpired removes unused temporary credentials that expired before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// CredentialIssuer generates login secrets during approval.
type CredentialIssuer interface {
	Issue(ctx context.Context, r *domain.Restaurant) (domain.Credentials, error)
	// Revoke withdraws creds if they are still the restaurant's current pair.
	Revoke(ctx context.Context, restaurantID int64, creds domain.Credentials) error
	// Verify returns the restaurant id owning the username when the password matches.
	Verify(ctx context.Context, username, password string) (int64, error)
}

// CredentialRecorder keeps a hashed copy of credentials issued elsewhere so
// that Verify accepts them.
type CredentialRecorder interface {
	Record(ctx context.Context, restaurantID int64, creds domain.Credentials) error
}

// BackendApprover is a record store that approves a pending restaurant and
// issues its login in the same call.
type BackendApprover interface {
	ApproveWithCredentials(ctx context.Context, id int64) (*restauranttypes.RestaurantProjection, domain.Credentials, error)
}
