package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.CredentialStore = (*CredentialStore)(nil)

// CredentialStore persists restaurant credential hashes in PostgreSQL.
type CredentialStore struct {
	db *gorm.DB
}

// NewCredentialStore wires a PostgreSQL-backed credential store. Caller owns DB lifecycle.
func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

type credentialRecord struct {
	RestaurantID int64      `gorm:"primaryKey;autoIncrement:false;column:restaurant_id"`
	Username     string     `gorm:"column:username;uniqueIndex;size:320"`
	PasswordHash string     `gorm:"column:password_hash"`
	ExpiresAt    *time.Time `gorm:"column:expires_at;index"`
	UsedAt       *time.Time `gorm:"column:used_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (credentialRecord) TableName() string { return "restaurant_credentials" }

// Save upserts the credentials keyed by restaurant id.
func (s *CredentialStore) Save(ctx context.Context, record ports.CredentialRecord) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	username := strings.ToLower(strings.TrimSpace(record.Username))
	if username == "" || record.PasswordHash == "" {
		return errors.New("username and password hash are required")
	}
	rec := credentialRecord{
		RestaurantID: record.RestaurantID,
		Username:     username,
		PasswordHash: record.PasswordHash,
		ExpiresAt:    record.ExpiresAt,
		UsedAt:       record.UsedAt,
	}
	return storeError(s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "restaurant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "password_hash", "expires_at", "used_at", "updated_at"}),
		}).
		Create(&rec).Error)
}

// GetByUsername fetches credentials by login name.
func (s *CredentialStore) GetByUsername(ctx context.Context, username string) (*ports.CredentialRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	username = strings.ToLower(strings.TrimSpace(username))
	var rec credentialRecord
	if err := s.db.WithContext(ctx).First(&rec, "username = ?", username).Error; err != nil {
		return nil, storeError(err)
	}
	return &ports.CredentialRecord{
		RestaurantID: rec.RestaurantID,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		ExpiresAt:    rec.ExpiresAt,
		UsedAt:       rec.UsedAt,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

// DeleteIssued removes a restaurant's credentials while they still hold passwordHash.
func (s *CredentialStore) DeleteIssued(ctx context.Context, restaurantID int64, passwordHash string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return storeError(s.db.WithContext(ctx).
		Delete(&credentialRecord{}, "restaurant_id = ? AND password_hash = ?", restaurantID, passwordHash).Error)
}

// MarkUsed stamps the first login and clears the temporary expiry.
func (s *CredentialStore) MarkUsed(ctx context.Context, restaurantID int64, at time.Time) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&credentialRecord{}).
		Where("restaurant_id = ?", restaurantID).
		Updates(map[string]any{
			"used_at":    gorm.Expr("COALESCE(used_at, ?)", at),
			"expires_at": nil,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// PurgeExpired removes unused credentials past their expiry. Use for housekeeping or cron.
func (s *CredentialStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).
		Where("used_at IS NULL AND expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&credentialRecord{})
	if result.Error != nil {
		return 0, storeError(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *CredentialStore) ensureDB() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("%w: postgres credential store not configured", ports.ErrUnavailable)
	}
	return nil
}
