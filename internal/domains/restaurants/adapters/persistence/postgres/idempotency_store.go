package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// DefaultIdempotencyRetention bounds how long a registration key can be replayed.
const DefaultIdempotencyRetention = 24 * time.Hour

// IdempotencyStore persists registration idempotency keys in PostgreSQL.
type IdempotencyStore struct {
	db        *gorm.DB
	retention time.Duration
}

// NewIdempotencyStore wires a PostgreSQL-backed idempotency store.
func NewIdempotencyStore(db *gorm.DB, retention time.Duration) *IdempotencyStore {
	if retention <= 0 {
		retention = DefaultIdempotencyRetention
	}
	return &IdempotencyStore{db: db, retention: retention}
}

// Get loads a live record by key, returning nil when absent or expired.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record idempotencyRecord
	err := s.db.WithContext(ctx).
		Where("key = ? AND created_at > ?", key, time.Now().UTC().Add(-s.retention)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError(err)
	}
	return toPortRecord(&record), nil
}

// Save inserts the record; if the key already exists with the same hash and restaurant it is returned,
// otherwise ErrIdempotencyConflict is returned with the stored record.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	dbRecord := toDBRecord(record)
	if err := s.db.WithContext(ctx).Create(&dbRecord).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, getErr := s.Get(ctx, record.Key)
			if getErr != nil {
				return nil, getErr
			}
			if existing == nil {
				return nil, storeError(err)
			}
			if existing.RequestHash != record.RequestHash || existing.RestaurantID != record.RestaurantID {
				return existing, ports.ErrIdempotencyConflict
			}
			return existing, nil
		}
		return nil, storeError(err)
	}
	return toPortRecord(&dbRecord), nil
}

// PurgeExpired deletes keys older than the retention window.
func (s *IdempotencyStore) PurgeExpired(ctx context.Context) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).
		Where("created_at <= ?", time.Now().UTC().Add(-s.retention)).
		Delete(&idempotencyRecord{})
	if result.Error != nil {
		return 0, storeError(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *IdempotencyStore) ensureDB() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("%w: postgres idempotency store not configured", ports.ErrUnavailable)
	}
	return nil
}

type idempotencyRecord struct {
	Key          string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash  string    `gorm:"column:request_hash;size:128"`
	RestaurantID int64     `gorm:"column:restaurant_id"`
	CreatedAt    time.Time `gorm:"column:created_at;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "restaurant_idempotency_keys" }

func toDBRecord(rec ports.IdempotencyRecord) idempotencyRecord {
	return idempotencyRecord{
		Key:          rec.Key,
		RequestHash:  rec.RequestHash,
		RestaurantID: rec.RestaurantID,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

func toPortRecord(rec *idempotencyRecord) *ports.IdempotencyRecord {
	if rec == nil {
		return nil
	}
	return &ports.IdempotencyRecord{
		Key:          rec.Key,
		RequestHash:  rec.RequestHash,
		RestaurantID: rec.RestaurantID,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
