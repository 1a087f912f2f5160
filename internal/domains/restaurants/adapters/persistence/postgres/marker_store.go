package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.ApprovalMarkerStore = (*MarkerStore)(nil)

// MarkerStore records which restaurants have seen their approval summary.
type MarkerStore struct {
	db *gorm.DB
}

// NewMarkerStore wires a PostgreSQL-backed marker store.
func NewMarkerStore(db *gorm.DB) *MarkerStore {
	return &MarkerStore{db: db}
}

type approvalMarkerRecord struct {
	RestaurantID int64     `gorm:"primaryKey;autoIncrement:false;column:restaurant_id"`
	SeenAt       time.Time `gorm:"column:seen_at"`
}

func (approvalMarkerRecord) TableName() string { return "restaurant_approval_markers" }

// MarkSeen inserts the marker and reports whether this call created it.
func (s *MarkerStore) MarkSeen(ctx context.Context, restaurantID int64) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("%w: postgres marker store not configured", ports.ErrUnavailable)
	}
	rec := approvalMarkerRecord{RestaurantID: restaurantID, SeenAt: time.Now().UTC()}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec)
	if result.Error != nil {
		return false, storeError(result.Error)
	}
	return result.RowsAffected == 1, nil
}
