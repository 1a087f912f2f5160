package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.RestaurantStatusStore = (*StatusStore)(nil)

// StatusStore persists restaurants and their lifecycle status in PostgreSQL using GORM.
type StatusStore struct {
	db *gorm.DB
}

// NewStatusStore wires a PostgreSQL-backed store. Caller manages DB lifecycle and schema.
func NewStatusStore(db *gorm.DB) *StatusStore {
	return &StatusStore{db: db}
}

type restaurantRecord struct {
	ID              int64              `gorm:"primaryKey;column:id"`
	Name            string             `gorm:"column:name"`
	Description     string             `gorm:"column:description"`
	Cuisines        pq.StringArray     `gorm:"column:cuisines;type:text[]"`
	EstablishedYear int                `gorm:"column:established_year"`
	Address         string             `gorm:"column:address"`
	City            string             `gorm:"column:city"`
	State           string             `gorm:"column:state"`
	Zip             string             `gorm:"column:zip;size:16"`
	Phone           string             `gorm:"column:phone;size:32"`
	ContactPerson   string             `gorm:"column:contact_person"`
	Email           string             `gorm:"column:email;index"`
	Website         string             `gorm:"column:website"`
	PriceTier       string             `gorm:"column:price_tier;size:8"`
	DeliveryFee     float64            `gorm:"column:delivery_fee"`
	MinimumOrder    float64            `gorm:"column:minimum_order"`
	PrepTimeMinutes int                `gorm:"column:prep_time_minutes"`
	Hours           domain.WeeklyHours `gorm:"column:hours;type:jsonb;serializer:json"`
	MenuItems       []domain.MenuItem  `gorm:"column:menu_items;type:jsonb;serializer:json"`
	Status          string             `gorm:"column:status;type:varchar(32);index"`
	Username        string             `gorm:"column:username"`
	CreatedAt       time.Time          `gorm:"column:created_at"`
	UpdatedAt       time.Time          `gorm:"column:updated_at"`
}

func (restaurantRecord) TableName() string { return "restaurants" }

// Create inserts a restaurant; a zero id lets the database assign one.
func (s *StatusStore) Create(ctx context.Context, r *domain.Restaurant) (*restauranttypes.RestaurantProjection, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("restaurant is nil")
	}
	record := toRestaurantRecord(r)
	if record.Status == "" {
		record.Status = string(domain.StatusPending)
	}
	if !domain.Status(record.Status).IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, storeError(err)
	}
	return record.toProjection(), nil
}

// Get loads a restaurant by id.
func (s *StatusStore) Get(ctx context.Context, id int64) (*restauranttypes.RestaurantProjection, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record restaurantRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, storeError(err)
	}
	return record.toProjection(), nil
}

// SetStatus moves the restaurant from -> to with a conditional UPDATE.
func (s *StatusStore) SetStatus(ctx context.Context, id int64, from, to domain.Status) (*restauranttypes.RestaurantProjection, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if !to.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	result := s.db.WithContext(ctx).
		Model(&restaurantRecord{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return nil, storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: restaurant %d is %s, expected %s", ports.ErrStatusConflict, id, current.Entity.Status, from)
	}
	return s.Get(ctx, id)
}

// ListByStatus returns restaurants in any of the given statuses ordered by id.
func (s *StatusStore) ListByStatus(ctx context.Context, statuses ...domain.Status) ([]*restauranttypes.RestaurantProjection, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return []*restauranttypes.RestaurantProjection{}, nil
	}
	values := make([]string, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, string(st))
	}
	var records []restaurantRecord
	if err := s.db.WithContext(ctx).Where("status IN ?", values).Order("id").Find(&records).Error; err != nil {
		return nil, storeError(err)
	}
	result := make([]*restauranttypes.RestaurantProjection, 0, len(records))
	for i := range records {
		result = append(result, records[i].toProjection())
	}
	return result, nil
}

func (s *StatusStore) ensureDB() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("%w: postgres restaurant store not configured", ports.ErrUnavailable)
	}
	return nil
}

func toRestaurantRecord(r *domain.Restaurant) restaurantRecord {
	app := r.Application
	return restaurantRecord{
		ID:              r.ID,
		Name:            app.Profile.Name,
		Description:     app.Profile.Description,
		Cuisines:        pq.StringArray(append([]string(nil), app.Profile.Cuisines...)),
		EstablishedYear: app.Profile.EstablishedYear,
		Address:         app.Location.Address,
		City:            app.Location.City,
		State:           app.Location.State,
		Zip:             app.Location.Zip,
		Phone:           app.Contact.Phone,
		ContactPerson:   app.Contact.ContactPerson,
		Email:           app.Contact.Email,
		Website:         app.Contact.Website,
		PriceTier:       app.Pricing.PriceTier,
		DeliveryFee:     app.Pricing.DeliveryFee,
		MinimumOrder:    app.Pricing.MinimumOrder,
		PrepTimeMinutes: app.Pricing.PrepTimeMinutes,
		Hours:           app.Hours,
		MenuItems:       append([]domain.MenuItem(nil), app.MenuItems...),
		Status:          string(r.Status),
		Username:        r.Username,
	}
}

func (r restaurantRecord) toProjection() *restauranttypes.RestaurantProjection {
	restaurant := &domain.Restaurant{
		ID: r.ID,
		Application: domain.RestaurantApplication{
			Profile: domain.Profile{
				Name:            r.Name,
				Description:     r.Description,
				Cuisines:        append([]string(nil), r.Cuisines...),
				EstablishedYear: r.EstablishedYear,
			},
			Location: domain.Location{Address: r.Address, City: r.City, State: r.State, Zip: r.Zip},
			Contact: domain.Contact{
				Phone:         r.Phone,
				ContactPerson: r.ContactPerson,
				Email:         r.Email,
				Website:       r.Website,
			},
			Pricing: domain.Pricing{
				PriceTier:       r.PriceTier,
				DeliveryFee:     r.DeliveryFee,
				MinimumOrder:    r.MinimumOrder,
				PrepTimeMinutes: r.PrepTimeMinutes,
			},
			Hours:     r.Hours,
			MenuItems: append([]domain.MenuItem(nil), r.MenuItems...),
		},
		Status:   domain.Status(r.Status),
		Username: r.Username,
	}
	return restauranttypes.NewRestaurantProjection(restaurant, r.CreatedAt, r.UpdatedAt)
}
