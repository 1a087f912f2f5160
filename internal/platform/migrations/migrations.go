package migrations

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the onboarding schema. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&restaurantRecord{},
		&credentialRecord{},
		&approvalMarkerRecord{},
		&idempotencyRecord{},
	)
}

// Restaurant schema mirrors the restaurants Postgres adapter.
type restaurantRecord struct {
	ID              int64           `gorm:"primaryKey;column:id"`
	Name            string          `gorm:"column:name"`
	Description     string          `gorm:"column:description"`
	Cuisines        pq.StringArray  `gorm:"column:cuisines;type:text[]"`
	EstablishedYear int             `gorm:"column:established_year"`
	Address         string          `gorm:"column:address"`
	City            string          `gorm:"column:city"`
	State           string          `gorm:"column:state"`
	Zip             string          `gorm:"column:zip;size:16"`
	Phone           string          `gorm:"column:phone;size:32"`
	ContactPerson   string          `gorm:"column:contact_person"`
	Email           string          `gorm:"column:email;index"`
	Website         string          `gorm:"column:website"`
	PriceTier       string          `gorm:"column:price_tier;size:8"`
	DeliveryFee     float64         `gorm:"column:delivery_fee"`
	MinimumOrder    float64         `gorm:"column:minimum_order"`
	PrepTimeMinutes int             `gorm:"column:prep_time_minutes"`
	Hours           json.RawMessage `gorm:"column:hours;type:jsonb"`
	MenuItems       json.RawMessage `gorm:"column:menu_items;type:jsonb"`
	Status          string          `gorm:"column:status;type:varchar(32);index"`
	Username        string          `gorm:"column:username"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (restaurantRecord) TableName() string { return "restaurants" }

// Credential schema mirrors the credential store.
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

type approvalMarkerRecord struct {
	RestaurantID int64     `gorm:"primaryKey;autoIncrement:false;column:restaurant_id"`
	SeenAt       time.Time `gorm:"column:seen_at"`
}

func (approvalMarkerRecord) TableName() string { return "restaurant_approval_markers" }

type idempotencyRecord struct {
	Key          string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash  string    `gorm:"column:request_hash;size:128"`
	RestaurantID int64     `gorm:"column:restaurant_id"`
	CreatedAt    time.Time `gorm:"column:created_at;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "restaurant_idempotency_keys" }
