package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

// storeError translates a gorm failure into the port vocabulary. A missing
// row is ErrNotFound; anything else means the database could not answer.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ErrNotFound
	}
	return fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
}
