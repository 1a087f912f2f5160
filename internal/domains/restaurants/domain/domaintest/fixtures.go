// Package domaintest provides restaurant fixtures for tests in other packages.
package domaintest

import (
	"time"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

// ValidApplication returns an application that passes validation, open 11:00-22:00 daily.
func ValidApplication(name, email string) domain.RestaurantApplication {
	var hours domain.WeeklyHours
	for day := time.Sunday; day <= time.Saturday; day++ {
		hours.Set(day, domain.DayHours{Open: "11:00", Close: "22:00"})
	}
	return domain.RestaurantApplication{
		Profile: domain.Profile{
			Name:            name,
			Description:     "Wood-fired pizza since 1990",
			Cuisines:        []string{"Italian", "Pizza"},
			EstablishedYear: 1990,
		},
		Location: domain.Location{Address: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		Contact: domain.Contact{
			Phone:         "(555) 123-4567",
			ContactPerson: "Mario Rossi",
			Email:         email,
		},
		Pricing: domain.Pricing{PriceTier: "$$", DeliveryFee: 2.99, MinimumOrder: 10, PrepTimeMinutes: 25},
		Hours:   hours,
		MenuItems: []domain.MenuItem{
			{Name: "Margherita", Description: "Tomato, mozzarella, basil", Price: 12.5, Category: "Pizza"},
		},
	}
}
