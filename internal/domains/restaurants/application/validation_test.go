package application

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

func validApplication(name, email string) domain.RestaurantApplication {
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
			Website:       "https://marios.example.com",
		},
		Pricing: domain.Pricing{PriceTier: "$$", DeliveryFee: 2.99, MinimumOrder: 10, PrepTimeMinutes: 25},
		Hours:   hours,
		MenuItems: []domain.MenuItem{
			{Name: "Margherita", Description: "Tomato, mozzarella, basil", Price: 12.5, Category: "Pizza"},
		},
	}
}

func TestValidate_AcceptsCompleteApplication(t *testing.T) {
	require.NoError(t, NewApplicationValidator().Validate(validApplication("Mario's Pizzeria", "mario@example.com")))
}

func TestValidate_ReportsFieldLevelErrors(t *testing.T) {
	app := validApplication("", "not-an-email")
	app.Contact.Phone = "555-1234"
	app.Location.Zip = "1234"
	app.Hours.Monday = domain.DayHours{Open: "22:00", Close: "11:00"}
	app.Hours.Tuesday = domain.DayHours{Open: "9am", Close: "17:00"}
	app.Hours.Wednesday = domain.DayHours{Closed: true}
	app.MenuItems[0].Price = 0

	err := NewApplicationValidator().Validate(app)
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	require.Equal(t, "is required", verr.Fields["profile.name"])
	require.Equal(t, "must be a valid email address", verr.Fields["contact.email"])
	require.Equal(t, "must be a 10-digit phone number", verr.Fields["contact.phone"])
	require.Equal(t, "must be a 5-digit ZIP code", verr.Fields["location.zip"])
	require.Contains(t, verr.Fields["hours.monday.close"], "later than opening time 22:00")
	require.Equal(t, "must be a time in HH:MM format", verr.Fields["hours.tuesday.open"])
	require.NotContains(t, verr.Fields, "hours.wednesday.open")
	require.Contains(t, verr.Fields, "menuItems[0].price")
}

func TestValidate_RequiresHoursForEveryOpenDay(t *testing.T) {
	app := validApplication("Mario's Pizzeria", "mario@example.com")
	app.Hours.Sunday = domain.DayHours{}
	err := NewApplicationValidator().Validate(app)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "is required", verr.Fields["hours.sunday.open"])
	require.Equal(t, "is required", verr.Fields["hours.sunday.close"])
}

func TestValidate_RequiresMenuAndCuisine(t *testing.T) {
	app := validApplication("Mario's Pizzeria", "mario@example.com")
	app.MenuItems = nil
	app.Profile.Cuisines = nil
	err := NewApplicationValidator().Validate(app)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "menuItems")
	require.Contains(t, verr.Fields, "profile.cuisines")
}

func TestFingerprintRegistration_NormalizesFormatting(t *testing.T) {
	a := validApplication("Mario's Pizzeria", "mario@example.com")
	b := validApplication(" Mario's Pizzeria ", "MARIO@example.com")
	b.Contact.Phone = "555.123.4567"

	fa, err := FingerprintRegistration(a)
	require.NoError(t, err)
	fb, err := FingerprintRegistration(b)
	require.NoError(t, err)
	require.Equal(t, fa, fb)

	b.Pricing.DeliveryFee = 4
	fc, err := FingerprintRegistration(b)
	require.NoError(t, err)
	require.NotEqual(t, fa, fc)
}
