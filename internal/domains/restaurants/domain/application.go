package domain

import "time"

// Profile describes the restaurant as customers will see it.
type Profile struct {
	Name            string   `validate:"required,max=120"`
	Description     string   `validate:"required,max=2000"`
	Cuisines        []string `validate:"required,min=1,dive,required"`
	EstablishedYear int      `validate:"omitempty,gte=1800,lte=2100"`
}

// Location is the street address of the restaurant.
type Location struct {
	Address string `validate:"required"`
	City    string `validate:"required"`
	State   string `validate:"required"`
	Zip     string `validate:"required,zip5"`
}

// Contact holds the people and channels used during onboarding.
type Contact struct {
	Phone         string `validate:"required,phone10"`
	ContactPerson string `validate:"required"`
	Email         string `validate:"required,email"`
	Website       string `validate:"omitempty,url"`
}

// Pricing captures the commercial terms shown to customers.
type Pricing struct {
	PriceTier       string  `validate:"required,oneof=$ $$ $$$ $$$$"`
	DeliveryFee     float64 `validate:"gte=0"`
	MinimumOrder    float64 `validate:"gte=0"`
	PrepTimeMinutes int     `validate:"omitempty,gte=1,lte=240"`
}

// MenuItem is a sample dish submitted with the application.
type MenuItem struct {
	Name        string  `validate:"required"`
	Description string  `validate:"max=500"`
	Price       float64 `validate:"gt=0"`
	Category    string  `validate:"required"`
	ImageURL    string  `validate:"omitempty,url"`
}

// RestaurantApplication is the payload assembled by registration intake.
type RestaurantApplication struct {
	Profile   Profile
	Location  Location
	Contact   Contact
	Pricing   Pricing
	Hours     WeeklyHours
	MenuItems []MenuItem `validate:"required,min=1,dive"`
}

// Clone returns a deep copy of the application.
func (a RestaurantApplication) Clone() RestaurantApplication {
	clone := a
	clone.Profile.Cuisines = append([]string(nil), a.Profile.Cuisines...)
	clone.MenuItems = append([]MenuItem(nil), a.MenuItems...)
	return clone
}

// Credentials are the login secrets produced once when a restaurant is approved.
type Credentials struct {
	Username          string
	TemporaryPassword string
	ExpiresAt         time.Time
}
