package mapper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

// Profile is the HTTP representation of the customer-facing profile.
type Profile struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Cuisines        []string `json:"cuisines"`
	EstablishedYear int      `json:"establishedYear,omitempty"`
}

// Location is the HTTP representation of the street address.
type Location struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// Contact is the HTTP representation of onboarding contact details.
type Contact struct {
	Phone         string `json:"phone"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Website       string `json:"website,omitempty"`
}

// Pricing is the HTTP representation of commercial terms.
type Pricing struct {
	PriceTier       string  `json:"priceTier"`
	DeliveryFee     float64 `json:"deliveryFee"`
	MinimumOrder    float64 `json:"minimumOrder"`
	PrepTimeMinutes int     `json:"prepTimeMinutes,omitempty"`
}

// DayHours is one weekday's operating window.
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed"`
}

// MenuItem is a sample dish.
type MenuItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// RegistrationRequest is the registration intake payload.
type RegistrationRequest struct {
	Profile   Profile             `json:"profile"`
	Location  Location            `json:"location"`
	Contact   Contact             `json:"contact"`
	Pricing   Pricing             `json:"pricing"`
	Hours     map[string]DayHours `json:"hours"`
	MenuItems []MenuItem          `json:"menuItems"`
}

// RegistrationResponse acknowledges a stored application.
type RegistrationResponse struct {
	ID             int64  `json:"id"`
	ApplicationRef string `json:"applicationRef"`
	Status         string `json:"status"`
	Replayed       bool   `json:"replayed,omitempty"`
	Message        string `json:"message"`
}

// AdminRestaurant is the full record shown to administrators.
type AdminRestaurant struct {
	ID             int64               `json:"id"`
	ApplicationRef string              `json:"applicationRef"`
	Status         string              `json:"status"`
	Username       string              `json:"username,omitempty"`
	Profile        Profile             `json:"profile"`
	Location       Location            `json:"location"`
	Contact        Contact             `json:"contact"`
	Pricing        Pricing             `json:"pricing"`
	Hours          map[string]DayHours `json:"hours"`
	MenuItems      []MenuItem          `json:"menuItems"`
	CreatedAt      time.Time           `json:"createdAt,omitempty"`
	UpdatedAt      time.Time           `json:"updatedAt,omitempty"`
}

// PublicRestaurant is the customer-facing listing entry; contact details are withheld.
type PublicRestaurant struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Cuisines        []string `json:"cuisines"`
	City            string   `json:"city"`
	PriceTier       string   `json:"priceTier"`
	DeliveryFee     float64  `json:"deliveryFee"`
	MinimumOrder    float64  `json:"minimumOrder"`
	PrepTimeMinutes int      `json:"prepTimeMinutes,omitempty"`
	Open            bool     `json:"open"`
	Orderable       bool     `json:"orderable"`
}

// ConfirmRequest carries the operator confirmation for destructive actions.
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

// LoginRequest is shared by restaurant and admin logins.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by successful logins.
type TokenResponse struct {
	Token        string    `json:"token"`
	TokenType    string    `json:"tokenType"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Role         string    `json:"role"`
	RestaurantID int64     `json:"restaurantId,omitempty"`
	Status       string    `json:"status,omitempty"`
}

// ApprovalResponse surfaces the issued credentials once to the approving admin.
type ApprovalResponse struct {
	RestaurantID      int64     `json:"restaurantId"`
	Status            string    `json:"status"`
	Username          string    `json:"username"`
	TemporaryPassword string    `json:"temporaryPassword"`
	ExpiresAt         time.Time `json:"expiresAt,omitempty"`
}

// DashboardResponse is the result of the dashboard gate.
type DashboardResponse struct {
	View                 string           `json:"view"`
	Status               string           `json:"status"`
	Message              string           `json:"message"`
	FirstApprovedSession bool             `json:"firstApprovedSession"`
	Restaurant           *AdminRestaurant `json:"restaurant,omitempty"`
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// ToDomainApplication maps the intake payload into the domain application.
// Unknown weekday keys in hours are rejected.
func ToDomainApplication(req RegistrationRequest) (domain.RestaurantApplication, error) {
	var hours domain.WeeklyHours
	var unknown []string
	for key, h := range req.Hours {
		day, ok := parseWeekday(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		hours.Set(day, domain.DayHours{
			Open:   strings.TrimSpace(h.Open),
			Close:  strings.TrimSpace(h.Close),
			Closed: h.Closed,
		})
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return domain.RestaurantApplication{}, fmt.Errorf("unknown weekday in hours: %s", strings.Join(unknown, ", "))
	}
	var items []domain.MenuItem
	for _, item := range req.MenuItems {
		items = append(items, domain.MenuItem{
			Name:        strings.TrimSpace(item.Name),
			Description: strings.TrimSpace(item.Description),
			Price:       item.Price,
			Category:    strings.TrimSpace(item.Category),
			ImageURL:    strings.TrimSpace(item.ImageURL),
		})
	}
	return domain.RestaurantApplication{
		Profile: domain.Profile{
			Name:            strings.TrimSpace(req.Profile.Name),
			Description:     strings.TrimSpace(req.Profile.Description),
			Cuisines:        append([]string(nil), req.Profile.Cuisines...),
			EstablishedYear: req.Profile.EstablishedYear,
		},
		Location: domain.Location{
			Address: strings.TrimSpace(req.Location.Address),
			City:    strings.TrimSpace(req.Location.City),
			State:   strings.TrimSpace(req.Location.State),
			Zip:     strings.TrimSpace(req.Location.Zip),
		},
		Contact: domain.Contact{
			Phone:         strings.TrimSpace(req.Contact.Phone),
			ContactPerson: strings.TrimSpace(req.Contact.ContactPerson),
			Email:         strings.TrimSpace(req.Contact.Email),
			Website:       strings.TrimSpace(req.Contact.Website),
		},
		Pricing: domain.Pricing{
			PriceTier:       strings.TrimSpace(req.Pricing.PriceTier),
			DeliveryFee:     req.Pricing.DeliveryFee,
			MinimumOrder:    req.Pricing.MinimumOrder,
			PrepTimeMinutes: req.Pricing.PrepTimeMinutes,
		},
		Hours:     hours,
		MenuItems: items,
	}, nil
}

// FromRegistration renders the registration acknowledgement.
func FromRegistration(result *restauranttypes.RegistrationResult) RegistrationResponse {
	if result == nil || result.Restaurant == nil || result.Restaurant.Entity == nil {
		return RegistrationResponse{}
	}
	r := result.Restaurant.Entity
	return RegistrationResponse{
		ID:             r.ID,
		ApplicationRef: result.ApplicationRef,
		Status:         string(r.Status),
		Replayed:       result.Replayed,
		Message:        "Application received and pending review. We will email " + r.Email() + " once it has been reviewed.",
	}
}

// FromProjection renders the admin view of a restaurant.
func FromProjection(p *restauranttypes.RestaurantProjection) AdminRestaurant {
	if p == nil || p.Entity == nil {
		return AdminRestaurant{}
	}
	out := FromDomainRestaurant(p.Entity)
	out.CreatedAt = p.Metadata.CreatedAt
	out.UpdatedAt = p.Metadata.UpdatedAt
	return out
}

// FromProjections renders a list of admin views.
func FromProjections(items []*restauranttypes.RestaurantProjection) []AdminRestaurant {
	out := make([]AdminRestaurant, 0, len(items))
	for _, p := range items {
		if p == nil || p.Entity == nil {
			continue
		}
		out = append(out, FromProjection(p))
	}
	return out
}

// FromDomainRestaurant renders the admin view without timestamps.
func FromDomainRestaurant(r *domain.Restaurant) AdminRestaurant {
	app := r.Application
	return AdminRestaurant{
		ID:             r.ID,
		ApplicationRef: r.ApplicationRef(),
		Status:         string(r.Status),
		Username:       r.Username,
		Profile: Profile{
			Name:            app.Profile.Name,
			Description:     app.Profile.Description,
			Cuisines:        append([]string(nil), app.Profile.Cuisines...),
			EstablishedYear: app.Profile.EstablishedYear,
		},
		Location:  Location(app.Location),
		Contact:   Contact(app.Contact),
		Pricing:   Pricing(app.Pricing),
		Hours:     FromHours(app.Hours),
		MenuItems: FromMenu(app.MenuItems),
	}
}

// FromVisible renders a customer listing entry.
func FromVisible(v restauranttypes.VisibleRestaurant) PublicRestaurant {
	r := v.Restaurant
	app := r.Application
	return PublicRestaurant{
		ID:              r.ID,
		Name:            app.Profile.Name,
		Description:     app.Profile.Description,
		Cuisines:        append([]string(nil), app.Profile.Cuisines...),
		City:            app.Location.City,
		PriceTier:       app.Pricing.PriceTier,
		DeliveryFee:     app.Pricing.DeliveryFee,
		MinimumOrder:    app.Pricing.MinimumOrder,
		PrepTimeMinutes: app.Pricing.PrepTimeMinutes,
		Open:            v.Open,
		Orderable:       v.Orderable,
	}
}

// FromVisibleList renders the customer listing.
func FromVisibleList(items []restauranttypes.VisibleRestaurant) []PublicRestaurant {
	out := make([]PublicRestaurant, 0, len(items))
	for _, v := range items {
		if v.Restaurant == nil {
			continue
		}
		out = append(out, FromVisible(v))
	}
	return out
}

// FromHours renders weekly hours keyed by lowercase weekday name.
func FromHours(h domain.WeeklyHours) map[string]DayHours {
	out := make(map[string]DayHours, len(weekdays))
	for _, day := range weekdays {
		d := h.Day(day)
		out[strings.ToLower(day.String())] = DayHours{Open: d.Open, Close: d.Close, Closed: d.Closed}
	}
	return out
}

// FromMenu renders menu items.
func FromMenu(items []domain.MenuItem) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		out = append(out, MenuItem(item))
	}
	return out
}

// FromApproval renders the approval result including the one-time password.
func FromApproval(result *restauranttypes.ApprovalResult) ApprovalResponse {
	if result == nil {
		return ApprovalResponse{}
	}
	return ApprovalResponse{
		RestaurantID:      result.RestaurantID,
		Status:            string(result.Status),
		Username:          result.Username,
		TemporaryPassword: result.TemporaryPassword,
		ExpiresAt:         result.ExpiresAt,
	}
}

// FromDashboard renders the gate result; the restaurant record is included only with operational access.
func FromDashboard(view *restauranttypes.DashboardView) DashboardResponse {
	if view == nil {
		return DashboardResponse{}
	}
	out := DashboardResponse{
		View:                 string(view.Kind),
		Status:               string(view.Status),
		FirstApprovedSession: view.FirstApprovedSession,
	}
	switch view.Kind {
	case restauranttypes.ViewPendingApproval:
		out.Message = "Your application is pending approval."
	case restauranttypes.ViewNotApproved:
		out.Message = fmt.Sprintf("Your restaurant is not approved (status: %s).", view.Status)
	default:
		out.Message = "Welcome to your dashboard."
		if view.FirstApprovedSession {
			out.Message = "Congratulations, your restaurant has been approved."
		}
	}
	if view.HasOperationalAccess() && view.Restaurant != nil {
		r := FromDomainRestaurant(view.Restaurant)
		out.Restaurant = &r
	}
	return out
}

func parseWeekday(key string) (time.Weekday, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, day := range weekdays {
		name := strings.ToLower(day.String())
		if key == name || key == name[:3] {
			return day, true
		}
	}
	return 0, false
}
