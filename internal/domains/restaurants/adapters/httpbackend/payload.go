package httpbackend

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

type dayPayload struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed"`
}

type menuItemPayload struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

type registrationPayload struct {
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	Cuisines        []string              `json:"cuisines"`
	EstablishedYear int                   `json:"establishedYear,omitempty"`
	Address         string                `json:"address"`
	City            string                `json:"city"`
	State           string                `json:"state"`
	Zip             string                `json:"zip"`
	Phone           string                `json:"phone"`
	ContactPerson   string                `json:"contactPerson"`
	Email           string                `json:"email"`
	Website         string                `json:"website,omitempty"`
	PriceTier       string                `json:"priceTier"`
	DeliveryFee     float64               `json:"deliveryFee"`
	MinimumOrder    float64               `json:"minimumOrder"`
	PrepTimeMinutes int                   `json:"prepTimeMinutes,omitempty"`
	Hours           map[string]dayPayload `json:"hours"`
	MenuItems       []menuItemPayload     `json:"menuItems"`
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

func toRegistrationPayload(app domain.RestaurantApplication) registrationPayload {
	hours := make(map[string]dayPayload, len(weekdays))
	for _, day := range weekdays {
		h := app.Hours.Day(day)
		hours[strings.ToLower(day.String())] = dayPayload{Open: h.Open, Close: h.Close, Closed: h.Closed}
	}
	items := make([]menuItemPayload, 0, len(app.MenuItems))
	for _, item := range app.MenuItems {
		items = append(items, menuItemPayload{
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Category:    item.Category,
			ImageURL:    item.ImageURL,
		})
	}
	return registrationPayload{
		Name:            app.Profile.Name,
		Description:     app.Profile.Description,
		Cuisines:        append([]string(nil), app.Profile.Cuisines...),
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
		Hours:           hours,
		MenuItems:       items,
	}
}

// unwrap strips the common single-object envelopes.
func unwrap(res gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if inner := res.Get(key); inner.Exists() && (inner.IsObject() || inner.IsArray()) {
			return inner
		}
	}
	return res
}

func first(obj gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := obj.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func stringList(r gjson.Result) []string {
	if !r.Exists() {
		return nil
	}
	var out []string
	if r.IsArray() {
		for _, v := range r.Array() {
			if s := strings.TrimSpace(v.String()); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	for _, s := range strings.Split(r.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodeHours(r gjson.Result) domain.WeeklyHours {
	var hours domain.WeeklyHours
	if !r.IsObject() {
		return hours
	}
	for _, day := range weekdays {
		d := first(r, strings.ToLower(day.String()), day.String(), strings.ToLower(day.String()[:3]))
		if !d.Exists() {
			continue
		}
		hours.Set(day, domain.DayHours{
			Open:   d.Get("open").String(),
			Close:  d.Get("close").String(),
			Closed: d.Get("closed").Bool(),
		})
	}
	return hours
}

func decodeMenu(r gjson.Result) []domain.MenuItem {
	if !r.IsArray() {
		return nil
	}
	items := make([]domain.MenuItem, 0, len(r.Array()))
	for _, v := range r.Array() {
		items = append(items, domain.MenuItem{
			Name:        v.Get("name").String(),
			Description: v.Get("description").String(),
			Price:       v.Get("price").Float(),
			Category:    v.Get("category").String(),
			ImageURL:    first(v, "imageUrl", "image_url", "image").String(),
		})
	}
	return items
}
