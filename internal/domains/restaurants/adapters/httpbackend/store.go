package httpbackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	backendclient "github.com/Apurer/go-gin-restaurant-onboarding/internal/clients/http/backend"
	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var (
	_ ports.RestaurantStatusStore = (*StatusStore)(nil)
	_ ports.BackendApprover       = (*StatusStore)(nil)
)

// transitionPaths maps each supported status change to its backend action.
var transitionPaths = map[[2]domain.Status]struct {
	prefix string
	action string
}{
	{domain.StatusPending, domain.StatusApproved}:             {"/admin/restaurants", "approve"},
	{domain.StatusPending, domain.StatusRejected}:             {"/admin/restaurants", "reject"},
	{domain.StatusApproved, domain.StatusWithdrawalRequested}: {"/restaurants", "withdraw"},
	{domain.StatusWithdrawalRequested, domain.StatusInactive}: {"/admin/restaurants", "approve-withdrawal"},
	{domain.StatusWithdrawalRequested, domain.StatusApproved}: {"/admin/restaurants", "reject-withdrawal"},
}

// StatusStore adapts the restaurant backend API to the record store port.
// The backend only exposes forward transitions, so reverting an approval is unsupported.
type StatusStore struct {
	client *backendclient.Client
}

// NewStatusStore wires the backend client into a store adapter.
func NewStatusStore(client *backendclient.Client) *StatusStore {
	return &StatusStore{client: client}
}

// Create registers the application; the backend assigns the id and pending status.
func (s *StatusStore) Create(ctx context.Context, r *domain.Restaurant) (*restauranttypes.RestaurantProjection, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("restaurant is nil")
	}
	resp, err := s.client.Post(ctx, "/restaurants/register", toRegistrationPayload(r.Application))
	if err != nil {
		return nil, translate(err)
	}
	body := unwrap(resp.JSON(), "restaurant", "data")
	if body.Get("status").Exists() && body.Get("name").Exists() {
		return s.decodeComplete(ctx, body)
	}
	id := first(body, "id", "restaurantId").Int()
	if id == 0 {
		return nil, fmt.Errorf("%w: register response carried no restaurant id", ports.ErrUnavailable)
	}
	return s.Get(ctx, id)
}

// Get fetches a restaurant by id.
func (s *StatusStore) Get(ctx context.Context, id int64) (*restauranttypes.RestaurantProjection, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	path, err := backendclient.RestaurantPath("/restaurants", id, "")
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Get(ctx, path)
	if err != nil {
		return nil, translate(err)
	}
	return s.decodeComplete(ctx, unwrap(resp.JSON(), "restaurant", "data"))
}

// SetStatus checks the current status and posts the matching backend action.
func (s *StatusStore) SetStatus(ctx context.Context, id int64, from, to domain.Status) (*restauranttypes.RestaurantProjection, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	route, ok := transitionPaths[[2]domain.Status{from, to}]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ports.ErrUnsupportedTransition, from, to)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Entity.Status != from {
		return nil, fmt.Errorf("%w: restaurant %d is %s, expected %s", ports.ErrStatusConflict, id, current.Entity.Status, from)
	}
	path, err := backendclient.RestaurantPath(route.prefix, id, route.action)
	if err != nil {
		return nil, err
	}
	if _, err := s.client.Post(ctx, path, map[string]bool{"confirm": true}); err != nil {
		return nil, translate(err)
	}
	return s.Get(ctx, id)
}

// ApproveWithCredentials posts the approve action for a pending restaurant and
// returns the login the backend issued with it. The username falls back to the
// registration email when the backend does not assign one.
func (s *StatusStore) ApproveWithCredentials(ctx context.Context, id int64) (*restauranttypes.RestaurantProjection, domain.Credentials, error) {
	if err := s.ensureClient(); err != nil {
		return nil, domain.Credentials{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, domain.Credentials{}, err
	}
	if current.Entity.Status != domain.StatusPending {
		return nil, domain.Credentials{}, fmt.Errorf("%w: restaurant %d is %s, expected %s",
			ports.ErrStatusConflict, id, current.Entity.Status, domain.StatusPending)
	}
	path, err := backendclient.RestaurantPath("/admin/restaurants", id, "approve")
	if err != nil {
		return nil, domain.Credentials{}, err
	}
	resp, err := s.client.Post(ctx, path, map[string]bool{"confirm": true})
	if err != nil {
		return nil, domain.Credentials{}, translate(err)
	}
	creds, err := decodeCredentials(resp.JSON(), current.Entity)
	if err != nil {
		return nil, domain.Credentials{}, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		// The approval went through; report it from what we already hold.
		approved := *current.Entity
		approved.Status = domain.StatusApproved
		updated = restauranttypes.NewRestaurantProjection(&approved, current.Metadata.CreatedAt, time.Now().UTC())
	}
	if updated.Entity.Username == "" {
		updated.Entity.Username = creds.Username
	}
	return updated, creds, nil
}

// ListByStatus lists pending applications from the admin queue and everything
// else from the public listing, filtered locally.
func (s *StatusStore) ListByStatus(ctx context.Context, statuses ...domain.Status) ([]*restauranttypes.RestaurantProjection, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	wanted := make(map[domain.Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}
	result := []*restauranttypes.RestaurantProjection{}
	seen := map[int64]bool{}
	collect := func(path string) error {
		resp, err := s.client.Get(ctx, path)
		if err != nil {
			return translate(err)
		}
		for _, item := range unwrap(resp.JSON(), "restaurants", "data", "items").Array() {
			p, err := s.decodeComplete(ctx, item)
			if err != nil {
				return err
			}
			if wanted[p.Entity.Status] && !seen[p.Entity.ID] {
				seen[p.Entity.ID] = true
				result = append(result, p)
			}
		}
		return nil
	}
	if wanted[domain.StatusPending] {
		if err := collect("/admin/restaurants/pending"); err != nil {
			return nil, err
		}
	}
	if len(wanted) > 1 || !wanted[domain.StatusPending] {
		if err := collect("/restaurants"); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *StatusStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("backend restaurant store not configured")
	}
	return nil
}

func translate(err error) error {
	var apiErr *backendclient.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ports.ErrNotFound, apiErr.Message)
		case http.StatusConflict:
			return fmt.Errorf("%w: %s", ports.ErrStatusConflict, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
}

// decodeComplete decodes obj and loads hours and menu from their sub-resources
// when the payload omits them.
func (s *StatusStore) decodeComplete(ctx context.Context, obj gjson.Result) (*restauranttypes.RestaurantProjection, error) {
	p, err := decodeProjection(obj)
	if err != nil {
		return nil, err
	}
	app := &p.Entity.Application
	if !first(obj, "hours", "operatingHours").Exists() {
		res, err := s.subResource(ctx, p.Entity.ID, "hours")
		if err != nil {
			return nil, err
		}
		app.Hours = decodeHours(unwrap(res, "hours", "operatingHours", "data"))
	}
	if !first(obj, "menuItems", "menu").Exists() {
		res, err := s.subResource(ctx, p.Entity.ID, "menu")
		if err != nil {
			return nil, err
		}
		app.MenuItems = decodeMenu(unwrap(res, "menuItems", "menu", "items", "data"))
	}
	return p, nil
}

// subResource fetches /restaurants/{id}/{name}. A missing sub-resource decodes as empty.
func (s *StatusStore) subResource(ctx context.Context, id int64, name string) (gjson.Result, error) {
	path, err := backendclient.RestaurantPath("/restaurants", id, name)
	if err != nil {
		return gjson.Result{}, err
	}
	resp, err := s.client.Get(ctx, path)
	if err != nil {
		var apiErr *backendclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return gjson.Result{}, nil
		}
		return gjson.Result{}, translate(err)
	}
	return resp.JSON(), nil
}

func decodeCredentials(body gjson.Result, r *domain.Restaurant) (domain.Credentials, error) {
	obj := unwrap(body, "credentials", "data")
	password := first(obj, "temporaryPassword", "password", "credentials.temporaryPassword").String()
	if password == "" {
		return domain.Credentials{}, fmt.Errorf("%w: restaurant %d", ports.ErrMissingCredentials, r.ID)
	}
	username := first(obj, "username", "credentials.username").String()
	if username == "" {
		username = r.LoginUsername()
	}
	return domain.Credentials{
		Username:          username,
		TemporaryPassword: password,
		ExpiresAt:         parseTime(first(obj, "expiresAt", "credentials.expiresAt")),
	}, nil
}

func decodeProjection(obj gjson.Result) (*restauranttypes.RestaurantProjection, error) {
	if !obj.IsObject() {
		return nil, fmt.Errorf("%w: restaurant payload is not an object", ports.ErrUnavailable)
	}
	idField := first(obj, "id", "restaurantId")
	if !idField.Exists() || idField.Int() <= 0 {
		return nil, fmt.Errorf("%w: restaurant payload has no id", ports.ErrUnavailable)
	}
	status, err := domain.ParseStatus(obj.Get("status").String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
	}
	r := &domain.Restaurant{
		ID:     idField.Int(),
		Status: status,
		Application: domain.RestaurantApplication{
			Profile: domain.Profile{
				Name:            first(obj, "name", "profile.name").String(),
				Description:     first(obj, "description", "profile.description").String(),
				Cuisines:        stringList(first(obj, "cuisines", "profile.cuisines", "cuisine")),
				EstablishedYear: int(first(obj, "establishedYear", "profile.establishedYear").Int()),
			},
			Location: domain.Location{
				Address: first(obj, "address", "location.address").String(),
				City:    first(obj, "city", "location.city").String(),
				State:   first(obj, "state", "location.state").String(),
				Zip:     first(obj, "zip", "zipCode", "location.zip").String(),
			},
			Contact: domain.Contact{
				Phone:         first(obj, "phone", "contact.phone").String(),
				ContactPerson: first(obj, "contactPerson", "contact.contactPerson").String(),
				Email:         first(obj, "email", "contact.email").String(),
				Website:       first(obj, "website", "contact.website").String(),
			},
			Pricing: domain.Pricing{
				PriceTier:       first(obj, "priceTier", "pricing.priceTier").String(),
				DeliveryFee:     first(obj, "deliveryFee", "pricing.deliveryFee").Float(),
				MinimumOrder:    first(obj, "minimumOrder", "pricing.minimumOrder").Float(),
				PrepTimeMinutes: int(first(obj, "prepTimeMinutes", "pricing.prepTimeMinutes").Int()),
			},
			Hours:     decodeHours(first(obj, "hours", "operatingHours")),
			MenuItems: decodeMenu(first(obj, "menuItems", "menu")),
		},
		Username: obj.Get("username").String(),
	}
	return restauranttypes.NewRestaurantProjection(r, parseTime(obj.Get("createdAt")), parseTime(obj.Get("updatedAt"))), nil
}

func parseTime(r gjson.Result) time.Time {
	if !r.Exists() {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, r.String())
	if err != nil {
		return time.Time{}
	}
	return t
}
