package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	types "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

// Authenticate verifies restaurant credentials. Status is not checked here; the
// dashboard gate decides what an authenticated restaurant may see.
func (s *Service) Authenticate(ctx context.Context, input types.LoginInput) (*types.AuthenticatedRestaurant, error) {
	if s.issuer == nil {
		return nil, errors.New("credential issuer not configured")
	}
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrUnauthorized)
	}
	id, err := s.issuer.Verify(ctx, username, input.Password)
	if err != nil {
		return nil, mapError(err)
	}
	projection, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &types.AuthenticatedRestaurant{
		RestaurantID: id,
		Username:     username,
		Status:       projection.Entity.Status,
	}, nil
}

// EnterDashboard is the gate between an authenticated restaurant and its operational tooling.
func (s *Service) EnterDashboard(ctx context.Context, input types.RestaurantIdentifier) (*types.DashboardView, error) {
	projection, err := s.store.Get(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	r := projection.Entity
	view := &types.DashboardView{Status: r.Status, Restaurant: r}
	switch {
	case r.Status == domain.StatusPending:
		view.Kind = types.ViewPendingApproval
	case r.Status.IsOperational():
		view.Kind = types.ViewDashboard
		if s.markers != nil {
			first, err := s.markers.MarkSeen(ctx, r.ID)
			if err != nil {
				return nil, mapError(err)
			}
			view.FirstApprovedSession = first
		}
	default:
		view.Kind = types.ViewNotApproved
	}
	return view, nil
}
