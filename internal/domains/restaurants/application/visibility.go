package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	types "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

// ListVisible projects operational restaurants for customers, open ones first.
// It is read-only and never changes a restaurant's status.
func (s *Service) ListVisible(ctx context.Context, input types.ListVisibleInput) ([]types.VisibleRestaurant, error) {
	at := input.At
	if at.IsZero() {
		at = s.now()
	}
	projections, err := s.store.ListByStatus(ctx, domain.StatusApproved, domain.StatusWithdrawalRequested)
	if err != nil {
		return nil, mapError(err)
	}
	visible := make([]types.VisibleRestaurant, 0, len(projections))
	for _, p := range projections {
		if p == nil || p.Entity == nil || !p.Entity.Status.IsOperational() {
			continue
		}
		visible = append(visible, s.project(p.Entity, at))
	}
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].Open != visible[j].Open {
			return visible[i].Open
		}
		return strings.ToLower(visible[i].Restaurant.Name()) < strings.ToLower(visible[j].Restaurant.Name())
	})
	return visible, nil
}

// GetVisible returns a single restaurant only if customers may see it.
func (s *Service) GetVisible(ctx context.Context, input types.RestaurantIdentifier) (*types.VisibleRestaurant, error) {
	projection, err := s.store.Get(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	if !projection.Entity.Status.IsOperational() {
		return nil, fmt.Errorf("%w: restaurant %d is not listed", ErrNotFound, input.ID)
	}
	v := s.project(projection.Entity, s.now())
	return &v, nil
}

func (s *Service) project(r *domain.Restaurant, at time.Time) types.VisibleRestaurant {
	open := r.Application.Hours.IsOpenAt(at.In(s.location))
	return types.VisibleRestaurant{
		Restaurant: r,
		Open:       open,
		Orderable:  open,
	}
}
