package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	types "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

// settled maps each retryable trigger to the status that means it already happened.
var settled = map[domain.Trigger]domain.Status{
	domain.TriggerReject:            domain.StatusRejected,
	domain.TriggerRequestWithdrawal: domain.StatusWithdrawalRequested,
	domain.TriggerApproveWithdrawal: domain.StatusInactive,
	domain.TriggerRejectWithdrawal:  domain.StatusApproved,
}

// Approve moves a pending restaurant to approved, issues its credentials and sends
// the approval email. Either all three happen or the restaurant is left pending,
// except when a backend approver issues the credentials (see approveThroughBackend).
func (s *Service) Approve(ctx context.Context, input types.RestaurantIdentifier) (*types.ApprovalResult, error) {
	if s.issuer == nil {
		return nil, errors.New("credential issuer not configured")
	}
	if s.notifier == nil {
		return nil, fmt.Errorf("%w: notification dispatch not configured", ErrTransport)
	}
	release, err := s.acquire(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	projection, err := s.store.Get(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	restaurant := projection.Entity
	target, err := restaurant.Status.Next(domain.TriggerApprove)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if s.approver != nil {
		return s.approveThroughBackend(ctx, restaurant)
	}

	creds, err := s.issuer.Issue(ctx, restaurant)
	if err != nil {
		return nil, mapError(err)
	}

	updated, err := s.store.SetStatus(ctx, input.ID, domain.StatusPending, target)
	if err != nil {
		if revokeErr := s.issuer.Revoke(ctx, input.ID, creds); revokeErr != nil {
			return nil, fmt.Errorf("%w: restaurant %d status update failed and credentials could not be revoked: %w",
				ErrPartialFailure, input.ID, errors.Join(err, revokeErr))
		}
		return nil, mapError(err)
	}

	if err := s.notifier.Send(ctx, ApprovalNotification(restaurant, creds)); err != nil {
		if compErr := s.rollbackApproval(ctx, input.ID, creds); compErr != nil {
			return nil, fmt.Errorf("%w: restaurant %d is approved but the approval email failed and rollback failed: %w",
				ErrPartialFailure, input.ID, errors.Join(err, compErr))
		}
		return nil, fmt.Errorf("%w: approval email failed, restaurant %d left pending: %w", ErrTransport, input.ID, err)
	}

	return &types.ApprovalResult{
		RestaurantID:      updated.Entity.ID,
		Status:            updated.Entity.Status,
		Username:          creds.Username,
		TemporaryPassword: creds.TemporaryPassword,
		ExpiresAt:         creds.ExpiresAt,
	}, nil
}

// approveThroughBackend lets the record store approve and issue the login in one
// call. The backend cannot revert an approval, so failures after it are partial.
func (s *Service) approveThroughBackend(ctx context.Context, restaurant *domain.Restaurant) (*types.ApprovalResult, error) {
	updated, creds, err := s.approver.ApproveWithCredentials(ctx, restaurant.ID)
	if err != nil {
		if errors.Is(err, ports.ErrMissingCredentials) {
			return nil, fmt.Errorf("%w: restaurant %d was approved but the backend returned no credentials: %w",
				ErrPartialFailure, restaurant.ID, err)
		}
		return nil, mapError(err)
	}
	if recorder, ok := s.issuer.(ports.CredentialRecorder); ok {
		if err := recorder.Record(ctx, restaurant.ID, creds); err != nil {
			return nil, fmt.Errorf("%w: restaurant %d was approved but its credentials could not be stored for login: %w",
				ErrPartialFailure, restaurant.ID, err)
		}
	}
	if err := s.notifier.Send(ctx, ApprovalNotification(updated.Entity, creds)); err != nil {
		return nil, fmt.Errorf("%w: restaurant %d is approved but the approval email failed: %w",
			ErrPartialFailure, restaurant.ID, err)
	}
	return &types.ApprovalResult{
		RestaurantID:      updated.Entity.ID,
		Status:            updated.Entity.Status,
		Username:          creds.Username,
		TemporaryPassword: creds.TemporaryPassword,
		ExpiresAt:         creds.ExpiresAt,
	}, nil
}

func (s *Service) rollbackApproval(ctx context.Context, id int64, creds domain.Credentials) error {
	ctx = context.WithoutCancel(ctx)
	_, statusErr := s.store.SetStatus(ctx, id, domain.StatusApproved, domain.StatusPending)
	revokeErr := s.issuer.Revoke(ctx, id, creds)
	return errors.Join(statusErr, revokeErr)
}

// Reject declines a pending application. Rejecting an already rejected restaurant succeeds.
func (s *Service) Reject(ctx context.Context, input types.ConfirmedAction) (*types.RestaurantProjection, error) {
	if !input.Confirmed {
		return nil, ErrConfirmationRequired
	}
	return s.transition(ctx, input.ID, domain.TriggerReject)
}

// RequestWithdrawal records a restaurant-initiated request to leave the platform.
func (s *Service) RequestWithdrawal(ctx context.Context, input types.RestaurantIdentifier) (*types.RestaurantProjection, error) {
	return s.transition(ctx, input.ID, domain.TriggerRequestWithdrawal)
}

// ApproveWithdrawal deactivates the restaurant, removing it from customer listings.
func (s *Service) ApproveWithdrawal(ctx context.Context, input types.ConfirmedAction) (*types.RestaurantProjection, error) {
	if !input.Confirmed {
		return nil, ErrConfirmationRequired
	}
	return s.transition(ctx, input.ID, domain.TriggerApproveWithdrawal)
}

// RejectWithdrawal keeps the restaurant active and clears its withdrawal request.
func (s *Service) RejectWithdrawal(ctx context.Context, input types.ConfirmedAction) (*types.RestaurantProjection, error) {
	if !input.Confirmed {
		return nil, ErrConfirmationRequired
	}
	return s.transition(ctx, input.ID, domain.TriggerRejectWithdrawal)
}

// transition applies trigger under the in-flight guard. The status change is a
// compare-and-set so queue membership and visibility change in the same write.
func (s *Service) transition(ctx context.Context, id int64, trigger domain.Trigger) (*types.RestaurantProjection, error) {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	projection, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	current := projection.Entity.Status
	target, err := current.Next(trigger)
	if err != nil {
		if done, ok := settled[trigger]; ok && current == done {
			return projection, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	updated, err := s.store.SetStatus(ctx, id, current, target)
	if err != nil {
		if errors.Is(err, ports.ErrStatusConflict) {
			if reloaded, getErr := s.store.Get(ctx, id); getErr == nil && reloaded.Entity.Status == target {
				return reloaded, nil
			}
		}
		return nil, mapError(err)
	}
	return updated, nil
}

// acquire takes the in-flight guard for id and returns its release func.
func (s *Service) acquire(ctx context.Context, id int64) (func(), error) {
	ok, err := s.guard.TryAcquire(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %w: restaurant %d", ErrConflict, ports.ErrInFlight, id)
	}
	return func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), id); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to release in-flight guard",
				slog.Int64("restaurant.id", id),
				slog.String("error", err.Error()),
			)
		}
	}, nil
}
