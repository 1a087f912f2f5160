package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	types "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var (
	_ ports.Service           = (*Service)(nil)
	_ ports.RegistrationSteps = (*Service)(nil)
)

// Service orchestrates registration, approval, withdrawal and the access gates.
type Service struct {
	store       ports.RestaurantStatusStore
	issuer      ports.CredentialIssuer
	notifier    ports.NotificationPort
	guard       ports.InFlightGuard
	markers     ports.ApprovalMarkerStore
	idempotency ports.IdempotencyStore
	approver    ports.BackendApprover
	validator   *ApplicationValidator
	logger      *slog.Logger
	now         func() time.Time
	location    *time.Location
}

// Option customizes the service.
type Option func(*Service)

// WithInFlightGuard replaces the process-local guard, e.g. with a shared one.
func WithInFlightGuard(guard ports.InFlightGuard) Option {
	return func(s *Service) {
		if guard != nil {
			s.guard = guard
		}
	}
}

// WithApprovalMarkers wires the store backing the one-time approval summary.
func WithApprovalMarkers(markers ports.ApprovalMarkerStore) Option {
	return func(s *Service) {
		s.markers = markers
	}
}

// WithIdempotencyStore enables Idempotency-Key replay for registrations.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithBackendApproval hands approval to a record store that issues credentials itself.
func WithBackendApproval(approver ports.BackendApprover) Option {
	return func(s *Service) {
		s.approver = approver
	}
}

// WithLogger injects a slog logger for side-effect failures that are not returned to callers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone used to evaluate operating hours.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService wires the onboarding service. A nil notifier disables outbound notifications,
// which is only valid for processes that never approve restaurants.
func NewService(store ports.RestaurantStatusStore, issuer ports.CredentialIssuer, notifier ports.NotificationPort, opts ...Option) *Service {
	s := &Service{
		store:     store,
		issuer:    issuer,
		notifier:  notifier,
		guard:     NewLocalInFlightGuard(),
		validator: NewApplicationValidator(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		location:  time.Local,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ValidateApplication runs field validation without touching any collaborator.
func (s *Service) ValidateApplication(app domain.RestaurantApplication) error {
	return s.validator.Validate(app)
}

// Register validates the application, stores it as pending and sends the
// registration-received notification. Notification failures are logged only.
func (s *Service) Register(ctx context.Context, input types.RegisterInput) (*types.RegistrationResult, error) {
	result, err := s.CreatePending(ctx, input)
	if err != nil {
		return nil, err
	}
	if !result.Replayed {
		s.notifyRegistrationReceived(ctx, result.Restaurant.Entity)
	}
	return result, nil
}

// CreatePending validates and stores the application, honouring the idempotency key,
// without sending notifications. Durable workflows run the notification as its own step.
func (s *Service) CreatePending(ctx context.Context, input types.RegisterInput) (*types.RegistrationResult, error) {
	if err := s.validator.Validate(input.Application); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	var fingerprint string
	if key != "" && s.idempotency != nil {
		fp, err := FingerprintRegistration(input.Application)
		if err != nil {
			return nil, err
		}
		fingerprint = fp
		existing, err := s.idempotency.Get(ctx, key)
		if err != nil {
			return nil, mapError(err)
		}
		if existing != nil {
			return s.replayRegistration(ctx, existing, fingerprint)
		}
	}

	restaurant, err := domain.NewRestaurant(0, input.Application.Clone())
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.store.Create(ctx, restaurant)
	if err != nil {
		return nil, mapError(err)
	}

	if fingerprint != "" {
		stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{
			Key:          key,
			RequestHash:  fingerprint,
			RestaurantID: saved.Entity.ID,
		})
		if err != nil {
			if errors.Is(err, ports.ErrIdempotencyConflict) && stored != nil && stored.RequestHash == fingerprint {
				s.logger.LogAttrs(ctx, slog.LevelWarn, "duplicate registration raced on idempotency key",
					slog.Int64("restaurant.id", saved.Entity.ID),
					slog.Int64("restaurant.replayed_id", stored.RestaurantID),
				)
				return s.replayRegistration(ctx, stored, fingerprint)
			}
			return nil, mapError(err)
		}
	}

	return &types.RegistrationResult{
		Restaurant:     saved,
		ApplicationRef: saved.Entity.ApplicationRef(),
	}, nil
}

func (s *Service) replayRegistration(ctx context.Context, record *ports.IdempotencyRecord, fingerprint string) (*types.RegistrationResult, error) {
	if record.RequestHash != fingerprint {
		return nil, fmt.Errorf("%w: %w", ErrConflict, ports.ErrIdempotencyConflict)
	}
	projection, err := s.store.Get(ctx, record.RestaurantID)
	if err != nil {
		return nil, mapError(err)
	}
	return &types.RegistrationResult{
		Restaurant:     projection,
		ApplicationRef: domain.ApplicationRef(record.RestaurantID),
		Replayed:       true,
	}, nil
}

func (s *Service) notifyRegistrationReceived(ctx context.Context, r *domain.Restaurant) {
	if s.notifier == nil || r == nil {
		return
	}
	if err := s.notifier.Send(ctx, RegistrationReceivedNotification(r)); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "registration notification failed",
			slog.Int64("restaurant.id", r.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Get loads a restaurant regardless of status, for admin review.
func (s *Service) Get(ctx context.Context, input types.RestaurantIdentifier) (*types.RestaurantProjection, error) {
	projection, err := s.store.Get(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return projection, nil
}

// ListPending returns applications awaiting review.
func (s *Service) ListPending(ctx context.Context) ([]*types.RestaurantProjection, error) {
	result, err := s.store.ListByStatus(ctx, domain.StatusPending)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// ListPendingWithdrawals returns restaurants waiting for a withdrawal decision.
func (s *Service) ListPendingWithdrawals(ctx context.Context) ([]*types.RestaurantProjection, error) {
	result, err := s.store.ListByStatus(ctx, domain.StatusWithdrawalRequested)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}
