package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

const tracerName = "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/observability/service"

// Service decorates the onboarding port with tracing, logging, and metrics.
// Temporary passwords never reach logs or span attributes.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Register records an application with instrumentation.
func (s *Service) Register(ctx context.Context, input restauranttypes.RegisterInput) (*restauranttypes.RegistrationResult, error) {
	ctx, span := s.startSpan(ctx, "Service.Register", attribute.Bool("restaurant.idempotent", input.IdempotencyKey != ""))
	defer span.End()

	s.logInfo(ctx, "registering restaurant", slog.String("restaurant.name", input.Application.Profile.Name))
	result, err := s.inner.Register(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register restaurant")
	}
	if result != nil && result.Restaurant != nil && result.Restaurant.Entity != nil {
		id := result.Restaurant.Entity.ID
		span.SetAttributes(attribute.Int64("restaurant.id", id), attribute.Bool("restaurant.replayed", result.Replayed))
		if !result.Replayed {
			s.metrics.recordRegistered(ctx)
		}
		s.logInfo(ctx, "restaurant registered", slog.Int64("restaurant.id", id), slog.String("application.ref", result.ApplicationRef), slog.Bool("replayed", result.Replayed))
	}
	return result, nil
}

// Get loads any restaurant for admin review.
func (s *Service) Get(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.RestaurantProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.Get", attribute.Int64("restaurant.id", input.ID))
	defer span.End()

	result, err := s.inner.Get(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get restaurant", slog.Int64("restaurant.id", input.ID))
	}
	return result, nil
}

// GetVisible loads a restaurant for customers.
func (s *Service) GetVisible(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.VisibleRestaurant, error) {
	ctx, span := s.startSpan(ctx, "Service.GetVisible", attribute.Int64("restaurant.id", input.ID))
	defer span.End()

	result, err := s.inner.GetVisible(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get visible restaurant", slog.Int64("restaurant.id", input.ID))
	}
	return result, nil
}

// ListPending returns the approval queue.
func (s *Service) ListPending(ctx context.Context) ([]*restauranttypes.RestaurantProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.ListPending")
	defer span.End()

	result, err := s.inner.ListPending(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list pending restaurants")
	}
	span.SetAttributes(attribute.Int("restaurant.result.count", len(result)))
	return result, nil
}

// ListPendingWithdrawals returns the withdrawal queue.
func (s *Service) ListPendingWithdrawals(ctx context.Context) ([]*restauranttypes.RestaurantProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.ListPendingWithdrawals")
	defer span.End()

	result, err := s.inner.ListPendingWithdrawals(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list pending withdrawals")
	}
	span.SetAttributes(attribute.Int("restaurant.result.count", len(result)))
	return result, nil
}

// ListVisible returns the customer listing.
func (s *Service) ListVisible(ctx context.Context, input restauranttypes.ListVisibleInput) ([]restauranttypes.VisibleRestaurant, error) {
	ctx, span := s.startSpan(ctx, "Service.ListVisible")
	defer span.End()

	result, err := s.inner.ListVisible(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list visible restaurants")
	}
	span.SetAttributes(attribute.Int("restaurant.result.count", len(result)))
	return result, nil
}

// Approve approves a pending restaurant; only the username is logged.
func (s *Service) Approve(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.ApprovalResult, error) {
	ctx, span := s.startSpan(ctx, "Service.Approve", attribute.Int64("restaurant.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "approving restaurant", slog.Int64("restaurant.id", input.ID))
	result, err := s.inner.Approve(ctx, input)
	if err != nil {
		s.metrics.recordFailure(ctx, "approve", err)
		return nil, s.handleError(ctx, span, err, "failed to approve restaurant", slog.Int64("restaurant.id", input.ID))
	}
	s.metrics.recordTransition(ctx, "approve", result.Status)
	s.logInfo(ctx, "restaurant approved", slog.Int64("restaurant.id", input.ID), slog.String("restaurant.username", result.Username))
	return result, nil
}

// Reject declines a pending restaurant.
func (s *Service) Reject(ctx context.Context, input restauranttypes.ConfirmedAction) (*restauranttypes.RestaurantProjection, error) {
	return s.confirmed(ctx, "reject", input, s.inner.Reject)
}

// RequestWithdrawal records a restaurant's withdrawal request.
func (s *Service) RequestWithdrawal(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.RestaurantProjection, error) {
	return s.transition(ctx, "request_withdrawal", input.ID, func(ctx context.Context) (*restauranttypes.RestaurantProjection, error) {
		return s.inner.RequestWithdrawal(ctx, input)
	})
}

// ApproveWithdrawal deactivates a restaurant.
func (s *Service) ApproveWithdrawal(ctx context.Context, input restauranttypes.ConfirmedAction) (*restauranttypes.RestaurantProjection, error) {
	return s.confirmed(ctx, "approve_withdrawal", input, s.inner.ApproveWithdrawal)
}

// RejectWithdrawal keeps a restaurant active.
func (s *Service) RejectWithdrawal(ctx context.Context, input restauranttypes.ConfirmedAction) (*restauranttypes.RestaurantProjection, error) {
	return s.confirmed(ctx, "reject_withdrawal", input, s.inner.RejectWithdrawal)
}

// Authenticate verifies restaurant credentials.
func (s *Service) Authenticate(ctx context.Context, input restauranttypes.LoginInput) (*restauranttypes.AuthenticatedRestaurant, error) {
	ctx, span := s.startSpan(ctx, "Service.Authenticate")
	defer span.End()

	result, err := s.inner.Authenticate(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "restaurant authentication failed")
	}
	span.SetAttributes(attribute.Int64("restaurant.id", result.RestaurantID))
	s.logInfo(ctx, "restaurant authenticated", slog.Int64("restaurant.id", result.RestaurantID))
	return result, nil
}

// EnterDashboard runs the dashboard gate.
func (s *Service) EnterDashboard(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.DashboardView, error) {
	ctx, span := s.startSpan(ctx, "Service.EnterDashboard", attribute.Int64("restaurant.id", input.ID))
	defer span.End()

	result, err := s.inner.EnterDashboard(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to enter dashboard", slog.Int64("restaurant.id", input.ID))
	}
	span.SetAttributes(attribute.String("dashboard.view", string(result.Kind)))
	return result, nil
}

func (s *Service) confirmed(
	ctx context.Context,
	op string,
	input restauranttypes.ConfirmedAction,
	call func(context.Context, restauranttypes.ConfirmedAction) (*restauranttypes.RestaurantProjection, error),
) (*restauranttypes.RestaurantProjection, error) {
	return s.transition(ctx, op, input.ID, func(ctx context.Context) (*restauranttypes.RestaurantProjection, error) {
		return call(ctx, input)
	})
}

func (s *Service) transition(
	ctx context.Context,
	op string,
	id int64,
	call func(context.Context) (*restauranttypes.RestaurantProjection, error),
) (*restauranttypes.RestaurantProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.Transition", attribute.String("restaurant.trigger", op), attribute.Int64("restaurant.id", id))
	defer span.End()

	s.logInfo(ctx, "applying restaurant transition", slog.String("trigger", op), slog.Int64("restaurant.id", id))
	result, err := call(ctx)
	if err != nil {
		s.metrics.recordFailure(ctx, op, err)
		return nil, s.handleError(ctx, span, err, "restaurant transition failed", slog.String("trigger", op), slog.Int64("restaurant.id", id))
	}
	if result != nil && result.Entity != nil {
		s.metrics.recordTransition(ctx, op, result.Entity.Status)
		span.SetAttributes(attribute.String("restaurant.status", string(result.Entity.Status)))
		s.logInfo(ctx, "restaurant transition applied", slog.String("trigger", op), slog.Int64("restaurant.id", id), slog.String("status", string(result.Entity.Status)))
	}
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	registered  metric.Int64Counter
	transitions metric.Int64Counter
	failures    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	registered, _ := m.Int64Counter("restaurants.service.registered", metric.WithDescription("Number of restaurant applications registered"))
	transitions, _ := m.Int64Counter("restaurants.service.transitions", metric.WithDescription("Number of applied restaurant status transitions"))
	failures, _ := m.Int64Counter("restaurants.service.failures", metric.WithDescription("Number of failed restaurant status transitions"))
	return serviceMetrics{
		registered:  registered,
		transitions: transitions,
		failures:    failures,
	}
}

func (m serviceMetrics) recordRegistered(ctx context.Context) {
	addCounter(ctx, m.registered, 1)
}

func (m serviceMetrics) recordTransition(ctx context.Context, trigger string, status domain.Status) {
	addCounter(ctx, m.transitions, 1, attribute.String("restaurant.trigger", trigger), attribute.String("restaurant.status", string(status)))
}

func (m serviceMetrics) recordFailure(ctx context.Context, trigger string, err error) {
	addCounter(ctx, m.failures, 1, attribute.String("restaurant.trigger", trigger), attribute.String("error.category", errorCategory(err)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
