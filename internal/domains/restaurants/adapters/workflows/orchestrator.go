package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
	restaurantactivities "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/temporal/activities/restaurants"
	restaurantworkflows "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/temporal/workflows/restaurants"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalRegistrationWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineRegistrationWorkflows)(nil)
)

// ApplicationValidator rejects malformed applications before a workflow is started.
type ApplicationValidator interface {
	ValidateApplication(app domain.RestaurantApplication) error
}

// TemporalRegistrationWorkflows starts registration workflows on a Temporal cluster.
type TemporalRegistrationWorkflows struct {
	client    client.Client
	taskQueue string
	validator ApplicationValidator
}

// NewTemporalRegistrationWorkflows wires a Temporal client into the orchestrator.
func NewTemporalRegistrationWorkflows(c client.Client, validator ApplicationValidator) *TemporalRegistrationWorkflows {
	return &TemporalRegistrationWorkflows{client: c, taskQueue: restaurantworkflows.RegistrationTaskQueue, validator: validator}
}

// Register starts the Temporal workflow that stores an application and notifies the submitter.
func (o *TemporalRegistrationWorkflows) Register(ctx context.Context, input restauranttypes.RegisterInput) (*restauranttypes.RegistrationResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal registration workflows not configured")
	}
	if o.validator != nil {
		if err := o.validator.ValidateApplication(input.Application); err != nil {
			return nil, err
		}
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildRegistrationWorkflowID(input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		restaurantworkflows.RegistrationWorkflow,
		restaurantworkflows.RegistrationWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(input.IdempotencyKey) != "" {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var result restauranttypes.RegistrationResult
			if err := existingRun.Get(ctx, &result); err != nil {
				return nil, translateWorkflowError(err)
			}
			result.Replayed = true
			return &result, nil
		}
		return nil, fmt.Errorf("%w: %w", application.ErrTransport, err)
	}
	var result restauranttypes.RegistrationResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, translateWorkflowError(err)
	}
	return &result, nil
}

// translateWorkflowError maps activity failure types back onto the service error taxonomy.
func translateWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch appErr.Type() {
		case restaurantactivities.ErrTypeValidation:
			return fmt.Errorf("%w: %s", application.ErrValidation, appErr.Message())
		case restaurantactivities.ErrTypeConflict:
			return fmt.Errorf("%w: %s", application.ErrConflict, appErr.Message())
		}
	}
	return fmt.Errorf("%w: %w", application.ErrTransport, err)
}

// InlineRegistrationWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineRegistrationWorkflows struct {
	service ports.Service
}

// NewInlineRegistrationWorkflows wraps the onboarding service for synchronous execution.
func NewInlineRegistrationWorkflows(service ports.Service) *InlineRegistrationWorkflows {
	return &InlineRegistrationWorkflows{service: service}
}

// Register delegates to the application service without durable orchestration.
func (o *InlineRegistrationWorkflows) Register(ctx context.Context, input restauranttypes.RegisterInput) (*restauranttypes.RegistrationResult, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline registration workflows not configured")
	}
	return o.service.Register(ctx, input)
}

// buildRegistrationWorkflowID keys idempotent submissions by key and payload, so a reused
// key with a different payload reaches the service and is reported as a conflict.
func buildRegistrationWorkflowID(input restauranttypes.RegisterInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		fingerprint, err := application.FingerprintRegistration(input.Application)
		if err != nil {
			return fmt.Sprintf("restaurant-registration-idem-%s", hashComponent(key))
		}
		return fmt.Sprintf("restaurant-registration-idem-%s-%s", hashComponent(key), hashComponent(fingerprint))
	}
	return fmt.Sprintf("restaurant-registration-%d-%s", time.Now().UnixNano(), traceComponent)
}

func hashComponent(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	traceComponent := workflowTraceID(ctx)
	if traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
