package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/credentials"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/memory"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/notifications"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain/domaintest"
)

type instrumented struct {
	svc    *Service
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newInstrumented(t *testing.T) instrumented {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	issuer := credentials.NewIssuer(memory.NewCredentialStore(), credentials.WithCost(bcrypt.MinCost))
	core := application.NewService(memory.NewStatusStore(), issuer, notifications.NewLogSender(logger))
	svc := New(core, WithLogger(logger), WithTracer(tp.Tracer(tracerName)), WithMeter(mp.Meter(tracerName))).(*Service)
	return instrumented{svc: svc, spans: recorder, reader: reader, logs: &logs}
}

func (i instrumented) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, i.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestService_ApproveIsTracedWithoutLeakingPassword(t *testing.T) {
	in := newInstrumented(t)
	ctx := context.Background()

	reg, err := in.svc.Register(ctx, restauranttypes.RegisterInput{Application: domaintest.ValidApplication("Mario's Pizzeria", "mario@example.com")})
	require.NoError(t, err)
	result, err := in.svc.Approve(ctx, restauranttypes.RestaurantIdentifier{ID: reg.Restaurant.Entity.ID})
	require.NoError(t, err)

	require.NotContains(t, in.logs.String(), result.TemporaryPassword)
	require.Contains(t, in.logs.String(), "restaurant approved")
	require.EqualValues(t, 1, in.counter(t, "restaurants.service.registered"))
	require.EqualValues(t, 1, in.counter(t, "restaurants.service.transitions"))

	var names []string
	for _, span := range in.spans.Ended() {
		names = append(names, span.Name())
	}
	require.Equal(t, []string{"Service.Register", "Service.Approve"}, names)
}

func TestService_FailedTransitionRecordsError(t *testing.T) {
	in := newInstrumented(t)

	_, err := in.svc.Reject(context.Background(), restauranttypes.ConfirmedAction{ID: 1})
	require.ErrorIs(t, err, application.ErrConfirmationRequired)

	ended := in.spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, codes.Error, ended[0].Status().Code)
	require.EqualValues(t, 1, in.counter(t, "restaurants.service.failures"))
	require.Contains(t, in.logs.String(), "restaurant transition failed")
}

func TestNew_DefaultsAreSafe(t *testing.T) {
	core := application.NewService(memory.NewStatusStore(), nil, nil)
	svc := New(core, WithLogger(nil), WithTracer(nil))
	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestErrorCategory(t *testing.T) {
	require.Equal(t, "conflict", errorCategory(application.ErrConflict))
	require.Equal(t, "internal", errorCategory(context.Canceled))
}
