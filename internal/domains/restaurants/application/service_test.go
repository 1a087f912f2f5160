package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/memory"
	types "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []ports.Notification
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeNotifier) Send(_ context.Context, n ports.Notification) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) byKind(kind ports.NotificationKind) []ports.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.Notification
	for _, n := range f.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type fakeIssuer struct {
	mu      sync.Mutex
	issued  map[int64]domain.Credentials
	issues  int
	revokes int
	err     error
}

func newFakeIssuer() *fakeIssuer {
	return &fakeIssuer{issued: map[int64]domain.Credentials{}}
}

func (f *fakeIssuer) Issue(_ context.Context, r *domain.Restaurant) (domain.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Credentials{}, f.err
	}
	f.issues++
	creds := domain.Credentials{Username: r.LoginUsername(), TemporaryPassword: "Abcdefgh2345"}
	f.issued[r.ID] = creds
	return creds, nil
}

func (f *fakeIssuer) Revoke(_ context.Context, id int64, creds domain.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokes++
	if f.issued[id] == creds {
		delete(f.issued, id)
	}
	return nil
}

func (f *fakeIssuer) Verify(_ context.Context, username, password string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, creds := range f.issued {
		if creds.Username == username && creds.TemporaryPassword == password {
			return id, nil
		}
	}
	return 0, ports.ErrInvalidCredentials
}

// revertFailingStore refuses approved -> pending so approval rollback fails.
type revertFailingStore struct {
	*memory.StatusStore
}

func (s revertFailingStore) SetStatus(ctx context.Context, id int64, from, to domain.Status) (*types.RestaurantProjection, error) {
	if from == domain.StatusApproved && to == domain.StatusPending {
		return nil, ports.ErrUnavailable
	}
	return s.StatusStore.SetStatus(ctx, id, from, to)
}

type harness struct {
	svc      *Service
	store    *memory.StatusStore
	issuer   *fakeIssuer
	notifier *fakeNotifier
}

func newHarness(opts ...Option) *harness {
	store := memory.NewStatusStore()
	issuer := newFakeIssuer()
	notifier := &fakeNotifier{}
	opts = append([]Option{WithApprovalMarkers(memory.NewMarkerStore()), WithLocation(time.UTC)}, opts...)
	return &harness{
		svc:      NewService(store, issuer, notifier, opts...),
		store:    store,
		issuer:   issuer,
		notifier: notifier,
	}
}

func (h *harness) register(t *testing.T, name, email string) int64 {
	t.Helper()
	result, err := h.svc.Register(context.Background(), types.RegisterInput{Application: validApplication(name, email)})
	require.NoError(t, err)
	return result.Restaurant.Entity.ID
}

func (h *harness) status(t *testing.T, id int64) domain.Status {
	t.Helper()
	p, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Entity.Status
}

func TestRegister_StoresPendingAndNotifies(t *testing.T) {
	h := newHarness()
	result, err := h.svc.Register(context.Background(), types.RegisterInput{Application: validApplication("Mario's Pizzeria", "mario@example.com")})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, result.Restaurant.Entity.Status)
	require.Equal(t, "FD-1", result.ApplicationRef)

	sent := h.notifier.byKind(ports.NotificationRegistrationReceived)
	require.Len(t, sent, 1)
	require.Equal(t, "mario@example.com", sent[0].To)
	require.Contains(t, sent[0].Subject, "FD-1")

	pending, err := h.svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "Mario's Pizzeria", pending[0].Entity.Name())
}

func TestRegister_InvalidApplicationNeverReachesStore(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Register(context.Background(), types.RegisterInput{Application: validApplication("Mario's Pizzeria", "bad")})
	require.ErrorIs(t, err, ErrValidation)

	all, err := h.store.ListByStatus(context.Background(), domain.AllStatuses()...)
	require.NoError(t, err)
	require.Empty(t, all)
	require.Empty(t, h.notifier.byKind(ports.NotificationRegistrationReceived))
}

func TestRegister_NotificationFailureDoesNotFailRegistration(t *testing.T) {
	h := newHarness()
	h.notifier.err = errors.New("smtp down")
	result, err := h.svc.Register(context.Background(), types.RegisterInput{Application: validApplication("Mario's Pizzeria", "mario@example.com")})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, result.Restaurant.Entity.Status)
}

func TestRegister_IdempotencyKeyReplaysAndDetectsConflicts(t *testing.T) {
	h := newHarness(WithIdempotencyStore(memory.NewIdempotencyStore()))
	ctx := context.Background()
	input := types.RegisterInput{Application: validApplication("Mario's Pizzeria", "mario@example.com"), IdempotencyKey: "abc"}

	first, err := h.svc.Register(ctx, input)
	require.NoError(t, err)
	again, err := h.svc.Register(ctx, input)
	require.NoError(t, err)
	require.True(t, again.Replayed)
	require.Equal(t, first.Restaurant.Entity.ID, again.Restaurant.Entity.ID)
	require.Len(t, h.notifier.byKind(ports.NotificationRegistrationReceived), 1)

	input.Application.Profile.Name = "Luigi's"
	_, err = h.svc.Register(ctx, input)
	require.ErrorIs(t, err, ErrConflict)
}

func TestApprove_IssuesCredentialsOnceAndListsRestaurant(t *testing.T) {
	h := newHarness()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")

	result, err := h.svc.Approve(context.Background(), types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, result.Status)
	require.Equal(t, "mario@example.com", result.Username)
	require.Len(t, result.TemporaryPassword, 12)
	require.Equal(t, 1, h.issuer.issues)

	approvals := h.notifier.byKind(ports.NotificationApproved)
	require.Len(t, approvals, 1)
	require.Contains(t, approvals[0].Body, result.TemporaryPassword)

	visible, err := h.svc.ListVisible(context.Background(), types.ListVisibleInput{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, id, visible[0].Restaurant.ID)
}

func TestApprove_NonPendingFailsAndLeavesStatus(t *testing.T) {
	h := newHarness()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")
	_, err := h.svc.Reject(context.Background(), types.ConfirmedAction{ID: id, Confirmed: true})
	require.NoError(t, err)

	_, err = h.svc.Approve(context.Background(), types.RestaurantIdentifier{ID: id})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Equal(t, domain.StatusRejected, h.status(t, id))
	require.Zero(t, h.issuer.issues)

	_, err = h.svc.Approve(context.Background(), types.RestaurantIdentifier{ID: 404})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApprove_ConcurrentSecondAttemptIsRejected(t *testing.T) {
	h := newHarness()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")
	h.notifier.block = make(chan struct{})
	h.notifier.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Approve(context.Background(), types.RestaurantIdentifier{ID: id})
		done <- err
	}()
	<-h.notifier.entered

	_, err := h.svc.Approve(context.Background(), types.RestaurantIdentifier{ID: id})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrInFlight)

	h.notifier.entered = nil
	close(h.notifier.block)
	require.NoError(t, <-done)
	require.Equal(t, 1, h.issuer.issues)
	require.Len(t, h.notifier.byKind(ports.NotificationApproved), 1)

	_, err = h.svc.Approve(context.Background(), types.RestaurantIdentifier{ID: id})
	require.ErrorIs(t, err, ErrNotFound, "guard is released after completion")
}

func TestApprove_NotificationFailureRollsBack(t *testing.T) {
	h := newHarness()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")
	h.notifier.err = errors.New("smtp down")

	_, err := h.svc.Approve(context.Background(), types.RestaurantIdentifier{ID: id})
	require.ErrorIs(t, err, ErrTransport)
	require.NotErrorIs(t, err, ErrPartialFailure)
	require.Equal(t, domain.StatusPending, h.status(t, id))
	require.Equal(t, 1, h.issuer.revokes)
	require.Empty(t, h.issuer.issued)

	h.notifier.err = nil
	result, err := h.svc.Approve(context.Background(), types.RestaurantIdentifier{ID: id})
	require.NoError(t, err, "operator retry succeeds")
	require.Equal(t, domain.StatusApproved, result.Status)
}

func TestApprove_FailedRollbackIsPartialFailure(t *testing.T) {
	store := revertFailingStore{StatusStore: memory.NewStatusStore()}
	notifier := &fakeNotifier{}
	svc := NewService(store, newFakeIssuer(), notifier)
	result, err := svc.Register(context.Background(), types.RegisterInput{Application: validApplication("Mario's Pizzeria", "mario@example.com")})
	require.NoError(t, err)

	notifier.err = errors.New("smtp down")
	_, err = svc.Approve(context.Background(), types.RestaurantIdentifier{ID: result.Restaurant.Entity.ID})
	require.ErrorIs(t, err, ErrPartialFailure)
}

func TestApprove_IssuerFailureKeepsPending(t *testing.T) {
	h := newHarness()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")
	h.issuer.err = ports.ErrUnavailable

	_, err := h.svc.Approve(context.Background(), types.RestaurantIdentifier{ID: id})
	require.ErrorIs(t, err, ErrTransport)
	require.Equal(t, domain.StatusPending, h.status(t, id))
	require.Empty(t, h.notifier.byKind(ports.NotificationApproved))
}

func TestReject_RequiresConfirmationAndIsIdempotent(t *testing.T) {
	h := newHarness()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")

	_, err := h.svc.Reject(context.Background(), types.ConfirmedAction{ID: id})
	require.ErrorIs(t, err, ErrConfirmationRequired)
	require.Equal(t, domain.StatusPending, h.status(t, id))

	first, err := h.svc.Reject(context.Background(), types.ConfirmedAction{ID: id, Confirmed: true})
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, first.Entity.Status)
	second, err := h.svc.Reject(context.Background(), types.ConfirmedAction{ID: id, Confirmed: true})
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, second.Entity.Status)

	pending, err := h.svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestWithdrawal_ApproveDelistsRestaurant(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")
	_, err := h.svc.Approve(ctx, types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)

	_, err = h.svc.RequestWithdrawal(ctx, types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)
	queue, err := h.svc.ListPendingWithdrawals(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	_, err = h.svc.ApproveWithdrawal(ctx, types.ConfirmedAction{ID: id})
	require.ErrorIs(t, err, ErrConfirmationRequired)

	updated, err := h.svc.ApproveWithdrawal(ctx, types.ConfirmedAction{ID: id, Confirmed: true})
	require.NoError(t, err)
	require.Equal(t, domain.StatusInactive, updated.Entity.Status)

	visible, err := h.svc.ListVisible(ctx, types.ListVisibleInput{})
	require.NoError(t, err)
	require.Empty(t, visible)
	queue, err = h.svc.ListPendingWithdrawals(ctx)
	require.NoError(t, err)
	require.Empty(t, queue)

	_, err = h.svc.ApproveWithdrawal(ctx, types.ConfirmedAction{ID: id, Confirmed: true})
	require.NoError(t, err, "retry is a no-op")
	_, err = h.svc.GetVisible(ctx, types.RestaurantIdentifier{ID: id})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWithdrawal_RejectRestoresPriorView(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")
	_, err := h.svc.Approve(ctx, types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)
	at := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	before, err := h.svc.ListVisible(ctx, types.ListVisibleInput{At: at})
	require.NoError(t, err)

	_, err = h.svc.RequestWithdrawal(ctx, types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)
	during, err := h.svc.ListVisible(ctx, types.ListVisibleInput{At: at})
	require.NoError(t, err)
	require.Equal(t, before[0].Orderable, during[0].Orderable)

	_, err = h.svc.RejectWithdrawal(ctx, types.ConfirmedAction{ID: id, Confirmed: true})
	require.NoError(t, err)
	after, err := h.svc.ListVisible(ctx, types.ListVisibleInput{At: at})
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, domain.StatusApproved, h.status(t, id))

	queue, err := h.svc.ListPendingWithdrawals(ctx)
	require.NoError(t, err)
	require.Empty(t, queue)
}

func TestRequestWithdrawal_OnlyFromApproved(t *testing.T) {
	h := newHarness()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")
	_, err := h.svc.RequestWithdrawal(context.Background(), types.RestaurantIdentifier{ID: id})
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, domain.StatusPending, h.status(t, id))
}

func TestTransition_GuardBlocksConcurrentMutation(t *testing.T) {
	guard := NewLocalInFlightGuard()
	h := newHarness(WithInFlightGuard(guard))
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")

	ok, err := guard.TryAcquire(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.svc.Reject(context.Background(), types.ConfirmedAction{ID: id, Confirmed: true})
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, guard.Release(context.Background(), id))
	_, err = h.svc.Reject(context.Background(), types.ConfirmedAction{ID: id, Confirmed: true})
	require.NoError(t, err)
}

func TestListVisible_OpenRestaurantsFirst(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	// Alpha is closed on Mondays.
	alpha := validApplication("Alpha Diner", "alpha@example.com")
	alpha.Hours.Monday = domain.DayHours{Closed: true}
	for _, seed := range []struct {
		app    domain.RestaurantApplication
		status domain.Status
	}{
		{alpha, domain.StatusApproved},
		{validApplication("Zeta Grill", "zeta@example.com"), domain.StatusWithdrawalRequested},
		{validApplication("Pending Place", "pending@example.com"), domain.StatusPending},
	} {
		r, err := domain.NewRestaurant(0, seed.app)
		require.NoError(t, err)
		r.Status = seed.status
		_, err = h.store.Create(ctx, r)
		require.NoError(t, err)
	}

	monday := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	visible, err := h.svc.ListVisible(ctx, types.ListVisibleInput{At: monday})
	require.NoError(t, err)
	require.Len(t, visible, 2)
	require.Equal(t, "Zeta Grill", visible[0].Restaurant.Name())
	require.True(t, visible[0].Orderable)
	require.Equal(t, "Alpha Diner", visible[1].Restaurant.Name())
	require.False(t, visible[1].Open)
	require.False(t, visible[1].Orderable)
}

func TestEnterDashboard_GatesOnStatus(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.register(t, "Mario's Pizzeria", "mario@example.com")

	view, err := h.svc.EnterDashboard(ctx, types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)
	require.Equal(t, types.ViewPendingApproval, view.Kind)
	require.False(t, view.HasOperationalAccess())

	result, err := h.svc.Approve(ctx, types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)
	auth, err := h.svc.Authenticate(ctx, types.LoginInput{Username: "MARIO@example.com", Password: result.TemporaryPassword})
	require.NoError(t, err)
	require.Equal(t, id, auth.RestaurantID)

	first, err := h.svc.EnterDashboard(ctx, types.RestaurantIdentifier{ID: auth.RestaurantID})
	require.NoError(t, err)
	require.Equal(t, types.ViewDashboard, first.Kind)
	require.True(t, first.FirstApprovedSession)

	second, err := h.svc.EnterDashboard(ctx, types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)
	require.True(t, second.HasOperationalAccess())
	require.False(t, second.FirstApprovedSession)

	_, err = h.svc.RequestWithdrawal(ctx, types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)
	_, err = h.svc.ApproveWithdrawal(ctx, types.ConfirmedAction{ID: id, Confirmed: true})
	require.NoError(t, err)
	inactive, err := h.svc.EnterDashboard(ctx, types.RestaurantIdentifier{ID: id})
	require.NoError(t, err)
	require.Equal(t, types.ViewNotApproved, inactive.Kind)
	require.Equal(t, domain.StatusInactive, inactive.Status)
}

func TestAuthenticate_RejectsUnknownCredentials(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Authenticate(context.Background(), types.LoginInput{Username: "x@example.com", Password: "nope"})
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.svc.Authenticate(context.Background(), types.LoginInput{})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreatePending_StoresWithoutNotifying(t *testing.T) {
	h := newHarness()
	result, err := h.svc.CreatePending(context.Background(), types.RegisterInput{Application: validApplication("Mario's Pizzeria", "mario@example.com")})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, result.Restaurant.Entity.Status)
	require.Empty(t, h.notifier.byKind(ports.NotificationRegistrationReceived))
}
