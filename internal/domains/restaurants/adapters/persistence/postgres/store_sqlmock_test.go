package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
	types "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func restaurantRows(id int64, status domain.Status) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "cuisines", "hours", "menu_items", "status"}).
		AddRow(id, "Mario's Pizzeria", "mario@example.com", "{italian,pizza}",
			[]byte(`{"Monday":{"Open":"11:00","Close":"22:00","Closed":false}}`),
			[]byte(`[{"Name":"Margherita","Price":12.5,"Category":"Pizza"}]`),
			string(status))
}

func TestStatusStore_SetStatusAppliesConditionalUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStatusStore(db)

	mock.ExpectExec(`UPDATE "restaurants" SET .* WHERE id = \$3 AND status = \$4`).
		WithArgs(string(domain.StatusApproved), sqlmock.AnyArg(), int64(7), string(domain.StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "restaurants" WHERE id = \$1`).
		WillReturnRows(restaurantRows(7, domain.StatusApproved))

	updated, err := store.SetStatus(context.Background(), 7, domain.StatusPending, domain.StatusApproved)
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, updated.Entity.Status)
	require.Equal(t, []string{"italian", "pizza"}, updated.Entity.Application.Profile.Cuisines)
	require.Equal(t, "22:00", updated.Entity.Application.Hours.Monday.Close)
	require.Len(t, updated.Entity.Application.MenuItems, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusStore_SetStatusReportsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStatusStore(db)

	mock.ExpectExec(`UPDATE "restaurants" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "restaurants"`).WillReturnRows(restaurantRows(7, domain.StatusRejected))

	_, err := store.SetStatus(context.Background(), 7, domain.StatusPending, domain.StatusApproved)
	require.ErrorIs(t, err, ports.ErrStatusConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusStore_SetStatusUnknownRestaurant(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStatusStore(db)

	mock.ExpectExec(`UPDATE "restaurants" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "restaurants"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.SetStatus(context.Background(), 99, domain.StatusPending, domain.StatusApproved)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStatusStore_DriverFailureIsUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStatusStore(db)
	driverErr := errors.New("pq: connection reset by peer")

	mock.ExpectExec(`UPDATE "restaurants" SET`).WillReturnError(driverErr)
	mock.ExpectQuery(`SELECT \* FROM "restaurants"`).WillReturnError(driverErr)

	_, err := store.SetStatus(context.Background(), 7, domain.StatusPending, domain.StatusApproved)
	require.ErrorIs(t, err, ports.ErrUnavailable)
	require.ErrorIs(t, err, driverErr)

	_, err = store.Get(context.Background(), 7)
	require.ErrorIs(t, err, ports.ErrUnavailable)
	require.NotErrorIs(t, err, ports.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusStore_DriverFailureSurfacesAsTransport(t *testing.T) {
	db, mock := newMockDB(t)
	svc := application.NewService(NewStatusStore(db), nil, nil)

	mock.ExpectQuery(`SELECT \* FROM "restaurants" WHERE id = \$1`).
		WillReturnRows(restaurantRows(7, domain.StatusPending))
	mock.ExpectExec(`UPDATE "restaurants" SET`).
		WillReturnError(errors.New("pq: canceling statement due to statement timeout"))

	_, err := svc.Reject(context.Background(), types.ConfirmedAction{ID: 7, Confirmed: true})
	require.ErrorIs(t, err, application.ErrTransport)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_DeleteIssuedMatchesHash(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewCredentialStore(db)

	mock.ExpectExec(`DELETE FROM "restaurant_credentials" WHERE restaurant_id = \$1 AND password_hash = \$2`).
		WithArgs(int64(7), "hash-a").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "restaurant_credentials"`).
		WillReturnError(errors.New("pq: too many connections"))

	require.NoError(t, store.DeleteIssued(context.Background(), 7, "hash-a"))
	err := store.DeleteIssued(context.Background(), 7, "hash-a")
	require.ErrorIs(t, err, ports.ErrUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusStore_ListByStatusFiltersInQuery(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStatusStore(db)

	rows := restaurantRows(1, domain.StatusApproved)
	rows.AddRow(2, "Luigi's", "luigi@example.com", "{}", []byte(`{}`), []byte(`[]`), string(domain.StatusWithdrawalRequested))
	mock.ExpectQuery(`SELECT \* FROM "restaurants" WHERE status IN \(\$1,\$2\) ORDER BY id`).
		WithArgs(string(domain.StatusApproved), string(domain.StatusWithdrawalRequested)).
		WillReturnRows(rows)

	result, err := store.ListByStatus(context.Background(), domain.StatusApproved, domain.StatusWithdrawalRequested)
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, domain.StatusWithdrawalRequested, result[1].Entity.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkerStore_ReportsFirstInsertOnly(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewMarkerStore(db)

	mock.ExpectExec(`INSERT INTO "restaurant_approval_markers" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "restaurant_approval_markers"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := store.MarkSeen(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, first)
	again, err := store.MarkSeen(context.Background(), 3)
	require.NoError(t, err)
	require.False(t, again)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_PurgeExpiredSkipsUsedCredentials(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewCredentialStore(db)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM "restaurant_credentials" WHERE used_at IS NULL AND expires_at IS NOT NULL AND expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	purged, err := store.PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	require.EqualValues(t, 2, purged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStores_RequireDB(t *testing.T) {
	_, err := NewStatusStore(nil).Get(context.Background(), 1)
	require.Error(t, err)
	_, err = NewMarkerStore(nil).MarkSeen(context.Background(), 1)
	require.Error(t, err)
	_, err = NewIdempotencyStore(nil, 0).Get(context.Background(), "k")
	require.Error(t, err)
	require.ErrorIs(t, NewCredentialStore(nil).DeleteIssued(context.Background(), 1, "h"), ports.ErrUnavailable)
}
