package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-auth-service/internal/domain"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mock
}

func TestExchangeRepo_Create(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewExchangeCodeRepository(mock)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO diagnostic_exchange_codes .* RETURNING id, created_at, used`).
		WithArgs(pgxmock.AnyArg(), "staff-1", "customer-1", "ca", "cr", "sa").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "used"}).AddRow("rec-1", now, false))

	record := &domain.ExchangeRecord{
		StaffUserID:          "staff-1",
		CustomerUserID:       "customer-1",
		CustomerAccessToken:  "ca",
		CustomerRefreshToken: "cr",
		StaffAccessToken:     "sa",
	}
	require.NoError(t, repo.Create(ctx, record))
	require.Equal(t, "rec-1", record.ID)
	require.NotEmpty(t, record.Code)
	require.False(t, record.Used)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExchangeRepo_Consume_FlipsUsedInsideTx(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewExchangeCodeRepository(mock)
	ctx := context.Background()

	cutoff := time.Now().Add(-time.Minute)
	created := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM diagnostic_exchange_codes WHERE code=\$1 AND used=false AND created_at >= \$2 FOR UPDATE`).
		WithArgs("code-1", cutoff).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "code", "staff_user_id", "customer_user_id",
			"customer_access_token", "customer_refresh_token", "staff_access_token",
			"created_at", "used",
		}).AddRow("rec-1", "code-1", "staff-1", "customer-1", "ca", "cr", "sa", created, false))
	mock.ExpectExec(`UPDATE diagnostic_exchange_codes SET used=true WHERE id=\$1`).
		WithArgs("rec-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	record, err := repo.Consume(ctx, "code-1", cutoff)
	require.NoError(t, err)
	require.True(t, record.Used)
	require.Equal(t, "staff-1", record.StaffUserID)
	require.Equal(t, "sa", record.StaffAccessToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExchangeRepo_Consume_NoMatchRollsBack(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewExchangeCodeRepository(mock)
	ctx := context.Background()

	cutoff := time.Now().Add(-time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM diagnostic_exchange_codes WHERE code=\$1 AND used=false AND created_at >= \$2 FOR UPDATE`).
		WithArgs("missing", cutoff).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Consume(ctx, "missing", cutoff)
	require.ErrorIs(t, err, ErrCodeNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
