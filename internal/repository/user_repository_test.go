package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func userColumns() []string {
	return []string{
		"id", "username", "email", "first_name", "last_name",
		"password_hash", "is_staff", "is_active", "created_at", "updated_at",
	}
}

func TestUserRepo_GetByUsername(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewUserRepository(mock)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users WHERE username=\$1`).
		WithArgs("admin").
		WillReturnRows(pgxmock.NewRows(userColumns()).
			AddRow("user-1", "admin", "admin@example.com", "Admin", "User", "hash", true, true, now, now))

	user, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.True(t, user.IsStaff)

	mock.ExpectQuery(`SELECT .* FROM users WHERE username=\$1`).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_ListCustomers(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewUserRepository(mock)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users WHERE is_staff=false AND is_active=true ORDER BY username`).
		WillReturnRows(pgxmock.NewRows(userColumns()).
			AddRow("user-2", "customer1", "c1@example.com", "John", "Doe", "hash", false, true, now, now).
			AddRow("user-3", "customer2", "c2@example.com", "Jane", "Smith", "hash", false, true, now, now))

	users, err := repo.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "customer1", users[0].Username)
	require.Equal(t, "customer2", users[1].Username)
	require.NoError(t, mock.ExpectationsWereMet())
}
