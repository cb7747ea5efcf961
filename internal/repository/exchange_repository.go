package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-auth-service/internal/domain"
)

// ErrCodeNotFound is the single outcome for every failed consume: a code that
// never existed, a code already used, and an expired code are indistinguishable
// to the caller. Returning distinct errors would aid enumeration of codes.
var ErrCodeNotFound = errors.New("exchange code not found")

// ExchangeCodeRepository persists pending diagnostic exchange records keyed
// by an unguessable code.
type ExchangeCodeRepository interface {
	// Create generates a fresh code, stores the record unused, and fills in
	// ID, Code and CreatedAt.
	Create(ctx context.Context, record *domain.ExchangeRecord) error
	// Consume redeems the record for code as one atomic unit: the record must
	// be unused and created at or after cutoff, and its used flag is flipped
	// before any other caller can observe it. Expired records are left in
	// place; expiry is a read-time predicate, not a deletion.
	Consume(ctx context.Context, code string, cutoff time.Time) (*domain.ExchangeRecord, error)
}

type exchangeCodeRepository struct {
	pool PgxPool
}

// NewExchangeCodeRepository returns a Postgres-backed implementation.
func NewExchangeCodeRepository(pool PgxPool) ExchangeCodeRepository {
	return &exchangeCodeRepository{pool: pool}
}

func (r *exchangeCodeRepository) Create(ctx context.Context, record *domain.ExchangeRecord) error {
	record.Code = uuid.NewString()

	const query = `
        INSERT INTO diagnostic_exchange_codes
            (code, staff_user_id, customer_user_id, customer_access_token, customer_refresh_token, staff_access_token)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, used`

	return r.pool.QueryRow(ctx, query,
		record.Code,
		record.StaffUserID,
		record.CustomerUserID,
		record.CustomerAccessToken,
		record.CustomerRefreshToken,
		record.StaffAccessToken,
	).Scan(&record.ID, &record.CreatedAt, &record.Used)
}

// Consume takes a row-level lock on the matching record before flipping its
// used flag, so two concurrent redemptions of the same code serialize and
// exactly one of them succeeds.
func (r *exchangeCodeRepository) Consume(ctx context.Context, code string, cutoff time.Time) (*domain.ExchangeRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        SELECT id, code, staff_user_id, customer_user_id, customer_access_token, customer_refresh_token, staff_access_token, created_at, used
        FROM diagnostic_exchange_codes
        WHERE code=$1 AND used=false AND created_at >= $2
        FOR UPDATE`

	var record domain.ExchangeRecord
	if err := tx.QueryRow(ctx, query, code, cutoff).Scan(
		&record.ID,
		&record.Code,
		&record.StaffUserID,
		&record.CustomerUserID,
		&record.CustomerAccessToken,
		&record.CustomerRefreshToken,
		&record.StaffAccessToken,
		&record.CreatedAt,
		&record.Used,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	const update = `UPDATE diagnostic_exchange_codes SET used=true WHERE id=$1`
	if _, err := tx.Exec(ctx, update, record.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	record.Used = true
	return &record, nil
}
