package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-auth-service/internal/domain"
)

func newRecord() *domain.ExchangeRecord {
	return &domain.ExchangeRecord{
		StaffUserID:          "staff-1",
		CustomerUserID:       "customer-1",
		CustomerAccessToken:  "customer-access",
		CustomerRefreshToken: "customer-refresh",
		StaffAccessToken:     "staff-access",
	}
}

func TestMemoryExchange_CreateAndConsume(t *testing.T) {
	repo := NewMemoryExchangeRepository()
	ctx := context.Background()

	record := newRecord()
	require.NoError(t, repo.Create(ctx, record))
	require.NotEmpty(t, record.Code)
	require.False(t, record.Used)

	got, err := repo.Consume(ctx, record.Code, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, got.Used)
	require.Equal(t, "staff-1", got.StaffUserID)
	require.Equal(t, "customer-1", got.CustomerUserID)
	require.Equal(t, "staff-access", got.StaffAccessToken)
}

func TestMemoryExchange_SecondConsumeFails(t *testing.T) {
	repo := NewMemoryExchangeRepository()
	ctx := context.Background()

	record := newRecord()
	require.NoError(t, repo.Create(ctx, record))

	cutoff := time.Now().Add(-time.Minute)
	_, err := repo.Consume(ctx, record.Code, cutoff)
	require.NoError(t, err)

	_, err = repo.Consume(ctx, record.Code, cutoff)
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestMemoryExchange_NonDisclosure(t *testing.T) {
	repo := NewMemoryExchangeRepository()
	ctx := context.Background()

	// Unknown code.
	_, err := repo.Consume(ctx, "no-such-code", time.Now().Add(-time.Minute))
	require.ErrorIs(t, err, ErrCodeNotFound)

	// Already used.
	used := newRecord()
	require.NoError(t, repo.Create(ctx, used))
	_, err = repo.Consume(ctx, used.Code, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = repo.Consume(ctx, used.Code, time.Now().Add(-time.Minute))
	require.ErrorIs(t, err, ErrCodeNotFound)

	// Expired: a cutoff after creation makes the record too old.
	expired := newRecord()
	require.NoError(t, repo.Create(ctx, expired))
	_, err = repo.Consume(ctx, expired.Code, time.Now().Add(time.Minute))
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestMemoryExchange_ConcurrentConsume_SingleWinner(t *testing.T) {
	repo := NewMemoryExchangeRepository()
	ctx := context.Background()

	record := newRecord()
	require.NoError(t, repo.Create(ctx, record))

	const workers = 32
	cutoff := time.Now().Add(-time.Minute)

	var wg sync.WaitGroup
	results := make(chan error, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := repo.Consume(ctx, record.Code, cutoff)
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	var successes, misses int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, ErrCodeNotFound)
			misses++
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, workers-1, misses)
}

func TestMemoryExchange_DistinctCodesConsumeIndependently(t *testing.T) {
	repo := NewMemoryExchangeRepository()
	ctx := context.Background()

	first := newRecord()
	second := newRecord()
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NotEqual(t, first.Code, second.Code)

	cutoff := time.Now().Add(-time.Minute)
	_, err := repo.Consume(ctx, first.Code, cutoff)
	require.NoError(t, err)
	_, err = repo.Consume(ctx, second.Code, cutoff)
	require.NoError(t, err)
}
