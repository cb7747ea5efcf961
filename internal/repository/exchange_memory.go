package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/portal-auth-service/internal/domain"
)

type memoryExchangeRepository struct {
	mu      sync.Mutex
	records map[string]*domain.ExchangeRecord
}

// NewMemoryExchangeRepository returns an in-process implementation used for
// DSN-less development runs and in tests. The mutex makes the check-and-flip
// in Consume atomic with respect to concurrent callers.
func NewMemoryExchangeRepository() ExchangeCodeRepository {
	return &memoryExchangeRepository{records: make(map[string]*domain.ExchangeRecord)}
}

func (r *memoryExchangeRepository) Create(_ context.Context, record *domain.ExchangeRecord) error {
	record.ID = uuid.NewString()
	record.Code = uuid.NewString()
	record.CreatedAt = time.Now().UTC()
	record.Used = false

	stored := *record
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Code] = &stored
	return nil
}

func (r *memoryExchangeRepository) Consume(_ context.Context, code string, cutoff time.Time) (*domain.ExchangeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[code]
	if !ok || record.Used || record.CreatedAt.Before(cutoff) {
		return nil, ErrCodeNotFound
	}

	record.Used = true
	redeemed := *record
	return &redeemed, nil
}
