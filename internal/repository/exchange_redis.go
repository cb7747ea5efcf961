package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/portal-auth-service/internal/domain"
)

const exchangeKeyPrefix = "diagnostic_exchange:"

// consumeScript performs the read-check-flip as one server-side unit. Redis
// executes scripts atomically, so concurrent redemptions of the same code
// serialize and exactly one observes used=0.
var consumeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
local used = redis.call('HGET', KEYS[1], 'used')
local created = tonumber(redis.call('HGET', KEYS[1], 'created_at'))
if used == '1' or created < tonumber(ARGV[1]) then
  return false
end
redis.call('HSET', KEYS[1], 'used', '1')
return redis.call('HMGET', KEYS[1], 'id', 'staff_user_id', 'customer_user_id', 'customer_access_token', 'customer_refresh_token', 'staff_access_token', 'created_at')
`)

type redisExchangeRepository struct {
	client *redis.Client
}

// NewRedisExchangeRepository returns a Redis-backed implementation. Records
// are stored as hashes without a key TTL: expiry is checked against the
// created_at field at consume time, matching the Postgres implementation, and
// used records stay behind for external housekeeping.
func NewRedisExchangeRepository(client *redis.Client) ExchangeCodeRepository {
	return &redisExchangeRepository{client: client}
}

func (r *redisExchangeRepository) Create(ctx context.Context, record *domain.ExchangeRecord) error {
	record.ID = uuid.NewString()
	record.Code = uuid.NewString()
	record.CreatedAt = time.Now().UTC().Truncate(time.Second)
	record.Used = false

	fields := map[string]any{
		"id":                     record.ID,
		"staff_user_id":          record.StaffUserID,
		"customer_user_id":       record.CustomerUserID,
		"customer_access_token":  record.CustomerAccessToken,
		"customer_refresh_token": record.CustomerRefreshToken,
		"staff_access_token":     record.StaffAccessToken,
		"created_at":             record.CreatedAt.Unix(),
		"used":                   "0",
	}
	return r.client.HSet(ctx, exchangeKeyPrefix+record.Code, fields).Err()
}

func (r *redisExchangeRepository) Consume(ctx context.Context, code string, cutoff time.Time) (*domain.ExchangeRecord, error) {
	res, err := consumeScript.Run(ctx, r.client, []string{exchangeKeyPrefix + code}, cutoff.Unix()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 7 {
		return nil, errors.New("unexpected consume script reply")
	}

	createdUnix, err := strconv.ParseInt(asString(values[6]), 10, 64)
	if err != nil {
		return nil, err
	}

	return &domain.ExchangeRecord{
		ID:                   asString(values[0]),
		Code:                 code,
		StaffUserID:          asString(values[1]),
		CustomerUserID:       asString(values[2]),
		CustomerAccessToken:  asString(values[3]),
		CustomerRefreshToken: asString(values[4]),
		StaffAccessToken:     asString(values[5]),
		CreatedAt:            time.Unix(createdUnix, 0).UTC(),
		Used:                 true,
	}, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
