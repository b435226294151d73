package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dojokit/booking/config"
	"github.com/dojokit/booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client      *redis.Client
	scheduleTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, scheduleTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		scheduleTTL: scheduleTTL,
	}
}

func (c *RedisCache) GetSchedule(ctx context.Context) ([]domain.SessionAvailability, error) {
	data, err := c.client.Get(ctx, scheduleKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var schedule []domain.SessionAvailability
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (c *RedisCache) SetSchedule(ctx context.Context, schedule []domain.SessionAvailability) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scheduleKey(), payload, c.scheduleTTL).Err()
}

// AcquireReservationLock guards reservation creation against double submits
// from the same member. The database unique index stays the real invariant;
// this only absorbs rapid repeats before the first insert lands.
func (c *RedisCache) AcquireReservationLock(ctx context.Context, sessionID, memberID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, reservationLockKey(sessionID, memberID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseReservationLock(ctx context.Context, sessionID, memberID int64) error {
	return c.client.Del(ctx, reservationLockKey(sessionID, memberID)).Err()
}

func scheduleKey() string {
	return "cache:schedule"
}

func reservationLockKey(sessionID, memberID int64) string {
	return fmt.Sprintf("lock:session:%d:member:%d", sessionID, memberID)
}
