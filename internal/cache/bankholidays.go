package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/opsboard/internal/models"
)

const (
	bankHolidaysKey = "opsboard:bank_holidays"
	bankHolidaysTTL = time.Hour
)

// BankHolidayLoader reads the full bank holiday list from storage.
type BankHolidayLoader func(ctx context.Context) ([]models.BankHoliday, error)

// BankHolidayCache keeps the bank holiday list in Redis. With a nil client
// every call goes to the loader.
type BankHolidayCache struct {
	client redis.Cmdable
	load   BankHolidayLoader
}

func NewBankHolidayCache(client redis.Cmdable, load BankHolidayLoader) *BankHolidayCache {
	return &BankHolidayCache{client: client, load: load}
}

// All returns every bank holiday, from Redis when cached.
func (c *BankHolidayCache) All(ctx context.Context) ([]models.BankHoliday, error) {
	if c.client == nil {
		return c.load(ctx)
	}

	raw, err := c.client.Get(ctx, bankHolidaysKey).Bytes()
	switch {
	case err == nil:
		var list []models.BankHoliday
		if jsonErr := json.Unmarshal(raw, &list); jsonErr == nil {
			return list, nil
		}
		log.Warn("discarding corrupt bank holiday cache")
	case !errors.Is(err, redis.Nil):
		log.WithError(err).Warn("bank holiday cache read failed")
	}

	list, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(list); err == nil {
		if err := c.client.Set(ctx, bankHolidaysKey, data, bankHolidaysTTL).Err(); err != nil {
			log.WithError(err).Warn("bank holiday cache write failed")
		}
	}
	return list, nil
}

// Invalidate drops the cached list after a write.
func (c *BankHolidayCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, bankHolidaysKey).Err(); err != nil {
		log.WithError(err).Warn("bank holiday cache invalidate failed")
	}
}
