package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/opsboard/internal/models"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, ScheduleKey, time.Minute)
	require.NoError(t, err)

	other, err := l.Lock(ctx, HolidayKey("e1"), time.Minute)
	require.NoError(t, err, "different keys don't contend")
	other()

	short, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, ScheduleKey, time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	unlock()
	again, err := l.Lock(ctx, ScheduleKey, time.Minute)
	require.NoError(t, err)
	again()
}

func TestLocalLocker_Expiry(t *testing.T) {
	l := NewLocalLocker()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	l.nowFn = func() time.Time { return now }

	stale, err := l.Lock(context.Background(), "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := l.Lock(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	stale()
	assert.Contains(t, l.held, "k", "an expired holder must not release the new lock")
	fresh()
	assert.NotContains(t, l.held, "k")
}

func TestLocalLocker_Serialises(t *testing.T) {
	l := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), ScheduleKey, time.Minute)
			if err != nil {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestBankHolidayCache_WithoutRedis(t *testing.T) {
	calls := 0
	c := NewBankHolidayCache(nil, func(context.Context) ([]models.BankHoliday, error) {
		calls++
		return []models.BankHoliday{{Date: "2024-12-25", Name: "Christmas Day"}}, nil
	})
	list, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, _ = c.All(context.Background())
	assert.Equal(t, 2, calls)
	c.Invalidate(context.Background())

	failing := NewBankHolidayCache(nil, func(context.Context) ([]models.BankHoliday, error) {
		return nil, errors.New("mongo down")
	})
	_, err = failing.All(context.Background())
	assert.Error(t, err)
}

func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	ctx := context.Background()
	client, err := Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Close()

	t.Run("locker", func(t *testing.T) {
		l := NewRedisLocker(client)
		key := "test:" + t.Name()
		unlock, err := l.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
		defer cancel()
		_, err = l.Lock(short, key, 5*time.Second)
		assert.ErrorIs(t, err, ErrLocked)

		unlock()
		again, err := l.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		again()
	})

	t.Run("bank holidays", func(t *testing.T) {
		calls := 0
		c := NewBankHolidayCache(client, func(context.Context) ([]models.BankHoliday, error) {
			calls++
			return []models.BankHoliday{{Date: "2024-05-27", Name: "Spring bank holiday"}}, nil
		})
		c.Invalidate(ctx)
		first, err := c.All(ctx)
		require.NoError(t, err)
		second, err := c.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)

		c.Invalidate(ctx)
		_, err = c.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})
}
