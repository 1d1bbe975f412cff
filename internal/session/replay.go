package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pixgate/internal/config"
	"pixgate/internal/constants"
)

// ConsumedStore records answered challenge ids for as long as a cookie
// carrying them could still be presented. It satisfies captcha.ReplayGuard.
type ConsumedStore interface {
	Consume(ctx context.Context, id string) (bool, error)
	Close() error
}

type MemoryConsumedStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewMemoryConsumedStore(ttl, interval time.Duration) *MemoryConsumedStore {
	st := &MemoryConsumedStore{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
		done: make(chan struct{}),
	}
	st.wg.Add(1)
	go st.cleanupLoop(interval)
	return st
}

func (st *MemoryConsumedStore) Consume(_ context.Context, id string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if until, ok := st.seen[id]; ok && now.Before(until) {
		return false, nil
	}
	st.seen[id] = now.Add(st.ttl)
	return true, nil
}

func (st *MemoryConsumedStore) Close() error {
	st.once.Do(func() { close(st.done) })
	st.wg.Wait()
	return nil
}

func (st *MemoryConsumedStore) cleanupLoop(interval time.Duration) {
	defer st.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-st.done:
			return
		case <-ticker.C:
			st.sweep()
		}
	}
}

func (st *MemoryConsumedStore) sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	removed := 0
	for id, until := range st.seen {
		if !now.Before(until) {
			delete(st.seen, id)
			removed++
		}
	}
	return removed
}

// RedisConsumedStore uses SET NX so every instance behind a load balancer
// agrees on which challenges are spent.
type RedisConsumedStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisConsumedStore(client *redis.Client, ttl time.Duration) *RedisConsumedStore {
	return &RedisConsumedStore{client: client, ttl: ttl}
}

func (st *RedisConsumedStore) Consume(ctx context.Context, id string) (bool, error) {
	first, err := st.client.SetNX(ctx, constants.RedisConsumedPrefix+id, 1, st.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark challenge consumed: %w", err)
	}
	return first, nil
}

func (st *RedisConsumedStore) Close() error {
	return st.client.Close()
}

// NewConsumedStore uses Redis whenever REDIS_HOST is set and reachable,
// regardless of the session backend, and memory otherwise. Consumed ids are
// kept for the session lifetime.
func NewConsumedStore(cfg config.Config, log *zap.Logger) ConsumedStore {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = constants.SessionDuration
	}

	if cfg.Redis.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()

		client := NewRedisClient(cfg.Redis)
		err := client.Ping(ctx).Err()
		if err == nil {
			log.Info("♻️  Tracking answered challenges in Redis")
			return NewRedisConsumedStore(client, ttl)
		}
		_ = client.Close()
		log.Warn("⚠️  Redis unreachable, tracking answered challenges in memory", zap.Error(err))
	}
	return NewMemoryConsumedStore(ttl, constants.CleanupInterval)
}
