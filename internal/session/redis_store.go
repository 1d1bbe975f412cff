package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pixgate/internal/config"
	"pixgate/internal/constants"
)

// RedisStore keeps sessions as JSON values. Keys live RedisExpiryGrace past
// the session lifetime so the cleanup loop can see and report expired
// sessions before Redis drops them.
type RedisStore struct {
	client  *redis.Client
	log     *zap.Logger
	expired expireHook
	now     func() time.Time
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(cfg.Options())
}

func NewRedisStore(ctx context.Context, client *redis.Client, log *zap.Logger) (*RedisStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	st := &RedisStore{
		client: client,
		log:    log,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	st.wg.Add(1)
	go st.cleanupLoop(constants.CleanupInterval)
	return st, nil
}

func (st *RedisStore) Save(ctx context.Context, session *Session) error {
	jsonData, err := json.Marshal(session.toData())
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := session.ExpiresAt.Sub(st.now())
	if ttl <= 0 {
		return nil
	}

	key := constants.RedisKeyPrefix + session.ID
	if err := st.client.Set(ctx, key, jsonData, ttl+constants.RedisExpiryGrace).Err(); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}
	st.log.Debug("💾 Saving session to Redis", zap.String("session", session.ID), zap.Duration("ttl", ttl))
	return nil
}

func (st *RedisStore) Get(ctx context.Context, id string) (*Session, bool) {
	session, ok := st.load(ctx, id)
	if !ok {
		return nil, false
	}
	if session.isExpiredAt(st.now()) {
		st.Delete(ctx, id)
		st.expired.fire(id)
		return nil, false
	}
	return session, true
}

func (st *RedisStore) load(ctx context.Context, id string) (*Session, bool) {
	key := constants.RedisKeyPrefix + id

	data, err := st.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		st.log.Warn("Failed to get session from Redis", zap.String("session", id), zap.Error(err))
		return nil, false
	}

	var sd SessionData
	if err := json.Unmarshal(data, &sd); err != nil {
		st.log.Warn("Failed to unmarshal session", zap.String("session", id), zap.Error(err))
		return nil, false
	}
	return fromData(sd), true
}

func (st *RedisStore) Delete(ctx context.Context, id string) {
	key := constants.RedisKeyPrefix + id
	if err := st.client.Del(ctx, key).Err(); err != nil {
		st.log.Warn("Failed to delete session from Redis", zap.String("session", id), zap.Error(err))
	}
}

func (st *RedisStore) OnExpire(fn func(id string)) {
	st.expired.set(fn)
}

// Close stops the cleanup loop and closes the client. It is safe to call
// more than once.
func (st *RedisStore) Close() error {
	var err error
	st.once.Do(func() {
		close(st.done)
		st.wg.Wait()
		err = st.client.Close()
	})
	return err
}

func (st *RedisStore) cleanupLoop(interval time.Duration) {
	defer st.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-st.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			st.sweep(ctx)
			cancel()
		}
	}
}

// sweep scans every session key and removes the expired ones.
func (st *RedisStore) sweep(ctx context.Context) int {
	removed := 0
	iter := st.client.Scan(ctx, 0, constants.RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), constants.RedisKeyPrefix)
		session, ok := st.load(ctx, id)
		if !ok || !session.isExpiredAt(st.now()) {
			continue
		}
		st.Delete(ctx, id)
		st.expired.fire(id)
		removed++
		st.log.Debug("🗑 Expired session cleaned up (Redis)", zap.String("session", id))
	}
	if err := iter.Err(); err != nil {
		st.log.Warn("Redis scan error", zap.Error(err))
	}
	return removed
}
