package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type MemoryStore struct {
	sessions sync.Map
	expired  expireHook
	log      *zap.Logger
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewMemoryStore(interval time.Duration, log *zap.Logger) *MemoryStore {
	if log == nil {
		log = zap.NewNop()
	}
	store := &MemoryStore{
		log:      log,
		interval: interval,
		done:     make(chan struct{}),
	}
	store.wg.Add(1)
	go store.cleanupLoop()
	return store
}

func (st *MemoryStore) Save(_ context.Context, session *Session) error {
	st.log.Debug("💾 Saving session to memory", zap.String("session", session.ID))
	st.sessions.Store(session.ID, session.Clone())
	return nil
}

func (st *MemoryStore) Get(_ context.Context, id string) (*Session, bool) {
	val, ok := st.sessions.Load(id)
	if !ok {
		return nil, false
	}
	session := val.(*Session)
	if session.IsExpired() {
		st.sessions.Delete(id)
		st.expired.fire(id)
		return nil, false
	}
	return session.Clone(), true
}

func (st *MemoryStore) Delete(_ context.Context, id string) {
	st.sessions.Delete(id)
}

func (st *MemoryStore) OnExpire(fn func(id string)) {
	st.expired.set(fn)
}

// Close stops the cleanup loop. It is safe to call more than once.
func (st *MemoryStore) Close() error {
	st.once.Do(func() { close(st.done) })
	st.wg.Wait()
	return nil
}

func (st *MemoryStore) cleanupLoop() {
	defer st.wg.Done()
	ticker := time.NewTicker(st.interval)
	defer ticker.Stop()

	for {
		select {
		case <-st.done:
			return
		case now := <-ticker.C:
			st.sweep(now)
		}
	}
}

func (st *MemoryStore) sweep(now time.Time) int {
	removed := 0
	st.sessions.Range(func(key, value interface{}) bool {
		session := value.(*Session)
		if session.isExpiredAt(now) {
			st.sessions.Delete(key)
			removed++
			st.expired.fire(key.(string))
			st.log.Debug("🗑 Expired session cleaned up", zap.String("session", key.(string)))
		}
		return true
	})
	return removed
}
