package session

import "sync"

// expireHook holds the OnExpire callback. Cleanup loops read it while the
// server may still be wiring it up.
type expireHook struct {
	mu sync.RWMutex
	fn func(id string)
}

func (h *expireHook) set(fn func(id string)) {
	h.mu.Lock()
	h.fn = fn
	h.mu.Unlock()
}

func (h *expireHook) fire(id string) {
	h.mu.RLock()
	fn := h.fn
	h.mu.RUnlock()
	if fn != nil {
		fn(id)
	}
}
