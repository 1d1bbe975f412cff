package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pixgate/internal/config"
	"pixgate/internal/constants"
)

const pingTimeout = 3 * time.Second

// NewStore picks the session backend from cfg. The cookie backend needs no
// store and yields nil.
func NewStore(cfg config.Config, log *zap.Logger) (StoreInterface, error) {
	switch cfg.SessionStore {
	case constants.StoreCookie:
		log.Info("🍪 Sessions sealed into cookies")
		return nil, nil

	case constants.StoreRedis:
		if cfg.Redis.Enabled() {
			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			defer cancel()

			client := NewRedisClient(cfg.Redis)
			store, err := NewRedisStore(ctx, client, log)
			if err == nil {
				log.Info("💾 Using Redis session store", zap.String("addr", cfg.Redis.Addr()))
				return store, nil
			}
			_ = client.Close()
			log.Warn("⚠️  Redis connection failed", zap.Error(err))
		} else {
			log.Warn("⚠️  SESSION_STORE=redis but REDIS_HOST is empty")
		}
		log.Info("💾 Falling back to in-memory session store")
	}

	if cfg.SessionStore == constants.StoreMemory {
		log.Info("💾 Using in-memory session store")
	}
	return NewMemoryStore(constants.CleanupInterval, log), nil
}
