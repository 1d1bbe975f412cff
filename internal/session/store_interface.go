package session

import (
	"context"
	"time"

	"pixgate/internal/captcha"
)

// SessionData is the serialized form of a Session, used for Redis values
// and sealed cookies.
type SessionData struct {
	ID        string             `json:"id"`
	Challenge *captcha.Challenge `json:"challenge,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

type StoreInterface interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, bool)
	Delete(ctx context.Context, id string)
	// OnExpire registers fn to run with the id of every session the store
	// finds expired.
	OnExpire(fn func(id string))
	Close() error
}
