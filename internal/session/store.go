package session

import (
	"time"

	"github.com/google/uuid"

	"pixgate/internal/captcha"
)

// Session is the server-side record for one visitor.
type Session struct {
	ID        string
	Challenge *captcha.Challenge
	CreatedAt time.Time
	ExpiresAt time.Time
}

func newSession(now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) IsExpired() bool {
	return s.isExpiredAt(time.Now())
}

func (s *Session) isExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Clone returns a deep copy so stored records are never aliased by handlers.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Challenge != nil {
		c := *s.Challenge
		c.Items = append([]captcha.Item(nil), s.Challenge.Items...)
		cp.Challenge = &c
	}
	return &cp
}

func (s *Session) toData() SessionData {
	return SessionData{
		ID:        s.ID,
		Challenge: s.Challenge,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func fromData(d SessionData) *Session {
	return &Session{
		ID:        d.ID,
		Challenge: d.Challenge,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}
