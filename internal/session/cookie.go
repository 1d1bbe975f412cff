package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pixgate/internal/captcha"
	"pixgate/internal/constants"
	"pixgate/internal/crypto"
	"pixgate/internal/utils"
)

type ManagerConfig struct {
	CookieName string
	TTL        time.Duration
	Sealer     *crypto.Sealer
	// Store holds session records. When nil the whole record is sealed
	// into the cookie instead of just its id.
	Store StoreInterface
	Now   func() time.Time
	Log   *zap.Logger
}

// Manager binds visitors to sessions through a single encrypted cookie.
type Manager struct {
	name   string
	ttl    time.Duration
	sealer *crypto.Sealer
	store  StoreInterface
	now    func() time.Time
	log    *zap.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = constants.SessionCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = constants.SessionDuration
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Manager{
		name:   cfg.CookieName,
		ttl:    cfg.TTL,
		sealer: cfg.Sealer,
		store:  cfg.Store,
		now:    cfg.Now,
		log:    cfg.Log,
	}
}

// Load returns the visitor's session, or a fresh unsaved one when the
// cookie is absent, tampered with, or expired.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Handle {
	h := &Handle{m: m, w: w, secure: utils.IsSecureRequest(r)}

	if sess, ok := m.open(r); ok {
		h.sess = sess
		return h
	}
	h.sess = newSession(m.now(), m.ttl)
	return h
}

func (m *Manager) open(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(m.name)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	plain, err := m.sealer.Open(cookie.Value)
	if err != nil {
		m.log.Debug("Discarding unreadable session cookie", zap.Error(err))
		return nil, false
	}

	if m.store != nil {
		return m.store.Get(r.Context(), string(plain))
	}

	var sd SessionData
	if err := json.Unmarshal(plain, &sd); err != nil {
		m.log.Debug("Discarding malformed session cookie", zap.Error(err))
		return nil, false
	}
	sess := fromData(sd)
	if sess.isExpiredAt(m.now()) {
		return nil, false
	}
	return sess, true
}

// Handle is one request's view of a session. It implements captcha.Session.
type Handle struct {
	m      *Manager
	w      http.ResponseWriter
	sess   *Session
	secure bool
}

var _ captcha.Session = (*Handle)(nil)

func (h *Handle) ID() string {
	return h.sess.ID
}

func (h *Handle) Challenge() *captcha.Challenge {
	return h.sess.Challenge
}

func (h *Handle) SetChallenge(c captcha.Challenge) {
	h.sess.Challenge = &c
}

// Save persists the session and refreshes the cookie. It must run before
// the response body is written.
func (h *Handle) Save(ctx context.Context) error {
	m := h.m
	h.sess.ExpiresAt = m.now().Add(m.ttl)

	var payload []byte
	if m.store != nil {
		if err := m.store.Save(ctx, h.sess); err != nil {
			return err
		}
		payload = []byte(h.sess.ID)
	} else {
		data, err := json.Marshal(h.sess.toData())
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		payload = data
	}

	value, err := m.sealer.Seal(payload)
	if err != nil {
		return fmt.Errorf("failed to seal session cookie: %w", err)
	}

	http.SetCookie(h.w, &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: constants.SessionCookieSameSite,
	})
	return nil
}
