// Package config turns the process environment into a typed Config.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"pixgate/internal/constants"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type RedisConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// Enabled reports whether a Redis host was configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:     c.Addr(),
		Username: c.Username,
		Password: c.Password,
		DB:       0,
	}
}

type CaptchaConfig struct {
	ImageDir    string
	Probability float64
	Target      string
	// Seed is zero when the generator should be seeded from crypto/rand.
	Seed uint64
}

type Config struct {
	Port     string
	TLS      bool
	CertFile string
	KeyFile  string

	SessionSecret string
	SessionStore  string
	CookieName    string
	SessionTTL    time.Duration

	Redis   RedisConfig
	Captcha CaptchaConfig

	MessageSink string
	LogLevel    string
	LogFormat   string
}

// Load reads configuration through getenv, which is os.Getenv in production.
func Load(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:          get("PORT", constants.DefaultPort),
		TLS:           strings.EqualFold(get("PIXGATE_ENABLE_TLS", "false"), "true"),
		CertFile:      get("PIXGATE_CERT_FILE", "certs/server.crt"),
		KeyFile:       get("PIXGATE_KEY_FILE", "certs/server.key"),
		SessionSecret: getenv("SESSION_SECRET"),
		SessionStore:  strings.ToLower(get("SESSION_STORE", constants.StoreCookie)),
		CookieName:    get("SESSION_COOKIE_NAME", constants.SessionCookieName),
		SessionTTL:    constants.SessionDuration,
		Redis: RedisConfig{
			Host:     get("REDIS_HOST", ""),
			Port:     get("REDIS_PORT", "6379"),
			Username: get("REDIS_USERNAME", ""),
			Password: get("REDIS_PASSWORD", ""),
		},
		Captcha: CaptchaConfig{
			ImageDir:    get("CAPTCHA_IMAGE_DIR", constants.DefaultImageDir),
			Probability: constants.PrimaryProbability,
			Target:      strings.ToLower(get("CAPTCHA_TARGET", constants.DefaultTargetPrimary)),
		},
		MessageSink: strings.ToLower(get("MESSAGE_SINK", constants.SinkLog)),
		LogLevel:    strings.ToLower(get("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(get("LOG_FORMAT", "console")),
	}

	if len(cfg.SessionSecret) < constants.SessionSecretMinLen {
		return Config{}, fmt.Errorf("%w: SESSION_SECRET must be at least %d characters", ErrInvalidConfig, constants.SessionSecretMinLen)
	}

	if raw := getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("%w: SESSION_TTL %q", ErrInvalidConfig, raw)
		}
		cfg.SessionTTL = ttl
	}

	if raw := getenv("CAPTCHA_PROBABILITY"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p < 0 || p > 1 {
			return Config{}, fmt.Errorf("%w: CAPTCHA_PROBABILITY %q", ErrInvalidConfig, raw)
		}
		cfg.Captcha.Probability = p
	}

	if raw := getenv("CAPTCHA_SEED"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: CAPTCHA_SEED %q", ErrInvalidConfig, raw)
		}
		cfg.Captcha.Seed = seed
	}

	switch cfg.SessionStore {
	case constants.StoreCookie, constants.StoreMemory, constants.StoreRedis:
	default:
		return Config{}, fmt.Errorf("%w: SESSION_STORE %q", ErrInvalidConfig, cfg.SessionStore)
	}

	switch cfg.Captcha.Target {
	case "primary", "secondary":
	default:
		return Config{}, fmt.Errorf("%w: CAPTCHA_TARGET %q", ErrInvalidConfig, cfg.Captcha.Target)
	}

	switch cfg.MessageSink {
	case constants.SinkLog, constants.SinkRedis:
	default:
		return Config{}, fmt.Errorf("%w: MESSAGE_SINK %q", ErrInvalidConfig, cfg.MessageSink)
	}

	if cfg.MessageSink == constants.SinkRedis && !cfg.Redis.Enabled() {
		return Config{}, fmt.Errorf("%w: MESSAGE_SINK=redis requires REDIS_HOST", ErrInvalidConfig)
	}

	return cfg, nil
}
