// Package delivery hands accepted messages to their downstream destination.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pixgate/internal/config"
	"pixgate/internal/constants"
)

type Message struct {
	ID         string    `json:"id"`
	Body       string    `json:"body"`
	ClientIP   string    `json:"client_ip,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

func NewMessage(body, clientIP string, now time.Time) Message {
	return Message{
		ID:         uuid.New().String(),
		Body:       body,
		ClientIP:   clientIP,
		ReceivedAt: now.UTC(),
	}
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the logger. It is the default sink.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("📨 Message received",
		zap.String("id", msg.ID),
		zap.String("client_ip", msg.ClientIP),
		zap.Time("received_at", msg.ReceivedAt),
		zap.String("body", msg.Body))
	return nil
}

// RedisSender appends messages as JSON to a Redis list for a consumer to pop.
type RedisSender struct {
	client *redis.Client
	key    string
}

func NewRedisSender(client *redis.Client, key string) *RedisSender {
	if key == "" {
		key = constants.RedisMessageList
	}
	return &RedisSender{client: client, key: key}
}

func (s *RedisSender) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push message to Redis: %w", err)
	}
	return nil
}

// NewSender builds the sink named by cfg.MessageSink. The returned close
// function releases any connection the sink holds.
func NewSender(cfg config.Config, log *zap.Logger) (Sender, func() error, error) {
	switch cfg.MessageSink {
	case constants.SinkRedis:
		client := redis.NewClient(cfg.Redis.Options())
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect message sink: %w", err)
		}
		log.Info("📮 Delivering messages to Redis list", zap.String("key", constants.RedisMessageList))
		return NewRedisSender(client, constants.RedisMessageList), client.Close, nil
	default:
		log.Info("📮 Delivering messages to the log")
		return NewLogSender(log), func() error { return nil }, nil
	}
}
