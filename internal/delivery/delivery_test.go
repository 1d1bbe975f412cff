package delivery

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pixgate/internal/config"
)

func TestRedisSenderPushesJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisSender(client, "")
	msg := NewMessage("hello there", "192.0.2.1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Send(context.Background(), msg))

	items, err := mr.List("pixgate:messages")
	require.NoError(t, err)
	require.Len(t, items, 1)

	var got Message
	require.NoError(t, json.Unmarshal([]byte(items[0]), &got))
	assert.Equal(t, msg, got)
	assert.NotEmpty(t, got.ID)
}

func TestRedisSenderReportsFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	err := NewRedisSender(client, "k").Send(context.Background(), NewMessage("x", "", time.Now()))
	assert.Error(t, err)
}

func TestLogSenderLogsBody(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), NewMessage("ping", "192.0.2.1", time.Now())))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "ping", logs.All()[0].ContextMap()["body"])
}

func TestNewSender(t *testing.T) {
	s, closeFn, err := NewSender(config.Config{MessageSink: "log"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)
	assert.NoError(t, closeFn())

	mr := miniredis.RunT(t)
	cfg := config.Config{
		MessageSink: "redis",
		Redis:       config.RedisConfig{Host: mr.Host(), Port: mr.Port()},
	}
	s, closeFn, err = NewSender(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &RedisSender{}, s)
	assert.NoError(t, closeFn())
}
