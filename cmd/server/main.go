package main

import (
	"log"
	"os"

	"go.uber.org/zap"

	"pixgate/internal/config"
	"pixgate/internal/logger"
	"pixgate/internal/server"
	"pixgate/internal/utils"
)

func main() {
	if err := utils.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer l.Sync()

	s, err := server.NewServer(cfg, l)
	if err != nil {
		l.Fatal("Failed to initialize server", zap.Error(err))
	}

	if err := s.Run(); err != nil {
		l.Fatal("Server exited", zap.Error(err))
	}
}
