package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"pixgate/internal/captcha"
	"pixgate/internal/config"
	"pixgate/internal/constants"
	"pixgate/internal/crypto"
	"pixgate/internal/delivery"
	"pixgate/internal/security"
	"pixgate/internal/session"
)

type Server struct {
	Config         config.Config
	Log            *zap.Logger
	Store          session.StoreInterface
	Consumed       session.ConsumedStore
	Sessions       *session.Manager
	Captcha        *captcha.Service
	Sender         delivery.Sender
	Templates      *TemplateManager
	BruteProtector *security.BruteForceProtector
	AuditLogger    *security.AuditLogger

	// TargetName is the pool name shown to visitors, e.g. "car".
	TargetName string
	Now        func() time.Time

	closeSender func() error
}

func NewServer(cfg config.Config, log *zap.Logger) (*Server, error) {
	store, err := session.NewStore(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	sealer, err := crypto.NewSealer(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cookie sealer: %w", err)
	}

	target, err := captcha.ParseCategory(cfg.Captcha.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target category: %w", err)
	}

	primary := captcha.Pool{Name: constants.PrimaryPoolName, Size: constants.PrimaryPoolSize}
	secondary := captcha.Pool{Name: constants.SecondaryPoolName, Size: constants.SecondaryPoolSize}
	gen, err := captcha.NewGenerator(captcha.GeneratorConfig{
		Size:        constants.ChallengeSize,
		Probability: cfg.Captcha.Probability,
		Primary:     primary,
		Secondary:   secondary,
		Target:      target,
		Seed:        cfg.Captcha.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize challenge generator: %w", err)
	}

	tm, err := NewTemplateManager(log)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	sender, closeSender, err := delivery.NewSender(cfg, log)
	if err != nil {
		return nil, err
	}

	var auditLogger *security.AuditLogger
	if dir, err := security.DefaultAuditDir(); err == nil {
		auditLogger, err = security.NewAuditLogger(dir)
		if err != nil {
			log.Warn("Failed to initialize audit logger", zap.Error(err))
		}
	}
	if store != nil {
		store.OnExpire(auditLogger.LogSessionExpired)
	}

	consumed := session.NewConsumedStore(cfg, log)

	targetName := primary.Name
	if target == captcha.Secondary {
		targetName = secondary.Name
	}

	s := &Server{
		Config:   cfg,
		Log:      log,
		Store:    store,
		Consumed: consumed,
		Sessions: session.NewManager(session.ManagerConfig{
			CookieName: cfg.CookieName,
			TTL:        cfg.SessionTTL,
			Sealer:     sealer,
			Store:      store,
			Log:        log,
		}),
		Captcha:        captcha.NewService(gen, captcha.NewDirSource(cfg.Captcha.ImageDir), consumed, log),
		Sender:         sender,
		Templates:      tm,
		BruteProtector: security.NewBruteForceProtector(constants.MaxCaptchaFailures, constants.BlockDuration),
		AuditLogger:    auditLogger,
		TargetName:     targetName,
		Now:            time.Now,
		closeSender:    closeSender,
	}

	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(constants.EndpointCaptchaImage, s.HandleCaptchaImage)
	mux.HandleFunc(constants.EndpointCaptchaRefresh, s.HandleCaptchaRefresh)
	mux.HandleFunc(constants.EndpointSend, s.HandleSend)
	mux.HandleFunc(constants.EndpointHealth, s.HandleHealth)
	mux.HandleFunc(constants.EndpointRoot, s.HandleHome)

	var handler http.Handler = mux
	handler = security.MaxBodySize(constants.MaxBodySize)(handler)
	handler = RecoveryMiddleware(s.Log)(handler)
	handler = security.SecurityHeaders(handler)
	handler = GzipMiddleware(handler)
	handler = AccessLogMiddleware(s.Log)(handler)
	return handler
}

func (s *Server) Run() error {
	cfg := s.Config

	useTLS := false
	if cfg.TLS {
		if _, err := os.Stat(cfg.CertFile); err == nil {
			if _, err := os.Stat(cfg.KeyFile); err == nil {
				useTLS = true
			}
		}

		if !useTLS {
			s.Log.Warn("PIXGATE_ENABLE_TLS is true but certs not found", zap.String("cert", cfg.CertFile))
		}
	}

	handler := s.Handler()
	if !useTLS {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		IdleTimeout:       constants.IdleTimeout,
		ReadHeaderTimeout: constants.ReadHeaderLimit,
		MaxHeaderBytes:    1 << 20,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			s.Log.Info("🔒 HTTPS enabled (HTTP/2)")
			err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			s.Log.Info("🌐 HTTP mode (HTTP/2 enabled)")
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	s.Log.Info("🚀 pixgate server starting", zap.String("port", cfg.Port))

	select {
	case err, ok := <-errChan:
		s.Cleanup()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigChan:
	}

	s.Log.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		s.Log.Warn("Server forced to shutdown", zap.Error(err))
	}

	s.Cleanup()
	s.Log.Info("✅ Server stopped")
	return nil
}

func (s *Server) Cleanup() {
	s.BruteProtector.Close()
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.Log.Warn("Failed to close session store", zap.Error(err))
		}
	}
	if s.Consumed != nil {
		if err := s.Consumed.Close(); err != nil {
			s.Log.Warn("Failed to close consumed challenge store", zap.Error(err))
		}
	}
	if s.closeSender != nil {
		if err := s.closeSender(); err != nil {
			s.Log.Warn("Failed to close message sink", zap.Error(err))
		}
	}
	if err := s.AuditLogger.Close(); err != nil {
		s.Log.Warn("Failed to close audit logger", zap.Error(err))
	}
}
