package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/api"
	"github.com/bidzilla/bidzilla-web/pkg/auth"
	"github.com/bidzilla/bidzilla-web/pkg/config"
	"github.com/bidzilla/bidzilla-web/pkg/crypto"
	"github.com/bidzilla/bidzilla-web/pkg/handlers"
	"github.com/bidzilla/bidzilla-web/pkg/middleware"
	"github.com/bidzilla/bidzilla-web/pkg/pages"
	"github.com/bidzilla/bidzilla-web/pkg/session"
	"github.com/bidzilla/bidzilla-web/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("session_store", cfg.Session.Store),
		zap.Bool("token_sealing", cfg.Session.TokenKey != ""),
		zap.Bool("metrics", cfg.Metrics.Enabled))
	if cfg.Session.InsecureSecret {
		logger.Warn("SESSION_SECRET not set, using the local development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to set up session store", zap.Error(err))
	}
	defer closeStore()
	var managerOpts []session.ManagerOption
	if cfg.Session.TokenKey != "" {
		sealer, err := crypto.NewTokenSealer(cfg.Session.TokenKey)
		if err != nil {
			logger.Fatal("Failed to set up token sealing", zap.Error(err))
		}
		managerOpts = append(managerOpts, session.WithTokenSealer(sealer))
	}
	sessionManager := session.NewManager(store, cfg.Session.CookieName, logger, managerOpts...)

	client, err := api.NewClient(cfg.API.BaseURL, logger,
		api.WithTimeout(cfg.API.Timeout),
		api.WithReadRetries(cfg.API.ReadRetries))
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}

	inspector, err := auth.NewTokenInspector(cfg.Auth.JWKSURL)
	if err != nil {
		logger.Fatal("Failed to set up token verification", zap.Error(err))
	}
	defer inspector.Close()

	logger.Info("Backend configured",
		zap.String("api_base_url", client.BaseURL()),
		zap.Duration("api_timeout", cfg.API.Timeout),
		zap.Bool("jwks_verification", inspector.Verifying()))

	views, err := pages.NewRenderer(ui.FS())
	if err != nil {
		logger.Fatal("Failed to parse templates", zap.Error(err))
	}
	static, err := pages.StaticHandler(ui.FS())
	if err != nil {
		logger.Fatal("Failed to load static assets", zap.Error(err))
	}

	mux := http.NewServeMux()

	// Register handlers
	guard := auth.NewGuard(sessionManager, inspector, logger)
	pages.NewHandler(client, sessionManager, guard, views, logger).RegisterRoutes(mux)
	handlers.NewHealthHandler(cfg, client, logger).RegisterRoutes(mux)
	mux.Handle("GET /static/", static)
	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestID(middleware.RequestLogger(logger.Named("http"))(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting bidzilla-web",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		if cfg.TLSCertPath != "" {
			serveErr <- srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			serveErr <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		} else {
			logger.Info("HTTP server stopped")
		}
	}
}

// newLogger builds a development logger locally and a JSON production logger
// everywhere else, both at the configured level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.IsLocal() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", handlers.ServiceName)), nil
}

// newSessionStore returns the configured gorilla store and a func releasing
// whatever it holds open.
func newSessionStore(ctx context.Context, cfg *config.Config) (sessions.Store, func(), error) {
	settings := session.DeriveCookieSettings(cfg.BaseURL, cfg.Session.CookieDomain)

	if cfg.Session.Store != config.SessionStoreRedis {
		return session.NewCookieStore(cfg.Session.Secret, settings, cfg.Session.MaxAge), func() {}, nil
	}

	rdb, err := session.NewRedisClient(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	store := session.NewRedisStore(rdb, cfg.Redis.KeyPrefix, cfg.Session.Secret, settings, cfg.Session.MaxAge)
	return store, func() { _ = rdb.Close() }, nil
}
