package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/order360/internal/backend"
	"github.com/simp-lee/order360/internal/cache"
	"github.com/simp-lee/order360/internal/config"
	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/middleware"
	"github.com/simp-lee/order360/internal/module/dashboard"
	ordersmodule "github.com/simp-lee/order360/internal/module/orders"
	"github.com/simp-lee/order360/internal/module/view"
	"github.com/simp-lee/order360/internal/orders"
	"github.com/simp-lee/order360/web"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	cache  io.Closer
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, writeTimeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the saved-view database, the query cache, the backend
// client, services, handlers, middleware, template rendering, and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Saved-view database.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("database close error", slog.Any("error", err))
			}
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := config.Migrate(db, log.Logger, &domain.SavedView{}); err != nil {
			return nil, err
		}
	}

	// 3. Query cache and backend client.
	store, closer, err := newCacheStore(&cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("setup cache: %w", err)
	}
	defer func() {
		if success || closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			slog.Error("cache close error", slog.Any("error", err))
		}
	}()

	tokens, err := newTokenSource(&cfg.Backend.Token)
	if err != nil {
		return nil, fmt.Errorf("setup backend token: %w", err)
	}
	client, err := backend.New(backend.Options{
		BaseURL:      cfg.Backend.BaseURL,
		Timeout:      config.DurationOr(cfg.Backend.Timeout, 30*time.Second),
		Retries:      cfg.Backend.Retries,
		RetryBackoff: config.DurationOr(cfg.Backend.RetryBackoff, 200*time.Millisecond),
		MaxBodyBytes: cfg.Backend.MaxBodyBytes,
		Tokens:       tokens,
	})
	if err != nil {
		return nil, fmt.Errorf("setup backend client: %w", err)
	}
	log.Info("order backend configured",
		slog.String("base_url", cfg.Backend.BaseURL),
		slog.String("token_mode", cfg.Backend.Token.Mode),
		slog.Bool("cache", store != nil),
	)

	// 4. Manual dependency injection: backend/repository → service → handler.
	modules := buildModules(cfg, db, client, store)

	// 5. Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	corsConfig := resolveCORSConfig(cfg.Server.Mode, &cfg.Server.CORS)

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger),
		middleware.CORSWithConfig(corsConfig),
	)
	if rl := cfg.Server.RateLimit; rl.Enabled {
		engine.Use(middleware.NewRateLimiter(rl.RPS, rl.Burst).Middleware())
	}

	// 6. Template renderer: disk with hot reload in debug, embedded otherwise.
	var fsys fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 7. CSRF secret.
	csrfSecret := cfg.Server.CSRFSecret
	if isPlaceholderCSRFSecret(csrfSecret) {
		if cfg.Server.Mode == gin.ReleaseMode {
			return nil, errors.New("csrf_secret must be a non-placeholder value in release mode")
		}

		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate csrf secret: %w", err)
		}
		csrfSecret = hex.EncodeToString(b)
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	// 8. Routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:    modules,
		DB:         db,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{
		engine: engine,
		db:     db,
		cache:  closer,
		logger: log,
		cfg:    cfg,
	}, nil
}

// buildModules wires the order, dashboard and saved-view modules.
func buildModules(cfg *config.Config, db *gorm.DB, client *backend.Client, store cache.Store) []Module {
	ttl := config.DurationOr(cfg.Cache.TTL, 0)

	orderSvc := orders.NewService(client, orders.Options{Cache: store, StaleTime: ttl})
	orderModule := ordersmodule.NewModule(
		ordersmodule.NewOrderHandler(orderSvc),
		ordersmodule.NewOrderPageHandler(orderSvc, orders.NewLatest(), cfg.Orders.PhoneRegion),
	)

	dashSvc := dashboard.NewDashboardService(client, store, ttl)
	dashModule := dashboard.NewModule(
		dashboard.NewDashboardHandler(dashSvc),
		dashboard.NewDashboardPageHandler(dashSvc),
	)

	viewSvc := view.NewSavedViewService(view.NewSavedViewRepository(db))
	viewModule := view.NewModule(
		view.NewViewHandler(viewSvc),
		view.NewViewPageHandler(viewSvc),
	)

	return []Module{dashModule, orderModule, viewModule}
}

// newCacheStore builds the configured query cache. A disabled cache yields a
// nil store, which turns caching off in the services. The returned closer
// releases the redis connection or stops the memory cache's cleanup.
func newCacheStore(cfg *config.CacheConfig) (cache.Store, io.Closer, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	switch cfg.Driver {
	case config.CacheDriverMemory, "":
		m := cache.NewMemory(cfg.MaxSize)
		return m, m, nil
	case config.CacheDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return cache.NewRedis(client, cfg.Redis.Prefix), client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

// newTokenSource returns the bearer token source for backend calls.
func newTokenSource(cfg *config.TokenConfig) (backend.TokenSource, error) {
	switch cfg.Mode {
	case config.TokenModeNone, "":
		return backend.StaticToken(""), nil
	case config.TokenModeStatic:
		return backend.StaticToken(cfg.Static), nil
	case config.TokenModeJWT:
		return backend.NewJWTSource(backend.JWTConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
			Subject:  cfg.Subject,
			TTL:      config.DurationOr(cfg.TTL, 15*time.Minute),
		})
	default:
		return nil, fmt.Errorf("unsupported token mode %q", cfg.Mode)
	}
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

// resolveCORSConfig overlays the configured CORS settings on the defaults.
// Without an allowlist, release mode denies cross-origin requests.
func resolveCORSConfig(mode string, cfg *config.CORSConfig) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()
	if cfg == nil {
		cfg = &config.CORSConfig{}
	}

	switch {
	case len(cfg.AllowOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	case mode == gin.ReleaseMode:
		corsConfig.AllowOrigins = []string{}
	}
	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}
	if len(cfg.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowHeaders
	}
	if cfg.MaxAge != "" {
		corsConfig.MaxAge = cfg.MaxAge
	}
	corsConfig.AllowCredentials = cfg.AllowCredentials

	return corsConfig
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It shuts down gracefully within 5 seconds, then closes the cache connection
// and the database.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine, config.DurationOr(a.cfg.Server.Timeout, 60*time.Second))

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log().Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log().Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log().Error("server shutdown error", slog.Any("error", err))
		}
	}

	a.closeResources()

	a.log().Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}
	return runErr
}

// closeResources releases the cache connection and the database.
func (a *App) closeResources() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log().Error("cache close error", slog.Any("error", err))
		}
	}
	if a.db == nil {
		return
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.log().Error("database close error", slog.Any("error", err))
		return
	}
	a.log().Info("database connection closed")
}

func (a *App) log() *slog.Logger {
	if a.logger != nil {
		return a.logger.Logger
	}
	return slog.Default()
}
