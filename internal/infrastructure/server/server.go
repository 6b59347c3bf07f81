package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/Galev01/LimiQuantix-sub002/internal/api/http"
	"github.com/Galev01/LimiQuantix-sub002/internal/api/middleware"
	"github.com/Galev01/LimiQuantix-sub002/internal/api/ws"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/session"
	"github.com/Galev01/LimiQuantix-sub002/internal/domain/workspace"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/config"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/logging"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/monitoring"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/tracing"
	"github.com/Galev01/LimiQuantix-sub002/internal/inventory"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	manager   *workspace.Manager
	inventory *inventory.Store
	layouts   *session.FileStore
	wsHandler *ws.Handler
	tracer    *tracing.Tracer
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return NewServerWithLogger(cfg, logger, prometheus.NewRegistry())
}

// NewServerWithLogger creates a server with an explicit logger and metrics
// registry
func NewServerWithLogger(cfg *config.Config, logger *logging.Logger, reg *prometheus.Registry) (*Server, error) {
	modifier, err := workspace.ParseModifier(cfg.Console.PrimaryModifier)
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing console workspace server",
		zap.String("port", cfg.Server.Port),
		zap.String("inventory_url", cfg.Inventory.BaseURL),
		zap.Int("max_sessions", cfg.Console.MaxSessions),
	)

	// Initialize metrics first (needed by other components)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	tracer := tracing.New("console-workspace", logger)

	// Inventory client and poller
	invOpts := inventory.DefaultOptions()
	invOpts.BaseURL = cfg.Inventory.BaseURL
	invOpts.Token = cfg.Inventory.Token
	invOpts.Timeout = cfg.Inventory.Timeout
	invOpts.RequestsPerSec = cfg.Inventory.RequestsPerSec
	invOpts.PageSize = cfg.Inventory.PageSize
	inventoryStore := inventory.NewStore(inventory.NewClient(invOpts)).
		WithMetrics(metrics).
		WithLogger(logger)

	manager := workspace.NewManager(workspace.Settings{
		MaxSessions:       cfg.Console.MaxSessions,
		ThumbnailInterval: cfg.Console.ThumbnailInterval,
		ThumbnailMaxBytes: cfg.Console.ThumbnailMaxBytes,
		Modifier:          modifier,
	}).
		WithInventory(inventoryStore).
		WithMetrics(metrics).
		WithLogger(logger)

	// Layout persistence (optional)
	var layouts *session.FileStore
	if cfg.Storage.Enabled {
		layouts, err = session.NewFileStore(cfg.Storage.Path)
		if err != nil {
			tracer.Close()
			return nil, fmt.Errorf("failed to open layout storage: %w", err)
		}
		manager.WithStore(layouts)
		logger.Info("Layout persistence enabled", zap.String("path", cfg.Storage.Path))
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(manager, inventoryStore).WithMetrics(metrics)
	if layouts != nil {
		handlers.WithLayouts(layouts)
	}
	wsHandler := ws.NewHandler(manager, cfg.Server.AllowedOrigins).
		WithLogger(logger).
		WithMetrics(metrics)

	handlers.Register(router)
	router.GET("/workspaces/:id/ws", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		manager:   manager,
		inventory: inventoryStore,
		layouts:   layouts,
		wsHandler: wsHandler,
		tracer:    tracer,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP, polls the inventory and updates the uptime gauge until
// ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	go s.inventory.Run(bgCtx, s.config.Inventory.RefreshInterval)
	go s.metrics.RunUptime(bgCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	s.wsHandler.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Close releases the server resources
func (s *Server) Close() error {
	s.wsHandler.Shutdown()
	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}
