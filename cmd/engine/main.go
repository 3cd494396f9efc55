package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"post-board/internal/config"
	"post-board/internal/database"
	"post-board/internal/engine"
	"post-board/internal/handlers"
	"post-board/internal/media"
	"post-board/internal/middleware"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Sugar().Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Debug)
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	db, err := openDatabase(cfg)
	if err != nil {
		zap.S().Fatalf("Failed to open %s database: %v", cfg.Database.Type, err)
	}

	rdb := openRedis(cfg)

	// Initialize components
	metrics := utils.NewMetricsCollector()
	system := actor.NewActorSystem()
	boardEngine := engine.NewEngine(system, db, metrics, engine.Options{PostIdleTimeout: cfg.PostIdleTimeout})

	server := handlers.NewServer(system, boardEngine, metrics, media.NewInlineStore(cfg.Media.MaxBytes))
	server.RequestTimeout = cfg.Server.RequestTimeout
	server.MaxUploadBytes = cfg.Media.MaxBytes

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(cfg, server, metrics, rdb),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infof("Starting server on %s (db=%s)", httpServer.Addr, cfg.Database.Type)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalf("Server failed to start: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	zap.S().Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("HTTP server shutdown: %v", err)
	}
	system.Shutdown()
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Close(shutdownCtx); err != nil {
		zap.S().Errorf("Database close: %v", err)
	}
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openDatabase(cfg *config.Config) (database.DBAdapter, error) {
	switch cfg.Database.Type {
	case "memory":
		zap.S().Warn("Using in-memory storage; data is lost on restart")
		return database.NewMemoryDB(), nil
	default:
		return database.NewMongoDB(cfg.Database.URI, cfg.Database.Name)
	}
}

// openRedis returns nil when rate limiting is not configured. An unreachable
// Redis is logged and kept; the limiter lets requests through until it recovers.
func openRedis(cfg *config.Config) *redis.Client {
	if cfg.Redis.URL == "" {
		zap.S().Info("REDIS_URL not set, rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		zap.S().Warnf("Invalid REDIS_URL, rate limiting disabled: %v", err)
		return nil
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zap.S().Warnf("Redis ping failed: %v", err)
	}
	return rdb
}

func newRouter(cfg *config.Config, server *handlers.Server, metrics *utils.MetricsCollector, rdb *redis.Client) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger(metrics))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	r.MaxMultipartMemory = cfg.Media.MaxBytes

	if cfg.Server.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	var writeLimit gin.HandlerFunc
	if rdb != nil {
		writeLimit = middleware.RateLimit(rdb, "writes", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	server.RegisterRoutes(r, writeLimit)
	return r
}
