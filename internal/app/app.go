// Package app wires the backend together and runs it.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"rasterview/internal/compositor"
	"rasterview/internal/engine"
	v1 "rasterview/internal/infrastructure/http/v1"
	"rasterview/internal/infrastructure/http/v1/handler"
	"rasterview/internal/layer"
	"rasterview/internal/project"
	"rasterview/internal/renderer"
	"rasterview/internal/tilecache"
	"rasterview/pkg/config"
	"rasterview/pkg/httpserver"
	"rasterview/pkg/logger"
	"rasterview/pkg/telemetry"
)

func Run() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l := logger.NewZapLogger(cfg.Logger.Level)

	l.Info("starting rasterview backend", "config", cfg)

	// Initialize OpenTelemetry if enabled
	var shutdownTelemetry func(context.Context) error
	if cfg.Telemetry.Enabled {
		var err error
		shutdownTelemetry, err = telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	eng := engine.NewHTTPEngine(cfg.Engine.BaseURL, cfg.Engine.Timeout, l)

	var cache tilecache.Store
	switch cfg.Cache.Backend {
	case "redis":
		redisStore, err := tilecache.NewRedisStore(tilecache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.Redis.TTL,
		})
		if err != nil {
			l.Fatal("failed to connect to redis tile store", "error", err)
		}
		defer redisStore.Close()
		cache = redisStore
		l.Info("using redis tile store", "addr", cfg.Cache.Redis.Addr)
	default:
		cache = tilecache.NewLRU(cfg.Cache.MaxSize)
		l.Info("using in-process tile cache", "maxSize", cfg.Cache.MaxSize)
	}

	registry := layer.NewRegistry(l)
	bridge := renderer.NewBridge(l)
	dispatcher := compositor.NewDispatcher(registry, eng, cache, bridge, l)
	defer dispatcher.Close()

	layers := compositor.NewLayerService(registry, eng, dispatcher, bridge, l)
	compositions := compositor.NewCompositionManager(registry, dispatcher, bridge, l)

	zoomTracker := compositor.NewZoomTracker(registry, dispatcher, bridge, l)
	zoomTracker.Start()
	defer zoomTracker.Close()

	store, err := project.NewStore(cfg.Project.Path, l)
	if err != nil {
		l.Fatal("failed to open project store", "path", cfg.Project.Path, "error", err)
	}
	defer store.Close()

	h := handler.NewHandler(validator.New(), registry, layers, dispatcher, compositions, eng, cache, bridge, store)

	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	server := httpserver.NewServer(cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Fatal("server forced to shutdown", "error", err)
	}

	l.Info("server stopped")
}
