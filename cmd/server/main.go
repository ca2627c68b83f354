// Package main is the entry point for the medstore API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medstore/internal/domain/auth"
	v1 "medstore/internal/infrastructure/http/v1"
	"medstore/internal/infrastructure/config"
	"medstore/internal/infrastructure/migration"
	"medstore/internal/infrastructure/storage/postgres"
	"medstore/pkg/logger"
)

const poolStatsInterval = 5 * time.Minute

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Printf("failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting medstore server", "env", cfg.App.Env)

	// --- Database ---
	if cfg.Database.AutoMigrate {
		if err := migrateUp(ctx, cfg.Database.DSN); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 {
		poolCfg.MinConns = cfg.Database.MinConns
	}
	if cfg.Database.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	}
	if cfg.Database.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	// --- Services ---
	app, err := wire(ctx, cfg, pool)
	if err != nil {
		log.Fatalw("failed to initialize services", "error", err)
	}
	defer app.Close()

	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	})

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:         log,
		JWTValidator:   jwtService,
		Database:       pool,
		PurchaseOrders: app.purchasing,
		Medicines:      app.inventory,
		Suppliers:      app.suppliers,
		Reorder:        app.reorder,
		Audit:          app.audit,
		Development:    cfg.App.IsDevelopment(),
	}
	if app.redis != nil {
		routerCfg.Redis = redisPinger{app.redis}
		routerCfg.Idempotency = app.idempotency
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(poolStatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				postgres.LogPoolStats(ctx, pool.Pool)
			}
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func migrateUp(ctx context.Context, dsn string) error {
	m, err := migration.New(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up(ctx)
}
