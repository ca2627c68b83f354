package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"medstore/internal/domain/inventory"
	"medstore/internal/domain/purchasing"
	"medstore/internal/domain/reorder"
	"medstore/internal/domain/supplier"
	"medstore/internal/infrastructure/cache"
	"medstore/internal/infrastructure/config"
	"medstore/internal/infrastructure/numerator"
	"medstore/internal/infrastructure/storage/postgres"
	"medstore/internal/infrastructure/storage/postgres/inventory_repo"
	"medstore/internal/infrastructure/storage/postgres/purchasing_repo"
	"medstore/internal/infrastructure/storage/postgres/supplier_repo"
	"medstore/pkg/logger"
)

// application holds the wired services and the resources to release on exit.
type application struct {
	purchasing *purchasing.Service
	inventory  *inventory.Service
	suppliers  *supplier.Service
	reorder    *reorder.Service

	audit       *postgres.AuditRecorder
	redis       *redis.Client
	idempotency *cache.IdempotencyStore
}

// wire builds repositories and services on pool.
func wire(ctx context.Context, cfg *config.Config, pool *postgres.Pool) (*application, error) {
	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.Database.StatementTimeout)

	recorder, err := postgres.NewAuditRecorder(pool)
	if err != nil {
		return nil, fmt.Errorf("audit recorder: %w", err)
	}

	numbers := numerator.New(pool)

	supplierRepo := supplier_repo.New(txManager)
	medicineRepo := inventory_repo.New(txManager)
	orderRepo := purchasing_repo.New(txManager)

	supplierService := supplier.NewService(supplierRepo, numbers, txManager, recorder)
	inventoryService := inventory.NewService(medicineRepo, supplierRepo, txManager, recorder)
	purchasingService := purchasing.NewService(purchasing.Deps{
		Repo:      orderRepo,
		Suppliers: supplierRepo,
		Medicines: inventoryService,
		Ledger:    inventoryService,
		Numerator: numbers,
		TxManager: txManager,
		Audit:     recorder,
	}, purchasing.Config{
		TrackPartialReceipts: cfg.Purchasing.TrackPartialReceipts,
	})

	rule, err := reorder.CompileApprovalRule(cfg.Reorder.ApprovalRule)
	if err != nil {
		return nil, fmt.Errorf("reorder approval rule: %w", err)
	}
	reorderService := reorder.NewService(medicineRepo, purchasingService, txManager, reorder.Config{
		DefaultPaymentTerms: cfg.Reorder.DefaultPaymentTerms,
		ApprovalRule:        rule,
		Audit:               recorder,
	})

	app := &application{
		purchasing: purchasingService,
		inventory:  inventoryService,
		suppliers:  supplierService,
		reorder:    reorderService,
		audit:      recorder,
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			recorder.Close()
			return nil, err
		}
		app.redis = client
		app.idempotency = cache.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
		logger.Info(ctx, "idempotency store enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.IdempotencyTTL)
	}

	logger.Info(ctx, "services initialized",
		"track_partial_receipts", cfg.Purchasing.TrackPartialReceipts,
		"approval_rule", rule.String(),
	)
	return app, nil
}

// Close waits for pending audit writes and closes Redis.
func (a *application) Close() {
	a.audit.Close()
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
