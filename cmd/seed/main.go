// Package main seeds a development database with suppliers and medicines
// and prints bearer tokens for every role.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	appctx "medstore/internal/core/context"
	"medstore/internal/core/id"
	"medstore/internal/domain/auth"
	"medstore/internal/domain/inventory"
	"medstore/internal/domain/supplier"
	"medstore/internal/infrastructure/config"
	"medstore/internal/infrastructure/numerator"
	"medstore/internal/infrastructure/storage/postgres"
	"medstore/internal/infrastructure/storage/postgres/inventory_repo"
	"medstore/internal/infrastructure/storage/postgres/supplier_repo"
	"medstore/pkg/logger"
)

const seedActor = "seed"

type demoSupplier struct {
	name    string
	contact string
	email   string
	terms   int
}

type demoMedicine struct {
	name      string
	generic   string
	category  string
	quantity  int
	threshold int
	cost      string
	price     string
	supplier  int
}

var demoSuppliers = []demoSupplier{
	{name: "MediSupply Wholesale", contact: "Grace Otieno", email: "orders@medisupply.example", terms: 30},
	{name: "PharmaLink Distributors", contact: "Samuel Kariuki", email: "sales@pharmalink.example", terms: 14},
}

var demoMedicines = []demoMedicine{
	{name: "Paracetamol 500mg", generic: "Paracetamol", category: "Analgesic", quantity: 240, threshold: 100, cost: "0.05", price: "0.10", supplier: 0},
	{name: "Amoxicillin 250mg", generic: "Amoxicillin", category: "Antibiotic", quantity: 12, threshold: 50, cost: "0.20", price: "0.45", supplier: 0},
	{name: "Ibuprofen 400mg", generic: "Ibuprofen", category: "Analgesic", quantity: 30, threshold: 60, cost: "0.08", price: "0.18", supplier: 1},
	{name: "Metformin 500mg", generic: "Metformin", category: "Antidiabetic", quantity: 400, threshold: 80, cost: "0.06", price: "0.15", supplier: 1},
	{name: "Oral Rehydration Salts", generic: "ORS", category: "Electrolyte", quantity: 0, threshold: 40, cost: "0.30", price: "0.60", supplier: -1},
}

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

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)

	orgID := id.New()
	if raw := os.Getenv("SEED_ORGANIZATION_ID"); raw != "" {
		orgID, err = id.Parse(raw)
		if err != nil {
			log.Fatalw("invalid SEED_ORGANIZATION_ID", "error", err)
		}
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	supplierRepo := supplier_repo.New(txManager)
	suppliers := supplier.NewService(supplierRepo, numerator.New(pool), txManager, nil)
	medicines := inventory.NewService(inventory_repo.New(txManager), supplierRepo, txManager, nil)

	supplierIDs, err := seedSuppliers(ctx, suppliers, orgID)
	if err != nil {
		log.Fatalw("failed to seed suppliers", "error", err)
	}
	if err := seedMedicines(ctx, medicines, orgID, supplierIDs); err != nil {
		log.Fatalw("failed to seed medicines", "error", err)
	}
	log.Infow("demo data seeded",
		"organization_id", orgID,
		"suppliers", len(supplierIDs),
		"medicines", len(demoMedicines),
	)

	if err := printTokens(cfg, orgID); err != nil {
		log.Fatalw("failed to issue tokens", "error", err)
	}
}

func seedSuppliers(ctx context.Context, svc *supplier.Service, orgID id.ID) ([]id.ID, error) {
	ids := make([]id.ID, 0, len(demoSuppliers))
	for _, d := range demoSuppliers {
		s := supplier.NewSupplier(orgID, d.name)
		s.ContactPerson = &d.contact
		s.Email = &d.email
		s.PaymentTerms = d.terms
		if err := svc.Create(ctx, seedActor, s); err != nil {
			return nil, fmt.Errorf("supplier %q: %w", d.name, err)
		}
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func seedMedicines(ctx context.Context, svc *inventory.Service, orgID id.ID, supplierIDs []id.ID) error {
	expiry := time.Now().UTC().AddDate(2, 0, 0)
	for _, d := range demoMedicines {
		m := inventory.NewMedicine(orgID, d.name)
		m.GenericName = &d.generic
		m.Category = &d.category
		m.Quantity = d.quantity
		m.LowStockThreshold = d.threshold
		m.CostPrice = decimal.RequireFromString(d.cost)
		m.SellingPrice = decimal.RequireFromString(d.price)
		m.ExpiryDate = &expiry
		if d.supplier >= 0 {
			m.SupplierID = &supplierIDs[d.supplier]
		}
		if err := svc.Create(ctx, seedActor, m); err != nil {
			return fmt.Errorf("medicine %q: %w", d.name, err)
		}
	}
	return nil
}

// printTokens writes one export line per role, ready to paste into a shell.
func printTokens(cfg *config.Config, orgID id.ID) error {
	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	})

	fmt.Printf("\n# organization %s\n", orgID)
	for _, role := range []string{appctx.RoleAdmin, appctx.RoleManager, appctx.RolePharmacist, appctx.RoleCashier} {
		token, expiresAt, err := jwtService.Issue("seed-"+role, orgID, role)
		if err != nil {
			return err
		}
		fmt.Printf("# %s, expires %s\nexport MEDSTORE_TOKEN_%s=%s\n", role, expiresAt.Format(time.RFC3339), strings.ToUpper(role), token)
	}
	return nil
}
