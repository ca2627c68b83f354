// Package numerator provides the PostgreSQL implementation of document auto-numbering.
// It implements core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	corenumerator "medstore/internal/core/numerator"
)

// Querier is the part of a pool or transaction the service needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service hands out gap-free numbers from number_sequences.
//
// Numbers are taken on the pool, outside business transactions, so a rolled back
// order leaves a gap instead of holding the sequence row lock for its whole transaction.
type Service struct {
	querier Querier
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service.
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

const nextValueSQL = `
	INSERT INTO number_sequences (organization_id, key, current_val)
	VALUES ($1, $2, 1)
	ON CONFLICT (organization_id, key) DO UPDATE SET current_val = number_sequences.current_val + 1
	RETURNING current_val`

// GetNextNumber increments the sequence of cfg for orgID and formats the result.
// Pattern: PREFIX-YEAR-XXXXX (e.g., PO-2026-00001) or PREFIX-XXXXX.
func (s *Service) GetNextNumber(ctx context.Context, orgID id.ID, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	var num int64
	if err := s.querier.QueryRow(ctx, nextValueSQL, orgID, BuildKey(cfg, period)).Scan(&num); err != nil {
		return "", apperror.NewDatabase("next number", err)
	}
	return FormatNumber(cfg, period, num), nil
}

// BuildKey creates the sequence key for cfg in period.
func BuildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

// FormatNumber renders num with cfg's prefix, optional year and padding.
func FormatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}
