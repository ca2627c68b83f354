package numerator

import (
	"context"
	"time"

	"medstore/internal/core/id"
)

// Generator generates sequential document numbers.
// Sequences are kept per organization, so two organizations may both own "PO-2026-00001".
type Generator interface {
	// GetNextNumber generates the next number of cfg's sequence for orgID.
	GetNextNumber(ctx context.Context, orgID id.ID, cfg Config, period time.Time) (string, error)
}
