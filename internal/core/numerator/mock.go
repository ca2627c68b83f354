package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medstore/internal/core/id"
)

// MockGenerator is an in-memory Generator for unit tests.
// Without GetNextNumberFunc it counts per organization and prefix.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, orgID id.ID, cfg Config, period time.Time) (string, error)

	mu       sync.Mutex
	counters map[string]int
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, orgID id.ID, cfg Config, period time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, orgID, cfg, period)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int)
	}
	key := orgID.String() + ":" + cfg.Prefix
	m.counters[key]++
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), m.counters[key]), nil
	}
	return fmt.Sprintf("%s-%05d", cfg.Prefix, m.counters[key]), nil
}

var _ Generator = (*MockGenerator)(nil)
