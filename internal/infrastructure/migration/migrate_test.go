package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/medstore?sslmode=disable", "pgx5://u:p@localhost:5432/medstore?sslmode=disable"},
		{"postgresql://localhost/medstore", "pgx5://localhost/medstore"},
		{"pgx5://localhost/medstore", "pgx5://localhost/medstore"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DatabaseURL(tt.in))
		})
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitMigrationCreatesTables(t *testing.T) {
	raw, err := fs.ReadFile(migrationsFS, "sql/000001_init.up.sql")
	require.NoError(t, err)

	for _, table := range []string{
		"suppliers", "medicines", "inventory_transactions", "purchase_orders",
		"purchase_order_items", "purchase_order_receipts", "audit_log", "number_sequences",
	} {
		assert.Contains(t, string(raw), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, string(raw), "CHECK (quantity >= 0)")
}
