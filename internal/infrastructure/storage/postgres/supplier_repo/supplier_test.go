package supplier_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstore/internal/core/id"
	"medstore/internal/domain"
	"medstore/internal/domain/supplier"
)

func TestListQuery(t *testing.T) {
	orgID := id.New()

	tests := []struct {
		name     string
		filter   supplier.Filter
		contains []string
		args     int
	}{
		{
			name:     "organization only",
			filter:   supplier.Filter{},
			contains: []string{"FROM suppliers WHERE organization_id = $1"},
			args:     1,
		},
		{
			name:     "active and search",
			filter:   supplier.Filter{ActiveOnly: true, ListFilter: domain.ListFilter{Search: "acme"}},
			contains: []string{"is_active = $2", "(name ILIKE $3 OR code ILIKE $4)"},
			args:     4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := listQuery(orgID, tt.filter).ToSql()
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, sql, want)
			}
			assert.Len(t, args, tt.args)
			assert.Equal(t, orgID, args[0])
		})
	}
}

func TestSelectByIDScopesOrganization(t *testing.T) {
	sql, args, err := selectByID(id.New(), id.New()).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE id = $1 AND organization_id = $2")
	assert.Len(t, args, 2)
	assert.Contains(t, sql, "payment_terms")
	assert.NotContains(t, sql, "*")
}
