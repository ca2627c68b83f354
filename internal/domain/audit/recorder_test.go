package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{"name": "Acme", "paymentTerms": 7, "phone": "123"}
	newState := map[string]any{"name": "Acme Pharma", "paymentTerms": 7, "email": "a@b.c"}

	changes := Diff(oldState, newState)

	assert.Len(t, changes, 3)
	assert.Equal(t, map[string]any{"old": "Acme", "new": "Acme Pharma"}, changes["name"])
	assert.Equal(t, map[string]any{"old": "123", "new": nil}, changes["phone"])
	assert.Equal(t, map[string]any{"old": nil, "new": "a@b.c"}, changes["email"])
	assert.NotContains(t, changes, "paymentTerms")
}
