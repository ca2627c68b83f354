// Package entity holds the fields every persisted aggregate shares.
package entity

import (
	"context"
	"time"

	"medstore/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains the identity, tenant and audit timestamps of a row.
// Every table carries organization_id; repositories filter on it in every query.
type BaseEntity struct {
	ID             id.ID     `db:"id" json:"id"`
	OrganizationID id.ID     `db:"organization_id" json:"organizationId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity creates a BaseEntity with generated ID and timestamps.
func NewBaseEntity(orgID id.ID) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:             id.New(),
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// BelongsTo reports whether the entity is owned by orgID.
func (b BaseEntity) BelongsTo(orgID id.ID) bool {
	return b.OrganizationID == orgID
}
