package dto

import (
	"github.com/shopspring/decimal"

	"medstore/internal/core/id"
	"medstore/internal/domain/reorder"
)

// GenerateOrdersRequest configures one auto-generation run.
type GenerateOrdersRequest struct {
	// GroupBySupplier defaults to true
	GroupBySupplier *bool           `json:"groupBySupplier,omitempty"`
	MinOrderValue   decimal.Decimal `json:"minOrderValue" binding:"decimal_gte0"`
	AutoApprove     bool            `json:"autoApprove"`
}

// ToInput converts the request to a service input.
func (r *GenerateOrdersRequest) ToInput(orgID id.ID, actorID string) reorder.GenerateInput {
	group := true
	if r.GroupBySupplier != nil {
		group = *r.GroupBySupplier
	}
	return reorder.GenerateInput{
		OrganizationID:  orgID,
		ActorID:         actorID,
		GroupBySupplier: group,
		MinOrderValue:   r.MinOrderValue,
		AutoApprove:     r.AutoApprove,
	}
}
