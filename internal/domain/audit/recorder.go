// Package audit defines the audit-log sink consumed by domain services.
package audit

import (
	"context"
	"fmt"

	"medstore/internal/core/id"
)

// Action names an audited operation.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionDeactivate Action = "deactivate"
	ActionApprove    Action = "approve"
	ActionOrder      Action = "order"
	ActionReceive    Action = "receive"
	ActionCancel     Action = "cancel"
	ActionAdjust     Action = "adjust"
	ActionGenerate   Action = "generate"
)

// Entry is one audit record.
type Entry struct {
	OrganizationID id.ID
	EntityType     string
	EntityID       id.ID
	Action         Action
	ActorID        string
	Changes        map[string]any
}

// Recorder is a fire-and-forget sink. Implementations must not block the caller
// on storage and must not report failures back; they log them instead.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

// Diff returns the fields whose values differ between two states as {"old", "new"} pairs.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if fmt.Sprint(oldVal) != fmt.Sprint(newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}
