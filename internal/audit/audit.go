// Package audit records compliance-relevant actions on matters. The actor
// writes through the Sink interface so the core logic stays decoupled from
// the storage backend; writes are best-effort relative to the request.
package audit

import (
	"context"
	"time"
)

// Action describes what was done to a matter.
type Action string

const (
	ActionStageAdvance Action = "stage_advance"
)

// Entry is a single audit trail record.
type Entry struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	OrganizationID string            `json:"organization_id"`
	MatterID       string            `json:"matter_id"`
	Actor          string            `json:"actor"`
	Action         Action            `json:"action"`
	OldValues      map[string]string `json:"old_values,omitempty"`
	NewValues      map[string]string `json:"new_values,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Sink is an append-only audit writer.
type Sink interface {
	Log(ctx context.Context, entry Entry) error
}
