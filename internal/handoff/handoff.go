// Package handoff persists and delivers the signal that a matter should be
// routed to a human attorney. Delivery is best-effort relative to the
// request that produced the recommendation: the actor never fails an
// advance because a webhook was down.
package handoff

import "time"

// DirectiveHandoffToIntake is the response directive consumed by
// human-routing tooling.
const DirectiveHandoffToIntake = "handoff_to_intake"

// Notification is a single handoff signal.
type Notification struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	MatterID       string    `json:"matter_id"`
	Reason         string    `json:"reason"`
	Message        string    `json:"message"`
	RiskLevel      string    `json:"risk_level"`
	Delivered      bool      `json:"delivered"`
	CreatedAt      time.Time `json:"created_at"`
}
