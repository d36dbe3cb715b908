package models

import "time"

// Invitation statuses. Pending rows past their expiry are treated as
// expired by every reader; the stored status only catches up when the
// housekeeping sweep runs.
const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationExpired   = "expired"
	InvitationCancelled = "cancelled"
)

// Invitation represents the right to activate exactly one profile.
// A profile may accumulate historical rows (cancelled, expired) across
// renewals; at most one row is live at a time.
type Invitation struct {
	ID               string
	Token            string
	InvitedByAdminID string
	ProfileID        string
	LinkedProfileID  string // set on acceptance
	Email            string
	Status           string
	ExpiresAt        time.Time
	CreatedAt        time.Time
	AcceptedAt       *time.Time
}

// IsLive reports whether the invitation can still be accepted at the
// given instant. Liveness is computed, never trusted from the stored status.
func (i *Invitation) IsLive(now time.Time) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt)
}
