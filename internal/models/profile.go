package models

import "time"

// Profile is a public identity record. Its id is shared with the auth
// system once the profile is activated; until then it is a provisional
// record an admin manages on behalf of someone else.
type Profile struct {
	ID               string
	Username         string
	DisplayName      string
	CreatedByAdminID string // empty for legacy rows, otherwise the provisioning admin
	IsActivated      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsSelfOwned reports whether the profile belongs to the account that
// created it (a normal signup rather than a delegated profile).
func (p *Profile) IsSelfOwned() bool {
	return p.IsActivated && p.ID == p.CreatedByAdminID
}

// LinkStatus is the derived display status of a managed profile,
// computed from its most recent invitation.
type LinkStatus string

const (
	LinkStatusLinked  LinkStatus = "linked"
	LinkStatusPending LinkStatus = "pending"
	LinkStatusExpired LinkStatus = "expired"
)

// ManagedProfile combines a profile with its derived link status for
// the admin's managed-profiles listing.
type ManagedProfile struct {
	Profile    Profile
	LinkStatus LinkStatus
}
