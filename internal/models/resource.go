package models

import (
	"fmt"
	"time"
)

// ResourceKind identifies a quota-limited resource type. It is a closed
// set: adding a kind requires extending every switch over it, which is
// exactly the point.
type ResourceKind int

const (
	KindCards ResourceKind = iota
	KindForms
	KindLists
	KindProfiles
)

// ParseResourceKind converts the API-level kind name to a ResourceKind
func ParseResourceKind(s string) (ResourceKind, error) {
	switch s {
	case "cards":
		return KindCards, nil
	case "forms":
		return KindForms, nil
	case "lists":
		return KindLists, nil
	case "profiles":
		return KindProfiles, nil
	default:
		return 0, fmt.Errorf("unknown resource kind: %q", s)
	}
}

func (k ResourceKind) String() string {
	switch k {
	case KindCards:
		return "cards"
	case KindForms:
		return "forms"
	case KindLists:
		return "lists"
	case KindProfiles:
		return "profiles"
	default:
		return fmt.Sprintf("ResourceKind(%d)", int(k))
	}
}

// Card is a link card on a profile page
type Card struct {
	ID             int64
	OwnerProfileID string
	Title          string
	URL            string
	Position       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FormConfig is a form definition attached to a profile
type FormConfig struct {
	ID             int64
	OwnerProfileID string
	Name           string
	SchemaJSON     string
	IsPublished    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LinkList is a titled collection of links on a profile page
type LinkList struct {
	ID             int64
	OwnerProfileID string
	Title          string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
