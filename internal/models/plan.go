package models

// Plan holds the numeric quota limits and feature flags of a billing plan
type Plan struct {
	ID             string
	Name           string
	LimitCards     int
	LimitForms     int
	LimitLists     int
	LimitProfiles  int
	AllowAdminMode bool
	AllowVideoBG   bool
}

// LimitFor returns the plan's limit for a resource kind
func (p *Plan) LimitFor(kind ResourceKind) int {
	switch kind {
	case KindCards:
		return p.LimitCards
	case KindForms:
		return p.LimitForms
	case KindLists:
		return p.LimitLists
	case KindProfiles:
		return p.LimitProfiles
	default:
		return 0
	}
}
