package view

import (
	"fmt"
	"sync"
)

// Mode is the admin's current working view. It changes what the UI
// shows and which profile new resources land on.
type Mode int

const (
	// ModeUnset means no view has been chosen yet this session; the
	// first read resolves it against the user's plan.
	ModeUnset Mode = iota
	// ModeSelf edits the admin's own profile.
	ModeSelf
	// ModeManager is the oversight dashboard across the managed set.
	// It can inspect everything but never creates resources.
	ModeManager
	// ModeDelegated edits one managed profile as if the admin were its
	// owner.
	ModeDelegated
)

// ParseMode converts the API-level mode name to a Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "self":
		return ModeSelf, nil
	case "manager":
		return ModeManager, nil
	case "delegated":
		return ModeDelegated, nil
	default:
		return ModeUnset, fmt.Errorf("unknown view mode: %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeSelf:
		return "self"
	case ModeManager:
		return "manager"
	case ModeDelegated:
		return "delegated"
	default:
		return "unset"
	}
}

// Subject is the resolved view: the mode plus, in delegated mode, the
// target profile.
type Subject struct {
	Mode      Mode
	ProfileID string // set only in delegated mode
}

// Delegate tracks each session's working view in memory. View choices
// are per login, not per account: state is keyed by session id and
// dropped on logout, so a fresh login always re-resolves the default.
type Delegate struct {
	mu       sync.RWMutex
	sessions map[string]Subject
}

// NewDelegate creates an empty view delegate
func NewDelegate() *Delegate {
	return &Delegate{sessions: make(map[string]Subject)}
}

// Resolve returns the session's current view, choosing the default on
// first use: manager mode when the plan allows it, self mode otherwise.
func (d *Delegate) Resolve(sessionID string, allowManagerMode bool) Subject {
	d.mu.RLock()
	subject, ok := d.sessions[sessionID]
	d.mu.RUnlock()

	if ok && subject.Mode != ModeUnset {
		return subject
	}

	subject = Subject{Mode: ModeSelf}
	if allowManagerMode {
		subject = Subject{Mode: ModeManager}
	}

	d.mu.Lock()
	d.sessions[sessionID] = subject
	d.mu.Unlock()

	return subject
}

// Set switches the session's view. Delegated mode requires a profile
// id; the other modes must not carry one.
func (d *Delegate) Set(sessionID string, subject Subject) error {
	switch subject.Mode {
	case ModeSelf, ModeManager:
		if subject.ProfileID != "" {
			return fmt.Errorf("mode %s does not take a profile", subject.Mode)
		}
	case ModeDelegated:
		if subject.ProfileID == "" {
			return fmt.Errorf("delegated mode requires a profile")
		}
	default:
		return fmt.Errorf("cannot set mode %s", subject.Mode)
	}

	d.mu.Lock()
	d.sessions[sessionID] = subject
	d.mu.Unlock()
	return nil
}

// Clear drops the session's view state. Called on logout.
func (d *Delegate) Clear(sessionID string) {
	d.mu.Lock()
	delete(d.sessions, sessionID)
	d.mu.Unlock()
}
