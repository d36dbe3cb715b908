package view

import (
	"testing"
)

func TestResolveDefaultsByPlan(t *testing.T) {
	d := NewDelegate()

	// Manager is the default only when the plan allows it
	subject := d.Resolve("session-manager", true)
	if subject.Mode != ModeManager {
		t.Errorf("Expected manager default, got %s", subject.Mode)
	}

	subject = d.Resolve("session-self", false)
	if subject.Mode != ModeSelf {
		t.Errorf("Expected self default, got %s", subject.Mode)
	}
}

func TestResolveReturnsChosenView(t *testing.T) {
	d := NewDelegate()

	if err := d.Set("session-1", Subject{Mode: ModeDelegated, ProfileID: "profile-1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	subject := d.Resolve("session-1", true)
	if subject.Mode != ModeDelegated || subject.ProfileID != "profile-1" {
		t.Errorf("Expected delegated view of profile-1, got %+v", subject)
	}
}

func TestSetValidatesSubject(t *testing.T) {
	d := NewDelegate()

	if err := d.Set("session-1", Subject{Mode: ModeDelegated}); err == nil {
		t.Error("Delegated mode without a profile should be rejected")
	}
	if err := d.Set("session-1", Subject{Mode: ModeSelf, ProfileID: "profile-1"}); err == nil {
		t.Error("Self mode with a profile should be rejected")
	}
	if err := d.Set("session-1", Subject{Mode: ModeManager, ProfileID: "profile-1"}); err == nil {
		t.Error("Manager mode with a profile should be rejected")
	}
	if err := d.Set("session-1", Subject{Mode: ModeUnset}); err == nil {
		t.Error("Unset mode should be rejected")
	}

	if err := d.Set("session-1", Subject{Mode: ModeManager}); err != nil {
		t.Errorf("Manager mode without a profile should be accepted, got %v", err)
	}
}

func TestClearResetsToDefault(t *testing.T) {
	d := NewDelegate()

	if err := d.Set("session-1", Subject{Mode: ModeDelegated, ProfileID: "profile-1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	d.Clear("session-1")

	// A fresh login re-resolves the default instead of inheriting the
	// previous session's view.
	subject := d.Resolve("session-1", false)
	if subject.Mode != ModeSelf || subject.ProfileID != "" {
		t.Errorf("Expected self default after clear, got %+v", subject)
	}
}

func TestViewsAreIsolatedPerSession(t *testing.T) {
	d := NewDelegate()

	if err := d.Set("session-1", Subject{Mode: ModeDelegated, ProfileID: "profile-1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	subject := d.Resolve("session-2", true)
	if subject.Mode != ModeManager {
		t.Errorf("Expected independent default for second session, got %+v", subject)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"self", ModeSelf, false},
		{"manager", ModeManager, false},
		{"delegated", ModeDelegated, false},
		{"", ModeUnset, true},
		{"admin", ModeUnset, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
