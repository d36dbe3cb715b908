package validation

import (
	"testing"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Alice  ", "alice"},
		{"BOB-99", "bob-99"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := NormalizeUsername(tt.input); got != tt.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		wantErr  bool
	}{
		{"alice", false},
		{"bob-99", false},
		{"under_score", false},
		{"abc", false},
		{"", true},
		{"ab", true},
		{"UPPER", true},
		{"has space", true},
		{"dots.not.allowed", true},
		{"this-username-is-way-too-long-to-pass", true},
	}

	for _, tt := range tests {
		err := ValidateUsername(tt.username)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"user@example.com", false},
		{"first.last+tag@sub.example.co", false},
		{"", true},
		{"no-at-sign", true},
		{"missing@tld", true},
		{"@example.com", true},
	}

	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword(""); err == nil {
		t.Error("Empty password should be rejected")
	}
	if err := ValidatePassword("short"); err == nil {
		t.Error("Short password should be rejected")
	}
	if err := ValidatePassword("password123"); err != nil {
		t.Errorf("Valid password rejected: %v", err)
	}
}

func TestValidateDisplayName(t *testing.T) {
	if err := ValidateDisplayName(""); err == nil {
		t.Error("Empty display name should be rejected")
	}
	if err := ValidateDisplayName("   "); err == nil {
		t.Error("Whitespace display name should be rejected")
	}
	if err := ValidateDisplayName("A"); err == nil {
		t.Error("One-character display name should be rejected")
	}
	if err := ValidateDisplayName("Al"); err != nil {
		t.Errorf("Valid display name rejected: %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{Field: "email", Message: "invalid email format"}
	if err.Error() != "email: invalid email format" {
		t.Errorf("Unexpected error string: %s", err.Error())
	}
}
