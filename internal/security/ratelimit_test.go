package security

import (
	"net/http"
	"testing"
	"time"
)

func TestRateLimiterEnforcesLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("Request over the limit should be denied")
	}

	// Another client has its own window
	if !rl.Allow("5.6.7.8") {
		t.Error("A different client should not be affected")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	if !rl.Allow("1.2.3.4") {
		t.Fatal("First request should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("Second request in the window should be denied")
	}

	time.Sleep(30 * time.Millisecond)

	if !rl.Allow("1.2.3.4") {
		t.Error("Request in a fresh window should be allowed")
	}
}

func TestGetClientIP(t *testing.T) {
	r, _ := http.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"

	if ip := GetClientIP(r); ip != "10.0.0.1:1234" {
		t.Errorf("Expected RemoteAddr fallback, got %s", ip)
	}

	r.Header.Set("X-Real-IP", "2.2.2.2")
	if ip := GetClientIP(r); ip != "2.2.2.2" {
		t.Errorf("Expected X-Real-IP, got %s", ip)
	}

	r.Header.Set("X-Forwarded-For", "1.1.1.1")
	if ip := GetClientIP(r); ip != "1.1.1.1" {
		t.Errorf("Expected X-Forwarded-For to win, got %s", ip)
	}
}
