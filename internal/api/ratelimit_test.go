package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

// TestOriginChecker verifies exact, wildcard and empty origins
func TestOriginChecker(t *testing.T) {
	oc := NewOriginChecker([]string{"http://localhost:*", "https://*.example.com", "https://pilot.io"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://localhost", false},
		{"https://game.example.com", true},
		{"https://example.com", false},
		{"https://pilot.io", true},
		{"https://pilot.io.evil", false},
		{"https://evil.io", false},
	}

	for _, tt := range tests {
		if got := oc.Allowed(tt.origin); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	if !NewOriginChecker([]string{"*"}).Allowed("https://anything") {
		t.Error("* should allow every origin")
	}
}

// TestIPRateLimiter verifies per-IP buckets and stats
func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	if !rl.Allow("1.1.1.1") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("second request should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("other IPs have their own bucket")
	}

	stats := rl.Stats()
	if stats.Allowed != 2 || stats.Rejected != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if n := rl.cleanup(time.Now().Add(time.Minute)); n != 2 {
		t.Errorf("cleanup removed %d, want 2", n)
	}
	if !rl.Allow("1.1.1.1") {
		t.Error("bucket should be fresh after cleanup")
	}
}

// TestWebSocketRateLimiter verifies slot reservation and release
func TestWebSocketRateLimiter(t *testing.T) {
	wrl := NewWebSocketRateLimiter(2)

	if !wrl.Allow("ip") || !wrl.Allow("ip") {
		t.Fatal("first two connections should pass")
	}
	if wrl.Allow("ip") {
		t.Error("third connection should be rejected")
	}
	if wrl.Rejected() != 1 {
		t.Errorf("rejected = %d", wrl.Rejected())
	}

	wrl.Release("ip")
	if wrl.GetConnectionCount("ip") != 1 {
		t.Errorf("count = %d, want 1", wrl.GetConnectionCount("ip"))
	}
	wrl.Release("ip")
	wrl.Release("ip") // extra release is harmless
	if wrl.GetConnectionCount("ip") != 0 {
		t.Errorf("count = %d, want 0", wrl.GetConnectionCount("ip"))
	}
}

// TestGetClientIP verifies header precedence
func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{"remote addr", nil, "192.0.2.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": "10.0.0.2"}, "10.0.0.2"},
		{"xff first hop", map[string]string{"X-Forwarded-For": "10.0.0.3, 10.0.0.4", "X-Real-IP": "10.0.0.2"}, "10.0.0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
