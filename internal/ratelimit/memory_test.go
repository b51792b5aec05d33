package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestMemoryDeniesOverBudget(t *testing.T) {
	m := NewMemory(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !m.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	for i := 0; i < 3; i++ {
		if m.Allow("1.2.3.4") {
			t.Fatalf("excess request %d should be denied", i+1)
		}
	}
}

func TestMemoryWindowRollover(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	m := NewMemory(2, time.Minute)
	m.now = func() time.Time { return now }

	if !m.Allow("k") || !m.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if m.Allow("k") {
		t.Fatal("third request inside the window should be denied")
	}

	// just inside the window: still denied
	now = now.Add(59 * time.Second)
	if m.Allow("k") {
		t.Fatal("request at 59s should still be denied")
	}

	// past the reset boundary: counter restarts
	now = now.Add(2 * time.Second)
	if !m.Allow("k") {
		t.Fatal("request after the window elapsed should be allowed")
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m := NewMemory(1, time.Minute)

	if !m.Allow("a") {
		t.Fatal("first request for a should be allowed")
	}
	if m.Allow("a") {
		t.Fatal("second request for a should be denied")
	}
	if !m.Allow("b") {
		t.Fatal("b has its own budget")
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{name: "missing header", forwarded: "", want: "unknown"},
		{name: "single address", forwarded: "203.0.113.9", want: "203.0.113.9"},
		{name: "proxy chain keeps first hop", forwarded: "203.0.113.9, 10.0.0.1", want: "203.0.113.9"},
		{name: "whitespace trimmed", forwarded: "  203.0.113.9  ", want: "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/guest/orders", nil)
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientKey(r); got != tt.want {
				t.Fatalf("ClientKey = %q, want %q", got, tt.want)
			}
		})
	}
}
