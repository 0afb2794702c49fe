package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be within burst", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("burst exhausted, request should be denied")
	}
}

func TestRateLimiterKeyedByIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client should pass")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second client has its own bucket")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/availability", nil)
	req.Header.Set("X-Real-Ip", "10.0.0.9")

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
}
