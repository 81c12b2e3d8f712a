package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/navigatorhq/navigator/internal/log"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	// Tiny refill rate so the burst cannot replenish mid-test.
	rl := newRateLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d inside burst denied", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request beyond burst allowed")
	}

	// Other IPs have their own buckets.
	if !rl.allow("10.0.0.2") {
		t.Error("fresh IP denied")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newRateLimiter(0.001, 1)
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rateLimitMiddleware(rl, false, log.NewNop())(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:54321"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header not set")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr only", "10.0.0.1:1234", nil, false, "10.0.0.1"},
		{"header ignored without trust", "10.0.0.1:1234",
			map[string]string{"X-Real-IP": "203.0.113.7"}, false, "10.0.0.1"},
		{"x-real-ip with trust", "10.0.0.1:1234",
			map[string]string{"X-Real-IP": "203.0.113.7"}, true, "203.0.113.7"},
		{"x-forwarded-for first hop", "10.0.0.1:1234",
			map[string]string{"X-Forwarded-For": "203.0.113.7, 198.51.100.2"}, true, "203.0.113.7"},
		{"non-ip header rejected", "10.0.0.1:1234",
			map[string]string{"X-Real-IP": "not-an-ip"}, true, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
