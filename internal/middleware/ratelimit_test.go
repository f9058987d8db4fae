package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(10, 20)

	if limiter == nil {
		t.Fatal("Expected limiter to be created")
	}
	if limiter.rate != 10 {
		t.Errorf("Expected rate 10, got %v", limiter.rate)
	}
	if limiter.burst != 20 {
		t.Errorf("Expected burst 20, got %d", limiter.burst)
	}
}

func TestIPRateLimiter_GetLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(10, 20)

	l1 := limiter.GetLimiter("192.168.1.1")
	if l1 == nil {
		t.Fatal("Expected limiter for IP")
	}

	// Same IP - same instance
	if l2 := limiter.GetLimiter("192.168.1.1"); l1 != l2 {
		t.Error("Expected same limiter instance for same IP")
	}

	// Different IP - different instance
	if l3 := limiter.GetLimiter("192.168.1.2"); l1 == l3 {
		t.Error("Expected different limiter instance for different IP")
	}
}

func TestIPRateLimiter_Allow(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2) // 1 per second, burst of 2
	ip := "192.168.1.1"

	if !limiter.Allow(ip) {
		t.Error("First request should be allowed")
	}
	if !limiter.Allow(ip) {
		t.Error("Second request should be allowed (within burst)")
	}
	if limiter.Allow(ip) {
		t.Error("Third request should be denied (burst exhausted)")
	}

	// Other hosts have their own bucket
	if !limiter.Allow("10.0.0.9") {
		t.Error("Different host should be allowed")
	}
}

func TestIPRateLimiter_AllowAfterWait(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(10), 1) // 10 per second, burst of 1
	ip := "192.168.1.1"

	if !limiter.Allow(ip) {
		t.Error("First request should be allowed")
	}
	if limiter.Allow(ip) {
		t.Error("Immediate second request should be denied")
	}

	// Wait for token refill
	time.Sleep(150 * time.Millisecond)

	if !limiter.Allow(ip) {
		t.Error("Request after wait should be allowed")
	}
}

func TestIPRateLimiter_Prune(t *testing.T) {
	limiter := NewIPRateLimiter(10, 10)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	limiter.Allow("stale")
	clock = clock.Add(4 * time.Minute)
	limiter.Allow("fresh")
	clock = clock.Add(2 * time.Minute)

	limiter.Prune()

	if limiter.Len() != 1 {
		t.Fatalf("Expected 1 tracked host after prune, got %d", limiter.Len())
	}
	limiter.mu.Lock()
	_, stillThere := limiter.limiters["fresh"]
	limiter.mu.Unlock()
	if !stillThere {
		t.Error("Expected recently seen host to survive prune")
	}
}

func TestIPRateLimiter_RunStops(t *testing.T) {
	limiter := NewIPRateLimiter(10, 10)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		limiter.Run(time.Millisecond, stop)
		close(done)
	}()
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after stop")
	}
}

func TestIPRateLimiter_Concurrency(t *testing.T) {
	limiter := NewIPRateLimiter(100, 100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Allow("192.168.1.1")
		}()
	}
	wg.Wait()

	if limiter.Len() != 1 {
		t.Errorf("Expected a single tracked host, got %d", limiter.Len())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rateLimited := RateLimitMiddleware(limiter)(handler)

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	rateLimited.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("First request should be OK, got %d", w.Result().StatusCode)
	}

	// Same host on a new source port still shares the bucket
	req.RemoteAddr = "192.168.1.1:54321"
	w = httptest.NewRecorder()
	rateLimited.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("Second request should be rate limited, got %d", w.Result().StatusCode)
	}
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"X-Forwarded-For", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "192.168.1.1:12345", "1.2.3.4"},
		{"X-Forwarded-For chain", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "192.168.1.1:12345", "1.2.3.4"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "5.6.7.8"}, "192.168.1.1:12345", "5.6.7.8"},
		{"RemoteAddr", nil, "192.168.1.1:12345", "192.168.1.1"},
		{"RemoteAddr without port", nil, "192.168.1.1", "192.168.1.1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tc.remoteAddr

			if ip := getIP(req); ip != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, ip)
			}
		})
	}
}
