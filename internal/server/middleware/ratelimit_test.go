package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestRateLimit_Disabled(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Enabled: false})(okHandler())

	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 3})(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
		if w.Code != http.StatusOK {
			t.Errorf("burst request %d: expected status 200, got %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After header, got %q", w.Header().Get("Retry-After"))
	}
}

func TestRateLimit_Concurrent(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 10})(okHandler())

	var mu sync.Mutex
	allowed := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
			if w.Code == http.StatusOK {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 10 {
		t.Errorf("expected exactly the burst of 10 to pass, got %d", allowed)
	}
}
