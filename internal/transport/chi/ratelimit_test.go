package chi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

type mockCounter struct {
	counts     map[string]int64
	incrErr    error
	expireKeys []string
}

func newMockCounter() *mockCounter {
	return &mockCounter{counts: map[string]int64{}}
}

func (m *mockCounter) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	m.counts[key] += val
	return m.counts[key], nil
}

func (m *mockCounter) Expire(_ context.Context, key string, _ time.Duration, _ bool) error {
	m.expireKeys = append(m.expireKeys, key)
	return nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, owner string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/items", http.NoBody)
	req = req.WithContext(contextWithOwner(req.Context(), owner))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	counter := newMockCounter()
	h := RateLimitMiddleware(counter, 3, time.Minute, zap.NewNop())(okHandler())

	for i := 0; i < 3; i++ {
		if rr := doRequest(h, "owner-1"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	counter := newMockCounter()
	h := RateLimitMiddleware(counter, 2, time.Minute, zap.NewNop())(okHandler())

	doRequest(h, "owner-1")
	doRequest(h, "owner-1")
	rr := doRequest(h, "owner-1")

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestRateLimit_PerOwnerWindows(t *testing.T) {
	counter := newMockCounter()
	h := RateLimitMiddleware(counter, 1, time.Minute, zap.NewNop())(okHandler())

	doRequest(h, "owner-1")
	if rr := doRequest(h, "owner-2"); rr.Code != http.StatusOK {
		t.Errorf("expected separate window per owner, got %d", rr.Code)
	}
	if rr := doRequest(h, "owner-1"); rr.Code != http.StatusTooManyRequests {
		t.Errorf("expected owner-1 limited, got %d", rr.Code)
	}
}

func TestRateLimit_WindowOpenedOnFirstHit(t *testing.T) {
	counter := newMockCounter()
	h := RateLimitMiddleware(counter, 5, time.Minute, zap.NewNop())(okHandler())

	doRequest(h, "owner-1")
	doRequest(h, "owner-1")

	if len(counter.expireKeys) != 1 {
		t.Errorf("expected expiry set exactly once per window, got %d", len(counter.expireKeys))
	}
}

func TestRateLimit_FailsOpenOnStorageError(t *testing.T) {
	counter := newMockCounter()
	counter.incrErr = errors.New("redis down")
	h := RateLimitMiddleware(counter, 1, time.Minute, zap.NewNop())(okHandler())

	if rr := doRequest(h, "owner-1"); rr.Code != http.StatusOK {
		t.Errorf("expected fail-open on counter error, got %d", rr.Code)
	}
}

func TestRateLimit_ExemptPathsBypass(t *testing.T) {
	counter := newMockCounter()
	h := RateLimitMiddleware(counter, 1, time.Minute, zap.NewNop())(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/health", http.NoBody)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected /health exempt, got %d", rr.Code)
		}
	}
}
