package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTest(perMin, burst int) (*Limiter, *clock) {
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(Config{PerMinute: perMin, Burst: burst, Now: c.now})
	return l, c
}

func TestNew_DefaultBurst(t *testing.T) {
	l, _ := newTest(10, 0)
	defer l.Stop()

	if l.burst != 10 {
		t.Errorf("expected burst=10, got %v", l.burst)
	}
}

func TestAllow_WithinLimit(t *testing.T) {
	l, _ := newTest(10, 10)
	defer l.Stop()

	for i := 0; i < 10; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("request 11 should be denied")
	}
}

func TestAllow_DifferentKeys(t *testing.T) {
	l, _ := newTest(2, 2)
	defer l.Stop()

	l.Allow("ip1")
	l.Allow("ip1")
	if l.Allow("ip1") {
		t.Error("ip1 should be exhausted")
	}
	if !l.Allow("ip2") {
		t.Error("ip2 should have its own bucket")
	}
}

func TestAllow_Refills(t *testing.T) {
	l, c := newTest(60, 2)
	defer l.Stop()

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("bucket should be empty")
	}
	c.t = c.t.Add(time.Second)
	if !l.Allow("k") {
		t.Error("one token should have refilled after a second")
	}
	c.t = c.t.Add(time.Hour)
	if got := l.Remaining("k"); got != 2 {
		t.Errorf("refill should cap at burst, got %d", got)
	}
}

func TestSweep_DropsIdle(t *testing.T) {
	l, c := newTest(10, 10)
	defer l.Stop()

	l.Allow("old")
	c.t = c.t.Add(11 * time.Minute)
	l.Allow("new")
	l.Sweep()

	if l.Len() != 1 {
		t.Errorf("expected 1 tracked key, got %d", l.Len())
	}
}

func TestStop_Twice(t *testing.T) {
	l, _ := newTest(1, 1)
	l.Stop()
	l.Stop()
}

func TestMiddleware(t *testing.T) {
	l, _ := newTest(1, 1)
	defer l.Stop()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "10.0.0.1"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "61" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}
