package gateway

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestMapLimiter_NilAllows(t *testing.T) {
	t.Parallel()

	var l *MapLimiter
	if ok, _ := l.Reserve("k", time.Now()); !ok {
		t.Fatalf("nil limiter must allow")
	}
	if NewMapLimiter(0, 5, 0) != nil || NewMapLimiter(1, 0, 0) != nil {
		t.Fatalf("expected nil limiter for non-positive rps/burst")
	}
}

func TestMapLimiter_BurstThenRefill(t *testing.T) {
	t.Parallel()

	l := NewMapLimiter(2, 2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		if ok, _ := l.Reserve("k", now); !ok {
			t.Fatalf("call %d should pass", i)
		}
	}
	ok, wait := l.Reserve("k", now)
	if ok {
		t.Fatalf("third call should be limited")
	}
	if wait != 500*time.Millisecond {
		t.Fatalf("wait=%v want 500ms", wait)
	}

	// A rejected call does not consume the token it waited for.
	if ok, _ := l.Reserve("k", now.Add(500*time.Millisecond)); !ok {
		t.Fatalf("expected token after refill")
	}
}

func TestMapLimiter_BlankKeyBypasses(t *testing.T) {
	t.Parallel()

	l := NewMapLimiter(1, 1, time.Minute)
	now := time.Now()
	for i := 0; i < 3; i++ {
		if ok, _ := l.Reserve("  ", now); !ok {
			t.Fatalf("blank key must bypass limiter")
		}
	}
	if l.Len() != 0 {
		t.Fatalf("blank key must not be tracked")
	}
}

func TestMapLimiter_EvictsIdleKeys(t *testing.T) {
	t.Parallel()

	l := NewMapLimiter(1, 1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Reserve("a", now)
	l.Reserve("b", now)
	if l.Len() != 2 {
		t.Fatalf("Len=%d want 2", l.Len())
	}

	l.Reserve("c", now.Add(2*time.Minute))
	if l.Len() != 1 {
		t.Fatalf("Len=%d want 1 after idle sweep", l.Len())
	}
}

func TestWriteRateLimited_RoundsUp(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	writeRateLimited(rr, 1500*time.Millisecond, "req")
	if rr.Code != 429 {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After=%q want 2", got)
	}
}
