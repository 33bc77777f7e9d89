package ids

import (
	"context"
	"testing"
	"time"
)

func TestNewULID(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a, err := NewULID(now)
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	b, err := NewULID(now.Add(time.Second))
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}

	if len(a) != 26 || !IsULID(a) {
		t.Fatalf("invalid ulid %q", a)
	}
	if a >= b {
		t.Fatalf("expected lexicographic order by time: %q >= %q", a, b)
	}
}

func TestNewULID_ZeroTime(t *testing.T) {
	t.Parallel()

	id, err := NewULID(time.Time{})
	if err != nil || !IsULID(id) {
		t.Fatalf("NewULID(zero)=%q, %v", id, err)
	}
}

func TestIsULID_Rejects(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "not-a-ulid", "01ARZ3NDEKTSV4RRFFQ69G5FA"} {
		if IsULID(s) {
			t.Fatalf("IsULID(%q)=true", s)
		}
	}
}

func TestRequestID_Context(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Fatalf("RequestID()=%q", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("RequestID(empty)=%q", got)
	}
}
