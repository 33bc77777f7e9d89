// Package audit records handshake outcomes for later inspection.
package audit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Actions.
const (
	ActionJoin      = "session.join"
	ActionHasJoined = "session.has_joined"
)

// Outcomes mirror sessionserver outcomes plus gateway-local ones.
const (
	OutcomeOK             = "ok"
	OutcomeRejected       = "rejected"
	OutcomeUnverified     = "unverified"
	OutcomeTransportError = "transport_error"
	OutcomeRateLimited    = "rate_limited"
)

// Event is one handshake call as seen by the gateway.
type Event struct {
	ID             string
	Action         string
	Username       string
	ProfileID      string
	Outcome        string
	UpstreamStatus int
	RemoteIP       string
	RequestID      string
	CreatedAt      time.Time
}

// Store persists audit events.
type Store interface {
	Record(ctx context.Context, ev Event) error
	Close() error
}

// ErrInvalidEvent is returned for events missing required fields.
var ErrInvalidEvent = errors.New("audit: invalid event")

// Validate checks the fields every store requires.
func (ev Event) Validate() error {
	if strings.TrimSpace(ev.ID) == "" || strings.TrimSpace(ev.Action) == "" || strings.TrimSpace(ev.Outcome) == "" {
		return ErrInvalidEvent
	}
	return nil
}

// NopStore drops events. Used when no database is configured.
type NopStore struct{}

func (NopStore) Record(_ context.Context, _ Event) error { return nil }
func (NopStore) Close() error                            { return nil }

// MemoryStore keeps the most recent events in memory.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	max    int
}

// NewMemoryStore returns a MemoryStore holding at most max events (default 1024).
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 1024
	}
	return &MemoryStore{max: max}
}

func (s *MemoryStore) Record(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
	if over := len(s.events) - s.max; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
	return nil
}

// Events returns a copy of the stored events, oldest first.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *MemoryStore) Close() error { return nil }
