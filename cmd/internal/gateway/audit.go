package gateway

import (
	"context"
	"time"

	"mcauth/cmd/internal/audit"
	"mcauth/cmd/internal/ids"
)

const auditTimeout = 2 * time.Second

// record stores ev best-effort; failures are logged, never surfaced to the caller.
func (h *Handler) record(ctx context.Context, ev audit.Event) {
	if h == nil || h.audit == nil {
		return
	}

	now := h.now().UTC()
	id, err := ids.NewULID(now)
	if err != nil {
		h.log.Error("gateway.audit.id.fail", "err", err)
		return
	}
	ev.ID = id
	ev.CreatedAt = now

	// The caller may already be gone; the row should still be written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := h.audit.Record(ctx, ev); err != nil {
		h.log.Error("gateway.audit.record.fail", "err", err, "action", ev.Action)
	}
}
