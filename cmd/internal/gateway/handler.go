// Package gateway exposes the session handshake over HTTP so a game server process can
// run join/hasJoined through one place with rate limiting and an audit trail.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"mcauth/cmd/internal/audit"
	"mcauth/cmd/internal/ids"
	"mcauth/cmd/sessionserver"
	v1 "mcauth/shared/contracts/gateway/v1"
)

// Sessions is the identity service client used by the gateway.
type Sessions interface {
	Join(ctx context.Context, accessToken, selectedProfile, serverID string, sharedSecret, publicKey []byte) error
	HasJoined(ctx context.Context, username, serverID string, sharedSecret, publicKey []byte, opts ...sessionserver.HasJoinedOption) (sessionserver.Profile, error)
}

// Handler wires the gateway HTTP endpoints to a Sessions client.
type Handler struct {
	log *slog.Logger
	cfg Config

	sessions Sessions
	audit    audit.Store
	limiter  *MapLimiter

	now func() time.Time
}

// HandlerOption configures optional gateway dependencies.
type HandlerOption func(*Handler)

// WithAuditStore overrides the default no-op audit store.
func WithAuditStore(st audit.Store) HandlerOption {
	return func(h *Handler) {
		if h == nil || st == nil {
			return
		}
		h.audit = st
	}
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.now = now
	}
}

// NewHandler constructs a gateway Handler.
func NewHandler(log *slog.Logger, sessions Sessions, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if sessions == nil {
		return nil, errors.New("gateway: nil sessions client")
	}
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()

	h := &Handler{
		log:      log,
		cfg:      cfg,
		sessions: sessions,
		audit:    audit.NopStore{},
		limiter:  NewMapLimiter(cfg.RateRPS, cfg.RateBurst, cfg.RateIdleTTL),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires gateway routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc(v1.PathJoin, h.handleJoin)
	mux.HandleFunc(v1.PathHasJoined, h.handleHasJoined)
}

// ---- handlers ----

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	reqID := ids.RequestID(r.Context())
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, reqID)
		return
	}

	var req v1.JoinRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, v1.APIError{Code: v1.CodeInvalidJSON, Message: "invalid request body", RequestID: reqID})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, v1.APIError{Code: v1.CodeInvalidRequest, Message: err.Error(), RequestID: reqID})
		return
	}
	secret, key, _ := req.Decode()

	ev := audit.Event{
		Action:    audit.ActionJoin,
		ProfileID: req.SelectedProfile,
		RemoteIP:  h.clientIP(r),
		RequestID: reqID,
	}

	if ok, wait := h.limiter.Reserve("join:"+req.SelectedProfile, h.now()); !ok {
		ev.Outcome = audit.OutcomeRateLimited
		h.record(r.Context(), ev)
		h.log.Warn("gateway.join.rate_limited", "profile_id", req.SelectedProfile, "retry_after_ms", wait.Milliseconds())
		writeRateLimited(w, wait, reqID)
		return
	}

	err := h.sessions.Join(r.Context(), req.AccessToken, req.SelectedProfile, req.ServerID, secret, key)
	if err != nil {
		ev.Outcome, ev.UpstreamStatus = h.writeSessionError(w, reqID, err)
		h.record(r.Context(), ev)
		h.log.Warn("gateway.join.fail", "profile_id", req.SelectedProfile, "outcome", ev.Outcome, "err", err)
		return
	}

	ev.Outcome = audit.OutcomeOK
	h.record(r.Context(), ev)
	h.log.Info("gateway.join.ok", "profile_id", req.SelectedProfile)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHasJoined(w http.ResponseWriter, r *http.Request) {
	reqID := ids.RequestID(r.Context())
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, reqID)
		return
	}

	var req v1.HasJoinedRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, v1.APIError{Code: v1.CodeInvalidJSON, Message: "invalid request body", RequestID: reqID})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, v1.APIError{Code: v1.CodeInvalidRequest, Message: err.Error(), RequestID: reqID})
		return
	}
	secret, key, _ := req.Decode()

	ev := audit.Event{
		Action:    audit.ActionHasJoined,
		Username:  req.Username,
		RemoteIP:  h.clientIP(r),
		RequestID: reqID,
	}

	if ok, wait := h.limiter.Reserve("has_joined:"+req.Username, h.now()); !ok {
		ev.Outcome = audit.OutcomeRateLimited
		h.record(r.Context(), ev)
		h.log.Warn("gateway.has_joined.rate_limited", "username", req.Username, "retry_after_ms", wait.Milliseconds())
		writeRateLimited(w, wait, reqID)
		return
	}

	p, err := h.sessions.HasJoined(r.Context(), req.Username, req.ServerID, secret, key, sessionserver.WithClientIP(req.IP))
	if err != nil {
		ev.Outcome, ev.UpstreamStatus = h.writeSessionError(w, reqID, err)
		h.record(r.Context(), ev)
		h.log.Warn("gateway.has_joined.fail", "username", req.Username, "outcome", ev.Outcome, "err", err)
		return
	}

	ev.Outcome = audit.OutcomeOK
	ev.ProfileID = p.ID
	h.record(r.Context(), ev)
	h.log.Info("gateway.has_joined.ok", "username", req.Username, "profile_id", p.ID)
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// writeSessionError maps a sessionserver error to an HTTP response and returns the audit outcome.
func (h *Handler) writeSessionError(w http.ResponseWriter, reqID string, err error) (string, int) {
	var ae *sessionserver.AuthenticationError
	switch {
	case errors.As(err, &ae):
		writeError(w, http.StatusUnauthorized, v1.APIError{
			Code:           v1.CodeSessionRejected,
			Message:        "identity service rejected the session",
			UpstreamStatus: ae.StatusCode,
			RequestID:      reqID,
		})
		return audit.OutcomeRejected, ae.StatusCode

	case sessionserver.IsVerification(err):
		writeError(w, http.StatusForbidden, v1.APIError{
			Code:      v1.CodeVerificationFailed,
			Message:   "failed to verify username",
			RequestID: reqID,
		})
		return audit.OutcomeUnverified, 0

	case sessionserver.IsTransport(err) && isTimeout(err):
		writeError(w, http.StatusGatewayTimeout, v1.APIError{
			Code:      v1.CodeUpstreamTimeout,
			Message:   "identity service timed out",
			RequestID: reqID,
		})
		return audit.OutcomeTransportError, 0

	case sessionserver.IsTransport(err):
		writeError(w, http.StatusBadGateway, v1.APIError{
			Code:      v1.CodeUpstreamUnavailable,
			Message:   "identity service unreachable",
			RequestID: reqID,
		})
		return audit.OutcomeTransportError, 0

	default:
		h.log.Error("gateway.session.unexpected_error", "err", err)
		writeError(w, http.StatusInternalServerError, v1.APIError{
			Code:      v1.CodeInternal,
			Message:   "internal error",
			RequestID: reqID,
		})
		return audit.OutcomeTransportError, 0
	}
}

// isTimeout also covers http.Client.Timeout, which surfaces as a net.Error.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func writeMethodNotAllowed(w http.ResponseWriter, reqID string) {
	w.Header().Set("Allow", http.MethodPost)
	writeError(w, http.StatusMethodNotAllowed, v1.APIError{
		Code:      v1.CodeMethodNotAllowed,
		Message:   "method not allowed",
		RequestID: reqID,
	})
}

// clientIP returns the caller address; X-Forwarded-For is honored only with TrustProxy.
func (h *Handler) clientIP(r *http.Request) string {
	if h.cfg.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

func toProfileResponse(p sessionserver.Profile) v1.ProfileResponse {
	out := v1.ProfileResponse{
		ID:             p.ID,
		Name:           p.Name,
		ProfileActions: p.ProfileActions,
	}
	for _, prop := range p.Properties {
		out.Properties = append(out.Properties, v1.Property{
			Name:      prop.Name,
			Value:     prop.Value,
			Signature: prop.Signature,
		})
	}
	return out
}
