package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mcauth/cmd/security/serverhash"
	v1 "mcauth/shared/contracts/gateway/v1"
)

func newTestApp(t *testing.T, mutate func(*Config)) (*App, *httptest.Server) {
	t.Helper()

	secret := []byte("0123456789abcdef")
	key := []byte("pubkey")
	want := serverhash.Digest("", secret, key)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/minecraft/hasJoined" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("serverId") != want {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, `{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch"}`)
	}))
	t.Cleanup(upstream.Close)

	cfg := DefaultConfig()
	cfg.SessionHost = upstream.URL
	cfg.SessionAllowInsecure = true
	if mutate != nil {
		mutate(&cfg)
	}

	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, upstream
}

func TestHTTP_HealthAndReady(t *testing.T) {
	a, _ := newTestApp(t, nil)
	h := a.Handler()

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d want=200", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s missing X-Request-ID", path)
		}
	}
}

func TestHTTP_ReadyRequiresDB(t *testing.T) {
	a, _ := newTestApp(t, func(c *Config) { c.ReadinessRequireDB = true })

	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want=503", rr.Code)
	}
}

func TestHTTP_HasJoinedThroughGateway(t *testing.T) {
	a, _ := newTestApp(t, nil)
	h := a.Handler()

	body, _ := json.Marshal(v1.HasJoinedRequest{
		Username: "Notch",
		HandshakeInputs: v1.HandshakeInputs{
			ServerID:        "",
			SharedSecret:    v1.EncodeBytes([]byte("0123456789abcdef")),
			ServerPublicKey: v1.EncodeBytes([]byte("pubkey")),
		},
	})
	req := httptest.NewRequest(http.MethodPost, v1.PathHasJoined, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=200 body=%s", rr.Code, rr.Body.String())
	}
	var p v1.ProfileResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID != "069a79f444e94726a5befca90e38aaf5" || p.Name != "Notch" {
		t.Fatalf("profile=%+v", p)
	}

	// Different key: upstream answers 204, gateway maps it to verification_failed.
	body, _ = json.Marshal(v1.HasJoinedRequest{
		Username: "Notch",
		HandshakeInputs: v1.HandshakeInputs{
			SharedSecret:    v1.EncodeBytes([]byte("0123456789abcdef")),
			ServerPublicKey: v1.EncodeBytes([]byte("otherkey")),
		},
	})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, v1.PathHasJoined, bytes.NewReader(body)))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status=%d want=403 body=%s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", rr.Code)
	}
	out := rr.Body.String()
	for _, want := range []string{
		`mcauth_sessionserver_calls_total{op="sessionserver.has_joined",outcome="ok"} 1`,
		`mcauth_sessionserver_calls_total{op="sessionserver.has_joined",outcome="unverified"} 1`,
		`mcauth_http_requests_total{method="POST",route="/v1/session/has-joined",status="200"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("/metrics missing %q", want)
		}
	}
}

func TestHTTP_MetricsDisabled(t *testing.T) {
	a, _ := newTestApp(t, func(c *Config) { c.MetricsEnabled = false })

	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404", rr.Code)
	}
}

func TestNew_RejectsBadSessionHost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SessionHost = "not a url"
	if _, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatalf("expected error for invalid session host")
	}
}
