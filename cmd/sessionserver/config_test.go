package sessionserver

import (
	"errors"
	"net/http"
	"testing"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{Host: "  ", UserAgent: " ", MaxResponseBytes: -5}.withDefaults()
	if cfg.Host != DefaultHost {
		t.Fatalf("Host=%q want %q", cfg.Host, DefaultHost)
	}
	if cfg.HTTPClient != http.DefaultClient {
		t.Fatalf("expected default http client")
	}
	if cfg.UserAgent != defaultUserAgent {
		t.Fatalf("UserAgent=%q", cfg.UserAgent)
	}
	if cfg.MaxResponseBytes != defaultMaxResponseBytes {
		t.Fatalf("MaxResponseBytes=%d", cfg.MaxResponseBytes)
	}

	own := &http.Client{}
	cfg = Config{Host: " http://127.0.0.1:9000 ", HTTPClient: own, UserAgent: "agent", MaxResponseBytes: 10}.withDefaults()
	if cfg.Host != "http://127.0.0.1:9000" || cfg.HTTPClient != own || cfg.UserAgent != "agent" || cfg.MaxResponseBytes != 10 {
		t.Fatalf("explicit values must be kept: %+v", cfg)
	}
}

func TestNewClient_HostValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		host    string
		wantErr bool
		want    string
	}{
		{host: "", want: DefaultHost},
		{host: "https://sessionserver.example.com/", want: "https://sessionserver.example.com"},
		{host: "http://127.0.0.1:8080/base/", want: "http://127.0.0.1:8080/base"},
		{host: "ftp://example.com", wantErr: true},
		{host: "sessionserver.example.com", wantErr: true},
		{host: "https://", wantErr: true},
		{host: "https://example.com/?x=1", wantErr: true},
		{host: "://bad", wantErr: true},
	}

	for _, tc := range cases {
		c, err := NewClient(Config{Host: tc.host})
		if tc.wantErr {
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("NewClient(%q): expected ErrConfig, got %v", tc.host, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewClient(%q): %v", tc.host, err)
		}
		if got := c.Host(); got != tc.want {
			t.Fatalf("NewClient(%q).Host()=%q want=%q", tc.host, got, tc.want)
		}
	}
}
