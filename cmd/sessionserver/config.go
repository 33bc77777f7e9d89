package sessionserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultHost is the public identity service origin.
const DefaultHost = "https://sessionserver.mojang.com"

const (
	defaultUserAgent        = "mcauth/1.0"
	defaultMaxResponseBytes = 1 << 20
)

// Config configures a Client.
type Config struct {
	// Host is the identity service origin, e.g. "https://sessionserver.mojang.com".
	Host string

	// HTTPClient overrides the transport (pooling, proxies, TLS, timeouts).
	// Nil means http.DefaultClient.
	HTTPClient *http.Client

	UserAgent        string
	MaxResponseBytes int64
}

func (c Config) withDefaults() Config {
	c.Host = strings.TrimSpace(c.Host)
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponseBytes
	}
	return c
}

// parseHost validates an origin and strips any trailing slash from its path.
func parseHost(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: host %q: %v", ErrConfig, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: host %q: scheme must be http or https", ErrConfig, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host %q: missing host", ErrConfig, raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("%w: host %q: query and fragment not allowed", ErrConfig, raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u, nil
}
