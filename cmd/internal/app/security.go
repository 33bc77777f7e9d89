package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidateConfig enforces the startup policy. It fails fast instead of silently
// talking to the identity service over plain http.
func ValidateConfig(cfg Config) error {
	u, err := url.Parse(strings.TrimSpace(cfg.SessionHost))
	if err != nil || u.Host == "" {
		return fmt.Errorf("config: invalid session host %q", cfg.SessionHost)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !cfg.SessionAllowInsecure {
			return errors.New("config: session host uses http; set MCAUTH_SESSION_ALLOW_INSECURE=true to allow it")
		}
	default:
		return fmt.Errorf("config: unsupported session host scheme %q", u.Scheme)
	}

	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("config: MCAUTH_DB_MIN_CONNS (%d) exceeds MCAUTH_DB_MAX_CONNS (%d)", cfg.DBMinConns, cfg.DBMaxConns)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("config: unknown log format %q", cfg.LogFormat)
	}
	return nil
}
