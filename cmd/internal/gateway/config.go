package gateway

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls gateway behavior.
type Config struct {
	MaxBodyBytes int64
	TrustProxy   bool

	// Per-key token bucket: join is keyed by selectedProfile, has-joined by username.
	RateRPS     float64
	RateBurst   int
	RateIdleTTL time.Duration
}

// LoadConfigFromEnv loads gateway config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes: envInt64("MCAUTH_GATEWAY_MAX_BODY_BYTES", 16<<10),
		TrustProxy:   envBool("MCAUTH_GATEWAY_TRUST_PROXY", false),
		RateRPS:      envFloat("MCAUTH_GATEWAY_RATE_RPS", 1),
		RateBurst:    envInt("MCAUTH_GATEWAY_RATE_BURST", 5),
		RateIdleTTL:  envDuration("MCAUTH_GATEWAY_RATE_IDLE_TTL", 10*time.Minute),
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 16 << 10
	}
	if c.RateIdleTTL <= 0 {
		c.RateIdleTTL = 10 * time.Minute
	}
	return c
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// envFloat accepts 0 (disables rate limiting).
func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
