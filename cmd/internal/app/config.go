package app

import (
	"fmt"
	"os"
	"time"

	"mcauth/cmd/sessionserver"

	"gopkg.in/yaml.v3"
)

// Config contains all runtime configuration.
//
// Sources, lowest precedence first: built-in defaults, the YAML file named by
// MCAUTH_CONFIG_FILE, environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string
	// LogFormat is "json" (default) or "pretty".
	LogFormat string
	LogColor  bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32
	AuditSchema string

	// If true, /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	SessionHost             string
	SessionUserAgent        string
	SessionTimeout          time.Duration
	SessionMaxIdleConns     int
	SessionMaxResponseBytes int64
	// Plain-http identity hosts are refused unless this is set (local fakes, tests).
	SessionAllowInsecure bool

	MetricsEnabled bool
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:  "127.0.0.1:8080",
		LogLevel:  "info",
		LogFormat: "json",

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,

		DBMaxConns:  10,
		DBMinConns:  0,
		AuditSchema: "mcauth",

		SessionHost:             sessionserver.DefaultHost,
		SessionUserAgent:        "mcauth/1.0",
		SessionTimeout:          10 * time.Second,
		SessionMaxIdleConns:     32,
		SessionMaxResponseBytes: 1 << 20,

		MetricsEnabled: true,
	}
}

// LoadConfig loads Config from defaults, the optional YAML file and environment variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := EnvString("MCAUTH_CONFIG_FILE", ""); path != "" {
		if err := applyConfigFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = EnvString("MCAUTH_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = EnvString("MCAUTH_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = EnvString("MCAUTH_LOG_FORMAT", cfg.LogFormat)
	cfg.LogColor = EnvBool("MCAUTH_LOG_COLOR", cfg.LogColor)

	cfg.ReadHeaderTimeout = EnvDuration("MCAUTH_HTTP_READ_HEADER_TIMEOUT", cfg.ReadHeaderTimeout)
	cfg.ReadTimeout = EnvDuration("MCAUTH_HTTP_READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = EnvDuration("MCAUTH_HTTP_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = EnvDuration("MCAUTH_HTTP_IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.MaxHeaderBytes = EnvInt("MCAUTH_HTTP_MAX_HEADER_BYTES", cfg.MaxHeaderBytes)

	cfg.DatabaseURL = EnvString("MCAUTH_DATABASE_URL", cfg.DatabaseURL)
	cfg.DBMaxConns = EnvInt32("MCAUTH_DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = EnvInt32("MCAUTH_DB_MIN_CONNS", cfg.DBMinConns)
	cfg.AuditSchema = EnvString("MCAUTH_AUDIT_SCHEMA", cfg.AuditSchema)
	cfg.ReadinessRequireDB = EnvBool("MCAUTH_READINESS_REQUIRE_DB", cfg.ReadinessRequireDB)

	cfg.SessionHost = EnvString("MCAUTH_SESSION_HOST", cfg.SessionHost)
	cfg.SessionUserAgent = EnvString("MCAUTH_SESSION_USER_AGENT", cfg.SessionUserAgent)
	cfg.SessionTimeout = EnvDuration("MCAUTH_SESSION_TIMEOUT", cfg.SessionTimeout)
	cfg.SessionMaxIdleConns = EnvInt("MCAUTH_SESSION_MAX_IDLE_CONNS", cfg.SessionMaxIdleConns)
	cfg.SessionMaxResponseBytes = EnvInt64("MCAUTH_SESSION_MAX_RESPONSE_BYTES", cfg.SessionMaxResponseBytes)
	cfg.SessionAllowInsecure = EnvBool("MCAUTH_SESSION_ALLOW_INSECURE", cfg.SessionAllowInsecure)

	cfg.MetricsEnabled = EnvBool("MCAUTH_METRICS_ENABLED", cfg.MetricsEnabled)
}

type fileConfig struct {
	HTTP struct {
		Addr              string        `yaml:"addr"`
		ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
		ReadTimeout       time.Duration `yaml:"readTimeout"`
		WriteTimeout      time.Duration `yaml:"writeTimeout"`
		IdleTimeout       time.Duration `yaml:"idleTimeout"`
		MaxHeaderBytes    int           `yaml:"maxHeaderBytes"`
	} `yaml:"http"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Color  *bool  `yaml:"color"`
	} `yaml:"log"`

	Database struct {
		URL              string `yaml:"url"`
		MaxConns         int32  `yaml:"maxConns"`
		MinConns         *int32 `yaml:"minConns"`
		AuditSchema      string `yaml:"auditSchema"`
		ReadinessRequire *bool  `yaml:"readinessRequire"`
	} `yaml:"database"`

	Session struct {
		Host             string        `yaml:"host"`
		UserAgent        string        `yaml:"userAgent"`
		Timeout          time.Duration `yaml:"timeout"`
		MaxIdleConns     int           `yaml:"maxIdleConns"`
		MaxResponseBytes int64         `yaml:"maxResponseBytes"`
		AllowInsecure    *bool         `yaml:"allowInsecure"`
	} `yaml:"session"`

	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

func applyConfigFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path.
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setString(&cfg.HTTPAddr, fc.HTTP.Addr)
	setDuration(&cfg.ReadHeaderTimeout, fc.HTTP.ReadHeaderTimeout)
	setDuration(&cfg.ReadTimeout, fc.HTTP.ReadTimeout)
	setDuration(&cfg.WriteTimeout, fc.HTTP.WriteTimeout)
	setDuration(&cfg.IdleTimeout, fc.HTTP.IdleTimeout)
	if fc.HTTP.MaxHeaderBytes > 0 {
		cfg.MaxHeaderBytes = fc.HTTP.MaxHeaderBytes
	}

	setString(&cfg.LogLevel, fc.Log.Level)
	setString(&cfg.LogFormat, fc.Log.Format)
	setBool(&cfg.LogColor, fc.Log.Color)

	setString(&cfg.DatabaseURL, fc.Database.URL)
	if fc.Database.MaxConns > 0 {
		cfg.DBMaxConns = fc.Database.MaxConns
	}
	if fc.Database.MinConns != nil && *fc.Database.MinConns >= 0 {
		cfg.DBMinConns = *fc.Database.MinConns
	}
	setString(&cfg.AuditSchema, fc.Database.AuditSchema)
	setBool(&cfg.ReadinessRequireDB, fc.Database.ReadinessRequire)

	setString(&cfg.SessionHost, fc.Session.Host)
	setString(&cfg.SessionUserAgent, fc.Session.UserAgent)
	setDuration(&cfg.SessionTimeout, fc.Session.Timeout)
	if fc.Session.MaxIdleConns > 0 {
		cfg.SessionMaxIdleConns = fc.Session.MaxIdleConns
	}
	if fc.Session.MaxResponseBytes > 0 {
		cfg.SessionMaxResponseBytes = fc.Session.MaxResponseBytes
	}
	setBool(&cfg.SessionAllowInsecure, fc.Session.AllowInsecure)

	setBool(&cfg.MetricsEnabled, fc.Metrics.Enabled)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
