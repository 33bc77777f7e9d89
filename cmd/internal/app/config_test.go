package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mcauth/cmd/sessionserver"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MCAUTH_CONFIG_FILE", "")
	t.Setenv("MCAUTH_SESSION_HOST", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SessionHost != sessionserver.DefaultHost {
		t.Fatalf("SessionHost=%q want=%q", cfg.SessionHost, sessionserver.DefaultHost)
	}
	if cfg.SessionTimeout != 10*time.Second {
		t.Fatalf("SessionTimeout=%s want=10s", cfg.SessionTimeout)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("metrics should be enabled by default")
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcauth.yaml")
	raw := strings.Join([]string{
		"http:",
		"  addr: 0.0.0.0:9000",
		"  readTimeout: 3s",
		"log:",
		"  level: debug",
		"  format: pretty",
		"  color: true",
		"database:",
		"  auditSchema: audit_x",
		"  minConns: 2",
		"session:",
		"  host: http://127.0.0.1:7000",
		"  timeout: 2s",
		"  allowInsecure: true",
		"metrics:",
		"  enabled: false",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MCAUTH_CONFIG_FILE", path)
	t.Setenv("MCAUTH_HTTP_ADDR", "127.0.0.1:9100")
	t.Setenv("MCAUTH_SESSION_TIMEOUT", "4s")
	t.Setenv("MCAUTH_SESSION_HOST", "")
	t.Setenv("MCAUTH_LOG_LEVEL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	// env wins over file
	if cfg.HTTPAddr != "127.0.0.1:9100" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.SessionTimeout != 4*time.Second {
		t.Fatalf("SessionTimeout=%s", cfg.SessionTimeout)
	}

	// file wins over defaults
	if cfg.ReadTimeout != 3*time.Second {
		t.Fatalf("ReadTimeout=%s", cfg.ReadTimeout)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "pretty" || !cfg.LogColor {
		t.Fatalf("log config=%q/%q/%v", cfg.LogLevel, cfg.LogFormat, cfg.LogColor)
	}
	if cfg.AuditSchema != "audit_x" || cfg.DBMinConns != 2 {
		t.Fatalf("db config schema=%q min=%d", cfg.AuditSchema, cfg.DBMinConns)
	}
	if cfg.SessionHost != "http://127.0.0.1:7000" || !cfg.SessionAllowInsecure {
		t.Fatalf("session host=%q insecure=%v", cfg.SessionHost, cfg.SessionAllowInsecure)
	}
	if cfg.MetricsEnabled {
		t.Fatalf("metrics should be disabled by file")
	}

	// untouched values keep defaults
	if cfg.WriteTimeout != 15*time.Second {
		t.Fatalf("WriteTimeout=%s", cfg.WriteTimeout)
	}
}

func TestLoadConfig_FileErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv("MCAUTH_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := LoadConfig(); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("http: [unterminated"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		t.Setenv("MCAUTH_CONFIG_FILE", path)
		if _, err := LoadConfig(); err == nil {
			t.Fatalf("expected parse error")
		}
	})
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("MCAUTH_T_STR", "  value ")
	t.Setenv("MCAUTH_T_BOOL", "yes")
	t.Setenv("MCAUTH_T_INT", "-3")
	t.Setenv("MCAUTH_T_INT32", "7")
	t.Setenv("MCAUTH_T_DUR", "250ms")

	if got := EnvString("MCAUTH_T_STR", "def"); got != "value" {
		t.Fatalf("EnvString=%q", got)
	}
	if got := EnvString("MCAUTH_T_UNSET", "def"); got != "def" {
		t.Fatalf("EnvString default=%q", got)
	}
	if got := EnvBool("MCAUTH_T_BOOL", true); !got {
		t.Fatalf("EnvBool with unparsable value should keep default")
	}
	if got := EnvInt("MCAUTH_T_INT", 5); got != 5 {
		t.Fatalf("EnvInt negative should keep default, got %d", got)
	}
	if got := EnvInt32("MCAUTH_T_INT32", 1); got != 7 {
		t.Fatalf("EnvInt32=%d", got)
	}
	if got := EnvDuration("MCAUTH_T_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("EnvDuration=%s", got)
	}
}
