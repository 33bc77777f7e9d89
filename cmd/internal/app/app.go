// Package app wires the mcauth runtime: config, logging, metrics, the audit store and the
// handshake gateway in front of the identity service client.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mcauth/cmd/internal/audit"
	"mcauth/cmd/internal/gateway"
	"mcauth/cmd/sessionserver"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the mcauth server runtime: it owns HTTP server wiring and the session client.
type App struct {
	cfg Config
	log Logger

	metrics *Metrics

	dbPool    *pgxpool.Pool
	dbEnabled bool
	audit     audit.Store

	sessions *sessionserver.Client
	gateway  *gateway.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogColor)
	}

	var metrics *Metrics
	if cfg.MetricsEnabled {
		metrics = NewMetrics()
	}

	sessions, err := sessionserver.NewClient(sessionserver.Config{
		Host:             cfg.SessionHost,
		HTTPClient:       newSessionHTTPClient(cfg),
		UserAgent:        cfg.SessionUserAgent,
		MaxResponseBytes: cfg.SessionMaxResponseBytes,
	},
		sessionserver.WithLogger(log),
		sessionserver.WithObserver(sessionObserver(metrics)),
	)
	if err != nil {
		return nil, err
	}

	st, dbPool, err := newAuditStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.NewHandler(log, sessions, gateway.LoadConfigFromEnv(), gateway.WithAuditStore(st))
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	log.Info("sessionserver.client.ready", "host", sessions.Host(), "timeout", cfg.SessionTimeout.String())

	return &App{
		cfg:       cfg,
		log:       log,
		metrics:   metrics,
		dbPool:    dbPool,
		dbEnabled: dbPool != nil,
		audit:     st,
		sessions:  sessions,
		gateway:   gw,
	}, nil
}

// Handler returns the root HTTP handler with middleware applied.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.metrics, a.gateway)
	return WithRequestID(WithRequestLogging(WithSecurityHeaders(mux), a.log, a.metrics), a.log)
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled, "metrics_enabled", a.metrics != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.close()
		return err
	}

	a.close()
	a.log.Info("server.stopped")
	return nil
}

// close releases the audit store and the pool. The pool is owned here, not by the store.
func (a *App) close() {
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.log.Error("audit.close.fail", "err", err)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}

func newSessionHTTPClient(cfg Config) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.SessionMaxIdleConns > 0 {
		tr.MaxIdleConnsPerHost = cfg.SessionMaxIdleConns
	}
	return &http.Client{
		Timeout:   cfg.SessionTimeout,
		Transport: tr,
	}
}

func sessionObserver(m *Metrics) sessionserver.Observer {
	if m == nil {
		return nil
	}
	return m
}

// newAuditStore picks the Postgres audit store when a database is configured.
func newAuditStore(ctx context.Context, cfg Config, log Logger) (audit.Store, *pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.audit_nop")
		return audit.NopStore{}, nil, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	st, err := audit.NewPostgresStore(pool, audit.WithSchema(cfg.AuditSchema))
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	log.Info("db.enabled.audit_postgres", "schema", cfg.AuditSchema)
	return st, pool, nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
