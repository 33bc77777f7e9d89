package audit

import (
	"context"
	"os"
	"testing"
	"time"

	"mcauth/cmd/internal/ids"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests are enabled when MCAUTH_DATABASE_URL is set.

func TestPostgresStore_RecordAndCount(t *testing.T) {
	ctx := context.Background()
	dbURL := os.Getenv("MCAUTH_DATABASE_URL")
	if dbURL == "" {
		t.Skip("MCAUTH_DATABASE_URL is not set; skipping Postgres integration test")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}

	schema := "mcauth_it"
	mustExec(ctx, t, pool, `CREATE SCHEMA IF NOT EXISTS mcauth_it`)
	mustExec(ctx, t, pool, `
		CREATE TABLE IF NOT EXISTS mcauth_it.handshake_audit (
			id text PRIMARY KEY,
			action text NOT NULL,
			username text,
			profile_id text,
			outcome text NOT NULL,
			upstream_status integer,
			remote_ip inet,
			request_id text,
			created_at timestamptz NOT NULL
		)`)

	st, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}

	now := time.Now().UTC()
	id, err := ids.NewULID(now)
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM mcauth_it.handshake_audit WHERE id = $1`, id)
	})

	ev := Event{
		ID:             id,
		Action:         ActionHasJoined,
		Username:       "Steve",
		Outcome:        OutcomeRejected,
		UpstreamStatus: 403,
		RemoteIP:       "203.0.113.9",
		CreatedAt:      now,
	}
	if err := st.Record(ctx, ev); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Duplicate IDs are ignored.
	if err := st.Record(ctx, ev); err != nil {
		t.Fatalf("Record duplicate: %v", err)
	}

	n, err := st.CountSince(ctx, ActionHasJoined, OutcomeRejected, now.Add(-time.Second))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n < 1 {
		t.Fatalf("CountSince=%d want >= 1", n)
	}
}

func mustExec(ctx context.Context, t *testing.T, pool *pgxpool.Pool, sql string) {
	t.Helper()
	if _, err := pool.Exec(ctx, sql); err != nil {
		t.Fatalf("exec: %v", err)
	}
}
