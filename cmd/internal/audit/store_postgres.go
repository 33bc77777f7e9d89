package audit

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore writes events to <schema>.handshake_audit.
//
// It does not own the pool; Close is a no-op.
//
// Expected table:
//
//	CREATE TABLE mcauth.handshake_audit (
//	    id              text PRIMARY KEY,
//	    action          text NOT NULL,
//	    username        text,
//	    profile_id      text,
//	    outcome         text NOT NULL,
//	    upstream_status integer,
//	    remote_ip       inet,
//	    request_id      text,
//	    created_at      timestamptz NOT NULL
//	);
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures PostgresStore behavior.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the DB schema (default: "mcauth").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return errors.New("audit: empty schema")
		}
		if !isValidPGIdent(schema) {
			return errors.New("audit: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a Postgres-backed Store.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "mcauth",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, errors.New("audit: nil pool")
	}
	return st, nil
}

// Close is a no-op because the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

// Record inserts ev. Duplicate IDs are ignored.
func (s *PostgresStore) Record(ctx context.Context, ev Event) error {
	if s == nil || s.pool == nil {
		return errors.New("audit: nil store")
	}
	if err := ev.Validate(); err != nil {
		return err
	}

	created := ev.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	q := fmt.Sprintf(`
		INSERT INTO %s.handshake_audit (
			id, action, username, profile_id, outcome, upstream_status, remote_ip, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7::inet, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, pgx.Identifier{s.schema}.Sanitize())

	_, err := s.pool.Exec(ctx, q,
		ev.ID,
		ev.Action,
		nullIfEmpty(ev.Username),
		nullIfEmpty(ev.ProfileID),
		ev.Outcome,
		nullIfZero(ev.UpstreamStatus),
		nullIfEmpty(ev.RemoteIP),
		nullIfEmpty(ev.RequestID),
		created,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// CountSince returns how many events with action and outcome were recorded after since.
func (s *PostgresStore) CountSince(ctx context.Context, action, outcome string, since time.Time) (int, error) {
	if s == nil || s.pool == nil {
		return 0, errors.New("audit: nil store")
	}

	q := fmt.Sprintf(`
		SELECT count(*)
		FROM %s.handshake_audit
		WHERE action = $1
		  AND outcome = $2
		  AND created_at >= $3
	`, pgx.Identifier{s.schema}.Sanitize())

	var n int
	if err := s.pool.QueryRow(ctx, q, action, outcome, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return n, nil
}

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

func isValidPGIdent(s string) bool { return pgIdentRe.MatchString(s) }

func nullIfEmpty(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
