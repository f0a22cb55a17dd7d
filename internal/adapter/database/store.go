// Package database implements domain.Persist on database/sql. Postgres
// (lib/pq) and SQLite (modernc.org/sqlite) share one implementation; the
// dialect only changes placeholders, date functions and the migration set.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/observability"
	"github.com/couchcryptid/homie-data/internal/query"
)

const backendName = "database"

// sqlitePragmas are appended to every SQLite DSN.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"

// Store is a database-backed persistence backend.
type Store struct {
	db      *sql.DB
	dialect query.Dialect
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Open connects to the database named by url, bounds the pool to maxConns
// connections, and applies the embedded migrations. URLs starting with
// postgres:// or postgresql:// use Postgres; sqlite://, file: and :memory:
// use SQLite.
func Open(ctx context.Context, url string, maxConns int, logger *slog.Logger, metrics *observability.Metrics) (*Store, error) {
	t, err := parseURL(url)
	if err != nil {
		return nil, err
	}
	dialect := t.dialect

	db, err := sql.Open(t.driver, t.dsn)
	if err != nil {
		return nil, domain.DatabaseErrorf("open %s: %w", dialect, err)
	}
	if maxConns <= 0 {
		maxConns = 5
	}
	if t.memory {
		// Every connection to :memory: is a separate database.
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, domain.DatabaseErrorf("ping %s: %w", dialect, err)
	}
	if err := applyMigrations(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, domain.DatabaseErrorf("run migrations: %w", err)
	}

	logger.Info("database opened", "dialect", dialect.String(), "max_conns", maxConns)
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger.With("component", "database"),
		metrics: metrics,
	}, nil
}

type target struct {
	driver  string
	dsn     string
	dialect query.Dialect
	memory  bool
}

func parseURL(url string) (target, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return target{driver: "postgres", dsn: url, dialect: query.Postgres}, nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		return target{driver: "sqlite", dsn: withPragmas(path), dialect: query.SQLite, memory: path == ":memory:"}, nil
	case strings.HasPrefix(url, "file:"), url == ":memory:":
		return target{driver: "sqlite", dsn: withPragmas(url), dialect: query.SQLite, memory: url == ":memory:"}, nil
	case url == "":
		return target{}, domain.ConfigErrorf("DATABASE_URL is required")
	}
	return target{}, domain.ConfigErrorf("unsupported DATABASE_URL scheme in %q", redact(url))
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

// redact hides credentials in a URL for error messages.
func redact(url string) string {
	if at := strings.LastIndex(url, "@"); at >= 0 {
		if scheme := strings.Index(url, "://"); scheme >= 0 && scheme < at {
			return url[:scheme+3] + "***" + url[at:]
		}
	}
	return url
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.DatabaseErrorf("ping: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction. Any error or panic rolls the
// transaction back before returning; only a nil result commits.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.DatabaseErrorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.DatabaseErrorf("commit transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders for the store's dialect.
func (s *Store) rebind(q string) string {
	if s.dialect != query.Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// observe starts timing one backend operation. The returned func records
// the duration and counts a failure when *err is non-nil.
func (s *Store) observe(entity, op string) func(*error) {
	start := time.Now()
	return func(err *error) {
		if s.metrics == nil {
			return
		}
		s.metrics.BackendOpDuration.WithLabelValues(backendName, entity, op).Observe(time.Since(start).Seconds())
		if *err != nil {
			s.metrics.BackendErrors.WithLabelValues(backendName, entity, op).Inc()
		}
	}
}

// requireAffected maps a zero-row write to ErrNotFound.
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.DatabaseErrorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.NotFoundf("%s", what)
	}
	return nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

var _ domain.Persist = (*Store)(nil)
