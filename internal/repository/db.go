package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	URL             string // postgres://... or sqlite://path
	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// Store is the database handle shared by the job repository.
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool // nil for sqlite
	dialect string
	logger  *slog.Logger
}

// Open connects to the backend selected by the URL scheme and creates the
// ocr_jobs table if needed.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	scheme, rest, ok := strings.Cut(cfg.URL, "://")
	if !ok {
		return nil, fmt.Errorf("queue url %q: missing scheme", redact(cfg.URL))
	}

	var (
		st  *Store
		err error
	)
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		st, err = openPostgres(ctx, cfg, logger)
	case "sqlite":
		st, err = openSQLite(rest, logger)
	default:
		return nil, fmt.Errorf("queue url %q: unsupported scheme %q", redact(cfg.URL), scheme)
	}
	if err != nil {
		logger.Error("failed to connect to job store", "url", redact(cfg.URL), "error", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := st.migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate job store: %w", err)
	}
	logger.Info("job store ready", "dialect", st.dialect, "url", redact(cfg.URL))
	return st, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	logger.Info("connecting to database", "url", redact(cfg.URL))
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "docs-ocr"

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	// Wrap pool as *sql.DB so both backends share one code path
	db := stdlib.OpenDBFromPool(pool)
	return &Store{db: db, pool: pool, dialect: dialect.Postgres, logger: logger}, nil
}

func openSQLite(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite url needs a file path")
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// single writer; claims rely on serialized updates
	db.SetMaxOpenConns(1)
	logger.Info("opened sqlite job store", "path", path)
	return &Store{db: db, dialect: dialect.SQLite, logger: logger}, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ocr_jobs (
			id           TEXT PRIMARY KEY,
			document_key TEXT NOT NULL,
			filename     TEXT NOT NULL,
			content_type TEXT NOT NULL,
			payload      TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL,
			result       TEXT,
			error        TEXT,
			worker_id    TEXT,
			created_at   BIGINT NOT NULL,
			started_at   BIGINT,
			finished_at  BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS ocr_jobs_status_created_idx ON ocr_jobs (status, created_at)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// builder returns an ent SQL builder for the store's dialect.
func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// Dialect is the ent dialect name of the backend.
func (s *Store) Dialect() string { return s.dialect }

// Close closes the database connections gracefully
func (s *Store) Close() {
	s.logger.Info("closing database connections")
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the store is reachable within timeout.
func (s *Store) Ping(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return s.db.PingContext(ctx)
}

// redact hides the password in a connection url.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":***@" + host
}
