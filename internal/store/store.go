package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// nowMillisSQL evaluates to the store clock in unix milliseconds.
const nowMillisSQL = `CAST(ROUND((julianday('now') - 2440587.5) * 86400000.0) AS INTEGER)`

// connPragmas are set on the single pooled connection.
var connPragmas = []string{
	"journal_mode = WAL",
	"synchronous = NORMAL",
	"busy_timeout = 5000",
	"foreign_keys = ON",
}

// migration upgrades a database whose user_version is below version.
type migration struct {
	version int
	stmt    string
}

var migrations = []migration{
	// Answered presentations, probed by the already-submitted check.
	{1, `CREATE INDEX IF NOT EXISTS idx_presentations_answered
		ON presentations(id_level) WHERE response IS NOT NULL`},
}

// Store holds users, the video catalogue, levels and their presentations.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite file at path, creating and upgrading the schema as
// needed. Transactions take the write lock when they begin, so concurrent
// allocations and scorings are serialised.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_txlock=immediate", path))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func prepare(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range connPragmas {
		if _, err := db.Exec("PRAGMA " + p); err != nil {
			return fmt.Errorf("pragma %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(db)
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set schema version %d: %w", m.version, err)
		}
		version = m.version
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle to fixtures and scenario assertions that read or
// rewrite rows directly.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Queries returns a Queries that runs each statement in its own implicit
// transaction. Must not be used from inside a WithinTx callback: the pool
// holds a single connection.
func (s *Store) Queries() *Queries {
	return &Queries{q: s.db}
}

// WithinTx runs fn inside one transaction. The transaction commits if fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
func (s *Store) WithinTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// pragma reads the current value of a pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
