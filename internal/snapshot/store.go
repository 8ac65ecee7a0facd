// Package snapshot caches fetched sheets in a local sqlite database so
// analyses can be rerun offline, without a Smartsheet round trip.
package snapshot

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/hivelab-data/soma.report/internal/monitoring"
	"github.com/hivelab-data/soma.report/internal/sheet"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoSnapshot reports that no snapshot exists for the requested sheet.
var ErrNoSnapshot = errors.New("no snapshot found")

// Store is a sqlite-backed snapshot cache.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the snapshot database at path and
// applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// migrateUp applies all pending migrations from the embedded schema.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(s.db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// Note: m is not closed because that would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// payload is the stored JSON form of a table.
type payload struct {
	Columns []string    `json:"columns"`
	Rows    []sheet.Row `json:"rows"`
}

// Save stores a snapshot of the table under the sheet name.
func (s *Store) Save(ctx context.Context, sheetName string, t *sheet.Table) error {
	data, err := json.Marshal(payload{Columns: t.Columns, Rows: t.Rows})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (sheet_name, fetched_at, payload) VALUES (?, ?, ?)`,
		sheetName, time.Now().UTC(), string(data))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	monitoring.Logf("snapshot saved for sheet %q (%d rows)", sheetName, t.Len())
	return nil
}

// Latest loads the most recent snapshot for the sheet name. ErrNoSnapshot
// is returned when none exists.
func (s *Store) Latest(ctx context.Context, sheetName string) (*sheet.Table, time.Time, error) {
	var (
		fetchedAt time.Time
		data      string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM snapshots WHERE sheet_name = ? ORDER BY id DESC LIMIT 1`,
		sheetName).Scan(&fetchedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("%w for sheet %q", ErrNoSnapshot, sheetName)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query snapshot: %w", err)
	}

	var p payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	t := &sheet.Table{Columns: p.Columns, Rows: p.Rows}
	return t, fetchedAt, nil
}

// Prune keeps the newest keep snapshots per sheet name and deletes the
// rest.
func (s *Store) Prune(ctx context.Context, sheetName string, keep int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE sheet_name = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE sheet_name = ? ORDER BY id DESC LIMIT ?
		)`, sheetName, sheetName, keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
