package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/MrSnakeDoc/skylog/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS slots (
	name       TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS slot_archive (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	payload     BLOB NOT NULL,
	archived_at INTEGER NOT NULL
);`

// Slot stores the snapshot as one row of the slots table.
type Slot struct {
	db   *sql.DB
	name string
	path string
	now  func() time.Time
}

var (
	_ store.Slot     = (*Slot)(nil)
	_ store.Archiver = (*Slot)(nil)
)

// Open opens (or creates) the database at path and prepares the schema.
func Open(path, name string) (*Slot, error) {
	if path == "" {
		path = "skylog.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: the slot has a single writer and this keeps
	// SQLite from returning SQLITE_BUSY to ourselves.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create slot tables: %w", err)
	}
	return &Slot{db: db, name: name, path: path, now: time.Now}, nil
}

func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM slots WHERE name = ?`, s.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("select slot %s: %w", s.name, err)
	}
	return payload, nil
}

func (s *Slot) Write(ctx context.Context, data []byte) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO slots(name, payload, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.name, data, s.now().Unix()); err != nil {
		return fmt.Errorf("upsert slot %s: %w", s.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot %s: %w", s.name, err)
	}
	return nil
}

func (s *Slot) Archive(ctx context.Context, data []byte) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO slot_archive(name, payload, archived_at) VALUES(?, ?, ?)`,
		s.name, data, s.now().Unix()); err != nil {
		return fmt.Errorf("archive slot %s: %w", s.name, err)
	}
	return nil
}

// ArchiveCount returns how many snapshots of this slot were archived.
func (s *Slot) ArchiveCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slot_archive WHERE name = ?`, s.name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count archive: %w", err)
	}
	return n, nil
}

func (s *Slot) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Slot) Name() string { return "sqlite:" + s.path + "#" + s.name }

func (s *Slot) Close() error { return s.db.Close() }
