package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// storageNamespace keys the single state row; it matches the storage key
// the original mobile client persisted under, so a migrated blob drops in
// unchanged.
const storageNamespace = "daytoday-storage"

// SQLiteBackend stores the blob in a one-row key/value table. WAL mode and
// a generous busy timeout keep concurrent readers (backup tooling, a
// second process) from tripping over the single writer.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	_, err := b.db.Exec(`
	CREATE TABLE IF NOT EXISTS app_state (
		ns         TEXT PRIMARY KEY,
		blob       BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

func (b *SQLiteBackend) Load() ([]byte, error) {
	var blob []byte
	err := b.db.QueryRow(`SELECT blob FROM app_state WHERE ns = ?`, storageNamespace).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (b *SQLiteBackend) Save(blob []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := b.db.Exec(
		`INSERT INTO app_state (ns, blob, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(ns) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		storageNamespace, blob, now,
	)
	return err
}

func (b *SQLiteBackend) Close() error { return b.db.Close() }
