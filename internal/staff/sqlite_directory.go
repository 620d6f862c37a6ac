package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDirectory resolves identities from a local SQLite file, for terminals
// that run without a central database.
type SQLiteDirectory struct {
	db        *sql.DB
	writeLock sync.Mutex // go-sqlite does not support concurrent writes
}

// NewSQLiteDirectory opens the database at path and creates the schema if needed.
func NewSQLiteDirectory(path string) (*SQLiteDirectory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS staff (
			id       TEXT PRIMARY KEY,
			name     TEXT NOT NULL,
			name_key TEXT NOT NULL,
			role     TEXT NOT NULL,
			pin      TEXT NOT NULL,
			UNIQUE (name_key, role)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteDirectory{db: db}, nil
}

// FindByUsername implements Directory.
func (d *SQLiteDirectory) FindByUsername(ctx context.Context, name string, role Role) (Identity, error) {
	var ident Identity
	var roleName string
	err := d.db.QueryRowContext(ctx,
		"SELECT id, name, role, pin FROM staff WHERE name_key = ? AND role = ?",
		NameKey(name), string(role),
	).Scan(&ident.ID, &ident.Name, &roleName, &ident.PIN)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, fmt.Errorf("query staff: %w", err)
	}
	ident.Role = Role(roleName)
	return ident, nil
}

// Import provisions identities, skipping names already present for the role
// in any case.
func (d *SQLiteDirectory) Import(ctx context.Context, ids []Identity) error {
	d.writeLock.Lock()
	defer d.writeLock.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	for _, ident := range ids {
		if !ValidPIN(ident.PIN) {
			return fmt.Errorf("staff %q: PIN must be %d digits", ident.Name, PINLength)
		}
		id := ident.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO staff (id, name, name_key, role, pin) VALUES (?, ?, ?, ?, ?)",
			id, ident.Name, NameKey(ident.Name), string(ident.Role), ident.PIN,
		); err != nil {
			return fmt.Errorf("insert staff %q: %w", ident.Name, err)
		}
	}
	return tx.Commit()
}

// Close releases the database handle.
func (d *SQLiteDirectory) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}
