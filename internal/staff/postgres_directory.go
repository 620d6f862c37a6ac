package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS staff (
    id       UUID PRIMARY KEY,
    name     TEXT NOT NULL,
    name_key TEXT NOT NULL,
    role     TEXT NOT NULL,
    pin      CHAR(4) NOT NULL,
    UNIQUE (name_key, role)
)`

// PostgresDirectory resolves identities from the staff table in PostgreSQL.
type PostgresDirectory struct {
	db *pgxpool.Pool
}

// NewPostgresDirectory builds a Postgres-backed staff directory.
func NewPostgresDirectory(db *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// EnsureSchema creates the staff table when it does not exist yet.
func (d *PostgresDirectory) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create staff schema: %w", err)
	}
	return nil
}

// FindByUsername fetches the identity whose folded name matches.
func (d *PostgresDirectory) FindByUsername(ctx context.Context, name string, role Role) (Identity, error) {
	row := d.db.QueryRow(ctx, `SELECT id, name, role, pin FROM staff
        WHERE name_key = $1 AND role = $2`, NameKey(name), string(role))
	var (
		id       uuid.UUID
		roleName string
		ident    Identity
	)
	if err := row.Scan(&id, &ident.Name, &roleName, &ident.PIN); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, fmt.Errorf("query staff: %w", err)
	}
	ident.ID = id.String()
	ident.Role = Role(roleName)
	return ident, nil
}

// Import provisions identities, leaving names already present for the role
// untouched. The schema is created first if needed.
func (d *PostgresDirectory) Import(ctx context.Context, ids []Identity) error {
	if err := d.EnsureSchema(ctx); err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, ident := range ids {
		if !ValidPIN(ident.PIN) {
			return fmt.Errorf("staff %q: PIN must be %d digits", ident.Name, PINLength)
		}
		id, err := uuid.Parse(ident.ID)
		if err != nil {
			id = uuid.New()
		}
		if _, err := tx.Exec(ctx, `INSERT INTO staff (id, name, name_key, role, pin) VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT DO NOTHING`, id, ident.Name, NameKey(ident.Name), string(ident.Role), ident.PIN); err != nil {
			return fmt.Errorf("insert staff %q: %w", ident.Name, err)
		}
	}
	return tx.Commit(ctx)
}
