// Package postgres implements store.IdentityStore backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.IdentityStore backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

var _ store.IdentityStore = (*PostgresStore)(nil)

// Profile writes are one upsert per inbound message; a small pool is plenty.
const (
	maxOpenConns    = 4
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 5 * time.Second
)

// New connects to databaseURL and brings the sender_identities schema up to
// date.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// SaveIdentity upserts a profile. first_seen_at is never moved forward.
func (s *PostgresStore) SaveIdentity(ctx context.Context, identity *model.SenderIdentity) error {
	if identity == nil || identity.ID == "" {
		return nil
	}
	return queryUpsertIdentity(ctx, s.db, identity)
}

// GetIdentity returns nil, nil when the sender has no row.
func (s *PostgresStore) GetIdentity(ctx context.Context, id string) (*model.SenderIdentity, error) {
	return queryGetIdentity(ctx, s.db, id)
}

func (s *PostgresStore) ListIdentities(ctx context.Context) ([]*model.SenderIdentity, error) {
	return queryListIdentities(ctx, s.db)
}
