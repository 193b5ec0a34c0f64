// Package postgres persists collection models in PostgreSQL so the CLI can
// build queries without asking the server for its schema on every run.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/pbquery/internal/schema"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store keeps collection models in a PostgreSQL database.
type Store struct {
	db *sql.DB
}

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already-migrated database handle.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
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

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCollections upserts the given models in one transaction. The field
// list of each saved collection is replaced, not merged.
func (s *Store) SaveCollections(ctx context.Context, collections ...schema.Collection) error {
	for _, c := range collections {
		if err := schema.ValidateCollection(c); err != nil {
			return fmt.Errorf("collection %q: %w", c.Name, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, c := range collections {
		if err := querySaveCollection(ctx, tx, c); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadCollections returns every stored model, sorted by name.
func (s *Store) LoadCollections(ctx context.Context) ([]schema.Collection, error) {
	return queryLoadCollections(ctx, s.db)
}

// DeleteCollection removes a model and its fields.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	return queryDeleteCollection(ctx, s.db, name)
}

// LoadRegistry builds an in-memory registry from the stored models.
func (s *Store) LoadRegistry(ctx context.Context) (*schema.Registry, error) {
	collections, err := s.LoadCollections(ctx)
	if err != nil {
		return nil, err
	}
	return schema.NewRegistry(collections...), nil
}
