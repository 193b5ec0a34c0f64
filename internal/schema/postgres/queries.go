package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/pbquery/internal/schema"
)

// ErrNotFound is returned when a named collection is not stored.
var ErrNotFound = errors.New("collection not found")

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func querySaveCollection(ctx context.Context, db executor, c schema.Collection) error {
	typ := c.Type
	if typ == "" {
		typ = schema.TypeBase
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO collections (name, remote_id, type, synced_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (name) DO UPDATE SET remote_id = EXCLUDED.remote_id, type = EXCLUDED.type, synced_at = now()`,
		c.Name, c.ID, string(typ))
	if err != nil {
		return fmt.Errorf("save collection %s: %w", c.Name, err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM collection_fields WHERE collection_name = $1`, c.Name); err != nil {
		return fmt.Errorf("clear fields of %s: %w", c.Name, err)
	}

	for i, f := range c.Fields {
		_, err := db.ExecContext(ctx,
			`INSERT INTO collection_fields (collection_name, position, name, type, system, hidden)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.Name, i, f.Name, f.Type, f.System, f.Hidden)
		if err != nil {
			return fmt.Errorf("save field %s.%s: %w", c.Name, f.Name, err)
		}
	}
	return nil
}

func queryLoadCollections(ctx context.Context, db executor) ([]schema.Collection, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, remote_id, type FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var (
		collections []schema.Collection
		index       = map[string]int{}
	)
	for rows.Next() {
		var c schema.Collection
		var typ string
		if err := rows.Scan(&c.Name, &c.ID, &typ); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		c.Type = schema.CollectionType(typ)
		index[c.Name] = len(collections)
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}
	if len(collections) == 0 {
		return nil, nil
	}

	fieldRows, err := db.QueryContext(ctx,
		`SELECT collection_name, name, type, system, hidden FROM collection_fields ORDER BY collection_name, position`)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer fieldRows.Close()

	for fieldRows.Next() {
		var owner string
		var f schema.Field
		if err := fieldRows.Scan(&owner, &f.Name, &f.Type, &f.System, &f.Hidden); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		i, ok := index[owner]
		if !ok {
			continue
		}
		collections[i].Fields = append(collections[i].Fields, f)
	}
	if err := fieldRows.Err(); err != nil {
		return nil, fmt.Errorf("scan fields: %w", err)
	}

	return collections, nil
}

func queryDeleteCollection(ctx context.Context, db executor, name string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM collections WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete collection %s: %w", name, ErrNotFound)
	}
	return nil
}
