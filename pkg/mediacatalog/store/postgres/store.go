package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/media-catalog/pkg/mediacatalog"
)

// DefaultTable holds the collection snapshot when no table is configured
const DefaultTable = "media_catalog_snapshot"

// snapshotID is the key of the single row holding the collection
const snapshotID = 1

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements mediacatalog.RecordStore on a single JSONB row. Each Save
// is one upsert statement, so readers never observe a partial collection.
type Store struct {
	db    DBTX
	table string
}

// New creates a PostgreSQL record store on db. An empty table name selects
// DefaultTable.
func New(db DBTX, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{db: db, table: pgx.Identifier{table}.Sanitize()}
}

// NewWithPool creates a PostgreSQL record store with connection pool
func NewWithPool(pool *pgxpool.Pool, table string) *Store {
	return New(pool, table)
}

// Migrate creates the snapshot table if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id         SMALLINT PRIMARY KEY,
		document   JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.table))
	if err != nil {
		return s.handlePostgresError("migrate", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (mediacatalog.Collection, error) {
	var document []byte
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT document FROM %s WHERE id = $1`, s.table),
		snapshotID,
	).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return mediacatalog.Collection{}, nil
	}
	if err != nil {
		return nil, s.handlePostgresError("load", err)
	}

	c := mediacatalog.Collection{}
	if err := json.Unmarshal(document, &c); err != nil {
		return nil, &mediacatalog.StorageError{Backend: "postgres", Op: "load", Err: err}
	}
	return c, nil
}

func (s *Store) Save(ctx context.Context, c mediacatalog.Collection) error {
	if c == nil {
		c = mediacatalog.Collection{}
	}
	document, err := json.Marshal(c)
	if err != nil {
		return &mediacatalog.StorageError{Backend: "postgres", Op: "save", Err: err}
	}

	_, err = s.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`, s.table),
		snapshotID, document,
	)
	if err != nil {
		return s.handlePostgresError("save", err)
	}
	return nil
}

// Error handling helper
func (s *Store) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			err = fmt.Errorf("table %s does not exist - run migration first: %w", s.table, err)
		default:
			err = fmt.Errorf("database error: %s (code: %s): %w", pgErr.Message, pgErr.Code, err)
		}
	}
	return &mediacatalog.StorageError{Backend: "postgres", Op: operation, Err: err}
}
