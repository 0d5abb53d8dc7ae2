package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-deck/pkg/simpledeck/store"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements store.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

var _ store.Repository = (*Repository)(nil)

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS deck_file (
	id            TEXT PRIMARY KEY,
	original_name TEXT NOT NULL,
	size_bytes    BIGINT NOT NULL CHECK (size_bytes >= 0),
	mime_type     TEXT NOT NULL DEFAULT '',
	object_key    TEXT NOT NULL UNIQUE,
	uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS deck_file_uploaded_at_idx ON deck_file (uploaded_at DESC);
`

// EnsureSchema creates the tables the repository needs if they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return handlePostgresError("ensure schema", err)
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", store.ErrDuplicateRecord, pgErr.ConstraintName)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("invalid value for %s: %s", pgErr.ConstraintName, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrRecordNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) Create(ctx context.Context, rec *store.Record) error {
	query := `
		INSERT INTO deck_file (id, original_name, size_bytes, mime_type, object_key, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.OriginalName, rec.Size, rec.MimeType, rec.ObjectKey, rec.UploadedAt)
	if err != nil {
		return handlePostgresError("create file", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*store.Record, error) {
	query := `
		SELECT id, original_name, size_bytes, mime_type, object_key, uploaded_at
		FROM deck_file WHERE id = $1`

	var rec store.Record
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.OriginalName, &rec.Size, &rec.MimeType, &rec.ObjectKey, &rec.UploadedAt)
	if err != nil {
		return nil, handlePostgresError("get file", err)
	}
	return &rec, nil
}

func (r *Repository) List(ctx context.Context) ([]*store.Record, error) {
	query := `
		SELECT id, original_name, size_bytes, mime_type, object_key, uploaded_at
		FROM deck_file ORDER BY uploaded_at DESC, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("list files", err)
	}
	defer rows.Close()

	var out []*store.Record
	for rows.Next() {
		var rec store.Record
		if err := rows.Scan(&rec.ID, &rec.OriginalName, &rec.Size, &rec.MimeType, &rec.ObjectKey, &rec.UploadedAt); err != nil {
			return nil, handlePostgresError("list files", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list files", err)
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM deck_file WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete file", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrRecordNotFound
	}
	return nil
}
