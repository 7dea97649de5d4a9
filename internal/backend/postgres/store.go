// Package postgres implements service.Service on a PostgreSQL table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gtodo/internal/service"
)

// QueryTimeout bounds every statement.
const QueryTimeout = 5 * time.Second

// Store keeps tasks in one table named after the collection.
type Store struct {
	db    *pgxpool.Pool
	table string
}

// Open connects to dsn, pings the server and creates the table if needed.
func Open(ctx context.Context, dsn, collection string) (*Store, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(db, collection)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool.
func New(db *pgxpool.Pool, collection string) *Store {
	if collection == "" {
		collection = service.DefaultCollection
	}
	return &Store{
		db:    db,
		table: pgx.Identifier{collection}.Sanitize(),
	}
}

// Migrate creates the task table and its ordering index.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	completed  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.db.Close()
}

// CreateTask implements service.Service.
func (s *Store) CreateTask(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	var id string
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, text, completed) VALUES ($1, $2, FALSE) RETURNING id`, s.table),
		uuid.NewString(), text,
	).Scan(&id)
	if err != nil {
		return "", wrapError(err)
	}
	return id, nil
}

// ListTasks implements service.Service.
func (s *Store) ListTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT id, text, completed, created_at FROM %s ORDER BY created_at DESC, id DESC`, s.table))
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	var res []service.Task
	for rows.Next() {
		var t service.Task
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed, &t.CreatedAt); err != nil {
			return nil, wrapError(err)
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return res, nil
}

// UpdateTask implements service.Service.
func (s *Store) UpdateTask(ctx context.Context, id string, update service.TaskUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	stmt, args := updateStatement(s.table, id, update)
	tag, err := s.db.Exec(ctx, stmt, args...)
	if err != nil {
		return wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

// updateStatement builds an UPDATE touching only the provided fields.
// An empty update still matches the row so a missing id is reported.
func updateStatement(table, id string, update service.TaskUpdate) (string, []any) {
	var sets []string
	args := []any{id}
	if update.Text != nil {
		args = append(args, *update.Text)
		sets = append(sets, fmt.Sprintf("text = $%d", len(args)))
	}
	if update.Completed != nil {
		args = append(args, *update.Completed)
		sets = append(sets, fmt.Sprintf("completed = $%d", len(args)))
	}
	if update.IsEmpty() {
		sets = append(sets, "id = id")
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", table, strings.Join(sets, ", ")), args
}

// DeleteTask implements service.Service.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	if _, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table), id); err != nil {
		return wrapError(err)
	}
	return nil
}

func wrapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return service.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (%s)", service.ErrTransport, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %w", service.ErrTransport, err)
}
