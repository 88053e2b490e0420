package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"taskd/internal/db"
)

const tasksTable = "tasks"

var taskColumns = []string{"id", "title", "description", "status", "created_at"}

// Store is the persistence layer for tasks. Every method checks out its own
// connection and gives it back before returning.
type Store struct {
	conns   db.ConnProvider
	dialect db.Dialect
	sb      sq.StatementBuilderType
	log     zerolog.Logger
}

func NewStore(conns db.ConnProvider, dialect db.Dialect, logger zerolog.Logger) *Store {
	return &Store{
		conns:   conns,
		dialect: dialect,
		sb:      dialect.Builder(),
		log:     logger.With().Str("component", "store").Logger(),
	}
}

// CreateTable makes sure the tasks table exists. Safe to call on every start.
func (s *Store) CreateTable(ctx context.Context) error {
	const op = "create_table"

	conn, err := s.acquire(ctx, op)
	if err != nil {
		return err
	}
	defer conn.Close()

	// DDL runs outside a transaction: a failed statement would otherwise
	// poison the postgres transaction and the race check below could not
	// recover from it.
	_, err = conn.ExecContext(ctx, s.dialect.TasksTableDDL())
	if err != nil && !isDuplicateTable(err) {
		return s.fail(op, 0, ErrSchema, err)
	}

	s.log.Info().Msg("tasks table ready")
	return nil
}

func (s *Store) Create(ctx context.Context, title string, description *string) (int64, error) {
	const op = "create"

	query, args, err := s.sb.Insert(tasksTable).
		Columns("title", "description").
		Values(title, nullString(description)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, s.fail(op, 0, ErrWrite, err)
	}

	var id int64
	err = s.inTx(ctx, op, 0, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, args...).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetAll returns every task ordered by ascending id. The slice is never nil.
func (s *Store) GetAll(ctx context.Context) ([]Task, error) {
	const op = "get_all"

	query, args, err := s.sb.Select(taskColumns...).From(tasksTable).OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, s.fail(op, 0, ErrStoreUnavailable, err)
	}

	conn, err := s.acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail(op, 0, ErrStoreUnavailable, err)
	}
	defer rows.Close()

	result := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, s.fail(op, 0, ErrStoreUnavailable, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, 0, ErrStoreUnavailable, err)
	}

	return result, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (Task, error) {
	const op = "get_by_id"

	query, args, err := s.sb.Select(taskColumns...).From(tasksTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Task{}, s.fail(op, id, ErrStoreUnavailable, err)
	}

	conn, err := s.acquire(ctx, op)
	if err != nil {
		return Task{}, err
	}
	defer conn.Close()

	t, err := scanTask(conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, s.fail(op, id, ErrStoreUnavailable, err)
	}
	return t, nil
}

// Update applies only the fields that are set and reports whether a row
// matched. An empty field set is rejected before any connection is taken.
func (s *Store) Update(ctx context.Context, id int64, fields Fields) (bool, error) {
	const op = "update"

	if fields.IsEmpty() {
		return false, ErrNoFields
	}

	b := s.sb.Update(tasksTable)
	if title, ok := fields.Title.Get(); ok {
		b = b.Set("title", title)
	}
	if desc, ok := fields.Description.Get(); ok {
		if desc == "" {
			b = b.Set("description", nil)
		} else {
			b = b.Set("description", desc)
		}
	}
	if status, ok := fields.Status.Get(); ok {
		b = b.Set("status", string(status))
	}

	query, args, err := b.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, s.fail(op, id, ErrWrite, err)
	}

	var affected int64
	err = s.inTx(ctx, op, id, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	const op = "delete"

	query, args, err := s.sb.Delete(tasksTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, s.fail(op, id, ErrWrite, err)
	}

	var affected int64
	err = s.inTx(ctx, op, id, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Ping reports whether a connection can be acquired right now.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.acquire(ctx, "ping")
	if err != nil {
		return err
	}
	return conn.Close()
}

func (s *Store) acquire(ctx context.Context, op string) (*sql.Conn, error) {
	conn, err := s.conns.Conn(ctx)
	if err != nil {
		return nil, s.fail(op, 0, ErrStoreUnavailable, err)
	}
	return conn, nil
}

// inTx runs fn in a transaction on a fresh connection. Any failure rolls the
// whole transaction back and is reported as ErrWrite.
func (s *Store) inTx(ctx context.Context, op string, id int64, fn func(tx *sql.Tx) error) error {
	conn, err := s.acquire(ctx, op)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(op, id, ErrWrite, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return s.fail(op, id, ErrWrite, err)
	}
	if err := tx.Commit(); err != nil {
		return s.fail(op, id, ErrWrite, err)
	}
	return nil
}

// fail logs the backend error and returns only the sentinel kind.
func (s *Store) fail(op string, id int64, kind, err error) error {
	ev := s.log.Error().Err(err).Str("op", op)
	if id != 0 {
		ev = ev.Int64("task_id", id)
	}
	ev.Msg("store operation failed")
	return fmt.Errorf("%s: %w", op, kind)
}

// isDuplicateTable catches the race where two processes run CREATE TABLE IF
// NOT EXISTS at the same moment on postgres.
func isDuplicateTable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "42P07":
		return true
	case "23505":
		return pqErr.Constraint == "pg_type_typname_nsp_index"
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var (
		t       Task
		desc    sql.NullString
		status  string
		created dbTime
	)
	if err := row.Scan(&t.ID, &t.Title, &desc, &status, &created); err != nil {
		return Task{}, err
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	t.Status = Status(status)
	t.CreatedAt = created.Time
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// dbTime accepts both native timestamps (lib/pq) and the text form sqlite
// keeps for CURRENT_TIMESTAMP. Values without a zone are UTC.
type dbTime struct {
	Time time.Time
}

var dbTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339Nano,
}

func (d *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v.UTC()
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (d *dbTime) parse(s string) error {
	for _, layout := range dbTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
