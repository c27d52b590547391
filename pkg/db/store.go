package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/japaniel/newsreader/pkg/vocab"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SlotStore keeps named JSON slots in the slots table. It implements vocab.Backend.
type SlotStore struct {
	db DBExecutor
	// now is overridable in tests.
	now func() time.Time
}

// NewSlotStore creates a SlotStore on an initialized database.
func NewSlotStore(db DBExecutor) *SlotStore {
	return &SlotStore{db: db, now: time.Now}
}

// Read returns the stored value for name, or vocab.ErrNotFound.
func (s *SlotStore) Read(ctx context.Context, name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("slot name must be non-empty")
	}
	var value string
	err := sq.Select("value").
		From("slots").
		Where(sq.Eq{"name": name}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vocab.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", name, err)
	}
	return []byte(value), nil
}

// Write upserts the value of name and records the write in slot_writes.
func (s *SlotStore) Write(ctx context.Context, name string, data []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("slot name must be non-empty")
	}
	now := s.now().UTC()
	_, err := sq.Insert("slots").
		Columns("name", "value", "updated_at").
		Values(name, string(data), now).
		Suffix("ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", name, err)
	}
	_, err = sq.Insert("slot_writes").
		Columns("name", "size", "written_at").
		Values(name, len(data), now).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("record slot write %s: %w", name, err)
	}
	return nil
}

// Delete removes the slot. Deleting a missing slot is not an error.
func (s *SlotStore) Delete(ctx context.Context, name string) error {
	_, err := sq.Delete("slots").Where(sq.Eq{"name": name}).RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", name, err)
	}
	return nil
}

// WriteCount returns how many durable writes were issued for name.
func (s *SlotStore) WriteCount(ctx context.Context, name string) (int, error) {
	var n int
	err := sq.Select("COUNT(*)").
		From("slot_writes").
		Where(sq.Eq{"name": name}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count slot writes %s: %w", name, err)
	}
	return n, nil
}
