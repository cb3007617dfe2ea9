package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"lembretes/internal/reminder"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	s := &SQLiteStorage{db: db}

	// Create tables if they don't exist
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Type() string {
	return TypeSQLite
}

func (s *SQLiteStorage) createTables() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS lembretes (
		position INTEGER NOT NULL,
		id TEXT PRIMARY KEY,
		texto TEXT NOT NULL,
		concluido BOOLEAN NOT NULL DEFAULT 0,
		criado_em TEXT NOT NULL, -- RFC 3339
		concluido_em TEXT -- RFC 3339, nullable
	)`)
	if err != nil {
		return fmt.Errorf("failed to create lembretes table: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Load(ctx context.Context) ([]*reminder.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, texto, concluido, criado_em, concluido_em
		FROM lembretes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lembretes: %w", err)
	}
	defer rows.Close()

	list := []*reminder.Reminder{}
	for rows.Next() {
		var r reminder.Reminder
		var createdAt string
		var completedAt sql.NullString

		if err := rows.Scan(&r.ID, &r.Text, &r.Completed, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lembrete: %w", err)
		}

		r.CreatedAt, err = parseTimeString(createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse criado_em: %w", err)
		}
		if completedAt.Valid {
			t, err := parseTimeString(completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse concluido_em: %w", err)
			}
			r.CompletedAt = &t
		}

		list = append(list, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return list, nil
}

// ReplaceAll rewrites the table inside one transaction so a failed write
// leaves the previous collection in place.
func (s *SQLiteStorage) ReplaceAll(ctx context.Context, items []*reminder.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM lembretes"); err != nil {
		return fmt.Errorf("failed to clear lembretes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lembretes
		(position, id, texto, concluido, criado_em, concluido_em)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range items {
		var completedAt *string
		if r.CompletedAt != nil {
			str := r.CompletedAt.Format(time.RFC3339Nano)
			completedAt = &str
		}
		if _, err := stmt.ExecContext(ctx, i, r.ID, r.Text, r.Completed,
			r.CreatedAt.Format(time.RFC3339Nano), completedAt); err != nil {
			return fmt.Errorf("failed to insert lembrete %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM lembretes"); err != nil {
		return fmt.Errorf("failed to clear lembretes: %w", err)
	}
	return nil
}

func parseTimeString(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}
