// Package audit persists the audit trail and archived transcripts in SQLite.
package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	sqliteBusyCode    = 5
	busyRetryAttempts = 5
	busyRetryBackoff  = 10 * time.Millisecond

	// fixed width so that timestamps sort as text
	tsLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store implements app.AuditLog and app.TranscriptArchive.
type Store struct {
	db *sql.DB
}

var (
	_ app.AuditLog          = (*Store)(nil)
	_ app.TranscriptArchive = (*Store)(nil)
)

// Open opens (or creates) the database at dsn; ":memory:" is accepted.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if dsn == ":memory:" {
		// :memory: databases are private to one connection.
		db.SetMaxOpenConns(1)
	} else {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	return strings.Contains(err.Error(), "database is locked")
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	delay := busyRetryBackoff
	var err error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		if _, err = s.db.ExecContext(ctx, query, args...); err == nil || !isSQLiteBusy(err) {
			return err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}

// Record appends an immutable entry; an empty ID gets a fresh UUID.
func (s *Store) Record(ctx context.Context, e app.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	err := s.exec(ctx,
		`INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.UserID), string(e.Action), e.ResourceType,
		nullable(e.ResourceID), nullable(e.Details), e.CreatedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns entries newest first, filtered by resource id when one is given.
func (s *Store) List(ctx context.Context, resourceID string, limit int) ([]app.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	query := `SELECT id, user_id, action, resource_type, resource_id, details, created_at FROM audit_logs`
	args := []any{}
	if resourceID != "" {
		query += ` WHERE resource_id = ?`
		args = append(args, resourceID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	out := []app.AuditEntry{}
	for rows.Next() {
		var (
			e                app.AuditEntry
			user, action, ts string
			resID, details   sql.NullString
		)
		if err := rows.Scan(&e.ID, &user, &action, &e.ResourceType, &resID, &details, &ts); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.UserID = domain.UserID(user)
		e.Action = app.AuditAction(action)
		e.ResourceID = resID.String
		e.Details = details.String
		if e.CreatedAt, err = time.Parse(tsLayout, ts); err != nil {
			return nil, fmt.Errorf("parse audit timestamp %q: %w", ts, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ArchiveTranscript stores the rendered transcript; a later archive of the
// same appointment replaces it.
func (s *Store) ArchiveTranscript(ctx context.Context, id domain.AppointmentID, chunks []domain.TranscriptChunk) error {
	err := s.exec(ctx,
		`INSERT INTO transcripts (appointment_id, text, chunk_count, archived_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(appointment_id) DO UPDATE SET
		   text = excluded.text, chunk_count = excluded.chunk_count, archived_at = excluded.archived_at`,
		string(id), domain.RenderTranscript(chunks), len(chunks), time.Now().UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("archive transcript: %w", err)
	}
	return nil
}

// ArchivedTranscript returns the rendered text stored for id.
func (s *Store) ArchivedTranscript(ctx context.Context, id domain.AppointmentID) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM transcripts WHERE appointment_id = ?`, string(id)).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load archived transcript: %w", err)
	}
	return text, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
