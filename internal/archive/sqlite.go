// Package archive persists completed interview sessions locally.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/talentpulse/interview-engine/internal/domain"
)

// Record is one completed interview session.
type Record struct {
	ID              string           `json:"id"`
	SessionID       string           `json:"sessionId"`
	Role            string           `json:"role"`
	Level           string           `json:"level"`
	DurationMinutes int              `json:"durationMinutes"`
	ElapsedSeconds  int              `json:"elapsedSeconds"`
	CompletedAt     time.Time        `json:"completedAt"`
	Transcript      []domain.Entry   `json:"transcript"`
	Feedback        *domain.Feedback `json:"feedback,omitempty"`
}

// SQLiteArchive implements the archive using SQLite.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens the archive database and runs migrations.
func NewSQLiteArchive(dsn string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &SQLiteArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return a, nil
}

func (a *SQLiteArchive) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS interviews (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			level TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			elapsed_seconds INTEGER NOT NULL,
			completed_at DATETIME NOT NULL,
			transcript TEXT NOT NULL,
			feedback TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interviews_completed ON interviews(completed_at)`,
	}

	for _, m := range migrations {
		if _, err := a.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Save stores a completed session. A missing ID is assigned.
func (a *SQLiteArchive) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now().UTC()
	}

	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	var feedback sql.NullString
	if rec.Feedback != nil {
		data, err := json.Marshal(rec.Feedback)
		if err != nil {
			return fmt.Errorf("failed to marshal feedback: %w", err)
		}
		feedback = sql.NullString{String: string(data), Valid: true}
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO interviews (id, session_id, role, level, duration_minutes, elapsed_seconds, completed_at, transcript, feedback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Role, rec.Level, rec.DurationMinutes,
		rec.ElapsedSeconds, rec.CompletedAt, string(transcript), feedback)
	if err != nil {
		return fmt.Errorf("failed to insert interview: %w", err)
	}
	return nil
}

// List returns completed sessions, most recent first.
func (a *SQLiteArchive) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, session_id, role, level, duration_minutes, elapsed_seconds, completed_at, transcript, feedback
		 FROM interviews ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interviews: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var transcript string
		var feedback sql.NullString
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Role, &rec.Level,
			&rec.DurationMinutes, &rec.ElapsedSeconds, &rec.CompletedAt,
			&transcript, &feedback); err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		if err := json.Unmarshal([]byte(transcript), &rec.Transcript); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
		}
		if feedback.Valid {
			var fb domain.Feedback
			if err := json.Unmarshal([]byte(feedback.String), &fb); err == nil {
				rec.Feedback = &fb
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
