// Package journal persists reading progress in SQLite: which sessions
// ran, when they calibrated, and where each document was left off.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	profile     TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	ended_at    TEXT
);

CREATE TABLE IF NOT EXISTS calibrations (
	calibration_id TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	points         INTEGER NOT NULL,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS checkpoints (
	document_id TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	line        INTEGER NOT NULL,
	page        INTEGER NOT NULL,
	word        INTEGER NOT NULL,
	done        INTEGER NOT NULL DEFAULT 0,
	updated_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// Session is one tracker session.
type Session struct {
	ID           string     `json:"id"`
	Profile      string     `json:"profile"`
	StartedAt    time.Time  `json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	Calibrations int        `json:"calibrations"`
}

// Checkpoint is the last reading position in a document.
type Checkpoint struct {
	DocumentID string    `json:"documentId"`
	SessionID  string    `json:"sessionId"`
	Line       int       `json:"line"`
	Page       int       `json:"page"`
	Word       int       `json:"word"`
	Done       bool      `json:"done"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Store is a SQLite-backed journal. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartSession records a new session.
func (s *Store) StartSession(ctx context.Context, id, profile string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, profile, started_at) VALUES (?, ?, ?)`,
		id, profile, now(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// EndSession stamps the end time of a session.
func (s *Store) EndSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE session_id = ?`, now(), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordCalibration records a completed calibration with the given
// number of training points.
func (s *Store) RecordCalibration(ctx context.Context, sessionID string, points int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calibrations (calibration_id, session_id, points, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), sessionID, points, now(),
	)
	if err != nil {
		return fmt.Errorf("insert calibration: %w", err)
	}
	return nil
}

// SaveCheckpoint stores the reading position for a document, replacing
// the previous one.
func (s *Store) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (document_id, session_id, line, page, word, done, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET
		   session_id = excluded.session_id,
		   line = excluded.line,
		   page = excluded.page,
		   word = excluded.word,
		   done = excluded.done,
		   updated_at = excluded.updated_at`,
		cp.DocumentID, cp.SessionID, cp.Line, cp.Page, cp.Word, cp.Done,
		cp.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LastCheckpoint returns the stored position for a document.
func (s *Store) LastCheckpoint(ctx context.Context, documentID string) (Checkpoint, error) {
	var cp Checkpoint
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT document_id, session_id, line, page, word, done, updated_at
		 FROM checkpoints WHERE document_id = ?`, documentID,
	).Scan(&cp.DocumentID, &cp.SessionID, &cp.Line, &cp.Page, &cp.Word, &cp.Done, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, fmt.Errorf("checkpoint %s: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("get checkpoint: %w", err)
	}
	cp.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return cp, nil
}

// Sessions returns the most recent sessions, newest first.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.session_id, s.profile, s.started_at, s.ended_at,
		        (SELECT COUNT(*) FROM calibrations c WHERE c.session_id = s.session_id)
		 FROM sessions s ORDER BY s.started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var started string
		var ended sql.NullString
		if err := rows.Scan(&sess.ID, &sess.Profile, &started, &ended, &sess.Calibrations); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if ended.Valid {
			t, _ := time.Parse(time.RFC3339Nano, ended.String)
			sess.EndedAt = &t
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
