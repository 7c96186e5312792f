// Package history keeps a SQLite journal of applied edits. The CSV output
// stays the source of truth; the journal exists so a rating pass can be
// audited later, and a broken journal never blocks rating.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gkplab/audiotag/internal/rating"
)

// DefaultFileName is the journal database name under the output directory.
const DefaultFileName = "ratings.db"

// Edit is one journaled change to a single record.
type Edit struct {
	Session     string
	Subject     string
	Index       int
	Rater       string
	BeforeText  string
	AfterText   string
	BeforeStart float64
	AfterStart  float64
	BeforeEnd   float64
	AfterEnd    float64
	RecordedAt  time.Time
}

// Journal writes edits to a SQLite database, one session id per process.
type Journal struct {
	db      *sql.DB
	session string
}

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS edits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			subject TEXT NOT NULL,
			row_idx INTEGER NOT NULL,
			rater TEXT NOT NULL,
			before_text TEXT NOT NULL,
			after_text TEXT NOT NULL,
			before_start REAL NOT NULL,
			after_start REAL NOT NULL,
			before_end REAL NOT NULL,
			after_end REAL NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edits_subject ON edits(subject)`,
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize journal schema: %w", err)
		}
	}

	return &Journal{db: db, session: uuid.NewString()}, nil
}

// Session returns the id stamped onto this process's journal entries.
func (j *Journal) Session() string { return j.session }

// RecordEdit journals one committed change. Failures are logged and
// swallowed so a full disk or locked database cannot interrupt rating.
func (j *Journal) RecordEdit(subject string, index int, before, after rating.Record) {
	query := `INSERT INTO edits (
		session, subject, row_idx, rater,
		before_text, after_text,
		before_start, after_start, before_end, after_end,
		recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := j.db.Exec(query,
		j.session,
		subject,
		index,
		after.Rater,
		before.Transcription,
		after.Transcription,
		before.Start,
		after.Start,
		before.End,
		after.End,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		slog.Warn("edit journal write failed", "subject", subject, "index", index, "error", err)
	}
}

// BySubject returns every journaled edit for subject, oldest first.
func (j *Journal) BySubject(subject string) ([]Edit, error) {
	query := `SELECT session, subject, row_idx, rater,
		before_text, after_text,
		before_start, after_start, before_end, after_end,
		recorded_at
	FROM edits WHERE subject = ? ORDER BY id`
	rows, err := j.db.Query(query, subject)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var edits []Edit
	for rows.Next() {
		var e Edit
		var recorded string
		if err := rows.Scan(
			&e.Session, &e.Subject, &e.Index, &e.Rater,
			&e.BeforeText, &e.AfterText,
			&e.BeforeStart, &e.AfterStart, &e.BeforeEnd, &e.AfterEnd,
			&recorded,
		); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.RecordedAt, err = time.Parse(time.RFC3339, recorded)
		if err != nil {
			return nil, fmt.Errorf("parse journal timestamp %q: %w", recorded, err)
		}
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal rows: %w", err)
	}
	return edits, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
