package job

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// LogRepo is the durable job log, backed by SQLite. Rows are written
// transactionally so concurrent readers never observe a partial entry.
type LogRepo struct {
	db *sql.DB
}

// NewLogRepo opens (or creates) the log database at path.
func NewLogRepo(path string) (*LogRepo, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	r := &LogRepo{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *LogRepo) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS job_log (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'queued',
		filename TEXT NOT NULL DEFAULT '',
		task TEXT NOT NULL DEFAULT '',
		model_id TEXT NOT NULL DEFAULT '',
		compute_type TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		output_files TEXT NOT NULL DEFAULT '{}',
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_job_log_updated ON job_log(updated_at DESC);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Upsert writes a full log row, inserting on first sight and replacing
// every field except created_at afterwards.
func (r *LogRepo) Upsert(e LogEntry) error {
	files, err := json.Marshal(e.OutputFiles)
	if err != nil {
		return fmt.Errorf("marshal output files: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO job_log (id, status, filename, task, model_id, compute_type, language, duration, output_files, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			filename = excluded.filename,
			task = excluded.task,
			model_id = excluded.model_id,
			compute_type = excluded.compute_type,
			language = excluded.language,
			duration = excluded.duration,
			output_files = excluded.output_files,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		e.ID, e.Status, e.Filename, e.Task, e.ModelID, e.ComputeType,
		e.Language, e.Duration, string(files), e.Error, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// Get returns the log entry for id, or sql.ErrNoRows.
func (r *LogRepo) Get(id string) (*LogEntry, error) {
	row := r.db.QueryRow(`
		SELECT id, status, filename, task, model_id, compute_type, language, duration, output_files, error, created_at, updated_at
		FROM job_log WHERE id = ?`, id)
	return scanEntry(row)
}

// List returns up to limit entries sorted by updated_at descending.
func (r *LogRepo) List(limit int) ([]LogEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, status, filename, task, model_id, compute_type, language, duration, output_files, error, created_at, updated_at
		FROM job_log ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LogEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Delete removes the log entry for id and reports whether it existed.
func (r *LogRepo) Delete(id string) (bool, error) {
	res, err := r.db.Exec("DELETE FROM job_log WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *LogRepo) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*LogEntry, error) {
	e := &LogEntry{}
	var files string
	err := row.Scan(&e.ID, &e.Status, &e.Filename, &e.Task, &e.ModelID, &e.ComputeType,
		&e.Language, &e.Duration, &files, &e.Error, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if files != "" && files != "{}" {
		if err := json.Unmarshal([]byte(files), &e.OutputFiles); err != nil {
			return nil, fmt.Errorf("parse output files: %w", err)
		}
	}
	return e, nil
}
