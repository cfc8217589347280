package job

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/web-transcriber/backend/internal/subtitle"
)

// ErrNotFound is returned when a job is unknown to the live table, the
// artifact area and the durable log alike.
var ErrNotFound = errors.New("job not found")

// Store owns the in-memory table of active jobs, the durable log and
// the per-job output artifacts. The in-memory table does not survive a
// restart; the log and artifacts do.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*Record
	repo      *LogRepo
	outputDir string
	now       func() time.Time
}

func NewStore(repo *LogRepo, outputDir string) *Store {
	return &Store{
		jobs:      make(map[string]*Record),
		repo:      repo,
		outputDir: outputDir,
		now:       time.Now,
	}
}

// Create inserts a queued record and appends it to the durable log.
func (s *Store) Create(rec *Record) {
	now := s.now()
	rec.Status = StatusQueued
	rec.CreatedAt = now
	rec.UpdatedAt = now

	s.mu.Lock()
	s.jobs[rec.ID] = rec
	entry := rec.logEntry()
	s.mu.Unlock()

	s.persistLog(entry)
}

// Upsert overlays a partial update onto the record for id, synthesizing
// a record when none exists, and rewrites the log row. Progress never
// moves backwards for a tracked job.
func (s *Store) Upsert(id string, p Patch) {
	s.mu.Lock()
	rec, ok := s.jobs[id]
	if !ok {
		rec = &Record{ID: id, CreatedAt: s.now()}
		s.jobs[id] = rec
	}

	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.Progress != nil && *p.Progress > rec.Progress {
		rec.Progress = *p.Progress
	}
	if p.Duration != nil {
		rec.Duration = *p.Duration
	}
	if p.Language != nil {
		rec.Language = *p.Language
	}
	if p.LanguageProbability != nil {
		rec.LanguageProbability = *p.LanguageProbability
	}
	if p.Segments != nil {
		rec.Segments = p.Segments
	}
	if p.Preview != nil {
		rec.Preview = *p.Preview
	}
	if p.OutputFiles != nil {
		rec.OutputFiles = p.OutputFiles
	}
	if p.Error != nil {
		rec.Error = *p.Error
	}
	rec.UpdatedAt = s.now()
	entry := rec.logEntry()
	s.mu.Unlock()

	s.persistLog(entry)
}

// persistLog writes one log row. Log writes degrade gracefully: a
// failure is logged and swallowed so it never aborts the job that
// triggered it.
func (s *Store) persistLog(e LogEntry) {
	if err := s.repo.Upsert(e); err != nil {
		log.Printf("[store] failed to persist log for %s: %v", e.ID, err)
	}
}

func (r *Record) logEntry() LogEntry {
	return LogEntry{
		ID:          r.ID,
		Status:      r.Status,
		Filename:    r.Filename,
		Task:        r.Task,
		ModelID:     r.ModelID,
		ComputeType: r.ComputeType,
		Language:    r.Language,
		Duration:    r.Duration,
		OutputFiles: r.OutputFiles,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Status resolves a job in tier order: the live table while the process
// tracks the job, the completed-job artifacts after a restart, and the
// log as a reduced-field fallback. The live table is authoritative
// whenever it has the job; later tiers are only consulted when every
// earlier one has no answer.
func (s *Store) Status(id string) (*StatusView, error) {
	s.mu.RLock()
	rec, ok := s.jobs[id]
	if ok {
		view := rec.statusView()
		s.mu.RUnlock()
		return view, nil
	}
	s.mu.RUnlock()

	if view, ok := s.statusFromArtifacts(id); ok {
		return view, nil
	}

	entry, err := s.repo.Get(id)
	if err == nil {
		return entry.statusView(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("[store] log lookup for %s failed: %v", id, err)
	}
	return nil, ErrNotFound
}

func (r *Record) statusView() *StatusView {
	preview := r.Preview
	if preview == "" && len(r.Segments) > 0 {
		lines := make([]string, 0, len(r.Segments))
		for _, seg := range r.Segments {
			lines = append(lines, subtitle.NormalizeNewlines(seg.Text))
		}
		preview = TruncatePreview(strings.Join(lines, "\n"))
	}
	files := r.OutputFiles
	if files == nil {
		files = map[string]string{}
	}
	return &StatusView{
		Status:              r.Status,
		Progress:            r.Progress,
		Filename:            r.Filename,
		Duration:            r.Duration,
		Language:            r.Language,
		LanguageProbability: r.LanguageProbability,
		Preview:             preview,
		OutputFiles:         files,
		Error:               r.Error,
	}
}

// statusFromArtifacts reconstructs a done view from the metadata
// envelope written at completion. Handles polls arriving after a
// process restart dropped the live table.
func (s *Store) statusFromArtifacts(id string) (*StatusView, bool) {
	data, err := os.ReadFile(s.ArtifactPath(id, "json"))
	if err != nil {
		return nil, false
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("[store] unreadable metadata for %s: %v", id, err)
		return nil, false
	}

	preview := ""
	if txt, err := os.ReadFile(s.ArtifactPath(id, "txt")); err == nil {
		preview = TruncatePreview(subtitle.NormalizeNewlines(string(txt)))
	}

	filename := ""
	if entry, err := s.repo.Get(id); err == nil {
		filename = entry.Filename
	}

	return &StatusView{
		Status:              StatusDone,
		Progress:            1.0,
		Filename:            filename,
		Duration:            env.Meta.Duration,
		Language:            env.Meta.Language,
		LanguageProbability: env.Meta.LanguageProbability,
		Preview:             preview,
		OutputFiles:         Locators(id),
		Error:               "",
	}, true
}

func (e *LogEntry) statusView() *StatusView {
	files := e.OutputFiles
	if files == nil {
		files = map[string]string{}
	}
	return &StatusView{
		Status:      e.Status,
		Progress:    0,
		Filename:    e.Filename,
		Duration:    e.Duration,
		Language:    e.Language,
		Preview:     "",
		OutputFiles: files,
		Error:       e.Error,
	}
}

// List returns historical log entries, newest-updated first. The limit
// is clamped to [1,1000]; non-positive values fall back to 50.
func (s *Store) List(limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.repo.List(limit)
}

// Delete removes the in-memory record, all output artifacts and the log
// entry for id. ErrNotFound when id was unknown everywhere.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, inMemory := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()

	removedArtifact := false
	for _, format := range Formats {
		if err := os.Remove(s.ArtifactPath(id, format)); err == nil {
			removedArtifact = true
		}
	}

	inLog, err := s.repo.Delete(id)
	if err != nil {
		log.Printf("[store] failed to delete log entry %s: %v", id, err)
	}

	if !inMemory && !removedArtifact && !inLog {
		return ErrNotFound
	}
	return nil
}

// WriteArtifacts persists rendered outputs under locators keyed by
// format. Each file goes through a temp file and an atomic rename.
func (s *Store) WriteArtifacts(id string, contents map[string]string) (map[string]string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, err
	}
	locators := make(map[string]string, len(contents))
	for format, content := range contents {
		path := s.ArtifactPath(id, format)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s artifact: %w", format, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			return nil, fmt.Errorf("write %s artifact: %w", format, err)
		}
		locators[format] = Locator(id, format)
	}
	return locators, nil
}

// ArtifactPath returns the on-disk location of one output artifact.
func (s *Store) ArtifactPath(id, format string) string {
	return filepath.Join(s.outputDir, id+"."+format)
}

// Locator returns the download locator for one artifact.
func Locator(id, format string) string {
	return "/api/download/" + id + "/" + format
}

// Locators returns the full locator map for a completed job.
func Locators(id string) map[string]string {
	files := make(map[string]string, len(Formats))
	for _, format := range Formats {
		files[format] = Locator(id, format)
	}
	return files
}

// TruncatePreview caps a preview at PreviewLimit characters without
// splitting a multi-byte rune.
func TruncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLimit {
		return text
	}
	return string(runes[:PreviewLimit])
}
