package job

import (
	"time"

	"github.com/web-transcriber/backend/internal/asr"
)

// Status is the closed set of job states. A record is terminal once it
// reaches done or error.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// LiveWindow is the number of most recent segments kept on the
// in-memory record for status polling.
const LiveWindow = 50

// PreviewLimit caps the transcript preview returned by status queries.
const PreviewLimit = 2000

// Record is the in-memory state of one transcription job. It is owned
// by the Store; only the worker executing the job mutates it, through
// Store.Upsert.
type Record struct {
	ID                  string            `json:"id"`
	Status              Status            `json:"status"`
	Progress            float64           `json:"progress"`
	Filename            string            `json:"filename"`
	Language            string            `json:"language,omitempty"`
	LanguageProbability float64           `json:"language_probability,omitempty"`
	Task                string            `json:"task"`
	ModelID             string            `json:"model_id"`
	ComputeType         string            `json:"compute_type"`
	Duration            float64           `json:"duration"`
	Segments            []asr.Segment     `json:"segments,omitempty"` // live window only
	Preview             string            `json:"preview,omitempty"`
	OutputFiles         map[string]string `json:"output_files,omitempty"`
	Error               string            `json:"error,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Patch is a partial update applied by Store.Upsert. Nil fields are
// left untouched.
type Patch struct {
	Status              *Status
	Progress            *float64
	Duration            *float64
	Language            *string
	LanguageProbability *float64
	Segments            []asr.Segment // replaces the live window when non-nil
	Preview             *string
	OutputFiles         map[string]string
	Error               *string // empty string clears a previous error
}

// LogEntry is one row of the durable job log. The log outlives process
// restarts; it carries a reduced field set compared to Record.
type LogEntry struct {
	ID          string            `json:"job_id"`
	Status      Status            `json:"status"`
	Filename    string            `json:"filename"`
	Task        string            `json:"task"`
	ModelID     string            `json:"model_id"`
	ComputeType string            `json:"compute_type"`
	Language    string            `json:"language,omitempty"`
	Duration    float64           `json:"duration,omitempty"`
	OutputFiles map[string]string `json:"output_files,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// StatusView is the poll response for one job, assembled from whichever
// tier (live table, artifacts, log) still knows the job.
type StatusView struct {
	Status              Status            `json:"status"`
	Progress            float64           `json:"progress"`
	Filename            string            `json:"filename"`
	Duration            float64           `json:"duration"`
	Language            string            `json:"language,omitempty"`
	LanguageProbability float64           `json:"language_probability,omitempty"`
	Preview             string            `json:"preview"`
	OutputFiles         map[string]string `json:"output_files"`
	Error               string            `json:"error,omitempty"`
}

// Formats lists the artifact formats produced for a completed job.
var Formats = []string{"txt", "srt", "vtt", "json"}

// Metadata is the envelope persisted as the json artifact.
type Metadata struct {
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Duration            float64 `json:"duration"`
	ModelID             string  `json:"model_id"`
	ComputeType         string  `json:"compute_type"`
	Task                string  `json:"task"`
}

// Envelope is the full json artifact: metadata plus the complete
// segment list.
type Envelope struct {
	Meta     Metadata      `json:"meta"`
	Segments []asr.Segment `json:"segments"`
}
