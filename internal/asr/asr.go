package asr

// Segment is one timed span of decoded text. Within a single stream,
// Start is non-decreasing and End >= Start.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Info is the per-file metadata reported by the decoder.
type Info struct {
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Duration            float64 `json:"duration"`
}

// Options selects language and task for one transcription. Decoding
// parameters (VAD, beam search, temperature) are fixed platform policy
// and not exposed here.
type Options struct {
	Language string // ISO code or "auto"
	Task     string // "transcribe" or "translate"
}

// Stream is a lazy, finite, forward-only sequence of segments. It is
// consumed exactly once; Next returns ok=false after the last segment.
// Close releases the underlying decoder resources and reports any
// failure encountered while producing the stream.
type Stream interface {
	Next() (Segment, bool)
	Close() error
}

// Model is a loaded recognizer handle. Handles are immutable: a handle
// stays valid for the full duration of any job that obtained it, even
// after a newer handle becomes current.
type Model interface {
	Transcribe(path string, opts Options) (Stream, Info, error)
}

// Loader produces a Model for a (modelID, computeType) pair. Loading
// may take seconds to minutes.
type Loader interface {
	Load(modelID, computeType string) (Model, error)
}
