package job

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/web-transcriber/backend/internal/asr"
	"github.com/web-transcriber/backend/internal/model"
	"github.com/web-transcriber/backend/internal/subtitle"
)

// Prober reports a media file's duration in seconds, 0 on failure.
type Prober func(path string) float64

// Request is one unit of work for the engine: a validated upload
// sitting in the transient upload area.
type Request struct {
	JobID      string
	SourcePath string
	Language   string
	Task       string
}

// Engine drains submitted jobs with a fixed-size worker pool. Each job
// runs start-to-finish on one worker; excess submissions queue in the
// channel instead of spawning unbounded goroutines.
type Engine struct {
	store           *Store
	models          *model.Manager
	probe           Prober
	defaultLanguage string

	requests chan Request
	wg       sync.WaitGroup
}

// NewEngine starts workers goroutines draining the submission queue.
func NewEngine(store *Store, models *model.Manager, probe Prober, defaultLanguage string, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	e := &Engine{
		store:           store,
		models:          models,
		probe:           probe,
		defaultLanguage: defaultLanguage,
		requests:        make(chan Request, 100),
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// Submit queues a job for processing.
func (e *Engine) Submit(req Request) {
	e.requests <- req
}

// Stop drains the queue and waits for in-flight jobs to finish.
func (e *Engine) Stop() {
	close(e.requests)
	e.wg.Wait()
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for req := range e.requests {
		e.execute(req)
	}
}

// execute drives one job to a terminal state. Failures are captured
// into the job record and never escape the worker. The transient source
// file is always removed, success or failure.
func (e *Engine) execute(req Request) {
	defer func() {
		if err := os.Remove(req.SourcePath); err != nil && !os.IsNotExist(err) {
			log.Printf("[engine] failed to remove upload %s: %v", req.SourcePath, err)
		}
	}()

	e.store.Upsert(req.JobID, Patch{
		Status:   ptr(StatusRunning),
		Progress: ptr(0.0),
		Error:    ptr(""),
	})

	if err := e.transcribe(req); err != nil {
		log.Printf("[engine] job %s failed: %v", req.JobID, err)
		e.store.Upsert(req.JobID, Patch{
			Status: ptr(StatusError),
			Error:  ptr(err.Error()),
		})
		return
	}
	log.Printf("[engine] job %s completed", req.JobID)
}

func (e *Engine) transcribe(req Request) error {
	// Probe failure is non-fatal: progress just stays at 0 until done.
	duration := e.probe(req.SourcePath)
	e.store.Upsert(req.JobID, Patch{Duration: ptr(duration)})

	handle, err := e.models.GetOrLoad()
	if err != nil {
		return err
	}
	sel := e.models.Current()

	language := req.Language
	if language == "" {
		language = e.defaultLanguage
	}

	stream, info, err := handle.Transcribe(req.SourcePath, asr.Options{
		Language: language,
		Task:     req.Task,
	})
	if err != nil {
		return err
	}

	var all []asr.Segment
	for {
		seg, ok := stream.Next()
		if !ok {
			break
		}
		all = append(all, seg)

		patch := Patch{Segments: window(all)}
		if duration > 0 {
			p := seg.End / duration
			if p > 0.99 {
				p = 0.99 // 1.0 is reserved for true completion
			}
			patch.Progress = &p
		}
		e.store.Upsert(req.JobID, patch)
	}
	if err := stream.Close(); err != nil {
		return err
	}

	plain := subtitle.ToText(all)
	envelope, err := json.MarshalIndent(Envelope{
		Meta: Metadata{
			Language:            info.Language,
			LanguageProbability: info.LanguageProbability,
			Duration:            duration,
			ModelID:             sel.ModelID,
			ComputeType:         sel.ComputeType,
			Task:                req.Task,
		},
		Segments: all,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	outputFiles, err := e.store.WriteArtifacts(req.JobID, map[string]string{
		"txt":  plain,
		"srt":  subtitle.ToSRT(all),
		"vtt":  subtitle.ToVTT(all),
		"json": string(envelope),
	})
	if err != nil {
		return err
	}

	e.store.Upsert(req.JobID, Patch{
		Status:              ptr(StatusDone),
		Progress:            ptr(1.0),
		Preview:             ptr(TruncatePreview(plain)),
		OutputFiles:         outputFiles,
		Language:            ptr(info.Language),
		LanguageProbability: ptr(info.LanguageProbability),
	})
	return nil
}

// window returns the most recent LiveWindow segments for status polls.
// The full list is still accumulated for final rendering.
func window(all []asr.Segment) []asr.Segment {
	if len(all) <= LiveWindow {
		return append([]asr.Segment(nil), all...)
	}
	return append([]asr.Segment(nil), all[len(all)-LiveWindow:]...)
}

func ptr[T any](v T) *T {
	return &v
}
