package asr

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//go:embed assets/faster_whisper.py
var helperScript []byte

// FasterWhisperLoader loads recognizer handles backed by the
// faster-whisper python package, invoked through an embedded helper
// script. Load warms the model cache (which may download weights);
// each Transcribe call then streams segments from a helper process.
type FasterWhisperLoader struct {
	Python string // python interpreter, defaults to "python3"
	Device string // "auto", "cpu" or "cuda"
}

func (l *FasterWhisperLoader) python() string {
	if l.Python != "" {
		return l.Python
	}
	if p := os.Getenv("WHISPER_PY"); p != "" {
		return p
	}
	return "python3"
}

func (l *FasterWhisperLoader) device() string {
	if l.Device != "" {
		return l.Device
	}
	return "auto"
}

// Load materializes the helper script and warms the model cache for the
// given (modelID, computeType) pair. This is the slow path: weights are
// downloaded on first use.
func (l *FasterWhisperLoader) Load(modelID, computeType string) (Model, error) {
	scriptPath, err := writeHelper()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(l.python(), scriptPath,
		"--model", modelID,
		"--compute-type", computeType,
		"--device", l.device(),
		"--check",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(scriptPath)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("load model %s (%s): %s", modelID, computeType, msg)
		}
		return nil, fmt.Errorf("load model %s (%s): %w", modelID, computeType, err)
	}

	return &fwModel{
		python:      l.python(),
		device:      l.device(),
		script:      scriptPath,
		modelID:     modelID,
		computeType: computeType,
	}, nil
}

func writeHelper() (string, error) {
	path := filepath.Join(os.TempDir(), "transcriber_faster_whisper.py")
	if err := os.WriteFile(path, helperScript, 0o755); err != nil {
		return "", fmt.Errorf("write helper script: %w", err)
	}
	return path, nil
}

// fwModel is an immutable handle; concurrent Transcribe calls each get
// their own helper process.
type fwModel struct {
	python      string
	device      string
	script      string
	modelID     string
	computeType string
}

// helper output lines: one info object followed by segment objects.
type fwLine struct {
	Type                string  `json:"type"` // "info" or "segment"
	Language            string  `json:"language,omitempty"`
	LanguageProbability float64 `json:"language_probability,omitempty"`
	Duration            float64 `json:"duration,omitempty"`
	Start               float64 `json:"start,omitempty"`
	End                 float64 `json:"end,omitempty"`
	Text                string  `json:"text,omitempty"`
}

func (m *fwModel) Transcribe(path string, opts Options) (Stream, Info, error) {
	args := []string{m.script,
		"--audio", path,
		"--model", m.modelID,
		"--compute-type", m.computeType,
		"--device", m.device,
		"--task", opts.Task,
	}
	if opts.Language != "" && opts.Language != "auto" {
		args = append(args, "--language", opts.Language)
	}

	cmd := exec.Command(m.python, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, Info{}, err
	}
	if err := cmd.Start(); err != nil {
		return nil, Info{}, fmt.Errorf("start helper: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	// The helper emits the info line before decoding begins.
	if !scanner.Scan() {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, Info{}, fmt.Errorf("helper produced no output: %s", strings.TrimSpace(stderr.String()))
	}
	var head fwLine
	if err := json.Unmarshal(scanner.Bytes(), &head); err != nil || head.Type != "info" {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, Info{}, fmt.Errorf("unexpected helper output: %q", scanner.Text())
	}

	info := Info{
		Language:            head.Language,
		LanguageProbability: head.LanguageProbability,
		Duration:            head.Duration,
	}
	return &fwStream{cmd: cmd, scanner: scanner, stderr: &stderr}, info, nil
}

type fwStream struct {
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	stderr  *bytes.Buffer
	err     error
	closed  bool
}

func (s *fwStream) Next() (Segment, bool) {
	if s.err != nil || s.closed {
		return Segment{}, false
	}
	for s.scanner.Scan() {
		var line fwLine
		if err := json.Unmarshal(s.scanner.Bytes(), &line); err != nil {
			s.err = fmt.Errorf("parse helper output: %w", err)
			return Segment{}, false
		}
		if line.Type != "segment" {
			continue
		}
		return Segment{Start: line.Start, End: line.End, Text: line.Text}, true
	}
	s.err = s.scanner.Err()
	return Segment{}, false
}

func (s *fwStream) Close() error {
	if s.closed {
		return s.err
	}
	s.closed = true
	if s.err != nil {
		// The reader gave up mid-stream; a helper still writing into
		// the full stdout pipe would never exit on its own.
		s.cmd.Process.Kill()
		s.cmd.Wait()
		return s.err
	}
	if err := s.cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(s.stderr.String()); msg != "" {
			err = fmt.Errorf("faster-whisper failed: %s", msg)
		}
		if s.err == nil {
			s.err = err
		}
	}
	return s.err
}
