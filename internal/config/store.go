package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Selection is the persisted model choice, rewritten on every accepted
// model switch and read back at startup.
type Selection struct {
	ModelID     string `json:"model_id"`
	ComputeType string `json:"compute_type"`
}

// Store persists the current model selection.
type Store interface {
	Load() (Selection, error)
	Save(Selection) error
}

// JSONStore keeps the selection in a single JSON file. Saves go through
// a temp file and an atomic rename so readers never observe a partial
// write.
type JSONStore struct {
	path     string
	fallback Selection
}

// NewJSONStore creates a store at path; fallback is returned when no
// file exists yet.
func NewJSONStore(path string, fallback Selection) *JSONStore {
	return &JSONStore{path: path, fallback: fallback}
}

func (s *JSONStore) Load() (Selection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.fallback, nil
		}
		return Selection{}, err
	}

	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return Selection{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if sel.ModelID == "" {
		sel.ModelID = s.fallback.ModelID
	}
	if sel.ComputeType == "" {
		sel.ComputeType = s.fallback.ComputeType
	}
	return sel, nil
}

func (s *JSONStore) Save(sel Selection) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
