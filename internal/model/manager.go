package model

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/web-transcriber/backend/internal/asr"
	"github.com/web-transcriber/backend/internal/config"
)

var (
	// ErrSwitchInProgress is returned when a switch is requested while
	// another one is still loading.
	ErrSwitchInProgress = errors.New("model switch already in progress")
	// ErrUnknownModel is returned for a model ID outside the catalog.
	ErrUnknownModel = errors.New("unknown model id")
	// ErrUnknownComputeType is returned for an unsupported precision mode.
	ErrUnknownComputeType = errors.New("unknown compute type")
)

// LoadingState describes an in-flight model switch.
type LoadingState struct {
	InProgress bool   `json:"in_progress"`
	Target     string `json:"target,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// Manager owns the single current recognizer handle and mediates
// load-on-demand and asynchronous hot-swaps. One mutex guards the
// (current, loading) pair. Handles already given out to running jobs
// stay valid after a swap; a swap installs a new handle object and
// never mutates the old one.
type Manager struct {
	loader asr.Loader
	store  config.Store

	mu            sync.Mutex
	modelID       string // configured selection
	computeType   string
	handle        asr.Model // nil until first use
	handleID      string    // selection the handle was loaded for
	handleCompute string
	loading       LoadingState
}

// NewManager creates a manager for the given persisted selection.
func NewManager(loader asr.Loader, store config.Store, sel config.Selection) *Manager {
	return &Manager{
		loader:      loader,
		store:       store,
		modelID:     sel.ModelID,
		computeType: sel.ComputeType,
	}
}

// GetOrLoad returns the current handle, loading it first if the cached
// one is missing or does not match the configured selection. Racing
// callers for the same target trigger exactly one underlying load.
func (m *Manager) GetOrLoad() (asr.Model, error) {
	// Fast path: cached handle matches the configured selection.
	m.mu.Lock()
	if m.handle != nil && m.handleID == m.modelID && m.handleCompute == m.computeType {
		h := m.handle
		m.mu.Unlock()
		return h, nil
	}

	// Slow path: load while holding the lock so concurrent callers
	// wait for this load instead of starting their own.
	id, ct := m.modelID, m.computeType
	log.Printf("[model] loading %s (%s)", id, ct)
	handle, err := m.loader.Load(id, ct)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("load model: %w", err)
	}
	m.handle = handle
	m.handleID = id
	m.handleCompute = ct
	m.mu.Unlock()
	log.Printf("[model] loaded %s (%s)", id, ct)
	return handle, nil
}

// RequestSwitch queues an asynchronous switch to the target model. It
// returns immediately; the load, install and config persist happen on a
// background goroutine.
func (m *Manager) RequestSwitch(targetID, computeType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loading.InProgress {
		return ErrSwitchInProgress
	}
	if !ValidModel(targetID) {
		return ErrUnknownModel
	}
	if computeType == "" {
		computeType = m.computeType
	}
	if !ValidComputeType(computeType) {
		return ErrUnknownComputeType
	}

	m.loading = LoadingState{InProgress: true, Target: targetID}
	go m.doSwitch(targetID, computeType)
	return nil
}

func (m *Manager) doSwitch(targetID, computeType string) {
	log.Printf("[model] switching to %s (%s)", targetID, computeType)
	handle, err := m.loader.Load(targetID, computeType)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		log.Printf("[model] switch to %s failed: %v", targetID, err)
		m.loading = LoadingState{LastError: fmt.Sprintf("model switch failed: %v", err)}
		return
	}

	m.modelID = targetID
	m.computeType = computeType
	m.handle = handle
	m.handleID = targetID
	m.handleCompute = computeType

	if err := m.store.Save(config.Selection{ModelID: targetID, ComputeType: computeType}); err != nil {
		// The new handle is installed and working; only the persisted
		// selection is stale.
		log.Printf("[model] failed to persist selection: %v", err)
		m.loading = LoadingState{LastError: fmt.Sprintf("config save failed: %v", err)}
		return
	}

	m.loading = LoadingState{}
	log.Printf("[model] switched to %s (%s)", targetID, computeType)
}

// Current returns the committed selection.
func (m *Manager) Current() config.Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return config.Selection{ModelID: m.modelID, ComputeType: m.computeType}
}

// Status returns the committed selection, the loading state and whether
// a handle is resident.
func (m *Manager) Status() (config.Selection, LoadingState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sel := config.Selection{ModelID: m.modelID, ComputeType: m.computeType}
	return sel, m.loading, m.handle != nil
}

// Switching reports whether a switch is currently loading.
func (m *Manager) Switching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading.InProgress
}
