package model

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web-transcriber/backend/internal/asr"
	"github.com/web-transcriber/backend/internal/config"
)

type fakeModel struct {
	id string
}

func (m *fakeModel) Transcribe(path string, opts asr.Options) (asr.Stream, asr.Info, error) {
	return nil, asr.Info{Language: "ja"}, nil
}

// fakeLoader counts loads and can stall or fail on demand.
type fakeLoader struct {
	loads   atomic.Int32
	delay   time.Duration
	release chan struct{} // when set, Load blocks until closed
	fail    bool
}

func (l *fakeLoader) Load(modelID, computeType string) (asr.Model, error) {
	l.loads.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.release != nil {
		<-l.release
	}
	if l.fail {
		return nil, errors.New("weights unavailable")
	}
	return &fakeModel{id: modelID + "/" + computeType}, nil
}

func newTestManager(t *testing.T, loader asr.Loader) (*Manager, *config.JSONStore) {
	t.Helper()
	store := config.NewJSONStore(filepath.Join(t.TempDir(), "config.json"),
		config.Selection{ModelID: "base", ComputeType: "int8"})
	return NewManager(loader, store, config.Selection{ModelID: "base", ComputeType: "int8"}), store
}

func TestGetOrLoadConcurrentCallersLoadOnce(t *testing.T) {
	loader := &fakeLoader{delay: 30 * time.Millisecond}
	m, _ := newTestManager(t, loader)

	const callers = 10
	handles := make([]asr.Model, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := m.GetOrLoad()
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.loads.Load(), "racing callers must trigger exactly one load")
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
}

func TestGetOrLoadReturnsCachedHandle(t *testing.T) {
	loader := &fakeLoader{}
	m, _ := newTestManager(t, loader)

	h1, err := m.GetOrLoad()
	require.NoError(t, err)
	h2, err := m.GetOrLoad()
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, int32(1), loader.loads.Load())
}

func TestRequestSwitchRejectsUnknownModel(t *testing.T) {
	m, _ := newTestManager(t, &fakeLoader{})

	err := m.RequestSwitch("giant", "")
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, loading, _ := m.Status()
	assert.Equal(t, LoadingState{}, loading, "loading state must be untouched")
}

func TestRequestSwitchRejectsUnknownComputeType(t *testing.T) {
	m, _ := newTestManager(t, &fakeLoader{})

	err := m.RequestSwitch("small", "int3")
	assert.ErrorIs(t, err, ErrUnknownComputeType)
}

func TestRequestSwitchConflict(t *testing.T) {
	loader := &fakeLoader{release: make(chan struct{})}
	m, _ := newTestManager(t, loader)

	require.NoError(t, m.RequestSwitch("small", ""))

	err := m.RequestSwitch("medium", "")
	assert.ErrorIs(t, err, ErrSwitchInProgress)

	_, loading, _ := m.Status()
	assert.Equal(t, "small", loading.Target, "target must not change on a rejected switch")

	close(loader.release)
	assert.Eventually(t, func() bool {
		_, loading, _ := m.Status()
		return !loading.InProgress
	}, time.Second, 10*time.Millisecond)
}

func TestRequestSwitchCommitsAndPersists(t *testing.T) {
	loader := &fakeLoader{}
	m, store := newTestManager(t, loader)

	require.NoError(t, m.RequestSwitch("large-v3", "float16"))

	assert.Eventually(t, func() bool {
		sel, loading, _ := m.Status()
		return !loading.InProgress && sel.ModelID == "large-v3"
	}, time.Second, 10*time.Millisecond)

	sel, loading, loaded := m.Status()
	assert.Equal(t, config.Selection{ModelID: "large-v3", ComputeType: "float16"}, sel)
	assert.Empty(t, loading.LastError)
	assert.True(t, loaded)

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sel, persisted)
}

func TestRequestSwitchFailureKeepsCurrentHandle(t *testing.T) {
	loader := &fakeLoader{}
	m, store := newTestManager(t, loader)

	before, err := m.GetOrLoad()
	require.NoError(t, err)

	loader.fail = true
	require.NoError(t, m.RequestSwitch("medium", ""))

	assert.Eventually(t, func() bool {
		_, loading, _ := m.Status()
		return !loading.InProgress && loading.LastError != ""
	}, time.Second, 10*time.Millisecond)

	sel, loading, _ := m.Status()
	assert.Equal(t, "base", sel.ModelID, "failed switch must leave the selection alone")
	assert.Contains(t, loading.LastError, "weights unavailable")

	after, err := m.GetOrLoad()
	require.NoError(t, err)
	assert.Same(t, before, after)

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "base", persisted.ModelID)
}

func TestSwapDoesNotInvalidateInFlightHandle(t *testing.T) {
	loader := &fakeLoader{}
	m, _ := newTestManager(t, loader)

	held, err := m.GetOrLoad()
	require.NoError(t, err)

	require.NoError(t, m.RequestSwitch("small", ""))
	assert.Eventually(t, func() bool {
		sel, _, _ := m.Status()
		return sel.ModelID == "small"
	}, time.Second, 10*time.Millisecond)

	fresh, err := m.GetOrLoad()
	require.NoError(t, err)
	assert.NotSame(t, held, fresh)

	// The held handle is a distinct, still-usable object.
	_, info, err := held.Transcribe("clip.wav", asr.Options{Task: "transcribe"})
	require.NoError(t, err)
	assert.Equal(t, "ja", info.Language)
	assert.Equal(t, "base/int8", held.(*fakeModel).id)
}
