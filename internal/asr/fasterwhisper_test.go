package asr

import (
	"bufio"
	"bytes"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startStream(t *testing.T, script string) *fwStream {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &fwStream{cmd: cmd, scanner: scanner, stderr: &stderr}
}

func TestStreamNextParsesSegments(t *testing.T) {
	s := startStream(t,
		`echo '{"type":"segment","start":0,"end":1.5,"text":"こんにちは"}'`)

	seg, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, Segment{Start: 0, End: 1.5, Text: "こんにちは"}, seg)

	_, ok = s.Next()
	assert.False(t, ok)
	assert.NoError(t, s.Close())
}

func TestStreamNextStopsOnMalformedLine(t *testing.T) {
	s := startStream(t, `echo not-json`)

	_, ok := s.Next()
	assert.False(t, ok)
	assert.Error(t, s.Close())
}

func TestStreamCloseKillsHelperAfterAbort(t *testing.T) {
	// The helper keeps producing output after the reader hit a bad
	// line; Close must not wait for it to finish on its own.
	s := startStream(t, `echo not-json; while :; do echo x; done`)

	_, ok := s.Next()
	require.False(t, ok)
	require.Error(t, s.err)

	done := make(chan error, 1)
	go func() { done <- s.Close() }()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close hung on a still-running helper")
	}
}
