package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/adapters/codec"
)

func TestPoller_MovesDecodableFileToProcessed(t *testing.T) {
	repo := new(MockReferenceRepository)
	svc, _ := newTestService(repo)
	inputDir := t.TempDir()
	p := NewPoller(inputDir, time.Minute, codec.NewJSONCodec(), svc, testLogger())

	require.NoError(t, os.MkdirAll(filepath.Join(inputDir, "processed"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(inputDir, "failed"), 0o755))

	// A batch without control info validates to an impossible outcome but
	// is still a processed file, not a failed one.
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "tap1.json"),
		[]byte(`{"transferBatch": {}}`), 0o644))

	p.sweep(context.Background())

	_, err := os.Stat(filepath.Join(inputDir, "processed", "tap1.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(inputDir, "tap1.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestPoller_MovesUndecodableFileToFailed(t *testing.T) {
	repo := new(MockReferenceRepository)
	svc, _ := newTestService(repo)
	inputDir := t.TempDir()
	p := NewPoller(inputDir, time.Minute, codec.NewJSONCodec(), svc, testLogger())

	require.NoError(t, os.MkdirAll(filepath.Join(inputDir, "processed"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(inputDir, "failed"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "broken.json"),
		[]byte(`{not json`), 0o644))
	// An empty record has neither member and also fails decode.
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "empty.json"),
		[]byte(`{}`), 0o644))

	p.sweep(context.Background())

	_, err := os.Stat(filepath.Join(inputDir, "failed", "broken.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(inputDir, "failed", "empty.json"))
	assert.NoError(t, err)
}

func TestPoller_SkipsSubdirectoriesAndHiddenFiles(t *testing.T) {
	repo := new(MockReferenceRepository)
	svc, _ := newTestService(repo)
	inputDir := t.TempDir()
	p := NewPoller(inputDir, time.Minute, codec.NewJSONCodec(), svc, testLogger())

	require.NoError(t, os.MkdirAll(filepath.Join(inputDir, "processed"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(inputDir, "failed"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, ".partial"),
		[]byte(`ignored`), 0o644))

	p.sweep(context.Background())

	// Hidden file untouched; nothing moved.
	_, err := os.Stat(filepath.Join(inputDir, ".partial"))
	assert.NoError(t, err)
	failed, err := os.ReadDir(filepath.Join(inputDir, "failed"))
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestPoller_RunStopsOnContextCancel(t *testing.T) {
	repo := new(MockReferenceRepository)
	svc, _ := newTestService(repo)
	p := NewPoller(t.TempDir(), 10*time.Millisecond, codec.NewJSONCodec(), svc, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on context cancel")
	}
}
