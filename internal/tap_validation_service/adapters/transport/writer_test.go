package transport

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
)

func TestFileWriter_WriteCreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rap", "out")
	w := NewFileWriter()

	require.NoError(t, w.Write([]byte("payload"), dir, "RCHOMNLVISDE00001"))

	data, err := os.ReadFile(filepath.Join(dir, "RCHOMNLVISDE00001"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// No temp leftovers once the rename landed.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileWriter_WriteOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter()

	require.NoError(t, w.Write([]byte("first"), dir, "f"))
	require.NoError(t, w.Write([]byte("second"), dir, "f"))

	data, err := os.ReadFile(filepath.Join(dir, "f"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalDirUploader_CopiesIntoPartnerDir(t *testing.T) {
	srcDir := t.TempDir()
	baseDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "RCHOMNLVISDE00001"), []byte("payload"), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	u := NewLocalDirUploader(baseDir, logger)

	require.NoError(t, u.Upload(context.Background(), srcDir, "RCHOMNLVISDE00001", domain.PartnerID(7)))

	data, err := os.ReadFile(filepath.Join(baseDir, "partner_7", "RCHOMNLVISDE00001"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestLocalDirUploader_MissingSourceFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	u := NewLocalDirUploader(t.TempDir(), logger)

	err := u.Upload(context.Background(), t.TempDir(), "missing", domain.PartnerID(7))
	assert.Error(t, err)
}

func TestNoopUploader_Succeeds(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	u := NewNoopUploader(logger)
	assert.NoError(t, u.Upload(context.Background(), "", "anything", domain.PartnerID(1)))
}
