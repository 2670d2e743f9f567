package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
)

// Uploader hands a written RAP file off to the partner's transport
// endpoint.
type Uploader interface {
	Upload(ctx context.Context, sourceDir string, filename string, partner domain.PartnerID) error
}

// NoopUploader is used when no outbound transport is configured. It logs
// and succeeds, matching the behavior of a missing FTP endpoint in older
// loaders.
type NoopUploader struct {
	logger *slog.Logger
}

func NewNoopUploader(logger *slog.Logger) *NoopUploader {
	return &NoopUploader{logger: logger.With("component", "noop_uploader")}
}

func (u *NoopUploader) Upload(ctx context.Context, sourceDir string, filename string, partner domain.PartnerID) error {
	u.logger.InfoContext(ctx, "Outbound transport is not configured, file kept locally",
		"filename", filename, "partner_id", partner)
	return nil
}

// LocalDirUploader copies the file into a per-partner handoff directory
// that an external transfer agent watches.
type LocalDirUploader struct {
	baseDir string
	logger  *slog.Logger
}

func NewLocalDirUploader(baseDir string, logger *slog.Logger) *LocalDirUploader {
	return &LocalDirUploader{
		baseDir: baseDir,
		logger:  logger.With("component", "local_dir_uploader"),
	}
}

func (u *LocalDirUploader) Upload(ctx context.Context, sourceDir string, filename string, partner domain.PartnerID) error {
	targetDir := filepath.Join(u.baseDir, fmt.Sprintf("partner_%d", partner))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("creating handoff directory %s: %w", targetDir, err)
	}

	src, err := os.Open(filepath.Join(sourceDir, filename))
	if err != nil {
		return fmt.Errorf("opening %s for upload: %w", filename, err)
	}
	defer src.Close()

	target := filepath.Join(targetDir, filename)
	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return fmt.Errorf("copying %s to handoff directory: %w", filename, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}

	u.logger.InfoContext(ctx, "File handed off for upload",
		"filename", filename, "partner_id", partner, "target_dir", targetDir)
	return nil
}
