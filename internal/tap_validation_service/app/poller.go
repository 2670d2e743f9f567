package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/adapters/codec"
)

// Poller watches the inbound directory for decoded TAP files and drives
// each one through the validator. Processed files are moved aside so a
// restart does not re-read them; duplicate control makes re-reads harmless
// anyway.
type Poller struct {
	inputDir  string
	interval  time.Duration
	decoder   codec.InterchangeDecoder
	validator *ValidationService
	logger    *slog.Logger
}

func NewPoller(inputDir string, interval time.Duration, decoder codec.InterchangeDecoder, validator *ValidationService, logger *slog.Logger) *Poller {
	return &Poller{
		inputDir:  inputDir,
		interval:  interval,
		decoder:   decoder,
		validator: validator,
		logger:    logger.With("component", "poller"),
	}
}

// Run blocks until the context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	if err := os.MkdirAll(p.inputDir, 0o755); err != nil {
		return fmt.Errorf("creating input directory %s: %w", p.inputDir, err)
	}
	for _, sub := range []string{"processed", "failed"} {
		if err := os.MkdirAll(filepath.Join(p.inputDir, sub), 0o755); err != nil {
			return fmt.Errorf("creating %s directory: %w", sub, err)
		}
	}

	p.logger.Info("Poller started", "input_dir", p.inputDir, "interval", p.interval.String())
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.sweep(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	entries, err := os.ReadDir(p.inputDir)
	if err != nil {
		p.logger.Error("Cannot read input directory", "input_dir", p.inputDir, "error", err)
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		p.processFile(ctx, entry.Name())
	}
}

func (p *Poller) processFile(ctx context.Context, name string) {
	logger := p.logger.With("filename", name)
	path := filepath.Join(p.inputDir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Cannot read file", "error", err)
		return
	}

	record, err := p.decoder.Decode(data)
	if err != nil {
		logger.Error("Cannot decode file, moving to failed", "error", err)
		p.moveTo(logger, name, "failed")
		return
	}

	outcome, err := p.validator.Validate(ctx, record)
	if err != nil {
		logger.Error("Validation run reported an error", "outcome", outcome.String(), "error", err)
		p.moveTo(logger, name, "failed")
		return
	}

	logger.Info("File processed", "outcome", outcome.String())
	p.moveTo(logger, name, "processed")
}

func (p *Poller) moveTo(logger *slog.Logger, name string, sub string) {
	src := filepath.Join(p.inputDir, name)
	dst := filepath.Join(p.inputDir, sub, name)
	if err := os.Rename(src, dst); err != nil {
		logger.Error("Cannot move file", "target", dst, "error", err)
	}
}
