package transport

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists an encoded file into an output directory.
type Writer interface {
	Write(data []byte, dir string, filename string) error
}

// FileWriter writes through a temp file and renames it into place so a
// consumer polling the directory never sees a half-written file.
type FileWriter struct{}

func NewFileWriter() *FileWriter {
	return &FileWriter{}
}

func (w *FileWriter) Write(data []byte, dir string, filename string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filename+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", filename, err)
	}

	target := filepath.Join(dir, filename)
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming %s into place: %w", filename, err)
	}
	if err := os.Chmod(target, 0o644); err != nil {
		return fmt.Errorf("setting mode on %s: %w", filename, err)
	}
	return nil
}
