// Package dataset persists and loads the single JSON dataset shared by the
// scraper and the kiosk.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openfab-lab/showcase-scraper/models"
)

// Writer persists a dataset to one JSON file, fully replacing any prior
// version.
type Writer struct {
	path string
}

// NewWriter prepares the output location.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("dataset path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &Writer{path: path}, nil
}

// Write marshals the dataset and replaces the destination file. The write
// goes through a temp file in the same directory and a rename so a crashed
// run never leaves a half-written dataset for the kiosk to load.
func (w *Writer) Write(ds *models.Dataset) error {
	if ds == nil {
		return fmt.Errorf("dataset is nil")
	}

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".projects-*.json")
	if err != nil {
		return fmt.Errorf("create temp dataset file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp dataset file: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace dataset file: %w", err)
	}
	return nil
}

// Validate ensures the output file exists and has content.
func (w *Writer) Validate() error {
	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("stat dataset file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("dataset file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
