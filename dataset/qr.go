package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/openfab-lab/showcase-scraper/models"
)

const qrFileSize = 512

// WriteQRImages writes one PNG per record into dir, named after the record
// id. Individual failures are logged and skipped; the dataset itself is not
// affected. Returns the number of files written.
func WriteQRImages(records []models.ProjectRecord, dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create qr directory %q: %w", dir, err)
	}

	written := 0
	for _, record := range records {
		if record.ID == "" || record.URL == "" {
			continue
		}
		path := filepath.Join(dir, record.ID+".png")
		if err := qrcode.WriteFile(record.URL, qrcode.Medium, qrFileSize, path); err != nil {
			slog.Error("qr file write failed",
				slog.String("id", record.ID),
				slog.Any("error", err),
			)
			continue
		}
		written++
	}
	return written, nil
}
