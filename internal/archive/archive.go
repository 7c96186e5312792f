// Package archive rotates a finished rating pass out of the way so the
// next pass starts from the pre-annotated files again.
package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ArchiveOutputs moves outputDir into a sibling archive/ directory under a
// timestamped name and returns the new path. The journal database and all
// rated CSVs move together, so nothing from the finished pass is lost.
func ArchiveOutputs(outputDir string) (string, error) {
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		return "", fmt.Errorf("output directory does not exist: %s", outputDir)
	}

	parentDir := filepath.Dir(outputDir)
	archiveDir := filepath.Join(parentDir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	base := filepath.Base(outputDir)
	timestamp := time.Now().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, timestamp))

	// Second archive within the same second: fall back to microseconds.
	if _, err := os.Stat(archivePath); err == nil {
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, timestamp))
	}

	if err := os.Rename(outputDir, archivePath); err != nil {
		return "", fmt.Errorf("archive output directory: %w", err)
	}

	slog.Info("output directory archived", "from", outputDir, "to", archivePath)
	return archivePath, nil
}
