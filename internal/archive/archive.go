package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveExisting moves a previous output file into an archive directory next
// to it, so a new run never overwrites earlier results. It returns the
// archive path, or "" when there was nothing to archive.
func ArchiveExisting(path string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("output path is a directory: %s", path)
	}

	// Get parent directory and create archive path
	archiveDir := filepath.Join(filepath.Dir(path), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	timestamp := time.Now().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", stem, timestamp, ext))

	// Check if archive already exists (two runs within one second)
	if _, err := os.Stat(archivePath); err == nil {
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", stem, timestamp, ext))
	}

	if err := os.Rename(path, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", path, err)
	}

	return archivePath, nil
}
