// Package archive moves a finished gallery out of the way so the next
// session starts with an empty download folder.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const timestampFormat = "20060102-150405"

// ArchiveGallery renames galleryDir to archive/gallery-YYYYMMDD-HHMMSS next
// to it and returns the new path
func ArchiveGallery(galleryDir string, now time.Time) (string, error) {
	info, err := os.Stat(galleryDir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("gallery directory does not exist: %s", galleryDir)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat gallery directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("gallery path is not a directory: %s", galleryDir)
	}

	archiveDir := filepath.Join(filepath.Dir(galleryDir), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := "gallery-" + now.Format(timestampFormat)
	archivePath := filepath.Join(archiveDir, base)

	// Two archives within the same second get a counter suffix
	for n := 2; ; n++ {
		if _, err := os.Stat(archivePath); os.IsNotExist(err) {
			break
		}
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%d", base, n))
	}

	if err := os.Rename(galleryDir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive gallery directory: %w", err)
	}

	return archivePath, nil
}
