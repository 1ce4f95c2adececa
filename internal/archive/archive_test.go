package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestArchiveGallery(t *testing.T) {
	tmpDir := t.TempDir()

	galleryDir := filepath.Join(tmpDir, "gallery")
	if err := os.MkdirAll(galleryDir, 0755); err != nil {
		t.Fatalf("Failed to create gallery directory: %v", err)
	}
	testFile := filepath.Join(galleryDir, "cats_1700000000_0.png")
	if err := os.WriteFile(testFile, []byte("png"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	archived, err := ArchiveGallery(galleryDir, now)
	if err != nil {
		t.Fatalf("ArchiveGallery failed: %v", err)
	}

	if _, err := os.Stat(galleryDir); !os.IsNotExist(err) {
		t.Error("Gallery directory still exists after archiving")
	}

	want := filepath.Join(tmpDir, "archive", "gallery-20250304-050607")
	if archived != want {
		t.Errorf("Expected archive path %s, got %s", want, archived)
	}

	content, err := os.ReadFile(filepath.Join(archived, "cats_1700000000_0.png"))
	if err != nil {
		t.Fatalf("Failed to read archived file: %v", err)
	}
	if string(content) != "png" {
		t.Errorf("Archived file content mismatch: %q", content)
	}
}

func TestArchiveGallerySameSecond(t *testing.T) {
	tmpDir := t.TempDir()
	galleryDir := filepath.Join(tmpDir, "gallery")
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)

	var paths []string
	for i := 0; i < 3; i++ {
		if err := os.MkdirAll(galleryDir, 0755); err != nil {
			t.Fatalf("Failed to create gallery directory: %v", err)
		}
		p, err := ArchiveGallery(galleryDir, now)
		if err != nil {
			t.Fatalf("ArchiveGallery #%d failed: %v", i, err)
		}
		paths = append(paths, p)
	}

	if !strings.HasSuffix(paths[1], "gallery-20250101-000000-2") {
		t.Errorf("Unexpected second archive path: %s", paths[1])
	}
	if !strings.HasSuffix(paths[2], "gallery-20250101-000000-3") {
		t.Errorf("Unexpected third archive path: %s", paths[2])
	}

	entries, err := os.ReadDir(filepath.Join(tmpDir, "archive"))
	if err != nil {
		t.Fatalf("Failed to read archive directory: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 archives, got %d", len(entries))
	}
}

func TestArchiveGalleryErrors(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := ArchiveGallery(filepath.Join(tmpDir, "missing"), time.Now())
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected missing-directory error, got %v", err)
	}

	file := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	_, err = ArchiveGallery(file, time.Now())
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("Expected not-a-directory error, got %v", err)
	}
}
