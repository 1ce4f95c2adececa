// Package gallery reads and clears the download folder. Nothing is cached:
// every call rescans the filesystem, so files added or removed behind the
// application's back show up on the next call.
package gallery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions is the allow-list of gallery file extensions
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}

// FilesystemError is returned when listing or clearing the folder fails.
// Removed counts the files deleted before the failure.
type FilesystemError struct {
	Path    string
	Op      string
	Removed int
	Cause   error
}

func (e *FilesystemError) Error() string {
	if e.Op == "remove" {
		return fmt.Sprintf("gallery %s %s (after %d removed): %v", e.Op, e.Path, e.Removed, e.Cause)
	}
	return fmt.Sprintf("gallery %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *FilesystemError) Unwrap() error {
	return e.Cause
}

// IsImage reports whether name carries an allow-listed extension
func IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// List returns the sorted names of the image files in folder. A folder
// that does not exist yet is an empty gallery.
func List(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &FilesystemError{Path: folder, Op: "list", Cause: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && IsImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// File is a gallery entry with its size
type File struct {
	Name string
	Path string
	Size int64
}

// Files is List plus size information. Files that vanish between the scan
// and the stat are skipped.
func Files(folder string) ([]File, error) {
	names, err := List(folder)
	if err != nil {
		return nil, err
	}
	files := make([]File, 0, len(names))
	for _, name := range names {
		path := filepath.Join(folder, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		files = append(files, File{Name: name, Path: path, Size: info.Size()})
	}
	return files, nil
}

// Clear deletes every allow-listed file in folder and returns how many
// were removed. Other files are left alone. Callers must confirm with the
// user first; this cannot be undone.
func Clear(folder string) (int, error) {
	names, err := List(folder)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		path := filepath.Join(folder, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, &FilesystemError{Path: path, Op: "remove", Removed: removed, Cause: err}
		}
		removed++
	}
	return removed, nil
}

// FormatSize renders a byte count as KB or MB
func FormatSize(size int64) string {
	kb := float64(size) / 1024
	if kb >= 1024 {
		return fmt.Sprintf("%.1f MB", kb/1024)
	}
	return fmt.Sprintf("%.1f KB", kb)
}
