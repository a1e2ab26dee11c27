package uploads

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Dir is the directory holding raw uploaded source files.
type Dir struct {
	path string
}

// Stats summarizes the uploaded corpus for prompt construction.
type Stats struct {
	TotalFiles     int
	FileList       string // comma-joined filenames
	LastUploadDate string // "2006-01-02 15:04:05" or "-" when empty
	Overview       string // `name (NNKB)` entries joined by " | "
}

// New creates the upload directory if it does not exist.
func New(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string { return d.path }

// Save writes an uploaded file to disk and returns its path.
func (d *Dir) Save(filename string, data []byte) (string, error) {
	// the filename is client-supplied; keep only its base name
	path := filepath.Join(d.path, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return path, nil
}

// Open returns the on-disk path of an uploaded file, or an error if it
// does not exist or escapes the upload directory.
func (d *Dir) Open(filename string) (string, error) {
	path := filepath.Join(d.path, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the visible uploaded filenames in sorted order.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Count returns the number of visible uploaded files.
func (d *Dir) Count() (int, error) {
	files, err := d.List()
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// Stats gathers corpus-level metadata about the uploaded files.
func (d *Dir) Stats() (Stats, error) {
	files, err := d.List()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalFiles:     len(files),
		FileList:       strings.Join(files, ", "),
		LastUploadDate: "-",
	}

	var lastMod time.Time
	var overview []string
	for _, name := range files {
		info, err := os.Stat(filepath.Join(d.path, name))
		if err != nil {
			continue
		}
		if info.ModTime().After(lastMod) {
			lastMod = info.ModTime()
		}
		overview = append(overview, fmt.Sprintf("%s (%dKB)", name, info.Size()/1024))
	}
	if !lastMod.IsZero() {
		stats.LastUploadDate = lastMod.Format("2006-01-02 15:04:05")
	}
	stats.Overview = strings.Join(overview, " | ")

	return stats, nil
}
