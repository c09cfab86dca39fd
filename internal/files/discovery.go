package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoCandidate is returned when none of the candidate paths is a readable file.
var ErrNoCandidate = errors.New("no candidate data file exists")

// DataExtensions are the file types the dataset loader can read.
var DataExtensions = []string{".csv", ".xlsx", ".xlsm"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery locates data files relative to a base path
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

// Stat returns file information for a single path.
func (d *Discovery) Stat(path string) (FileInfo, error) {
	full := d.resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", full)
	}
	return FileInfo{
		Path:    full,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Resolve returns the first candidate that exists as a regular file.
// Candidates are tried in order.
func (d *Discovery) Resolve(candidates []string) (FileInfo, error) {
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if fi, err := d.Stat(c); err == nil {
			return fi, nil
		}
	}
	return FileInfo{}, fmt.Errorf("%w (tried %s)", ErrNoCandidate, strings.Join(candidates, ", "))
}

// FindDataFiles lists readable data files in dir, newest first.
func (d *Discovery) FindDataFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsDataFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// IsDataFile reports whether name has a supported data extension.
func IsDataFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range DataExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
