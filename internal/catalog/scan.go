// Package catalog finds and tracks the .las files a viewer session works
// through. It scans folders for detection exports, extracts detection IDs
// from file names, and keeps a sqlite-backed cache of file metadata plus a
// log of completed measurements.
package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/banshee-data/lasview/internal/fsutil"
)

// DefaultMaxFiles is the folder size limit when ScanOptions doesn't set one.
const DefaultMaxFiles = 100

var (
	// ErrTooManyFiles is returned when a folder holds more .las files than
	// the configured limit.
	ErrTooManyFiles = errors.New("too many LAS files")

	// ErrNoFiles is returned when a scanned folder holds no .las files.
	ErrNoFiles = errors.New("no LAS files found in folder")
)

// FileEntry describes one .las file found by a scan. Name is relative to
// the scanned folder so recursive scans stay unambiguous.
type FileEntry struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	DetectionID string    `json:"detection_id,omitempty"`
}

// Folder is the ordered result of scanning a directory for .las files.
type Folder struct {
	Path  string      `json:"path"`
	Files []FileEntry `json:"files"`
}

// ScanOptions tunes folder scanning.
type ScanOptions struct {
	// MaxFiles rejects folders holding more .las files than this.
	// Zero means DefaultMaxFiles.
	MaxFiles int

	// Recursive walks subfolders instead of only the folder itself.
	Recursive bool
}

// Scan lists the .las files in dir, ordered lexicographically by relative
// name. Folders with no .las files return ErrNoFiles; folders over the
// MaxFiles limit return ErrTooManyFiles with the counts in the message.
func Scan(fsys fsutil.FileSystem, dir string, opts ScanOptions) (*Folder, error) {
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	var names []string
	if err := collectLASFiles(fsys, dir, "", opts.Recursive, &names); err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, dir)
	}
	if len(names) > maxFiles {
		return nil, fmt.Errorf("%w: folder holds %d, limit is %d", ErrTooManyFiles, len(names), maxFiles)
	}

	sort.Strings(names)

	folder := &Folder{
		Path:  dir,
		Files: make([]FileEntry, 0, len(names)),
	}
	for _, name := range names {
		entry := FileEntry{
			Path: filepath.Join(dir, name),
			Name: name,
		}
		if info, err := fsys.Stat(entry.Path); err == nil {
			entry.Size = info.Size()
			entry.ModTime = info.ModTime()
		}
		if id, ok := DetectionID(name); ok {
			entry.DetectionID = id
		}
		folder.Files = append(folder.Files, entry)
	}
	return folder, nil
}

func collectLASFiles(fsys fsutil.FileSystem, root, sub string, recursive bool, names *[]string) error {
	dir := root
	if sub != "" {
		dir = filepath.Join(root, sub)
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read folder %s: %w", dir, err)
	}

	for _, entry := range entries {
		rel := entry.Name()
		if sub != "" {
			rel = filepath.Join(sub, entry.Name())
		}
		if entry.IsDir() {
			if recursive {
				if err := collectLASFiles(fsys, root, rel, true, names); err != nil {
					return err
				}
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".las") {
			*names = append(*names, rel)
		}
	}
	return nil
}
