package locator

import (
	"os"
	"path/filepath"
)

// FS is the filesystem view the Locator needs
type FS interface {
	Exists(path string) bool
	Join(segments ...string) string
	// ListEntries returns the names of the directories under path. A missing
	// path yields an error matching fs.ErrNotExist.
	ListEntries(path string) ([]string, error)
}

// OSFS implements FS on the local filesystem
type OSFS struct{}

// Exists reports whether path exists and is a directory
func (OSFS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OSFS) Join(segments ...string) string {
	return filepath.Join(segments...)
}

func (OSFS) ListEntries(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
