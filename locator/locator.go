// Package locator finds runtimes already installed under an install root.
package locator

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"jvmget/logging"
	"jvmget/repository/version"
	"jvmget/result"
)

// Record is a located installation, or the not-found sentinel when Found is false
type Record struct {
	Path    string `json:"path"`
	Version int    `json:"version"`
	Found   bool   `json:"found"`
}

// NotFound is the sentinel returned when no installation matches feature
func NotFound(feature int) Record {
	return Record{Version: feature}
}

// Locator looks up installations on an FS
type Locator struct {
	fs FS
}

// New creates a Locator on fsys. A nil fsys uses the local filesystem.
func New(fsys FS) *Locator {
	if fsys == nil {
		fsys = OSFS{}
	}
	return &Locator{fs: fsys}
}

// Find looks for an installation of feature version under root.
//
// root/<feature> is checked first. Otherwise entries whose name carries the
// same feature version (jdk-17.0.11+9) are candidates and the newest one
// wins. A missing root is reported as NotFound; any other filesystem error
// is a failure.
func (l *Locator) Find(root string, feature int) result.Result[Record] {
	direct := l.fs.Join(root, strconv.Itoa(feature))
	if l.fs.Exists(direct) {
		logging.LogDebug("✅ Found installation of %d at %s", feature, direct)
		return result.Success(Record{Path: direct, Version: feature, Found: true})
	}

	names, err := l.fs.ListEntries(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.LogDebug("📂 Install root %s does not exist yet", root)
			return result.Success(NotFound(feature))
		}
		return result.FromError(fmt.Errorf("failed to scan install root %s: %w", root, err), NotFound(feature))
	}

	var best string
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		if n, ok := version.ParseFeature(name); !ok || n != feature {
			continue
		}
		if best == "" || version.CompareVersions(best, name) {
			best = name
		}
	}

	if best == "" {
		logging.LogDebug("🔍 No installation of %d under %s", feature, root)
		return result.Success(NotFound(feature))
	}

	path := l.fs.Join(root, best)
	logging.LogDebug("✅ Found installation of %d at %s", feature, path)
	return result.Success(Record{Path: path, Version: feature, Found: true})
}

// List returns every installation under root, sorted by version
func (l *Locator) List(root string) result.Result[[]Record] {
	names, err := l.fs.ListEntries(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result.Success([]Record{})
		}
		return result.FromError(fmt.Errorf("failed to scan install root %s: %w", root, err), []Record{})
	}

	records := []Record{}
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		n, ok := version.ParseFeature(name)
		if !ok {
			continue
		}
		records = append(records, Record{Path: l.fs.Join(root, name), Version: n, Found: true})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Version != records[j].Version {
			return records[i].Version < records[j].Version
		}
		return records[i].Path < records[j].Path
	})
	return result.Success(records)
}
