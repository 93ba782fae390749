// Package cache cleans what installs leave behind in the download and
// install roots.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jvmget/downloader/archive"
	"jvmget/downloader/network"
	"jvmget/logging"
)

// Report summarises a cleanup
type Report struct {
	Partials int   `json:"partials"`
	Archives int   `json:"archives"`
	Staging  int   `json:"staging"`
	Freed    int64 `json:"freed_bytes"`
}

// Manager handles leftovers of downloads and unpacks
type Manager struct {
	downloadRoot string
	installRoot  string
}

// NewManager creates a new Manager instance
func NewManager(downloadRoot, installRoot string) *Manager {
	return &Manager{downloadRoot: downloadRoot, installRoot: installRoot}
}

// Clean removes interrupted downloads from the download root and abandoned
// staging directories from the install root. Completed archives are only
// removed when archives is true.
func (m *Manager) Clean(archives bool) (Report, error) {
	var report Report

	entries, err := readDir(m.downloadRoot)
	if err != nil {
		return report, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(m.downloadRoot, name)
		switch {
		case strings.HasSuffix(name, network.PartialSuffix):
			freed, err := remove(path)
			if err != nil {
				return report, err
			}
			report.Partials++
			report.Freed += freed
		case archives && isArchive(name):
			freed, err := remove(path)
			if err != nil {
				return report, err
			}
			report.Archives++
			report.Freed += freed
		}
	}

	entries, err = readDir(m.installRoot)
	if err != nil {
		return report, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !strings.HasPrefix(name, ".") || !strings.Contains(name, archive.StagingMarker) {
			continue
		}
		freed, err := remove(filepath.Join(m.installRoot, name))
		if err != nil {
			return report, err
		}
		report.Staging++
		report.Freed += freed
	}

	logging.LogDebug("🧹 Cleanup removed %d partial download(s), %d archive(s), %d staging dir(s)",
		report.Partials, report.Archives, report.Staging)
	return report, nil
}

func isArchive(name string) bool {
	_, err := archive.DetectFormat(name)
	return err == nil
}

func readDir(dir string) ([]os.DirEntry, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	return entries, nil
}

// remove deletes path and returns the number of bytes it occupied
func remove(path string) (int64, error) {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if info, err := d.Info(); err == nil && !d.IsDir() {
			size += info.Size()
		}
		return nil
	})
	logging.LogDebug("🧹 Removing %s", path)
	if err := os.RemoveAll(path); err != nil {
		return 0, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return size, nil
}
