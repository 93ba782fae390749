package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInsufficientSpace is returned when a directory cannot hold the requested size
var ErrInsufficientSpace = errors.New("insufficient disk space")

// Validator handles system validations
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSpace checks available space. A non-positive size is not checked.
func (v *Validator) ValidateSpace(size int64, directory string) error {
	if size <= 0 {
		return nil
	}
	return CheckDiskSpace(size, directory)
}

// ValidateDirectories checks and creates necessary directories
func (v *Validator) ValidateDirectories(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", p, err)
		}
	}
	return nil
}

// CheckDiskSpace returns ErrInsufficientSpace when directory has fewer than
// size free bytes. directory may not exist yet; its closest existing parent
// is checked instead.
func CheckDiskSpace(size int64, directory string) error {
	dir := existingParent(directory)
	free, err := freeBytes(dir)
	if err != nil {
		return fmt.Errorf("failed to read free space for %s: %w", dir, err)
	}
	if uint64(size) > free {
		return fmt.Errorf("%w: %s needs %d bytes, %d available", ErrInsufficientSpace, dir, size, free)
	}
	return nil
}

func existingParent(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
