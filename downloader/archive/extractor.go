// Package archive unpacks downloaded runtime archives into an install root.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"jvmget/downloader/core"
	"jvmget/logging"
)

// Format is a supported archive container
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarGz Format = "tar.gz"
	FormatTarXz Format = "tar.xz"
)

// StagingMarker is part of the name of the temporary directory an archive is
// unpacked into before being moved into place
const StagingMarker = ".unpack-"

// ErrUnsupportedFormat is returned for archives whose extension is unknown
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// DetectFormat infers the archive format from the file name
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return FormatTarXz, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// Extractor unpacks archives atomically: entries are written to a hidden
// staging directory beside the destination, which is renamed into place only
// once every entry has been written.
type Extractor struct {
	validator *core.Validator
}

// NewExtractor creates a new Extractor instance
func NewExtractor() *Extractor {
	return &Extractor{validator: core.NewValidator()}
}

// Extract unpacks archivePath into destRoot. When the archive holds a single
// top-level directory (jdk-17.0.11+9/...), its contents become destRoot.
// destRoot must not exist yet.
func (e *Extractor) Extract(ctx context.Context, archivePath, destRoot string) error {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(destRoot); err == nil {
		return fmt.Errorf("destination already exists: %s", destRoot)
	}

	parent := filepath.Dir(destRoot)
	if err := e.validator.ValidateDirectories(parent); err != nil {
		return err
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(destRoot)+StagingMarker)
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	logging.LogDebug("📦 Extracting %s (%s) into %s", archivePath, format, staging)

	switch format {
	case FormatZip:
		err = e.extractZip(ctx, archivePath, staging)
	default:
		err = e.extractTarFile(ctx, archivePath, format, staging)
	}
	if err != nil {
		return err
	}

	source, err := contentRoot(staging)
	if err != nil {
		return err
	}
	if err := os.Rename(source, destRoot); err != nil {
		return fmt.Errorf("failed to move extracted files into place: %w", err)
	}

	logging.LogDebug("✅ Extracted %s to %s", filepath.Base(archivePath), destRoot)
	return nil
}

// contentRoot returns the single top-level directory of staging, or staging
// itself when the archive had several top-level entries.
func contentRoot(staging string) (string, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", fmt.Errorf("failed to read staging directory: %w", err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("archive is empty")
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(staging, entries[0].Name()), nil
	}
	return staging, nil
}

// safeJoin resolves name under base and rejects paths escaping it
func safeJoin(base, name string) (string, error) {
	target := filepath.Join(base, filepath.FromSlash(name))
	if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal path in archive: %s", name)
	}
	return target, nil
}

func (e *Extractor) extractZip(ctx context.Context, archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer r.Close()

	var total uint64
	for _, f := range r.File {
		total += f.UncompressedSize64
	}
	if err := e.validator.ValidateSpace(int64(total), dest); err != nil {
		return err
	}

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if err := writeZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return writeFile(target, rc, f.Mode().Perm())
}

func (e *Extractor) extractTarFile(ctx context.Context, archivePath string, format Format, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	var r io.Reader
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case FormatTarXz:
		xr, err := xz.NewReader(file)
		if err != nil {
			return fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xr
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return extractTar(ctx, tar.NewReader(r), dest)
}

func extractTar(ctx context.Context, tr *tar.Reader, dest string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("illegal absolute symlink in archive: %s -> %s", header.Name, header.Linkname)
			}
			if _, err := safeJoin(dest, filepath.Join(filepath.Dir(header.Name), header.Linkname)); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink: %w", err)
			}
		default:
			logging.LogDebug("⚠️  Skipping unsupported tar entry %s (type %c)", header.Name, header.Typeflag)
		}
	}
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return out.Close()
}
