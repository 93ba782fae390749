package installer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"jvmget/locator"
	"jvmget/repository"
)

// MetadataFile is written at the root of every installation jvmget creates
const MetadataFile = ".jvmget-metadata.json"

// Metadata describes the release an installation came from
type Metadata struct {
	FeatureVersion int       `json:"feature_version"`
	Version        string    `json:"version,omitempty"`
	ReleaseName    string    `json:"release_name,omitempty"`
	OS             string    `json:"os"`
	Arch           string    `json:"arch"`
	ImageType      string    `json:"image_type,omitempty"`
	DownloadURL    string    `json:"download_url"`
	Checksum       string    `json:"checksum,omitempty"`
	InstalledAt    time.Time `json:"installed_at"`
}

// MetadataFor builds the metadata recorded for rel
func MetadataFor(rel repository.Release) Metadata {
	return Metadata{
		FeatureVersion: rel.FeatureVersion,
		Version:        rel.Version,
		ReleaseName:    rel.ReleaseName,
		OS:             rel.OS,
		Arch:           rel.Arch,
		ImageType:      rel.ImageType,
		DownloadURL:    rel.DownloadURL,
		Checksum:       rel.Checksum,
		InstalledAt:    time.Now().UTC(),
	}
}

// SaveMetadata writes metadata to .jvmget-metadata.json in installPath
func SaveMetadata(installPath string, metadata Metadata) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(installPath, MetadataFile), data, 0644)
}

// LoadMetadata reads the metadata of installPath. It returns nil without an
// error for installations jvmget did not create.
func LoadMetadata(installPath string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(installPath, MetadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// RecordMetadata is a PostInstallFunc that saves the release metadata
func RecordMetadata(ctx context.Context, rec locator.Record, rel repository.Release) error {
	return SaveMetadata(rec.Path, MetadataFor(rel))
}
