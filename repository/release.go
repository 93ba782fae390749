package repository

import (
	"fmt"
	"strings"

	"jvmget/result"
)

// DefaultArchiveType is used when a release does not say how it is packaged
const DefaultArchiveType = "zip"

// Release is one published runtime build for a (version, arch, OS) combination
type Release struct {
	FeatureVersion int    `json:"feature_version"`
	Version        string `json:"version,omitempty"`
	ReleaseName    string `json:"release_name,omitempty"`
	Arch           string `json:"arch"`
	OS             string `json:"os"`
	ImageType      string `json:"image_type,omitempty"`
	DownloadURL    string `json:"download_url"`
	PackageName    string `json:"package_name,omitempty"`
	Checksum       string `json:"checksum,omitempty"`
	ArchiveType    string `json:"archive_type,omitempty"`
	Size           int64  `json:"size,omitempty"`
}

// ReleaseSet is the ordered list of releases returned by the catalog
type ReleaseSet []Release

// ArchiveTypeOf infers the archive type from a package file name, or
// returns "" when it is not recognised.
func ArchiveTypeOf(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return "tar.gz"
	case strings.HasSuffix(name, ".tar.xz"):
		return "tar.xz"
	case strings.HasSuffix(name, ".zip"):
		return "zip"
	}
	return ""
}

// SelectRelease picks the release for feature on platform. When several
// releases match, the first one in catalog order wins.
func SelectRelease(releases ReleaseSet, feature int, platform Platform) result.Result[Release] {
	for _, r := range releases {
		if r.FeatureVersion == feature && r.Arch == platform.Arch && r.OS == platform.OS {
			return result.Success(r)
		}
	}
	return result.Fail[Release](fmt.Sprintf("no matching release for version %d on %s", feature, platform))
}

// Filter returns the releases built for platform, in catalog order
func (s ReleaseSet) Filter(platform Platform) ReleaseSet {
	out := ReleaseSet{}
	for _, r := range s {
		if r.Arch == platform.Arch && r.OS == platform.OS {
			out = append(out, r)
		}
	}
	return out
}

// BuildArchiveName returns "<version>_<arch>_<os>.<ext>", the file name the
// archive is stored under in the download root.
func BuildArchiveName(r Release) string {
	ext := r.ArchiveType
	if ext == "" {
		ext = DefaultArchiveType
	}
	return fmt.Sprintf("%d_%s_%s.%s", r.FeatureVersion, r.Arch, r.OS, ext)
}
