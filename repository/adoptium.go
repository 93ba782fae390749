package repository

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"jvmget/logging"
	"jvmget/result"
	"jvmget/task"
)

const (
	DefaultAPIURL    = "https://api.adoptium.net"
	DefaultJVMImpl   = "hotspot"
	DefaultImageType = "jdk"
)

// JSONGetter fetches and decodes a JSON document
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, v interface{}) error
}

// DownloadStarter starts background downloads
type DownloadStarter interface {
	StartDownload(ctx context.Context, src task.Source, dest string) task.Handle
}

// Options configures a Client
type Options struct {
	APIURL       string
	JVMImpl      string
	ImageType    string
	ArchiveType  string // used for packages whose name has no known extension
	DownloadRoot string
}

// Client queries an Adoptium-compatible release API
type Client struct {
	http  JSONGetter
	tasks DownloadStarter
	opts  Options
}

// NewClient creates a Client. Empty options fall back to the Adoptium defaults.
func NewClient(http JSONGetter, tasks DownloadStarter, opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	if opts.JVMImpl == "" {
		opts.JVMImpl = DefaultJVMImpl
	}
	if opts.ImageType == "" {
		opts.ImageType = DefaultImageType
	}
	if opts.ArchiveType == "" {
		opts.ArchiveType = DefaultArchiveType
	}
	return &Client{http: http, tasks: tasks, opts: opts}
}

type availableReleases struct {
	AvailableReleases []int `json:"available_releases"`
}

type adoptiumAsset struct {
	Binary struct {
		Architecture string `json:"architecture"`
		OS           string `json:"os"`
		ImageType    string `json:"image_type"`
		Package      struct {
			Checksum string `json:"checksum"`
			Link     string `json:"link"`
			Name     string `json:"name"`
			Size     int64  `json:"size"`
		} `json:"package"`
	} `json:"binary"`
	ReleaseName string `json:"release_name"`
	Version     struct {
		Major  int    `json:"major"`
		Semver string `json:"semver"`
	} `json:"version"`
}

// ListInstallable returns every release the catalog offers, for all
// platforms, in catalog order (feature versions ascending as listed by the
// API, assets in API order within each version).
func (c *Client) ListInstallable(ctx context.Context) result.Result[ReleaseSet] {
	var info availableReleases
	infoURL := c.opts.APIURL + "/v3/info/available_releases"
	if err := c.http.GetJSON(ctx, infoURL, &info); err != nil {
		return result.Failure(fmt.Sprintf("available releases query failed: %v", err), ReleaseSet{})
	}
	logging.LogDebug("📦 Catalog lists %d feature versions", len(info.AvailableReleases))

	releases := ReleaseSet{}
	for _, feature := range info.AvailableReleases {
		var assets []adoptiumAsset
		assetsURL := fmt.Sprintf("%s/v3/assets/latest/%d/%s?image_type=%s",
			c.opts.APIURL, feature, url.PathEscape(c.opts.JVMImpl), url.QueryEscape(c.opts.ImageType))
		if err := c.http.GetJSON(ctx, assetsURL, &assets); err != nil {
			return result.Failure(fmt.Sprintf("assets query for version %d failed: %v", feature, err), ReleaseSet{})
		}
		for _, a := range assets {
			releases = append(releases, c.toRelease(feature, a))
		}
	}

	logging.LogDebug("📦 Catalog returned %d releases", len(releases))
	return result.Success(releases)
}

func (c *Client) toRelease(feature int, a adoptiumAsset) Release {
	pkg := a.Binary.Package
	archiveType := ArchiveTypeOf(pkg.Name)
	if archiveType == "" {
		archiveType = ArchiveTypeOf(pkg.Link)
	}
	if archiveType == "" {
		archiveType = c.opts.ArchiveType
	}
	if a.Version.Major != 0 {
		feature = a.Version.Major
	}
	return Release{
		FeatureVersion: feature,
		Version:        a.Version.Semver,
		ReleaseName:    a.ReleaseName,
		Arch:           NormalizeArch(a.Binary.Architecture),
		OS:             NormalizeOS(a.Binary.OS),
		ImageType:      a.Binary.ImageType,
		DownloadURL:    pkg.Link,
		PackageName:    pkg.Name,
		Checksum:       pkg.Checksum,
		ArchiveType:    archiveType,
		Size:           pkg.Size,
	}
}

// FetchArchive starts downloading r into the download root under filename
// and returns the task handle without waiting. It fails without starting
// anything when the release locator or filename are malformed.
func (c *Client) FetchArchive(ctx context.Context, r Release, filename string) result.Result[task.Handle] {
	u, err := url.Parse(r.DownloadURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return result.Fail[task.Handle](fmt.Sprintf("invalid download locator %q for release %d", r.DownloadURL, r.FeatureVersion))
	}
	if filename == "" || filename != filepath.Base(filename) {
		return result.Fail[task.Handle](fmt.Sprintf("invalid archive file name %q", filename))
	}
	if c.tasks == nil {
		return result.Fail[task.Handle]("no task manager configured")
	}

	dest := filepath.Join(c.opts.DownloadRoot, filename)
	logging.LogInfo("⬇️  Downloading %s to %s", r.DownloadURL, dest)
	h := c.tasks.StartDownload(ctx, task.Source{URL: r.DownloadURL, Checksum: r.Checksum}, dest)
	return result.Success(h)
}
