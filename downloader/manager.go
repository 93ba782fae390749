// Package downloader wires the catalog, task manager, extractor and
// installer together from a loaded configuration.
package downloader

import (
	"context"
	"time"

	"jvmget/config"
	"jvmget/downloader/archive"
	"jvmget/downloader/cache"
	"jvmget/downloader/jdk"
	"jvmget/downloader/network"
	"jvmget/installer"
	"jvmget/locator"
	"jvmget/logging"
	"jvmget/repository"
	"jvmget/result"
	"jvmget/task"
)

// Installation is an installed runtime together with the release it came
// from, when jvmget installed it
type Installation struct {
	locator.Record
	Metadata *installer.Metadata `json:"metadata,omitempty"`
}

// Manager orchestrates catalog queries, installations and cleanup
type Manager struct {
	cfg       *config.Config
	platform  repository.Platform
	network   *network.Client
	tasks     *task.Manager
	catalog   *repository.Client
	locator   *locator.Locator
	installer *installer.Installer
	cache     *cache.Manager
}

// NewManager creates a new Manager instance from cfg
func NewManager(cfg *config.Config) *Manager {
	opts := []network.Option{
		network.WithTimeout(time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second),
	}
	if cfg.Catalog.Username != "" {
		opts = append(opts, network.WithBasicAuth(cfg.Catalog.Username, cfg.Catalog.Password))
	}
	client := network.NewClient(opts...)
	tasks := task.NewManager(client, archive.NewExtractor())

	catalog := repository.NewClient(client, tasks, repository.Options{
		APIURL:       cfg.Catalog.APIURL,
		JVMImpl:      cfg.Catalog.JVMImpl,
		ImageType:    cfg.Catalog.ImageType,
		ArchiveType:  cfg.Catalog.ArchiveFormat,
		DownloadRoot: cfg.General.DownloadRoot,
	})

	hooks := []installer.PostInstallFunc{installer.RecordMetadata}
	if len(cfg.Certificates) > 0 {
		injector := jdk.NewInjector(cfg.Certificates, cfg.Cacerts.Password, cfg.Cacerts.Path)
		hooks = append(hooks, injector.PostInstall)
	}

	platform := cfg.ResolvedPlatform()
	loc := locator.New(nil)
	logging.LogDebug("🔧 Using catalog %s for %s", cfg.Catalog.APIURL, platform)

	return &Manager{
		cfg:      cfg,
		platform: platform,
		network:  client,
		tasks:    tasks,
		catalog:  catalog,
		locator:  loc,
		installer: installer.New(loc, catalog, tasks, installer.Options{
			Platform:     platform,
			KeepArchives: cfg.General.KeepArchives,
			PostInstall:  hooks,
		}),
		cache: cache.NewManager(cfg.General.DownloadRoot, cfg.General.InstallRoot),
	}
}

// Platform returns the platform releases are selected for
func (m *Manager) Platform() repository.Platform {
	return m.platform
}

// Install ensures feature is installed under the configured install root
func (m *Manager) Install(ctx context.Context, feature int) result.Result[locator.Record] {
	return m.installer.EnsureInstalled(ctx, m.cfg.General.InstallRoot, feature)
}

// Find looks up an existing installation without installing anything
func (m *Manager) Find(feature int) result.Result[locator.Record] {
	return m.locator.Find(m.cfg.General.InstallRoot, feature)
}

// Available lists the catalog releases built for the configured platform
func (m *Manager) Available(ctx context.Context) result.Result[repository.ReleaseSet] {
	res := m.catalog.ListInstallable(ctx)
	if !res.OK() {
		return res
	}
	return result.Success(res.Data().Filter(m.platform))
}

// Installed lists installations under the install root with their metadata
func (m *Manager) Installed() result.Result[[]Installation] {
	res := m.locator.List(m.cfg.General.InstallRoot)
	if !res.OK() {
		return result.Failure(res.Err(), []Installation{})
	}

	out := make([]Installation, 0, len(res.Data()))
	for _, rec := range res.Data() {
		meta, err := installer.LoadMetadata(rec.Path)
		if err != nil {
			logging.LogDebug("⚠️  Unreadable metadata in %s: %v", rec.Path, err)
		}
		out = append(out, Installation{Record: rec, Metadata: meta})
	}
	return result.Success(out)
}

// Clean removes interrupted downloads and staging directories, and
// downloaded archives when archives is true
func (m *Manager) Clean(archives bool) (cache.Report, error) {
	return m.cache.Clean(archives)
}

// Tasks returns the tasks still tracked by the task manager
func (m *Manager) Tasks() []task.Snapshot {
	return m.tasks.List()
}

// Shutdown cancels pending tasks and waits for them to clean up
func (m *Manager) Shutdown(ctx context.Context) error {
	return m.tasks.Shutdown(ctx)
}
