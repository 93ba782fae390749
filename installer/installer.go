// Package installer sequences locate, select, download, unpack and verify
// into a single EnsureInstalled call.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"jvmget/locator"
	"jvmget/logging"
	"jvmget/repository"
	"jvmget/result"
	"jvmget/task"
)

// Locator finds existing installations
type Locator interface {
	Find(root string, feature int) result.Result[locator.Record]
}

// Catalog lists releases and starts archive downloads
type Catalog interface {
	ListInstallable(ctx context.Context) result.Result[repository.ReleaseSet]
	FetchArchive(ctx context.Context, r repository.Release, filename string) result.Result[task.Handle]
}

// Unpacker starts archive extraction tasks
type Unpacker interface {
	StartUnpack(ctx context.Context, archivePath, destRoot string) task.Handle
}

// forgetter is implemented by task registries that can drop finished tasks
type forgetter interface {
	Forget(id string) bool
}

// PostInstallFunc runs after a fresh install has been verified. Its error is
// logged and does not fail the install.
type PostInstallFunc func(ctx context.Context, rec locator.Record, rel repository.Release) error

// Options configures an Installer
type Options struct {
	// Platform filters catalog releases. Zero means the current platform.
	Platform repository.Platform
	// KeepArchives leaves the downloaded archive in place after a successful install
	KeepArchives bool
	PostInstall  []PostInstallFunc
}

// Installer ensures a runtime version is present under an install root.
//
// Concurrent calls for the same root and version are serialized, so only the
// first one downloads and the others find the fresh installation. Calls for
// different versions run in parallel.
type Installer struct {
	locator  Locator
	catalog  Catalog
	unpacker Unpacker
	opts     Options
	locks    *keyedLock
	remove   func(string) error
}

// New creates an Installer
func New(l Locator, c Catalog, u Unpacker, opts Options) *Installer {
	if opts.Platform == (repository.Platform{}) {
		opts.Platform = repository.CurrentPlatform()
	}
	return &Installer{
		locator:  l,
		catalog:  c,
		unpacker: u,
		opts:     opts,
		locks:    newKeyedLock(),
		remove:   os.Remove,
	}
}

// EnsureInstalled returns the installation of feature under root, installing
// it first when it is missing. The outcome is always a Result. Install
// failures carry one of the stage sentinels of this package; a failed lookup
// or a ctx that ends while another caller installs the same version is
// reported unwrapped.
func (i *Installer) EnsureInstalled(ctx context.Context, root string, feature int) result.Result[locator.Record] {
	notFound := locator.NotFound(feature)
	if feature <= 0 {
		return result.FromError(stageErr(ErrSelection, fmt.Sprintf("invalid version %d", feature), nil), notFound)
	}

	release, err := i.locks.acquire(ctx, root+"|"+strconv.Itoa(feature))
	if err != nil {
		return result.FromError(fmt.Errorf("waiting for concurrent install of %d: %w", feature, err), notFound)
	}
	defer release()

	found := i.locator.Find(root, feature)
	if !found.OK() {
		return found
	}
	if found.Data().Found {
		logging.LogInfo("✅ Version %d is already installed at %s", feature, found.Data().Path)
		return found
	}

	logging.LogInfo("🔍 Version %d not installed, querying catalog...", feature)
	catalog := i.catalog.ListInstallable(ctx)
	if !catalog.OK() {
		return result.FromError(stageErr(ErrCatalog, catalog.Err(), nil), notFound)
	}

	selected := repository.SelectRelease(catalog.Data(), feature, i.opts.Platform)
	if !selected.OK() {
		return result.FromError(stageErr(ErrSelection, selected.Err(), nil), notFound)
	}
	rel := selected.Data()
	name := repository.BuildArchiveName(rel)
	logging.LogInfo("✅ Found release %s for %s", displayName(rel), i.opts.Platform)

	fetch := i.catalog.FetchArchive(ctx, rel, name)
	if !fetch.OK() {
		return result.FromError(stageErr(ErrDownload, fetch.Err(), nil), notFound)
	}
	downloaded := fetch.Data().Wait(ctx)
	logTask(fetch.Data())
	i.forget(fetch.Data())
	if !downloaded.OK() {
		return result.FromError(stageErr(ErrDownload, name, downloaded.Cause()), notFound)
	}
	archivePath := downloaded.Data()

	dest := filepath.Join(root, strconv.Itoa(feature))
	logging.LogInfo("📦 Unpacking %s into %s", filepath.Base(archivePath), dest)
	unpackTask := i.unpacker.StartUnpack(ctx, archivePath, dest)
	unpacked := unpackTask.Wait(ctx)
	logTask(unpackTask)
	i.forget(unpackTask)
	if !unpacked.OK() {
		logging.LogDebug("💾 Keeping %s for a later retry", archivePath)
		return result.FromError(stageErr(ErrUnpack, archivePath, unpacked.Cause()), notFound)
	}

	verified := i.locator.Find(root, feature)
	if !verified.OK() {
		return result.FromError(stageErr(ErrConsistency, verified.Err(), nil), notFound)
	}
	if !verified.Data().Found {
		return result.FromError(stageErr(ErrConsistency, fmt.Sprintf("unpack reported %s", unpacked.Data()), nil), notFound)
	}
	rec := verified.Data()

	for _, hook := range i.opts.PostInstall {
		if err := hook(ctx, rec, rel); err != nil {
			logging.LogWarn("⚠️  Post-install step failed for %s: %v", rec.Path, err)
		}
	}

	if !i.opts.KeepArchives {
		if err := i.remove(archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.LogDebug("⚠️  Failed to remove archive %s: %v", archivePath, err)
		}
	}

	logging.LogInfo("✅ Successfully installed version %d at %s", feature, rec.Path)
	return result.Success(rec)
}

func (i *Installer) forget(h task.Handle) {
	if f, ok := i.unpacker.(forgetter); ok && h.ID != "" {
		f.Forget(h.ID)
	}
}

func logTask(h task.Handle) {
	snap := h.Snapshot()
	if snap.FinishedAt.IsZero() {
		logging.LogDebug("⏳ %s task %s still %s", snap.Kind, snap.ID, snap.State)
		return
	}
	logging.LogDebug("⏱️  %s task %s %s in %s", snap.Kind, snap.ID, snap.State, snap.FinishedAt.Sub(snap.CreatedAt).Round(time.Millisecond))
}

func displayName(r repository.Release) string {
	if r.ReleaseName != "" {
		return r.ReleaseName
	}
	return strconv.Itoa(r.FeatureVersion)
}
