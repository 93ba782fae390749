package task

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"jvmget/logging"
	"jvmget/result"
)

// Downloader streams a URL to a file. Implementations must leave no partial
// file at dest when they return an error.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Extractor unpacks an archive into destRoot
type Extractor interface {
	Extract(ctx context.Context, archivePath, destRoot string) error
}

// Source describes what to download
type Source struct {
	URL string
	// Checksum is the expected SHA-256 of the file, hex encoded. Empty skips verification.
	Checksum string
}

// Manager owns the registry of tasks. Starting the same download twice is
// not deduplicated; callers are expected not to do that.
type Manager struct {
	downloader Downloader
	extractor  Extractor

	mu    sync.RWMutex
	tasks map[string]*task
	wg    sync.WaitGroup
}

// NewManager creates a Manager using d for downloads and e for unpacking
func NewManager(d Downloader, e Extractor) *Manager {
	return &Manager{
		downloader: d,
		extractor:  e,
		tasks:      make(map[string]*task),
	}
}

// StartDownload begins downloading src to dest and returns without blocking.
// The task resolves with dest.
func (m *Manager) StartDownload(ctx context.Context, src Source, dest string) Handle {
	return m.start(ctx, KindDownload, dest, func(ctx context.Context) (string, error) {
		return m.download(ctx, src, dest)
	})
}

// StartUnpack begins extracting archivePath into destRoot and returns
// without blocking. The task resolves with destRoot.
func (m *Manager) StartUnpack(ctx context.Context, archivePath, destRoot string) Handle {
	return m.start(ctx, KindUnpack, destRoot, func(ctx context.Context) (string, error) {
		if m.extractor == nil {
			return "", fmt.Errorf("no extractor configured")
		}
		if err := m.extractor.Extract(ctx, archivePath, destRoot); err != nil {
			return "", err
		}
		// an extractor may finish without noticing a cancel
		if err := ctx.Err(); err != nil {
			os.RemoveAll(destRoot)
			return "", err
		}
		return destRoot, nil
	})
}

// start registers a task and runs fn on its own goroutine. Cancelling ctx,
// or calling Cancel, cancels the task.
func (m *Manager) start(ctx context.Context, kind Kind, target string, fn func(context.Context) (string, error)) Handle {
	taskCtx, cancel := context.WithCancel(ctx)
	t := newTask(uuid.New().String(), kind, target, cancel)

	m.mu.Lock()
	m.tasks[t.id] = t
	m.mu.Unlock()

	log := logging.Logger().With("task_id", t.id, "kind", string(kind))
	log.Debugf("🚀 Starting %s task for %s", kind, target)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		value, err := run(taskCtx, fn)
		if err != nil {
			if taskCtx.Err() != nil {
				err = fmt.Errorf("%w: %w", kind.failure(), ErrCancelled)
			} else {
				err = fmt.Errorf("%w: %w", kind.failure(), err)
			}
			log.Debugf("❌ %s task failed: %v", kind, err)
		} else {
			log.Debugf("✅ %s task completed: %s", kind, value)
		}
		t.finish(value, err)
	}()

	return Handle{ID: t.id, Kind: kind, t: t}
}

// run calls fn, turning a panic inside a collaborator into an error
func run(ctx context.Context, fn func(context.Context) (string, error)) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (m *Manager) download(ctx context.Context, src Source, dest string) (string, error) {
	if m.downloader == nil {
		return "", fmt.Errorf("no downloader configured")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	if _, err := m.downloader.Download(ctx, src.URL, dest); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		os.Remove(dest)
		return "", err
	}
	if src.Checksum != "" {
		if err := verifyChecksum(dest, src.Checksum); err != nil {
			os.Remove(dest)
			return "", err
		}
	}
	return dest, nil
}

func verifyChecksum(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open download for verification: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to hash download: %w", err)
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksum, expected, actual)
	}
	return nil
}

func (m *Manager) lookup(id string) (*task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	return t, ok
}

// Await waits for the task id to finish. It fails with ErrUnknownTask when
// id is not registered.
func (m *Manager) Await(ctx context.Context, id string) result.Result[string] {
	t, ok := m.lookup(id)
	if !ok {
		return result.FromError(fmt.Errorf("%w: %s", ErrUnknownTask, id), "")
	}
	return t.wait(ctx)
}

// Cancel requests cancellation of a pending task. The task turns failed with
// ErrCancelled once its worker has stopped and cleaned up. A download or
// unpack that finishes after the request is discarded.
//
// Cancel is best-effort: it reports whether the task was pending when it was
// called. A worker that already returned its value may still end completed,
// so callers should trust the task's outcome, not this return value.
func (m *Manager) Cancel(id string) bool {
	t, ok := m.lookup(id)
	if !ok || t.terminal() {
		return false
	}
	t.cancel()
	return true
}

// Get returns a snapshot of task id
func (m *Manager) Get(id string) (Snapshot, bool) {
	t, ok := m.lookup(id)
	if !ok {
		return Snapshot{}, false
	}
	return t.snapshot(), true
}

// List returns snapshots of all registered tasks, oldest first
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	out := make([]Snapshot, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Forget removes a finished task from the registry. Handles already given
// out keep working. Pending tasks are never removed.
func (m *Manager) Forget(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || !t.terminal() {
		return false
	}
	delete(m.tasks, id)
	return true
}

// Shutdown cancels every pending task and waits for workers to exit, or for
// ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	for _, t := range m.tasks {
		if !t.terminal() {
			t.cancel()
		}
	}
	m.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
