package task

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDownloader writes payload to dest. When release is set it blocks
// until release is closed or ctx ends.
type fakeDownloader struct {
	payload []byte
	err     error
	release chan struct{}
	started chan struct{}
	calls   atomic.Int32
}

func (f *fakeDownloader) Download(ctx context.Context, url, dest string) (int64, error) {
	f.calls.Add(1)
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		partial := dest + ".part"
		if err := os.WriteFile(partial, []byte("partial"), 0644); err != nil {
			return 0, err
		}
		select {
		case <-f.release:
			os.Remove(partial)
		case <-ctx.Done():
			os.Remove(partial)
			return 0, ctx.Err()
		}
	}
	if f.err != nil {
		return 0, f.err
	}
	if err := os.WriteFile(dest, f.payload, 0644); err != nil {
		return 0, err
	}
	return int64(len(f.payload)), nil
}

// fakeExtractor creates destRoot. When release is set it blocks until release
// is closed, ignoring ctx like an extractor stuck in a single large entry.
type fakeExtractor struct {
	err     error
	panic   bool
	release chan struct{}
	started chan struct{}
	calls   atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, archivePath, destRoot string) error {
	f.calls.Add(1)
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.panic {
		panic("corrupt central directory")
	}
	if f.err != nil {
		return f.err
	}
	return os.MkdirAll(destRoot, 0755)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStartDownloadResolvesWithDestination(t *testing.T) {
	d := &fakeDownloader{payload: []byte("zip")}
	m := NewManager(d, nil)
	dest := filepath.Join(t.TempDir(), "dl", "17_x64_linux.zip")

	h := m.StartDownload(context.Background(), Source{URL: "https://example.com/a.zip"}, dest)
	require.NotEmpty(t, h.ID)
	assert.Equal(t, KindDownload, h.Kind)

	res := h.Wait(waitCtx(t))
	require.True(t, res.OK(), res.Err())
	assert.Equal(t, dest, res.Data())
	assert.FileExists(t, dest)

	snap, ok := m.Get(h.ID)
	require.True(t, ok)
	assert.Equal(t, Completed, snap.State)
	assert.Equal(t, dest, snap.Value)
	assert.False(t, snap.FinishedAt.IsZero())
}

func TestStartDoesNotBlock(t *testing.T) {
	d := &fakeDownloader{payload: []byte("zip"), release: make(chan struct{})}
	m := NewManager(d, nil)

	h := m.StartDownload(context.Background(), Source{URL: "u"}, filepath.Join(t.TempDir(), "a.zip"))

	snap, ok := m.Get(h.ID)
	require.True(t, ok)
	assert.Equal(t, Pending, snap.State)

	close(d.release)
	assert.True(t, h.Wait(waitCtx(t)).OK())
}

func TestCompletionIsReplayable(t *testing.T) {
	d := &fakeDownloader{payload: []byte("zip"), release: make(chan struct{})}
	m := NewManager(d, nil)
	dest := filepath.Join(t.TempDir(), "a.zip")
	h := m.StartDownload(context.Background(), Source{URL: "u"}, dest)

	// Awaiter registered before resolution
	ctx := waitCtx(t)
	early := make(chan string, 1)
	go func() {
		early <- m.Await(ctx, h.ID).Data()
	}()

	close(d.release)
	require.True(t, h.Wait(ctx).OK())

	// Awaiter registered after resolution
	late := m.Await(waitCtx(t), h.ID)
	require.True(t, late.OK())

	assert.Equal(t, dest, <-early)
	assert.Equal(t, dest, late.Data())
	assert.Equal(t, dest, h.Wait(waitCtx(t)).Data())
	assert.Equal(t, int32(1), d.calls.Load(), "awaiting must not re-run the task")
}

func TestDownloadFailure(t *testing.T) {
	m := NewManager(&fakeDownloader{err: errors.New("connection reset")}, nil)

	res := m.StartDownload(context.Background(), Source{URL: "u"}, filepath.Join(t.TempDir(), "a.zip")).Wait(waitCtx(t))

	require.False(t, res.OK())
	assert.ErrorIs(t, res.Cause(), ErrDownload)
	assert.Contains(t, res.Err(), "connection reset")
	assert.Empty(t, res.Data())
}

func TestChecksumVerification(t *testing.T) {
	payload := []byte("jdk bytes")
	sum := sha256.Sum256(payload)
	good := hex.EncodeToString(sum[:])

	m := NewManager(&fakeDownloader{payload: payload}, nil)
	dir := t.TempDir()

	ok := m.StartDownload(context.Background(), Source{URL: "u", Checksum: good}, filepath.Join(dir, "good.zip")).Wait(waitCtx(t))
	assert.True(t, ok.OK(), ok.Err())

	bad := m.StartDownload(context.Background(), Source{URL: "u", Checksum: "deadbeef"}, filepath.Join(dir, "bad.zip")).Wait(waitCtx(t))
	require.False(t, bad.OK())
	assert.ErrorIs(t, bad.Cause(), ErrChecksum)
	assert.ErrorIs(t, bad.Cause(), ErrDownload)
	assert.NoFileExists(t, filepath.Join(dir, "bad.zip"))
}

func TestCancelPendingDownload(t *testing.T) {
	d := &fakeDownloader{payload: []byte("zip"), release: make(chan struct{}), started: make(chan struct{})}
	m := NewManager(d, nil)
	dir := t.TempDir()
	dest := filepath.Join(dir, "a.zip")

	h := m.StartDownload(context.Background(), Source{URL: "u"}, dest)
	<-d.started

	assert.True(t, m.Cancel(h.ID))

	res := h.Wait(waitCtx(t))
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Cause(), ErrCancelled)
	assert.ErrorIs(t, res.Cause(), ErrDownload)

	snap, _ := m.Get(h.ID)
	assert.Equal(t, Failed, snap.State)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "cancelled download must not leave files behind")

	assert.False(t, m.Cancel(h.ID), "terminal tasks cannot be cancelled")
}

func TestCancelUnpackThatIgnoresContext(t *testing.T) {
	e := &fakeExtractor{release: make(chan struct{}), started: make(chan struct{})}
	m := NewManager(nil, e)
	dest := filepath.Join(t.TempDir(), "17")

	h := m.StartUnpack(context.Background(), "/tmp/17_x64_linux.zip", dest)
	<-e.started

	assert.True(t, m.Cancel(h.ID))
	close(e.release)

	res := h.Wait(waitCtx(t))
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Cause(), ErrCancelled)
	assert.ErrorIs(t, res.Cause(), ErrUnpack)
	assert.NoDirExists(t, dest, "a cancelled unpack must not leave its destination behind")
}

func TestWaitContextDoesNotCancelTask(t *testing.T) {
	d := &fakeDownloader{payload: []byte("zip"), release: make(chan struct{})}
	m := NewManager(d, nil)
	h := m.StartDownload(context.Background(), Source{URL: "u"}, filepath.Join(t.TempDir(), "a.zip"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := h.Wait(ctx)
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Cause(), context.Canceled)

	close(d.release)
	assert.True(t, h.Wait(waitCtx(t)).OK())
}

func TestStartUnpack(t *testing.T) {
	e := &fakeExtractor{}
	m := NewManager(nil, e)
	dest := filepath.Join(t.TempDir(), "17")

	res := m.StartUnpack(context.Background(), "/tmp/dl/17_x64_linux.zip", dest).Wait(waitCtx(t))

	require.True(t, res.OK(), res.Err())
	assert.Equal(t, dest, res.Data())
	assert.Equal(t, int32(1), e.calls.Load())
}

func TestUnpackFailureAndPanic(t *testing.T) {
	m := NewManager(nil, &fakeExtractor{err: errors.New("zip: not a valid zip file")})
	res := m.StartUnpack(context.Background(), "a.zip", t.TempDir()).Wait(waitCtx(t))
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Cause(), ErrUnpack)

	m = NewManager(nil, &fakeExtractor{panic: true})
	res = m.StartUnpack(context.Background(), "a.zip", t.TempDir()).Wait(waitCtx(t))
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Cause(), ErrUnpack)
	assert.Contains(t, res.Err(), "panic")
}

func TestAwaitUnknownTask(t *testing.T) {
	m := NewManager(nil, nil)
	res := m.Await(context.Background(), "missing")
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Cause(), ErrUnknownTask)

	var zero Handle
	assert.ErrorIs(t, zero.Wait(context.Background()).Cause(), ErrUnknownTask)
}

func TestForgetAndList(t *testing.T) {
	d := &fakeDownloader{payload: []byte("zip"), release: make(chan struct{})}
	m := NewManager(d, &fakeExtractor{})
	dir := t.TempDir()

	pending := m.StartDownload(context.Background(), Source{URL: "u"}, filepath.Join(dir, "a.zip"))
	done := m.StartUnpack(context.Background(), "a.zip", filepath.Join(dir, "17"))
	require.True(t, done.Wait(waitCtx(t)).OK())

	assert.Len(t, m.List(), 2)
	assert.False(t, m.Forget(pending.ID), "pending tasks stay registered")
	assert.True(t, m.Forget(done.ID))
	assert.Len(t, m.List(), 1)

	// The handle still resolves after the registry forgot it
	assert.True(t, done.Wait(waitCtx(t)).OK())

	close(d.release)
	require.True(t, pending.Wait(waitCtx(t)).OK())
}

func TestConcurrentTasks(t *testing.T) {
	m := NewManager(&fakeDownloader{payload: []byte("zip")}, &fakeExtractor{})
	dir := t.TempDir()

	ctx := waitCtx(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dest := filepath.Join(dir, "dl", string(rune('a'+i))+".zip")
			res := m.StartDownload(context.Background(), Source{URL: "u"}, dest).Wait(ctx)
			assert.True(t, res.OK(), res.Err())
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.List(), 20)
}

func TestShutdownCancelsPending(t *testing.T) {
	d := &fakeDownloader{payload: []byte("zip"), release: make(chan struct{}), started: make(chan struct{})}
	m := NewManager(d, nil)
	h := m.StartDownload(context.Background(), Source{URL: "u"}, filepath.Join(t.TempDir(), "a.zip"))
	<-d.started

	require.NoError(t, m.Shutdown(waitCtx(t)))

	res := h.Wait(waitCtx(t))
	assert.ErrorIs(t, res.Cause(), ErrCancelled)
}

func TestHandleSnapshot(t *testing.T) {
	m := NewManager(&fakeDownloader{payload: []byte("zip")}, nil)
	dest := filepath.Join(t.TempDir(), "a.zip")

	h := m.StartDownload(context.Background(), Source{URL: "u"}, dest)
	require.True(t, h.Wait(waitCtx(t)).OK())

	snap := h.Snapshot()
	assert.Equal(t, h.ID, snap.ID)
	assert.Equal(t, KindDownload, snap.Kind)
	assert.Equal(t, Completed, snap.State)
	assert.Equal(t, dest, snap.Value)
	assert.False(t, snap.FinishedAt.Before(snap.CreatedAt))

	var zero Handle
	assert.Equal(t, Failed, zero.Snapshot().State)
	assert.Equal(t, ErrUnknownTask.Error(), zero.Snapshot().Error)
}
