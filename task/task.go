// Package task runs downloads and unpacks in the background and lets any
// number of callers wait for their outcome.
//
// A task is started with Manager.StartDownload or Manager.StartUnpack, which
// return immediately with a Handle. Completion is signalled by closing a
// channel, so waiting is replayable: every awaiter, whether it started
// waiting before or after the task finished, sees the same terminal value.
package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"jvmget/result"
)

// State is the lifecycle state of a task
type State string

const (
	Pending   State = "pending"
	Completed State = "completed"
	Failed    State = "failed"
)

// Kind is the operation a task performs
type Kind string

const (
	KindDownload Kind = "download"
	KindUnpack   Kind = "unpack"
)

var (
	ErrDownload    = errors.New("download failed")
	ErrUnpack      = errors.New("unpack failed")
	ErrCancelled   = errors.New("task cancelled")
	ErrChecksum    = errors.New("checksum mismatch")
	ErrUnknownTask = errors.New("unknown task")
)

func (k Kind) failure() error {
	if k == KindUnpack {
		return ErrUnpack
	}
	return ErrDownload
}

// Snapshot is a read-only copy of a task's state
type Snapshot struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	State      State     `json:"state"`
	Target     string    `json:"target"`
	Value      string    `json:"value,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

type task struct {
	id        string
	kind      Kind
	target    string
	createdAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	mu         sync.Mutex
	state      State
	value      string
	err        error
	finishedAt time.Time
}

func newTask(id string, kind Kind, target string, cancel context.CancelFunc) *task {
	return &task{
		id:        id,
		kind:      kind,
		target:    target,
		createdAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     Pending,
	}
}

// finish moves the task to its terminal state. Only the first call has an effect.
func (t *task) finish(value string, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Pending {
		return false
	}
	if err != nil {
		t.state = Failed
		t.err = err
	} else {
		t.state = Completed
		t.value = value
	}
	t.finishedAt = time.Now()
	close(t.done)
	return true
}

func (t *task) snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Snapshot{
		ID:         t.id,
		Kind:       t.kind,
		State:      t.state,
		Target:     t.target,
		Value:      t.value,
		CreatedAt:  t.createdAt,
		FinishedAt: t.finishedAt,
	}
	if t.err != nil {
		s.Error = t.err.Error()
	}
	return s
}

func (t *task) terminal() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *task) wait(ctx context.Context) result.Result[string] {
	select {
	case <-t.done:
	case <-ctx.Done():
		return result.FromError(ctx.Err(), "")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Failed {
		return result.FromError(t.err, "")
	}
	return result.Success(t.value)
}

// Handle is the caller's view of a task: its id and a way to wait for it.
// The zero Handle refers to no task.
type Handle struct {
	ID   string
	Kind Kind
	t    *task
}

// Wait blocks until the task finishes or ctx ends. The task keeps running
// when ctx ends first; only this wait is abandoned.
func (h Handle) Wait(ctx context.Context) result.Result[string] {
	if h.t == nil {
		return result.FromError(ErrUnknownTask, "")
	}
	return h.t.wait(ctx)
}

// Snapshot returns the task's current state
func (h Handle) Snapshot() Snapshot {
	if h.t == nil {
		return Snapshot{ID: h.ID, Kind: h.Kind, State: Failed, Error: ErrUnknownTask.Error()}
	}
	return h.t.snapshot()
}
