// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpuview

import (
	"sync"
	"weak"

	"github.com/hashicorp/go-multierror"
)

// Tracker is a registry of live views keyed by weak reference.
//
// It is the safety net for views whose owners forget to call Close. The
// reclamation hook of a tracked view only queues its Releaser here; the
// goroutine that owns the GPU context drains the queue with Sweep, so GPU
// deletion calls never run on the runtime cleanup goroutine.
//
// Typical wiring, with the owner sweeping periodically:
//
//	tracker := gpuview.NewTracker()
//	thread := gputhread.New(gputhread.WithTracker(tracker))
//	thread.Start()
//	defer thread.RequestExitAndWait()
//
// ReleaseAll closes the tracker. Views created with a closed tracker are
// not tracked, and their reclamation hook releases them directly.
//
// Tracker is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries map[uint64]trackedView
	orphans []*releaseHook
	nextID  uint64
	closed  bool
}

type trackedView struct {
	ref  weak.Pointer[Base]
	hook *releaseHook
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[uint64]trackedView),
	}
}

// track registers b. It reports false if the tracker is closed.
func (t *Tracker) track(b *Base, h *releaseHook) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}
	t.nextID++
	h.id = t.nextID
	t.entries[h.id] = trackedView{ref: weak.Make(b), hook: h}
	return true
}

func (t *Tracker) untrack(id uint64) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

// orphan queues a reclaimed view for the next Sweep.
// Called from the reclamation hook; holds the lock only for the append.
// Once the tracker is closed nobody sweeps it, so the view is released
// in place.
func (t *Tracker) orphan(h *releaseHook) {
	t.mu.Lock()
	delete(t.entries, h.id)
	if t.closed {
		t.mu.Unlock()
		if err := h.fire(); err != nil {
			Logger().Warn("gpuview: release on reclamation failed", "label", h.label, "err", err)
		}
		return
	}
	// Already released through a cleared weak pointer.
	if !h.released.Load() {
		t.orphans = append(t.orphans, h)
	}
	t.mu.Unlock()
}

// Len returns the number of tracked views that are still live.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Closed reports whether ReleaseAll has closed the tracker.
func (t *Tracker) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Pending returns the number of reclaimed views waiting for Sweep.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.orphans)
}

// Sweep releases every view that was reclaimed without Close.
//
// Releasers run on the calling goroutine. A view is picked up either from
// the queue filled by the reclamation hook or because its weak reference
// has already been cleared; whichever comes first releases it, the other
// is skipped. Sweep returns the number of views released and, if any
// Releaser panicked, a *multierror.Error of *ReleaseError values.
func (t *Tracker) Sweep() (int, error) {
	t.mu.Lock()
	victims := t.orphans
	t.orphans = nil
	for id, e := range t.entries {
		if e.ref.Value() == nil {
			victims = append(victims, e.hook)
			delete(t.entries, id)
		}
	}
	t.mu.Unlock()

	return releaseAll(victims)
}

// ReleaseAll closes every tracked view that is still live and then sweeps.
// The owner calls it when tearing down the GPU context. It returns the
// total number of views released and any aggregated release failures.
//
// ReleaseAll also closes the tracker: it accepts no new views afterwards,
// and views reclaimed later are released by their reclamation hook.
func (t *Tracker) ReleaseAll() (int, error) {
	t.mu.Lock()
	t.closed = true
	live := make([]*Base, 0, len(t.entries))
	for _, e := range t.entries {
		if b := e.ref.Value(); b != nil {
			live = append(live, b)
		}
	}
	t.mu.Unlock()

	var result *multierror.Error
	closed := 0
	for _, b := range live {
		released, err := b.close()
		if err != nil {
			result = multierror.Append(result, err)
		}
		if released {
			closed++
		}
	}

	swept, err := t.Sweep()
	if err != nil {
		result = multierror.Append(result, err)
	}
	return closed + swept, result.ErrorOrNil()
}

func releaseAll(hooks []*releaseHook) (int, error) {
	var result *multierror.Error
	released := 0
	for _, h := range hooks {
		if !h.released.CompareAndSwap(false, true) {
			continue
		}
		released++
		if err := h.invoke(); err != nil {
			Logger().Warn("gpuview: release on sweep failed", "label", h.label, "err", err)
			result = multierror.Append(result, err)
		}
	}
	if released > 0 {
		Logger().Debug("gpuview: swept reclaimed views", "count", released)
	}
	return released, result.ErrorOrNil()
}
