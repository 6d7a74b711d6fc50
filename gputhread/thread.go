// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gputhread runs a GPU owner thread: a goroutine locked to its OS
// thread that is the only place GPU deletion calls are made.
//
// GPU contexts are thread-affine. Code running elsewhere (the runtime
// cleanup goroutine, UI goroutines, explicit Close calls) hands work to the
// owner with Post, which never blocks, or with Do when it needs the result.
// The owner also sweeps a gpuview.Tracker on a ticker so views reclaimed
// without Close are released on the right thread.
//
//	tracker := gpuview.NewTracker()
//	th := gputhread.New(gputhread.WithTracker(tracker))
//	th.Start()
//	defer th.RequestExitAndWait()
package gputhread

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/gogpu/gpuview"
)

// Errors returned by Thread.
var (
	// ErrExited is returned when posting to a thread that has finished.
	ErrExited = errors.New("gputhread: thread exited")

	// ErrNilEvent is returned when posting a nil function.
	ErrNilEvent = errors.New("gputhread: nil event")
)

// DefaultSweepInterval is the tracker sweep period used when a tracker is
// configured without WithSweepInterval.
const DefaultSweepInterval = 100 * time.Millisecond

// Thread is a GPU owner thread.
//
// Events run one at a time, in the order they were posted. A panicking
// event is logged and does not stop the thread.
type Thread struct {
	opts options

	mu      sync.Mutex
	events  []func()
	started bool
	closed  bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}

	exitOnce sync.Once
}

// New creates a thread. Call Start to run it.
func New(opts ...Option) *Thread {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Thread{
		opts:   o,
		events: make([]func(), 0, o.queueSize),
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the thread. Starting a started thread does nothing.
func (t *Thread) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.started = true
	go t.run()
}

func (t *Thread) logger() *slog.Logger {
	if t.opts.logger != nil {
		return t.opts.logger
	}
	return gpuview.Logger()
}

func (t *Thread) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.done)

	t.logger().Info("gputhread: started", "label", t.opts.label)

	var tick <-chan time.Time
	if t.opts.tracker != nil && t.opts.sweepInterval > 0 {
		ticker := time.NewTicker(t.opts.sweepInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-t.wake:
			t.drain()
		case <-tick:
			t.sweep()
		case <-t.quit:
			t.drain()
			t.releaseAll()
			t.finish()
			t.logger().Info("gputhread: exited", "label", t.opts.label)
			return
		}
	}
}

// drain runs every queued event.
func (t *Thread) drain() {
	for {
		t.mu.Lock()
		events := t.events
		t.events = make([]func(), 0, t.opts.queueSize)
		t.mu.Unlock()

		if len(events) == 0 {
			return
		}
		for _, fn := range events {
			t.runEvent(fn)
		}
	}
}

// finish drains events posted during teardown, including those posted by
// releasers, and closes the queue once it is observed empty.
func (t *Thread) finish() {
	for {
		t.drain()
		t.mu.Lock()
		if len(t.events) == 0 {
			t.closed = true
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()
	}
}

func (t *Thread) runEvent(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			t.logger().Warn("gputhread: event panicked", "label", t.opts.label, "panic", v)
		}
	}()
	fn()
}

func (t *Thread) sweep() {
	n, err := t.opts.tracker.Sweep()
	if n > 0 {
		t.logger().Debug("gputhread: swept reclaimed views", "label", t.opts.label, "count", n)
	}
	if err != nil {
		t.logger().Warn("gputhread: sweep reported release failures", "label", t.opts.label, "err", err)
	}
}

func (t *Thread) releaseAll() {
	if t.opts.tracker == nil {
		return
	}
	n, err := t.opts.tracker.ReleaseAll()
	if n > 0 {
		t.logger().Debug("gputhread: released remaining views", "label", t.opts.label, "count", n)
	}
	if err != nil {
		t.logger().Warn("gputhread: teardown reported release failures", "label", t.opts.label, "err", err)
	}
}

// Post queues fn to run on the thread and returns immediately.
//
// Post may be called from any goroutine, including the runtime cleanup
// goroutine and from events running on the thread itself. Events posted
// before Start run once the thread starts; events posted while the thread
// is tearing down still run. Post returns ErrExited once the thread has
// finished.
func (t *Thread) Post(fn func()) error {
	if fn == nil {
		return ErrNilEvent
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrExited
	}
	t.events = append(t.events, fn)
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

// Do runs fn on the thread and waits for its result.
// It returns ctx.Err() if ctx ends first; fn still runs later.
func (t *Thread) Do(ctx context.Context, fn func() error) error {
	if fn == nil {
		return ErrNilEvent
	}
	errc := make(chan error, 1)
	if err := t.Post(func() { errc <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		select {
		case err := <-errc:
			return err
		default:
			return ErrExited
		}
	}
}

// Pending returns the number of queued events.
func (t *Thread) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

// RequestExitAndWait asks the thread to exit and waits until it has.
//
// Queued events run first, then every view still registered with the
// thread's tracker is released on the thread. A thread that was never
// started is started so that this teardown happens. Calling it again
// only waits.
func (t *Thread) RequestExitAndWait() {
	t.exitOnce.Do(func() {
		t.Start()
		close(t.quit)
	})
	<-t.done
}

// Exited reports whether the thread has finished.
func (t *Thread) Exited() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the thread has finished.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Tracker returns the tracker swept by the thread, or nil.
func (t *Thread) Tracker() *gpuview.Tracker {
	return t.opts.tracker
}
