// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpuview

import (
	"runtime"
	"sync/atomic"
)

// Releaser frees the GPU-side resources (textures, contexts, buffers) a
// view owns.
//
// Implementations must be idempotent: Release may run after the resources
// were already freed or were never allocated. Release must not block
// indefinitely and should not panic; a panic is recovered and reported as
// a ReleaseError.
//
// GPU APIs are thread-affine. A Release that can run from the reclamation
// hook of an untracked view executes on the runtime cleanup goroutine, so
// it must marshal the actual deletion calls onto the owning thread (for
// example with gputhread.Thread.Post) instead of making them directly.
type Releaser interface {
	Release()
}

// ReleaseFunc adapts an ordinary function to the Releaser interface.
type ReleaseFunc func()

// Release calls f().
func (f ReleaseFunc) Release() { f() }

// State is the release state of a view.
type State uint32

const (
	// StateActive means the view may hold GPU resources.
	StateActive State = iota

	// StateReleased means the Releaser has run. There is no way back.
	StateReleased
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Base extends a surface-view primitive with a guaranteed release hook.
//
// Release happens exactly once: on the first Close, or, if Close is never
// called, after the Base becomes unreachable. The Releaser passed to the
// constructor must not reference the Base or any value embedding it;
// otherwise the Base can never become unreachable and only Close
// releases it.
//
// Types that own GPU resources embed *Base and keep those resources in a
// separate value that implements Releaser:
//
//	type PreviewView struct {
//	    *gpuview.Base
//	    res *previewResources // implements Releaser
//	}
//
// Base is safe for concurrent use; the embedded primitive follows its own
// rules.
type Base struct {
	Primitive

	hook    *releaseHook
	cleanup runtime.Cleanup
}

// releaseHook is the part of a Base that outlives it. The runtime cleanup
// and the tracker reference the hook, never the Base itself.
type releaseHook struct {
	releaser Releaser
	label    string
	tracker  *Tracker
	id       uint64
	released atomic.Bool
}

// New creates a Base from a display context.
// The context is forwarded unchanged to f.NewPrimitive; its error, if any,
// is returned as is.
func New(f Factory, ctx Context, r Releaser, opts ...Option) (*Base, error) {
	if err := checkArgs(f, r); err != nil {
		return nil, err
	}
	p, err := f.NewPrimitive(ctx)
	if err != nil {
		return nil, err
	}
	return newBase(p, r, opts), nil
}

// NewWithAttrs creates a Base from a display context and attribute set.
func NewWithAttrs(f Factory, ctx Context, attrs AttributeSet, r Releaser, opts ...Option) (*Base, error) {
	if err := checkArgs(f, r); err != nil {
		return nil, err
	}
	p, err := f.NewPrimitiveWithAttrs(ctx, attrs)
	if err != nil {
		return nil, err
	}
	return newBase(p, r, opts), nil
}

// NewWithStyle creates a Base from a display context, attribute set, and
// default style attribute.
func NewWithStyle(f Factory, ctx Context, attrs AttributeSet, styleAttr int, r Releaser, opts ...Option) (*Base, error) {
	if err := checkArgs(f, r); err != nil {
		return nil, err
	}
	p, err := f.NewPrimitiveWithStyle(ctx, attrs, styleAttr)
	if err != nil {
		return nil, err
	}
	return newBase(p, r, opts), nil
}

// NewWithStyleRes creates a Base from a display context, attribute set,
// default style attribute, and default style resource.
func NewWithStyleRes(f Factory, ctx Context, attrs AttributeSet, styleAttr, styleRes int, r Releaser, opts ...Option) (*Base, error) {
	if err := checkArgs(f, r); err != nil {
		return nil, err
	}
	p, err := f.NewPrimitiveWithStyleRes(ctx, attrs, styleAttr, styleRes)
	if err != nil {
		return nil, err
	}
	return newBase(p, r, opts), nil
}

func checkArgs(f Factory, r Releaser) error {
	if f == nil {
		return ErrNilFactory
	}
	if r == nil {
		return ErrNilReleaser
	}
	if fn, ok := r.(ReleaseFunc); ok && fn == nil {
		return ErrNilReleaser
	}
	return nil
}

func newBase(p Primitive, r Releaser, opts []Option) *Base {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	h := &releaseHook{
		releaser: r,
		label:    o.label,
		tracker:  o.tracker,
	}
	b := &Base{Primitive: p, hook: h}
	if h.tracker != nil && !h.tracker.track(b, h) {
		h.tracker = nil
	}
	b.cleanup = runtime.AddCleanup(b, reclaim, h)

	Logger().Debug("gpuview: view created", "label", h.label, "tracked", h.tracker != nil)
	return b
}

// reclaim is the terminal reclamation hook. It runs on the runtime cleanup
// goroutine, so it must not block: tracked views are handed to their
// tracker, untracked views are released in place.
func reclaim(h *releaseHook) {
	if h.tracker != nil {
		h.tracker.orphan(h)
		return
	}
	if err := h.fire(); err != nil {
		Logger().Warn("gpuview: release on reclamation failed", "label", h.label, "err", err)
	}
}

// fire runs the releaser if nothing has run it yet.
func (h *releaseHook) fire() error {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	return h.invoke()
}

// invoke calls the releaser, converting a panic into a ReleaseError.
func (h *releaseHook) invoke() (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &ReleaseError{Label: h.label, Value: v}
		}
	}()
	h.releaser.Release()
	Logger().Debug("gpuview: view released", "label", h.label)
	return nil
}

// Close releases the view's GPU resources.
//
// The first call cancels the reclamation hook, removes the view from its
// tracker, and runs the Releaser on the calling goroutine. Later calls do
// nothing and return nil. A panic inside the Releaser is recovered, logged,
// and returned as a *ReleaseError; the view is released either way.
func (b *Base) Close() error {
	_, err := b.close()
	return err
}

// close reports whether this call released the view.
func (b *Base) close() (bool, error) {
	h := b.hook
	if !h.released.CompareAndSwap(false, true) {
		return false, nil
	}
	b.cleanup.Stop()
	if h.tracker != nil {
		h.tracker.untrack(h.id)
	}
	if err := h.invoke(); err != nil {
		Logger().Warn("gpuview: release failed", "label", h.label, "err", err)
		return true, err
	}
	return true, nil
}

// State returns the current release state.
func (b *Base) State() State {
	if b.hook.released.Load() {
		return StateReleased
	}
	return StateActive
}

// Released reports whether the Releaser has run.
func (b *Base) Released() bool {
	return b.hook.released.Load()
}

// Label returns the debug label set with WithLabel.
func (b *Base) Label() string {
	return b.hook.label
}

// Underlying returns the wrapped surface-view primitive.
func (b *Base) Underlying() Primitive {
	return b.Primitive
}
