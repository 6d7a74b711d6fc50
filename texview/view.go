// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package texview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/gpuview"
	"github.com/gogpu/gpuview/gputhread"
	"github.com/gogpu/wgpu/hal"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors returned by View operations.
var (
	// ErrNilThread is returned when New is called without an owner thread.
	ErrNilThread = errors.New("texview: nil owner thread")

	// ErrNoHalDevice is wrapped in a *gpuview.ConfigurationError when the
	// context does not expose a HAL device.
	ErrNoHalDevice = errors.New("texview: context does not expose a HAL device")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("texview: invalid dimensions")

	// ErrReleased is returned when operations are attempted on a released view.
	ErrReleased = errors.New("texview: view is released")
)

// detachNotifier is implemented by primitives that report leaving the
// display tree, such as *surface.View.
type detachNotifier interface {
	OnDetach(fn func())
}

// halProvider is implemented by contexts that expose their HAL device,
// such as gogpu.App's GPU context provider.
type halProvider interface {
	HalDevice() any
}

// View is a surface view that owns a GPU render target.
//
// The render target is created on the owner thread the first time the
// view is resized and recreated whenever its size changes. When the
// primitive reports a detach, the render targets are destroyed and the
// next Resize allocates a fresh one. Close (promoted from gpuview.Base)
// releases them; if Close is never called, reclamation does. Either way
// the GPU deletion calls run on the owner thread.
type View struct {
	*gpuview.Base

	res *resources
}

// resources is the Releaser of a View. It must not point back at the View.
type resources struct {
	thread *gputhread.Thread
	device hal.Device
	format gputypes.TextureFormat
	label  string
	maxDim uint32

	mu       sync.Mutex
	current  *target
	retired  *lru.Cache[uint64, *target]
	gen      uint64
	released atomic.Bool
}

// New creates a View on the primitive built by f from ctx and attrs.
//
// ctx must expose a HAL device (HalDevice() any returning hal.Device). The
// view is tracked by the thread's tracker, if it has one, unless
// WithTracker says otherwise. New returns gputhread.ErrExited if the thread
// has already exited.
func New(thread *gputhread.Thread, f gpuview.Factory, ctx gpuview.Context, attrs gpuview.AttributeSet, opts ...Option) (*View, error) {
	if thread == nil {
		return nil, ErrNilThread
	}
	if thread.Exited() {
		return nil, gputhread.ErrExited
	}

	o := defaultOptions(thread, ctx)
	for _, opt := range opts {
		opt(&o)
	}

	device, err := halDevice(ctx)
	if err != nil {
		return nil, err
	}

	res := &resources{
		thread: thread,
		device: device,
		format: o.format,
		label:  o.label,
		maxDim: o.maxDim,
	}
	res.retired, err = lru.NewWithEvict[uint64, *target](o.retired, res.onEvict)
	if err != nil {
		return nil, fmt.Errorf("texview: retired set: %w", err)
	}

	baseOpts := []gpuview.Option{gpuview.WithLabel(o.label)}
	if o.tracker != nil {
		baseOpts = append(baseOpts, gpuview.WithTracker(o.tracker))
	}
	base, err := gpuview.NewWithAttrs(f, ctx, attrs, res, baseOpts...)
	if err != nil {
		return nil, err
	}
	if d, ok := base.Underlying().(detachNotifier); ok {
		d.OnDetach(res.detach)
	}

	return &View{Base: base, res: res}, nil
}

func halDevice(ctx gpuview.Context) (hal.Device, error) {
	hp, ok := ctx.(halProvider)
	if !ok {
		return nil, &gpuview.ConfigurationError{Op: "texview.New", Err: ErrNoHalDevice}
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, &gpuview.ConfigurationError{Op: "texview.New", Err: ErrNoHalDevice}
	}
	return device, nil
}

// Resize lays the view out at width x height and makes sure its render
// target matches, waiting for the owner thread to finish. The previous
// target is retired rather than destroyed because in-flight command
// buffers may still sample it; it is destroyed when it falls out of the
// retired set or when the view is released.
//
// Sizes must be positive and no larger than the maximum texture dimension
// (see WithMaxDimension).
func (v *View) Resize(ctx context.Context, width, height int) error {
	limit := uint64(v.res.maxDim)
	if width <= 0 || height <= 0 || uint64(width) > limit || uint64(height) > limit {
		return fmt.Errorf("%w: width=%d, height=%d, max=%d", ErrInvalidDimensions, width, height, limit)
	}
	if v.Released() {
		return ErrReleased
	}

	v.Layout(width, height)

	res := v.res
	return res.thread.Do(ctx, func() error {
		return res.ensure(uint32(width), uint32(height))
	})
}

// Target returns the current render target texture and view.
// Both are nil before the first Resize and after release.
func (v *View) Target() (hal.Texture, hal.TextureView) {
	v.res.mu.Lock()
	defer v.res.mu.Unlock()
	if v.res.current == nil {
		return nil, nil
	}
	return v.res.current.texture, v.res.current.view
}

// TargetSize returns the size of the current render target, or zero.
func (v *View) TargetSize() (width, height uint32) {
	v.res.mu.Lock()
	defer v.res.mu.Unlock()
	if v.res.current == nil {
		return 0, 0
	}
	return v.res.current.width, v.res.current.height
}

// Retired returns the number of retired targets awaiting destruction.
func (v *View) Retired() int {
	return v.res.retired.Len()
}

// Format returns the render target texture format.
func (v *View) Format() gputypes.TextureFormat {
	return v.res.format
}

// ensure creates or recreates the render target. Runs on the owner thread.
func (r *resources) ensure(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released.Load() {
		return ErrReleased
	}
	if c := r.current; c != nil && c.width == width && c.height == height {
		return nil
	}

	t, err := newTarget(r.device, r.label, r.format, width, height)
	if err != nil {
		return err
	}
	if r.current != nil {
		r.gen++
		r.retired.Add(r.gen, r.current)
	}
	r.current = t

	gpuview.Logger().Debug("texview: render target created",
		"label", r.label, "width", width, "height", height, "retired", r.retired.Len())
	return nil
}

// onEvict destroys a retired target. Evictions happen inside ensure and
// destroyTargets, both of which run on the owner thread.
func (r *resources) onEvict(_ uint64, t *target) {
	t.destroy(r.device)
}

// Release hands destruction of every render target to the owner thread
// and returns without waiting. It is idempotent.
func (r *resources) Release() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}
	if err := r.thread.Post(r.destroyAll); err != nil {
		// The device went away with the thread; its textures went with it.
		gpuview.Logger().Warn("texview: owner thread gone, render targets not destroyed",
			"label", r.label, "err", err)
	}
}

// detach drops the render targets of a view that left the display tree.
func (r *resources) detach() {
	if r.released.Load() {
		return
	}
	if err := r.thread.Post(r.dropTargets); err != nil {
		gpuview.Logger().Debug("texview: owner thread gone, detach ignored",
			"label", r.label, "err", err)
	}
}

// dropTargets runs on the owner thread.
func (r *resources) dropTargets() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.destroyTargets()
	gpuview.Logger().Debug("texview: render targets dropped on detach", "label", r.label)
}

// destroyAll runs on the owner thread.
func (r *resources) destroyAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.destroyTargets()
	gpuview.Logger().Debug("texview: render targets destroyed", "label", r.label)
}

// destroyTargets destroys the current and retired targets. r.mu must be held.
func (r *resources) destroyTargets() {
	r.retired.Purge()
	if r.current != nil {
		r.current.destroy(r.device)
		r.current = nil
	}
}
