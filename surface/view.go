// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"sync"

	"github.com/gogpu/gpuview"
)

// Config is the configuration a View was constructed with.
// Values are exactly what the caller passed; nothing is copied or resolved.
type Config struct {
	// Context is the display context.
	Context gpuview.Context

	// Attrs is the attribute set, nil for the context-only form.
	Attrs gpuview.AttributeSet

	// StyleAttr is the default style attribute, 0 when not supplied.
	StyleAttr int

	// StyleRes is the default style resource, 0 when not supplied.
	StyleRes int

	// Params is the number of constructor parameters supplied (1 to 4).
	Params int
}

// LayoutListener is called after a View changes size.
type LayoutListener func(width, height, oldWidth, oldHeight int)

// View is the reference surface-view primitive.
//
// It implements gpuview.Primitive.
type View struct {
	config Config

	mu       sync.Mutex
	attached bool
	width    int
	height   int
	onLayout []LayoutListener
	onDetach []func()
}

func newView(cfg Config) *View {
	return &View{config: cfg}
}

// Config returns the configuration the view was constructed with.
func (v *View) Config() Config {
	return v.config
}

// Attach connects the view to the display tree. Attaching twice is a no-op.
func (v *View) Attach() {
	v.mu.Lock()
	v.attached = true
	v.mu.Unlock()
}

// Detach disconnects the view from the display tree and notifies detach
// listeners. Detaching a detached view does nothing.
func (v *View) Detach() {
	v.mu.Lock()
	if !v.attached {
		v.mu.Unlock()
		return
	}
	v.attached = false
	listeners := append([]func(){}, v.onDetach...)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Attached reports whether the view is attached to the display tree.
func (v *View) Attached() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attached
}

// Layout sets the view size. Negative dimensions are clamped to zero.
// Layout listeners run only when the size actually changes.
func (v *View) Layout(width, height int) {
	width = max(width, 0)
	height = max(height, 0)

	v.mu.Lock()
	oldW, oldH := v.width, v.height
	if oldW == width && oldH == height {
		v.mu.Unlock()
		return
	}
	v.width, v.height = width, height
	listeners := append([]LayoutListener(nil), v.onLayout...)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(width, height, oldW, oldH)
	}
}

// Size returns the current view size.
func (v *View) Size() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// OnLayoutChange registers a listener for size changes.
func (v *View) OnLayoutChange(fn LayoutListener) {
	if fn == nil {
		return
	}
	v.mu.Lock()
	v.onLayout = append(v.onLayout, fn)
	v.mu.Unlock()
}

// OnDetach registers a listener called when the view leaves the display tree.
func (v *View) OnDetach(fn func()) {
	if fn == nil {
		return
	}
	v.mu.Lock()
	v.onDetach = append(v.onDetach, fn)
	v.mu.Unlock()
}

// Verify View implements gpuview.Primitive.
var _ gpuview.Primitive = (*View)(nil)
