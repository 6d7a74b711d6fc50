// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpuview

import (
	"maps"
	"slices"

	"github.com/gogpu/gpucontext"
)

// Context is the display context a view is created against.
//
// It is the gpucontext.DeviceProvider of the host application (e.g.
// gogpu.App), so views share the host's GPU device rather than creating
// their own.
type Context = gpucontext.DeviceProvider

// AttributeSet carries declarative view attributes through to the
// surface-view primitive. gpuview never interprets them.
type AttributeSet map[string]string

// Lookup returns the attribute value for key and whether it was set.
func (a AttributeSet) Lookup(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// Get returns the attribute value for key, or "" if it is not set.
func (a AttributeSet) Get(key string) string {
	return a[key]
}

// Keys returns the attribute names in sorted order.
func (a AttributeSet) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// Primitive is the platform surface-view primitive that Base extends.
//
// The primitive owns display attachment, size, and configuration; Base
// embeds it so its lifecycle methods are promoted unchanged.
type Primitive interface {
	// Attach connects the view to the display tree.
	Attach()

	// Detach disconnects the view from the display tree.
	Detach()

	// Attached reports whether the view is currently attached.
	Attached() bool

	// Layout assigns a new size to the view.
	Layout(width, height int)

	// Size returns the current view size.
	Size() (width, height int)
}

// Factory builds surface-view primitives. Its four constructors mirror the
// primitive's own overload set; Base forwards to them without validation.
type Factory interface {
	// NewPrimitive builds a primitive from a display context alone.
	NewPrimitive(ctx Context) (Primitive, error)

	// NewPrimitiveWithAttrs builds a primitive from a context and attributes.
	NewPrimitiveWithAttrs(ctx Context, attrs AttributeSet) (Primitive, error)

	// NewPrimitiveWithStyle additionally applies a default style attribute.
	NewPrimitiveWithStyle(ctx Context, attrs AttributeSet, styleAttr int) (Primitive, error)

	// NewPrimitiveWithStyleRes additionally applies a default style resource.
	NewPrimitiveWithStyleRes(ctx Context, attrs AttributeSet, styleAttr, styleRes int) (Primitive, error)
}
