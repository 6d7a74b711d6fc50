// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the surface-view primitive that gpuview.Base
// extends.
//
// A View is a rectangle in the display tree backed by the host's GPU
// context. It records the configuration it was constructed with and owns
// the attach/detach/layout lifecycle. It does not render and it does not
// own GPU resources; types built on gpuview.Base do.
//
// # Construction
//
// Factory implements gpuview.Factory with the primitive's four
// constructor forms:
//
//	(context)
//	(context, attributes)
//	(context, attributes, styleAttr)
//	(context, attributes, styleAttr, styleRes)
//
// A nil context is rejected with a *gpuview.ConfigurationError. Nothing
// else is validated; attributes and style identifiers are stored as given.
//
// # Registry
//
// Alternative primitives can register themselves by name and priority:
//
//	func init() {
//	    surface.Register("offscreen", 50, offscreenFactory{}, offscreenAvailable)
//	}
//
//	// Later:
//	f, err := surface.Default()
//	b, err := gpuview.New(f, ctx, releaser)
//
// The built-in Factory is registered as "view" with priority 10.
//
// # Thread Safety
//
// View methods are safe for concurrent use. Layout and detach listeners run
// on the goroutine that triggered them, after the view's lock is released.
package surface
