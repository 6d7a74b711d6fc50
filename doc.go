// Package gpuview guarantees that GPU resources owned by a surface view are
// released exactly once, no later than when the view is reclaimed.
//
// # Overview
//
// A Base wraps a view primitive built by a Factory and pairs it with a
// Releaser. Release runs at most once: on the first Close, or, if Close is
// never called, when the garbage collector reclaims the Base. Concrete
// views embed *Base and implement Releaser on a separate value that does
// not point back at the view.
//
// # Quick Start
//
//	b, err := gpuview.New(surface.Factory{}, provider, gpuview.ReleaseFunc(func() {
//		_ = thread.Post(destroyTextures)
//	}))
//	if err != nil {
//		return err
//	}
//	defer b.Close()
//
// # Threading
//
// Reclamation runs on the runtime cleanup goroutine, not on the thread that
// owns the GPU context. A Releaser used without a Tracker must therefore
// marshal its work, typically with gputhread.Thread.Post. A Base created
// WithTracker never releases from the cleanup goroutine: reclamation only
// queues its Releaser, and the owner calls Tracker.Sweep to release queued
// views on its own thread.
//
// # Packages
//
//   - gpuview: Base, Tracker, errors, logging
//   - surface: the default view primitive, its Factory, and a factory registry
//   - gputhread: the GPU owner thread
//   - texview: a view backed by a HAL render target
package gpuview

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
