// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package texview provides a surface view backed by a GPU render target.
//
// A View owns a HAL texture and texture view sized to its layout. Every
// HAL call is made on a gputhread.Thread: creation through Thread.Do,
// destruction through Thread.Post. Release is therefore safe from any
// goroutine, including the runtime cleanup goroutine that runs when a
// View is reclaimed without Close.
//
//	tracker := gpuview.NewTracker()
//	th := gputhread.New(gputhread.WithTracker(tracker))
//	th.Start()
//	defer th.RequestExitAndWait()
//
//	v, err := texview.New(th, surface.Factory{}, provider, nil)
//	if err != nil {
//		return err
//	}
//	defer v.Close()
//	if err := v.Resize(ctx, 800, 600); err != nil {
//		return err
//	}
//
// Replaced render targets are retired, not destroyed, so command buffers
// recorded before a resize stay valid. A small LRU bounds how many are
// kept; eviction destroys them.
package texview
