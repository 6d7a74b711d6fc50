// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpuview

import (
	"errors"
	"fmt"
)

// Common errors returned by view construction.
var (
	// ErrNilFactory is returned when a constructor receives a nil Factory.
	ErrNilFactory = errors.New("gpuview: nil Factory")

	// ErrNilReleaser is returned when a constructor receives a nil Releaser.
	ErrNilReleaser = errors.New("gpuview: nil Releaser")

	// ErrInvalidContext is wrapped by a ConfigurationError when a primitive
	// rejects the display context it was given.
	ErrInvalidContext = errors.New("gpuview: invalid context")
)

// ConfigurationError reports construction parameters rejected by the
// surface-view primitive. It is returned synchronously from the
// constructor and is fatal to that construction attempt.
type ConfigurationError struct {
	// Op names the construction operation that failed.
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *ConfigurationError) Error() string {
	return "gpuview: " + e.Op + ": " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ReleaseError records a panic recovered from a Releaser.
//
// Release failures are contained: the reclamation hook logs them and
// drops them, Tracker.Sweep aggregates them for the owner, and Close
// hands them back to the explicit caller.
type ReleaseError struct {
	// Label is the label of the view whose release failed.
	Label string

	// Value is the recovered panic value.
	Value any
}

func (e *ReleaseError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("gpuview: release panicked: %v", e.Value)
	}
	return fmt.Sprintf("gpuview: release of %q panicked: %v", e.Label, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *ReleaseError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
