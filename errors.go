// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

import "errors"

// Errors.
var (
	// ErrNoOverlay is returned when an operation targeting the single
	// active overlay finds none.
	ErrNoOverlay = errors.New("overlay: no active overlay")

	// ErrAmbiguousOverlay is returned when an operation targets the single
	// active overlay but multiple exist; an explicit id is required.
	ErrAmbiguousOverlay = errors.New("overlay: multiple overlays exist, identifier required")

	// ErrNoPort is returned by message posting when the target overlay has
	// no registered port.
	ErrNoPort = errors.New("overlay: no port registered")

	// ErrInvalidSize is returned for non-positive overlay dimensions.
	ErrInvalidSize = errors.New("overlay: invalid dimensions")

	// ErrNoTarget is returned when an overlay has no render target.
	ErrNoTarget = errors.New("overlay: no render target")
)

// UnknownOverlayError indicates an id that is not registered.
type UnknownOverlayError struct {
	ID string
}

func (e *UnknownOverlayError) Error() string {
	return "overlay: unknown overlay: " + e.ID
}
