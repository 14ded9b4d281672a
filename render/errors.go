// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
)

// Errors.
var (
	// ErrNoBackendAvailable is returned when no target backends are
	// registered or available on the current system.
	ErrNoBackendAvailable = errors.New("render: no backend available")

	// ErrNilDevice is returned when a GPU-backed target is requested
	// without a HAL device.
	ErrNilDevice = errors.New("render: HAL device is nil")

	// ErrNilQueue is returned when uploading to a GPU target without a
	// HAL queue.
	ErrNilQueue = errors.New("render: HAL queue is nil")

	// ErrTargetDestroyed is returned when operating on a destroyed target.
	ErrTargetDestroyed = errors.New("render: target has been destroyed")

	// ErrNoPixels is returned when a drawer needs CPU pixel access but the
	// target does not provide it.
	ErrNoPixels = errors.New("render: target has no CPU-accessible pixels")

	// ErrNilDrawContext is returned when a GPU drawer is constructed
	// without a texture draw context.
	ErrNilDrawContext = errors.New("render: nil texture draw context")

	// ErrNoTextureCreator is returned when the draw context cannot create
	// textures.
	ErrNoTextureCreator = errors.New("render: draw context has no texture creator")
)

// InvalidSizeError indicates non-positive target dimensions.
type InvalidSizeError struct {
	Width, Height int
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("render: invalid target size %dx%d", e.Width, e.Height)
}

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "render: backend not found: " + e.Name
}

// BackendUnavailableError indicates a backend exists but is not available.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "render: backend unavailable: " + e.Name
}

// UploadSizeError indicates a pixel buffer that does not match the target
// dimensions.
type UploadSizeError struct {
	Got, Want int
}

func (e *UploadSizeError) Error() string {
	return fmt.Sprintf("render: upload size mismatch: got %d bytes, want %d", e.Got, e.Want)
}
