// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render defines where overlay surfaces put their pixels and how
// the compositor gets them back out.
//
// Each overlay owns one Target. The compositor never inspects target
// internals; it hands targets to a Drawer, which either reads Pixels (CPU
// path) or uses the GPU handle (texture path). Backends register themselves
// by name and priority, so hosts can force a specific backend or let the
// best available one win.
package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host owns the device; this package only receives it. DeviceHandle is
// an alias for gpucontext.DeviceProvider so host frameworks built on the
// gpucontext ecosystem plug in without adapters.
type DeviceHandle = gpucontext.DeviceProvider

// Target is the render destination owned by a single overlay.
//
// Targets may support CPU access (Pixels), GPU access (texture backends),
// or both. The Drawer implementation chooses the appropriate access method.
type Target interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Format returns the pixel format of the target.
	Format() gputypes.TextureFormat

	// Pixels returns direct access to pixel data in row-major RGBA order.
	// Returns nil for GPU-only targets.
	Pixels() []byte

	// Stride returns the number of bytes per row.
	Stride() int

	// Resize reallocates the target at the new dimensions. Contents are
	// not preserved. Returns an error if the dimensions are invalid or the
	// backing resource cannot be recreated.
	Resize(width, height int) error

	// Destroy releases any resources backing the target. Destroy is
	// idempotent.
	Destroy()
}

// PixmapTarget is a CPU-backed Target using *image.RGBA. It is the default
// backend and the one the software compositor consumes directly.
type PixmapTarget struct {
	img *image.RGBA
}

// NewPixmapTarget creates a CPU-backed target. Width and height must be
// positive.
func NewPixmapTarget(width, height int) (*PixmapTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, &InvalidSizeError{Width: width, Height: height}
	}
	return &PixmapTarget{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

// NewPixmapTargetFromImage wraps an existing *image.RGBA as a target.
// The image is used directly without copying.
func NewPixmapTargetFromImage(img *image.RGBA) *PixmapTarget {
	return &PixmapTarget{img: img}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int { return t.img.Bounds().Dx() }

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int { return t.img.Bounds().Dy() }

// Format returns the pixel format (RGBA8).
func (t *PixmapTarget) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Pixels returns direct access to the pixel data.
func (t *PixmapTarget) Pixels() []byte { return t.img.Pix }

// Stride returns the number of bytes per row.
func (t *PixmapTarget) Stride() int { return t.img.Stride }

// Image returns the underlying *image.RGBA. The returned image shares
// memory with the target.
func (t *PixmapTarget) Image() *image.RGBA { return t.img }

// Fill sets every pixel to the given color.
func (t *PixmapTarget) Fill(c color.Color) {
	r, g, b, a := c.RGBA()
	rgba := color.RGBA{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
		A: uint8(a >> 8),
	}
	bounds := t.img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			t.img.SetRGBA(x, y, rgba)
		}
	}
}

// Resize reallocates the pixmap. Contents are not preserved.
func (t *PixmapTarget) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return &InvalidSizeError{Width: width, Height: height}
	}
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Destroy is a no-op for CPU targets; the pixmap is garbage collected.
func (t *PixmapTarget) Destroy() {}

var _ Target = (*PixmapTarget)(nil)
