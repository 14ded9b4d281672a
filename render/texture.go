// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const bytesPerPixel = 4 // RGBA8

// TextureTarget is a GPU texture-backed Target over the wgpu HAL.
//
// The target owns its hal.Texture: Resize destroys and recreates it, and
// Destroy releases it. Pixel data reaches the texture through Upload, which
// writes a full-frame RGBA buffer via the HAL queue.
//
// TextureTarget is safe for concurrent use.
type TextureTarget struct {
	mu sync.RWMutex

	device  hal.Device
	queue   hal.Queue
	texture hal.Texture
	view    hal.TextureView

	width, height int
	label         string
	destroyed     bool
}

// NewTextureTarget creates a GPU texture target. Options must carry a HAL
// device; a queue is required only if Upload will be used.
func NewTextureTarget(opts Options) (*TextureTarget, error) {
	if opts.Device == nil {
		return nil, ErrNilDevice
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, &InvalidSizeError{Width: opts.Width, Height: opts.Height}
	}

	t := &TextureTarget{
		device: opts.Device,
		queue:  opts.Queue,
		width:  opts.Width,
		height: opts.Height,
		label:  opts.Label,
	}
	if err := t.createTexture(); err != nil {
		return nil, err
	}
	return t, nil
}

// createTexture allocates the HAL texture and its default view.
// Caller must hold no lock (construction) or the write lock (resize).
func (t *TextureTarget) createTexture() error {
	desc := &hal.TextureDescriptor{
		Label: t.label,
		Size: hal.Extent3D{
			Width:              uint32(t.width),
			Height:             uint32(t.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	}

	texture, err := t.device.CreateTexture(desc)
	if err != nil {
		return fmt.Errorf("render: HAL texture creation failed: %w", err)
	}

	view, err := t.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:     t.label,
		Format:    gputypes.TextureFormatUndefined,
		Dimension: gputypes.TextureViewDimensionUndefined,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		t.device.DestroyTexture(texture)
		return fmt.Errorf("render: HAL texture view creation failed: %w", err)
	}

	t.texture = texture
	t.view = view
	return nil
}

// Width returns the target width in pixels.
func (t *TextureTarget) Width() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.width
}

// Height returns the target height in pixels.
func (t *TextureTarget) Height() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height
}

// Format returns the pixel format (RGBA8).
func (t *TextureTarget) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Pixels returns nil; the texture lives on the GPU.
func (t *TextureTarget) Pixels() []byte { return nil }

// Stride returns the number of bytes per row.
func (t *TextureTarget) Stride() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.width * bytesPerPixel
}

// Texture returns the underlying HAL texture handle, or nil after Destroy.
func (t *TextureTarget) Texture() hal.Texture {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.destroyed {
		return nil
	}
	return t.texture
}

// View returns the texture's default view, or nil after Destroy.
func (t *TextureTarget) View() hal.TextureView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.destroyed {
		return nil
	}
	return t.view
}

// Upload writes a full frame of RGBA pixels to the texture. The buffer
// length must be exactly width*height*4.
func (t *TextureTarget) Upload(data []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.destroyed {
		return ErrTargetDestroyed
	}
	if t.queue == nil {
		return ErrNilQueue
	}
	want := t.width * t.height * bytesPerPixel
	if len(data) != want {
		return &UploadSizeError{Got: len(data), Want: want}
	}

	dst := &hal.ImageCopyTexture{
		Texture:  t.texture,
		MipLevel: 0,
		Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
		Aspect:   gputypes.TextureAspectAll,
	}
	layout := &hal.ImageDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(t.width * bytesPerPixel),
		RowsPerImage: uint32(t.height),
	}
	size := &hal.Extent3D{
		Width:              uint32(t.width),
		Height:             uint32(t.height),
		DepthOrArrayLayers: 1,
	}

	if err := t.queue.WriteTexture(dst, data, layout, size); err != nil {
		return fmt.Errorf("render: HAL texture upload failed: %w", err)
	}
	return nil
}

// Resize destroys the texture and recreates it at the new dimensions.
// Contents are not preserved.
func (t *TextureTarget) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return &InvalidSizeError{Width: width, Height: height}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.destroyed {
		return ErrTargetDestroyed
	}
	if width == t.width && height == t.height {
		return nil
	}

	t.releaseLocked()
	t.width, t.height = width, height
	return t.createTexture()
}

// Destroy releases the texture and its view. Destroy is idempotent.
func (t *TextureTarget) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.destroyed {
		return
	}
	t.destroyed = true
	t.releaseLocked()
}

// releaseLocked frees HAL resources. Caller must hold the write lock.
func (t *TextureTarget) releaseLocked() {
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		t.device.DestroyTexture(t.texture)
		t.texture = nil
	}
}

var _ Target = (*TextureTarget)(nil)
