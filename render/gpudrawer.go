// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"

	"github.com/gogpu/gpucontext"
)

// textureDestroyer matches the Destroy method on host texture types.
type textureDestroyer interface {
	Destroy()
}

// cachedTexture tracks the host texture created for a target, plus the
// dimensions it was created at so resizes are detected.
type cachedTexture struct {
	tex    gpucontext.Texture
	width  int
	height int
}

// ContextDrawer presents CPU-accessible targets through a host
// gpucontext.TextureDrawer, uploading pixels into host-owned textures.
//
// Textures are created lazily per target and updated in place while the
// target size is stable. On resize the old texture is kept alive until the
// replacement upload completes; the upload path waits for the GPU, after
// which destroying the old texture is safe.
//
// ContextDrawer is not safe for concurrent use.
type ContextDrawer struct {
	dc    gpucontext.TextureDrawer
	cache map[Target]*cachedTexture
	old   []gpucontext.Texture
}

// NewContextDrawer creates a drawer presenting through the given host draw
// context.
func NewContextDrawer(dc gpucontext.TextureDrawer) (*ContextDrawer, error) {
	if dc == nil {
		return nil, ErrNilDrawContext
	}
	return &ContextDrawer{
		dc:    dc,
		cache: make(map[Target]*cachedTexture),
	}, nil
}

// Begin starts a composite pass.
func (d *ContextDrawer) Begin(Frame) error { return nil }

// Draw uploads the target's pixels if needed and draws the texture at (x, y).
func (d *ContextDrawer) Draw(t Target, x, y int) error {
	pix := t.Pixels()
	if pix == nil {
		return ErrNoPixels
	}

	tex, err := d.textureFor(t, pix)
	if err != nil {
		return err
	}
	return d.dc.DrawTexture(tex, float32(x), float32(y))
}

// End destroys textures retired during the pass. Draw's upload waited for
// the GPU, so nothing in flight still references them.
func (d *ContextDrawer) End() error {
	for _, tex := range d.old {
		if destroyer, ok := tex.(textureDestroyer); ok {
			destroyer.Destroy()
		}
	}
	d.old = d.old[:0]
	return nil
}

// textureFor returns an up-to-date host texture for the target, creating
// or recreating it as needed.
func (d *ContextDrawer) textureFor(t Target, pix []byte) (gpucontext.Texture, error) {
	w, h := t.Width(), t.Height()

	if entry, ok := d.cache[t]; ok {
		if entry.width == w && entry.height == h {
			if updater, ok := entry.tex.(gpucontext.TextureUpdater); ok {
				if err := updater.UpdateData(pix); err != nil {
					return nil, fmt.Errorf("render: texture update failed: %w", err)
				}
				return entry.tex, nil
			}
			// No in-place update path; fall through to recreate.
		}
		// Size changed (or texture is not updatable). Retire the old
		// texture; destroy after this pass's uploads have drained.
		d.old = append(d.old, entry.tex)
		delete(d.cache, t)
	}

	creator := d.dc.TextureCreator()
	if creator == nil {
		return nil, ErrNoTextureCreator
	}

	tex, err := creator.NewTextureFromRGBA(w, h, pix)
	if err != nil {
		return nil, fmt.Errorf("render: NewTextureFromRGBA failed: %w", err)
	}

	// Overlay pixels are premultiplied alpha. Mark the texture so the host
	// picks the matching blend pipeline.
	if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
		pt.SetPremultiplied(true)
	}

	d.cache[t] = &cachedTexture{tex: tex, width: w, height: h}
	return tex, nil
}

// Release destroys every cached texture. Call when the drawer is retired.
func (d *ContextDrawer) Release() {
	for t, entry := range d.cache {
		if destroyer, ok := entry.tex.(textureDestroyer); ok {
			destroyer.Destroy()
		}
		delete(d.cache, t)
	}
	_ = d.End()
}

// Forget drops the cached texture for a target, destroying it. Call when
// an overlay is shut down so its texture does not outlive it.
func (d *ContextDrawer) Forget(t Target) {
	entry, ok := d.cache[t]
	if !ok {
		return
	}
	if destroyer, ok := entry.tex.(textureDestroyer); ok {
		destroyer.Destroy()
	}
	delete(d.cache, t)
}

var _ Drawer = (*ContextDrawer)(nil)
