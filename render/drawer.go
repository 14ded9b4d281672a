// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/draw"
	"time"

	xdraw "golang.org/x/image/draw"
)

// Frame carries the per-pass parameters handed to a Drawer at the start of
// each composite.
type Frame struct {
	// Elapsed is the compositor clock at the time of the pass. The clock
	// excludes paused time, so animations driven from it freeze cleanly.
	Elapsed time.Duration

	// ScreenWidth and ScreenHeight are the host surface dimensions in
	// pixels.
	ScreenWidth  int
	ScreenHeight int
}

// Drawer presents overlay targets onto some destination. Implementations
// are the rendering collaborator of the compositor: it calls Begin once per
// pass, Draw once per visible overlay in back-to-front order, then End.
type Drawer interface {
	// Begin starts a composite pass.
	Begin(f Frame) error

	// Draw presents one overlay target with its top-left corner at the
	// screen position (x, y).
	Draw(t Target, x, y int) error

	// End finishes the pass.
	End() error
}

// SoftwareDrawer composites CPU-accessible targets onto an *image.RGBA
// using source-over alpha blending. A non-unit scale factor routes drawing
// through golang.org/x/image/draw for filtered scaling.
//
// SoftwareDrawer is not safe for concurrent use; composite passes are
// already serialized by the caller.
type SoftwareDrawer struct {
	dst    *image.RGBA
	scale  float64
	filter xdraw.Interpolator
}

// SoftwareOption configures a SoftwareDrawer.
type SoftwareOption func(*SoftwareDrawer)

// WithScale sets a uniform scale factor applied to every drawn target.
// Values <= 0 are ignored.
func WithScale(s float64) SoftwareOption {
	return func(d *SoftwareDrawer) {
		if s > 0 {
			d.scale = s
		}
	}
}

// WithFilter sets the interpolator used for scaled draws.
// Defaults to bilinear.
func WithFilter(f xdraw.Interpolator) SoftwareOption {
	return func(d *SoftwareDrawer) {
		if f != nil {
			d.filter = f
		}
	}
}

// NewSoftwareDrawer creates a drawer compositing into dst.
func NewSoftwareDrawer(dst *image.RGBA, opts ...SoftwareOption) *SoftwareDrawer {
	d := &SoftwareDrawer{
		dst:    dst,
		scale:  1,
		filter: xdraw.BiLinear,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Image returns the destination image.
func (d *SoftwareDrawer) Image() *image.RGBA { return d.dst }

// Begin clears nothing; the host decides whether the destination persists
// between passes.
func (d *SoftwareDrawer) Begin(Frame) error { return nil }

// Draw blends the target over the destination at (x, y).
func (d *SoftwareDrawer) Draw(t Target, x, y int) error {
	pix := t.Pixels()
	if pix == nil {
		return ErrNoPixels
	}

	src := &image.RGBA{
		Pix:    pix,
		Stride: t.Stride(),
		Rect:   image.Rect(0, 0, t.Width(), t.Height()),
	}

	if d.scale == 1 {
		r := src.Rect.Add(image.Pt(x, y))
		draw.Draw(d.dst, r, src, image.Point{}, draw.Over)
		return nil
	}

	w := int(float64(t.Width()) * d.scale)
	h := int(float64(t.Height()) * d.scale)
	r := image.Rect(x, y, x+w, y+h)
	d.filter.Scale(d.dst, r, src, src.Rect, xdraw.Over, nil)
	return nil
}

// End finishes the pass.
func (d *SoftwareDrawer) End() error { return nil }

var _ Drawer = (*SoftwareDrawer)(nil)
