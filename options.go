// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

import "github.com/gogpu/overlay/render"

// Option configures a Registry.
type Option func(*Registry)

// WithScreenSize sets the initial host viewport dimensions.
func WithScreenSize(width, height int) Option {
	return func(r *Registry) {
		r.screenW = width
		r.screenH = height
	}
}

// WithRenderOptions sets the base render options used when allocating
// overlay targets. Per-overlay width, height and label are filled in at
// create time.
func WithRenderOptions(opts render.Options) Option {
	return func(r *Registry) {
		r.renderOpts = opts
	}
}

// WithBackend sets the default render backend for new overlays.
// An empty name selects the best available backend.
func WithBackend(name string) Option {
	return func(r *Registry) {
		r.backend = name
	}
}
