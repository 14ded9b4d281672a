// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package overlay hosts multiple independently rendered UI surfaces inside
// a single application and composites them in a deterministic stacking
// order.
//
// The Registry owns every overlay: its Z-order, keyboard focus, visibility,
// position, and lifecycle. Pointer, keyboard, and cursor events enter
// through the Route* methods and are delivered to exactly one surface,
// decided by per-surface hit-testing over an accessibility-style node tree
// (package semantics). Each overlay additionally owns a task scheduler
// (package task) with a dedicated worker goroutine, so per-surface work
// never contends with compositing or routing.
//
// Pixels are out of scope: overlays draw into render.Target backends and
// the host presents them through a render.Drawer. The Registry only
// orchestrates who is on top, who has focus, and who receives input.
//
// Basic usage:
//
//	reg := overlay.NewRegistry(overlay.WithScreenSize(1920, 1080))
//	defer reg.ShutdownAll()
//
//	err := reg.Create("hud", overlay.CreateParams{
//	    Width: 400, Height: 300,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Per frame:
//	reg.Composite(drawer)
//
// By default the package produces no log output; call SetLogger to enable
// logging.
package overlay
