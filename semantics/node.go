// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package semantics holds per-overlay snapshots of the accessibility-style
// node tree emitted by the embedded UI runtime, and answers spatial queries
// against them.
//
// The producer pushes whole-tree snapshots; there is no incremental node
// mutation. Hit-testing walks the tree from the root, mapping the query
// point through each node's inverse local transform and visiting children
// in reverse hit-test order so the topmost-drawn child wins.
package semantics

import (
	"strings"

	"github.com/gogpu/overlay/geom"
)

// RootID is the conventional id of the tree's root node.
const RootID int32 = 0

// Flags is a bitset of node capability and state tags.
type Flags uint32

const (
	// FlagHasCheckedState marks a node with checkable state (checkbox, radio).
	FlagHasCheckedState Flags = 1 << iota

	// FlagChecked marks a checked node.
	FlagChecked

	// FlagSelected marks a selected node.
	FlagSelected

	// FlagButton marks a tappable button.
	FlagButton

	// FlagTextField marks an editable text field.
	FlagTextField

	// FlagFocused marks the node holding input focus inside its surface.
	FlagFocused

	// FlagEnabled marks an enabled node.
	FlagEnabled

	// FlagHeader marks a header or title node.
	FlagHeader

	// FlagObscured marks a node whose content is visually obscured
	// (password fields).
	FlagObscured

	// FlagHidden marks a node excluded from presentation.
	FlagHidden

	// FlagImage marks an image node.
	FlagImage

	// FlagLiveRegion marks a node announcing its own updates.
	FlagLiveRegion

	// FlagToggled marks a toggled switch.
	FlagToggled

	// FlagMultiline marks a multi-line text field.
	FlagMultiline

	// FlagReadOnly marks a non-editable field.
	FlagReadOnly

	// FlagFocusable marks a node that can receive input focus.
	FlagFocusable

	// FlagLink marks a hyperlink.
	FlagLink

	// FlagSlider marks a draggable slider.
	FlagSlider

	// FlagKeyboardKey marks a node representing an on-screen keyboard key.
	FlagKeyboardKey
)

// interactiveMask selects the flags that make a node consume a hit on its
// own rect. Containers without any of these pass hits through to whatever
// lies beneath them.
const interactiveMask = FlagButton | FlagTextField | FlagFocusable | FlagLink | FlagSlider

// Has reports whether all bits of q are set.
func (f Flags) Has(q Flags) bool {
	return f&q == q
}

// Interactive reports whether a node with these flags yields a hit on
// itself: buttons, text fields, focusable nodes, links, and sliders do.
func (f Flags) Interactive() bool {
	return f&interactiveMask != 0
}

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagHasCheckedState, "hasCheckedState"},
	{FlagChecked, "checked"},
	{FlagSelected, "selected"},
	{FlagButton, "button"},
	{FlagTextField, "textField"},
	{FlagFocused, "focused"},
	{FlagEnabled, "enabled"},
	{FlagHeader, "header"},
	{FlagObscured, "obscured"},
	{FlagHidden, "hidden"},
	{FlagImage, "image"},
	{FlagLiveRegion, "liveRegion"},
	{FlagToggled, "toggled"},
	{FlagMultiline, "multiline"},
	{FlagReadOnly, "readOnly"},
	{FlagFocusable, "focusable"},
	{FlagLink, "link"},
	{FlagSlider, "slider"},
	{FlagKeyboardKey, "keyboardKey"},
}

// String returns a pipe-separated list of set flag names, for diagnostics.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, "|")
}

// Node is one element of a semantics snapshot.
type Node struct {
	// ID is the node's identifier, unique within one snapshot.
	ID int32

	// Flags carries the node's capability and state tags.
	Flags Flags

	// Rect is the node's bounding box in its own local space.
	Rect geom.Rect

	// Transform maps the node's local space to its parent's space.
	Transform geom.Matrix

	// Children lists child ids in hit-test order; the last entry is
	// topmost and is tested first.
	Children []int32

	// Label is the node's display text. Diagnostic only.
	Label string
}
