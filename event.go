// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

// PointerKind classifies a pointer event.
type PointerKind uint8

const (
	// PointerMove is cursor motion without a button change.
	PointerMove PointerKind = iota

	// PointerDown is a button press.
	PointerDown

	// PointerUp is a button release.
	PointerUp

	// PointerScroll is wheel motion; Delta carries the amount.
	PointerScroll

	// PointerLeave signals the cursor left the host surface.
	PointerLeave
)

// Button identifies which pointer button an event refers to.
type Button uint8

const (
	// ButtonNone means no button (move, scroll, leave).
	ButtonNone Button = iota

	// ButtonLeft is the primary button.
	ButtonLeft

	// ButtonRight is the secondary button.
	ButtonRight

	// ButtonMiddle is the middle button or wheel press.
	ButtonMiddle
)

// PointerEvent is a decoded pointer event in host screen coordinates.
// Platform message decoding happens outside this package; routing only
// needs kind and position.
type PointerEvent struct {
	Kind   PointerKind
	Button Button

	// X, Y are screen-space coordinates in pixels.
	X, Y int

	// Delta is scroll distance for PointerScroll events.
	Delta float64
}

// KeyKind classifies a keyboard event.
type KeyKind uint8

const (
	// KeyDown is a key press.
	KeyDown KeyKind = iota

	// KeyUp is a key release.
	KeyUp

	// KeyChar is a translated character input.
	KeyChar
)

// KeyEvent is a decoded keyboard event. Code is a platform key code; Char
// carries the translated rune for KeyChar events.
type KeyEvent struct {
	Kind KeyKind
	Code uint32
	Char rune
}

// Cursor identifies the pointer shape an overlay requests while hovered.
type Cursor uint8

const (
	// CursorDefault is the host's standard arrow.
	CursorDefault Cursor = iota

	// CursorPointer indicates a clickable element.
	CursorPointer

	// CursorText indicates editable text.
	CursorText

	// CursorBusy indicates a wait state.
	CursorBusy

	// CursorHidden hides the cursor over the overlay.
	CursorHidden
)

// String returns the cursor name.
func (c Cursor) String() string {
	switch c {
	case CursorDefault:
		return "default"
	case CursorPointer:
		return "pointer"
	case CursorText:
		return "text"
	case CursorBusy:
		return "busy"
	case CursorHidden:
		return "hidden"
	default:
		return "unknown"
	}
}
