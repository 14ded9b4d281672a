// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

import (
	"errors"
	"image"
	"image/color"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overlay/geom"
	"github.com/gogpu/overlay/render"
	"github.com/gogpu/overlay/semantics"
)

func newTestRegistry() *Registry {
	return NewRegistry(
		WithScreenSize(800, 600),
		WithBackend("pixmap"),
	)
}

func mustCreate(t *testing.T, r *Registry, id string, p CreateParams) {
	t.Helper()
	if p.Width == 0 {
		p.Width = 100
	}
	if p.Height == 0 {
		p.Height = 100
	}
	if err := r.Create(id, p); err != nil {
		t.Fatalf("Create(%q) failed: %v", id, err)
	}
}

// fullButtonTree is a snapshot with one interactive button covering the
// given local rect.
func fullButtonTree(rect geom.Rect) []semantics.Node {
	return []semantics.Node{
		{
			ID:        semantics.RootID,
			Rect:      geom.R(0, 0, 100, 100),
			Transform: geom.Identity(),
			Children:  []int32{1},
		},
		{
			ID:        1,
			Flags:     semantics.FlagButton,
			Rect:      rect,
			Transform: geom.Identity(),
		},
	}
}

type recordHandler struct {
	mu       sync.Mutex
	pointers []PointerEvent
	keys     []KeyEvent

	keyResult bool
	cursor    Cursor
	cursorOK  bool
}

func (h *recordHandler) HandlePointer(ev PointerEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pointers = append(h.pointers, ev)
	return true
}

func (h *recordHandler) HandleKey(ev KeyEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, ev)
	return h.keyResult
}

func (h *recordHandler) ResolveCursor(PointerEvent) (Cursor, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor, h.cursorOK
}

func (h *recordHandler) pointerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pointers)
}

func (h *recordHandler) lastPointer() (PointerEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pointers) == 0 {
		return PointerEvent{}, false
	}
	return h.pointers[len(h.pointers)-1], true
}

type closableHandler struct {
	recordHandler
	closed bool
}

func (h *closableHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

type recordPort struct {
	mu      sync.Mutex
	posts   []any
	sends   []string
	failAll bool
}

var errPortClosed = errors.New("port closed")

func (p *recordPort) post(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAll {
		return errPortClosed
	}
	p.posts = append(p.posts, v)
	return nil
}

func (p *recordPort) PostBool(v bool) error     { return p.post(v) }
func (p *recordPort) PostInt(v int64) error     { return p.post(v) }
func (p *recordPort) PostFloat(v float64) error { return p.post(v) }
func (p *recordPort) PostString(v string) error { return p.post(v) }
func (p *recordPort) PostBytes(v []byte) error  { return p.post(v) }

func (p *recordPort) Send(channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAll {
		return errPortClosed
	}
	p.sends = append(p.sends, channel)
	return nil
}

func (p *recordPort) sendCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sends)
}

func TestCreateAndZOrder(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	mustCreate(t, r, "b", CreateParams{})
	mustCreate(t, r, "c", CreateParams{})

	if got := r.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	want := []string{"a", "b", "c"}
	if got := r.ZOrder(); !slices.Equal(got, want) {
		t.Errorf("ZOrder() = %v, want %v", got, want)
	}
}

func TestCreateInvalidSize(t *testing.T) {
	r := newTestRegistry()

	err := r.Create("a", CreateParams{Width: 0, Height: 100})
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Create with zero width: err = %v, want ErrInvalidSize", err)
	}
	err = r.Create("a", CreateParams{Width: 100, Height: -1})
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Create with negative height: err = %v, want ErrInvalidSize", err)
	}
}

func TestCreateExistingBringsToFront(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	mustCreate(t, r, "b", CreateParams{})
	mustCreate(t, r, "a", CreateParams{})

	if got := r.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	want := []string{"b", "a"}
	if got := r.ZOrder(); !slices.Equal(got, want) {
		t.Errorf("ZOrder() = %v, want %v", got, want)
	}
}

func TestBringToFront(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	mustCreate(t, r, "b", CreateParams{})
	mustCreate(t, r, "c", CreateParams{})

	r.BringToFront("a")

	want := []string{"b", "c", "a"}
	if got := r.ZOrder(); !slices.Equal(got, want) {
		t.Errorf("ZOrder() = %v, want %v", got, want)
	}

	// Unknown ids are ignored.
	r.BringToFront("nope")
	if got := r.ZOrder(); !slices.Equal(got, want) {
		t.Errorf("ZOrder() after unknown id = %v, want %v", got, want)
	}
}

func TestFirstCreateGetsFocus(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	if !r.IsFocused("a") {
		t.Error("first overlay should receive focus")
	}

	mustCreate(t, r, "b", CreateParams{})
	if !r.IsFocused("a") {
		t.Error("focus should stay on first overlay after second create")
	}
	if r.IsFocused("b") {
		t.Error("second overlay should not be focused")
	}
}

func TestSetFocusBringsToFront(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	mustCreate(t, r, "b", CreateParams{})
	mustCreate(t, r, "c", CreateParams{})

	r.SetFocus("a")

	if !r.IsFocused("a") {
		t.Error("a should be focused")
	}
	want := []string{"b", "c", "a"}
	if got := r.ZOrder(); !slices.Equal(got, want) {
		t.Errorf("ZOrder() = %v, want %v", got, want)
	}

	id, ok := r.Focused()
	if !ok || id != "a" {
		t.Errorf("Focused() = %q, %v, want %q, true", id, ok, "a")
	}
}

func TestShutdownReassignsFocus(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	mustCreate(t, r, "b", CreateParams{})
	mustCreate(t, r, "c", CreateParams{})
	r.SetFocus("c")

	if err := r.Shutdown("c"); err != nil {
		t.Fatalf("Shutdown(c) failed: %v", err)
	}

	// Focus moves to the new topmost overlay.
	if !r.IsFocused("b") {
		id, _ := r.Focused()
		t.Errorf("focused = %q, want b", id)
	}

	if err := r.Shutdown("b"); err != nil {
		t.Fatalf("Shutdown(b) failed: %v", err)
	}
	if err := r.Shutdown("a"); err != nil {
		t.Fatalf("Shutdown(a) failed: %v", err)
	}

	if _, ok := r.Focused(); ok {
		t.Error("no overlay should be focused after all shut down")
	}
}

func TestShutdownNonFocusedKeepsFocus(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	mustCreate(t, r, "b", CreateParams{})

	if err := r.Shutdown("b"); err != nil {
		t.Fatalf("Shutdown(b) failed: %v", err)
	}
	if !r.IsFocused("a") {
		t.Error("a should keep focus when a non-focused overlay shuts down")
	}
}

func TestShutdownUnknownID(t *testing.T) {
	r := newTestRegistry()

	if err := r.Shutdown("nope"); err != nil {
		t.Errorf("Shutdown of unknown id: err = %v, want nil", err)
	}
}

func TestShutdownClosesHandler(t *testing.T) {
	r := newTestRegistry()

	h := &closableHandler{}
	mustCreate(t, r, "a", CreateParams{Handler: h})

	if err := r.Shutdown("a"); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if !closed {
		t.Error("handler implementing Close should be closed at shutdown")
	}
	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestShutdownAll(t *testing.T) {
	r := newTestRegistry()

	mustCreate(t, r, "a", CreateParams{})
	mustCreate(t, r, "b", CreateParams{})
	mustCreate(t, r, "c", CreateParams{})

	if err := r.ShutdownAll(); err != nil {
		t.Fatalf("ShutdownAll failed: %v", err)
	}
	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
	if got := r.ZOrder(); len(got) != 0 {
		t.Errorf("ZOrder() = %v, want empty", got)
	}
}

func TestReplace(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	h := &closableHandler{}
	mustCreate(t, r, "a", CreateParams{Handler: h})
	mustCreate(t, r, "b", CreateParams{})

	if err := r.Replace("a", CreateParams{Width: 200, Height: 150}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if got := r.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	want := []string{"b", "a"}
	if got := r.ZOrder(); !slices.Equal(got, want) {
		t.Errorf("ZOrder() = %v, want %v", got, want)
	}

	o, ok := r.Get("a")
	if !ok {
		t.Fatal("replacement overlay missing")
	}
	w, hgt := o.Size()
	if w != 200 || hgt != 150 {
		t.Errorf("replacement size = %dx%d, want 200x150", w, hgt)
	}

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if !closed {
		t.Error("replaced instance's handler should be closed")
	}

	// The id was focused before the replace and stays focused.
	if !r.IsFocused("a") {
		t.Error("focus should survive replacement of the focused id")
	}
}

func TestFindTopmostAt(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{X: 0, Y: 0})
	mustCreate(t, r, "b", CreateParams{X: 50, Y: 50})

	if id, ok := r.FindTopmostAt(75, 75); !ok || id != "b" {
		t.Errorf("FindTopmostAt(75,75) = %q, %v, want b, true", id, ok)
	}
	if id, ok := r.FindTopmostAt(10, 10); !ok || id != "a" {
		t.Errorf("FindTopmostAt(10,10) = %q, %v, want a, true", id, ok)
	}
	if _, ok := r.FindTopmostAt(500, 500); ok {
		t.Error("FindTopmostAt(500,500) should miss")
	}

	// Right/bottom edges are exclusive.
	if id, ok := r.FindTopmostAt(149, 149); !ok || id != "b" {
		t.Errorf("FindTopmostAt(149,149) = %q, %v, want b, true", id, ok)
	}
	if _, ok := r.FindTopmostAt(150, 150); ok {
		t.Error("FindTopmostAt(150,150) should miss the exclusive edge")
	}

	// Hidden overlays are skipped.
	r.SetVisibility("b", false)
	if id, ok := r.FindTopmostAt(75, 75); !ok || id != "a" {
		t.Errorf("FindTopmostAt(75,75) with b hidden = %q, %v, want a, true", id, ok)
	}
}

func TestSetPositionMovesHitBox(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	r.SetPosition("a", 300, 200)

	if _, ok := r.FindTopmostAt(10, 10); ok {
		t.Error("old origin should no longer hit")
	}
	if id, ok := r.FindTopmostAt(310, 210); !ok || id != "a" {
		t.Errorf("FindTopmostAt(310,210) = %q, %v, want a, true", id, ok)
	}
}

func TestResolveEmptyID(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	// Zero overlays: empty id cannot resolve.
	if r.PostBool("", true) {
		t.Error("post with no overlays should fail")
	}

	// One overlay: empty id targets it.
	p := &recordPort{}
	mustCreate(t, r, "a", CreateParams{Port: p})
	if !r.PostBool("", true) {
		t.Error("post with single overlay should resolve empty id")
	}

	// Two overlays: empty id is ambiguous.
	mustCreate(t, r, "b", CreateParams{})
	if r.PostBool("", true) {
		t.Error("post with ambiguous empty id should fail")
	}
	if !r.PostBool("a", false) {
		t.Error("explicit id should still resolve")
	}
}

func TestPauseResume(t *testing.T) {
	r := newTestRegistry()

	r.Pause()
	e1 := r.Elapsed()
	time.Sleep(20 * time.Millisecond)
	e2 := r.Elapsed()
	if e1 != e2 {
		t.Errorf("Elapsed advanced while paused: %v vs %v", e1, e2)
	}

	// Pausing again is a no-op.
	r.Pause()
	if got := r.Elapsed(); got != e2 {
		t.Errorf("Elapsed changed on double pause: %v vs %v", got, e2)
	}

	r.Resume()
	time.Sleep(20 * time.Millisecond)
	if got := r.Elapsed(); got <= e2 {
		t.Errorf("Elapsed should advance after resume: %v <= %v", got, e2)
	}

	// Resuming again is a no-op.
	before := r.Elapsed()
	r.Resume()
	if got := r.Elapsed(); got < before {
		t.Errorf("Elapsed went backwards on double resume: %v < %v", got, before)
	}
}

// failingTarget resizes with an error, standing in for a surface whose
// backend handle went bad.
type failingTarget struct {
	width, height int
	resizes       int
}

var errBadHandle = errors.New("bad surface handle")

func (f *failingTarget) Width() int                     { return f.width }
func (f *failingTarget) Height() int                    { return f.height }
func (f *failingTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (f *failingTarget) Pixels() []byte                 { return nil }
func (f *failingTarget) Stride() int                    { return f.width * 4 }
func (f *failingTarget) Destroy()                       {}

func (f *failingTarget) Resize(width, height int) error {
	f.resizes++
	return errBadHandle
}

func TestResizePartialFailure(t *testing.T) {
	render.Register("failing", 1, func(opts render.Options) (render.Target, error) {
		return &failingTarget{width: opts.Width, height: opts.Height}, nil
	}, nil)
	defer render.Unregister("failing")

	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "good", CreateParams{})
	mustCreate(t, r, "bad", CreateParams{Backend: "failing"})
	mustCreate(t, r, "good2", CreateParams{})

	err := r.Resize(640, 480)
	if !errors.Is(err, errBadHandle) {
		t.Errorf("Resize err = %v, want errBadHandle", err)
	}

	// The healthy overlays were still resized.
	dims := r.Dimensions()
	if d := dims["good"]; d.Width != 640 || d.Height != 480 {
		t.Errorf("good dims = %dx%d, want 640x480", d.Width, d.Height)
	}
	if d := dims["good2"]; d.Width != 640 || d.Height != 480 {
		t.Errorf("good2 dims = %dx%d, want 640x480", d.Width, d.Height)
	}
	// The failing overlay keeps its old size.
	if d := dims["bad"]; d.Width != 100 || d.Height != 100 {
		t.Errorf("bad dims = %dx%d, want 100x100", d.Width, d.Height)
	}

	if w, h := r.ScreenSize(); w != 640 || h != 480 {
		t.Errorf("ScreenSize() = %dx%d, want 640x480", w, h)
	}

	// Each resize attempt ran exactly once.
	o, _ := r.Get("bad")
	if ft := o.Target().(*failingTarget); ft.resizes != 1 {
		t.Errorf("failing target resized %d times, want 1", ft.resizes)
	}
}

func TestRoutePointerEventConsumesOnHover(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	ha := &recordHandler{}
	hb := &recordHandler{}
	mustCreate(t, r, "a", CreateParams{Handler: ha})
	mustCreate(t, r, "b", CreateParams{Handler: hb})

	// b is topmost but only its right half is interactive; a is fully
	// interactive underneath.
	r.UpdateTree("a", fullButtonTree(geom.R(0, 0, 100, 100)))
	r.UpdateTree("b", fullButtonTree(geom.R(50, 0, 100, 100)))

	consumed := r.RoutePointerEvent(PointerEvent{Kind: PointerMove, X: 10, Y: 10})
	if !consumed {
		t.Fatal("event over a's interactive region should be consumed")
	}

	// Both overlays observed the event, since b's interactive region is
	// smaller than its bounding box.
	if got := ha.pointerCount(); got != 1 {
		t.Errorf("a handler saw %d events, want 1", got)
	}
	if got := hb.pointerCount(); got != 1 {
		t.Errorf("b handler saw %d events, want 1", got)
	}

	// The consumer was brought to the front.
	want := []string{"b", "a"}
	if got := r.ZOrder(); !slices.Equal(got, want) {
		t.Errorf("ZOrder() = %v, want %v", got, want)
	}
}

func TestRoutePointerEventStopsAtTopmostHover(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	ha := &recordHandler{}
	hb := &recordHandler{}
	mustCreate(t, r, "a", CreateParams{Handler: ha})
	mustCreate(t, r, "b", CreateParams{Handler: hb})

	r.UpdateTree("a", fullButtonTree(geom.R(0, 0, 100, 100)))
	r.UpdateTree("b", fullButtonTree(geom.R(50, 0, 100, 100)))

	consumed := r.RoutePointerEvent(PointerEvent{Kind: PointerMove, X: 60, Y: 10})
	if !consumed {
		t.Fatal("event over b's interactive region should be consumed")
	}
	if got := hb.pointerCount(); got != 1 {
		t.Errorf("b handler saw %d events, want 1", got)
	}
	// a sits below the consumer and never sees the event.
	if got := ha.pointerCount(); got != 0 {
		t.Errorf("a handler saw %d events, want 0", got)
	}
}

func TestRoutePointerEventLocalCoordinates(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	h := &recordHandler{}
	mustCreate(t, r, "a", CreateParams{X: 200, Y: 100, Handler: h})
	r.UpdateTree("a", fullButtonTree(geom.R(0, 0, 100, 100)))

	r.RoutePointerEvent(PointerEvent{Kind: PointerDown, Button: ButtonLeft, X: 230, Y: 140})

	ev, ok := h.lastPointer()
	if !ok {
		t.Fatal("handler saw no events")
	}
	if ev.X != 30 || ev.Y != 40 {
		t.Errorf("handler event at (%d,%d), want local (30,40)", ev.X, ev.Y)
	}
	if ev.Kind != PointerDown || ev.Button != ButtonLeft {
		t.Errorf("event kind/button = %v/%v, want down/left", ev.Kind, ev.Button)
	}
}

func TestRoutePointerEventNoInteractiveNodes(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})

	if r.RoutePointerEvent(PointerEvent{Kind: PointerMove, X: 10, Y: 10}) {
		t.Error("event with no semantics trees should not be consumed")
	}
}

func TestRoutePointerEventSkipsHidden(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	h := &recordHandler{}
	mustCreate(t, r, "a", CreateParams{Handler: h})
	r.UpdateTree("a", fullButtonTree(geom.R(0, 0, 100, 100)))
	r.SetVisibility("a", false)

	if r.RoutePointerEvent(PointerEvent{Kind: PointerMove, X: 10, Y: 10}) {
		t.Error("hidden overlay should not consume events")
	}
	if got := h.pointerCount(); got != 0 {
		t.Errorf("hidden overlay handler saw %d events, want 0", got)
	}
}

func TestPointerLeaveClearsHover(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	r.UpdateTree("a", fullButtonTree(geom.R(0, 0, 100, 100)))

	r.RoutePointerEvent(PointerEvent{Kind: PointerMove, X: 10, Y: 10})
	o, _ := r.Get("a")
	if !o.Hovered() {
		t.Fatal("overlay should be hovered after move over button")
	}

	r.RoutePointerEvent(PointerEvent{Kind: PointerLeave})
	if o.Hovered() {
		t.Error("pointer leave should clear the hover flag")
	}
}

func TestUpdateTreeRefreshesHoverUnderStationaryCursor(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})

	// Cursor sits over the overlay while the tree is still empty.
	r.RoutePointerEvent(PointerEvent{Kind: PointerMove, X: 10, Y: 10})
	o, _ := r.Get("a")
	if o.Hovered() {
		t.Fatal("empty tree should not report hover")
	}

	// A button materializes under the cursor without a new event.
	r.UpdateTree("a", fullButtonTree(geom.R(0, 0, 100, 100)))
	if !o.Hovered() {
		t.Error("tree update under stationary cursor should set hover")
	}

	// And vanishes again.
	r.UpdateTree("a", fullButtonTree(geom.R(50, 50, 100, 100)))
	if o.Hovered() {
		t.Error("tree update moving the button away should clear hover")
	}
}

func TestRouteKeyboardEvent(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	ha := &recordHandler{keyResult: true}
	hb := &recordHandler{keyResult: true}
	mustCreate(t, r, "a", CreateParams{Handler: ha})
	mustCreate(t, r, "b", CreateParams{Handler: hb})

	// a holds focus; only it sees the event.
	if !r.RouteKeyboardEvent(KeyEvent{Kind: KeyDown, Code: 65}) {
		t.Error("focused handler returned true, routing should report true")
	}
	if len(ha.keys) != 1 || len(hb.keys) != 0 {
		t.Errorf("key counts a=%d b=%d, want 1, 0", len(ha.keys), len(hb.keys))
	}

	// The handler's result is propagated unchanged.
	ha.keyResult = false
	if r.RouteKeyboardEvent(KeyEvent{Kind: KeyUp, Code: 65}) {
		t.Error("routing should report the handler's false result")
	}

	// A hidden focused overlay receives nothing.
	r.SetVisibility("a", false)
	if r.RouteKeyboardEvent(KeyEvent{Kind: KeyDown, Code: 66}) {
		t.Error("hidden focused overlay should not consume key events")
	}
	if len(ha.keys) != 2 {
		t.Errorf("hidden overlay handler saw %d key events, want 2", len(ha.keys))
	}
}

func TestRouteKeyboardEventNoFocus(t *testing.T) {
	r := newTestRegistry()

	if r.RouteKeyboardEvent(KeyEvent{Kind: KeyDown, Code: 65}) {
		t.Error("keyboard event with no overlays should not be consumed")
	}
}

func TestRouteSetCursor(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	ha := &recordHandler{cursor: CursorText, cursorOK: true}
	hb := &recordHandler{}
	mustCreate(t, r, "a", CreateParams{Handler: ha})
	mustCreate(t, r, "b", CreateParams{Handler: hb})

	r.UpdateTree("a", fullButtonTree(geom.R(0, 0, 100, 100)))
	r.UpdateTree("b", fullButtonTree(geom.R(0, 0, 100, 100)))

	// Both overlays hover the point; b is topmost.
	oa, _ := r.Get("a")
	oa.UpdateHover(geom.Pt(10, 10))
	ob, _ := r.Get("b")
	ob.UpdateHover(geom.Pt(10, 10))

	// b resolves nothing, so a is asked next.
	c, ok := r.RouteSetCursor(PointerEvent{Kind: PointerMove, X: 10, Y: 10})
	if !ok || c != CursorText {
		t.Errorf("RouteSetCursor = %v, %v, want CursorText, true", c, ok)
	}

	// Topmost hovered overlay wins when it resolves.
	hb.mu.Lock()
	hb.cursor = CursorPointer
	hb.cursorOK = true
	hb.mu.Unlock()
	c, ok = r.RouteSetCursor(PointerEvent{Kind: PointerMove, X: 10, Y: 10})
	if !ok || c != CursorPointer {
		t.Errorf("RouteSetCursor = %v, %v, want CursorPointer, true", c, ok)
	}
}

func TestRouteSetCursorNoHover(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	h := &recordHandler{cursor: CursorPointer, cursorOK: true}
	mustCreate(t, r, "a", CreateParams{Handler: h})

	if _, ok := r.RouteSetCursor(PointerEvent{Kind: PointerMove, X: 10, Y: 10}); ok {
		t.Error("no hovered overlay, cursor should not resolve")
	}
}

func TestPostFamily(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	p := &recordPort{}
	mustCreate(t, r, "a", CreateParams{Port: p})

	if !r.PostBool("a", true) {
		t.Error("PostBool failed")
	}
	if !r.PostInt("a", 42) {
		t.Error("PostInt failed")
	}
	if !r.PostFloat("a", 3.5) {
		t.Error("PostFloat failed")
	}
	if !r.PostString("a", "hi") {
		t.Error("PostString failed")
	}
	if !r.PostBytes("a", []byte{1, 2}) {
		t.Error("PostBytes failed")
	}

	p.mu.Lock()
	n := len(p.posts)
	p.mu.Unlock()
	if n != 5 {
		t.Errorf("port received %d posts, want 5", n)
	}

	if r.PostBool("nope", true) {
		t.Error("post to unknown id should fail")
	}

	// Delivery failure is reported.
	p.mu.Lock()
	p.failAll = true
	p.mu.Unlock()
	if r.PostInt("a", 1) {
		t.Error("post should report port delivery failure")
	}
}

func TestPostWithoutPort(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	if r.PostString("a", "x") {
		t.Error("post to overlay without port should fail")
	}

	// A port registered later makes posting work.
	p := &recordPort{}
	r.RegisterPort("a", p)
	if !r.PostString("a", "x") {
		t.Error("post after RegisterPort should succeed")
	}
}

func TestBroadcast(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	pa := &recordPort{}
	pb := &recordPort{failAll: true}
	pc := &recordPort{}
	mustCreate(t, r, "a", CreateParams{Port: pa})
	mustCreate(t, r, "b", CreateParams{Port: pb})
	mustCreate(t, r, "c", CreateParams{Port: pc})
	r.SetVisibility("c", false)

	r.Broadcast("app/refresh", []byte(`{}`))

	if got := pa.sendCount(); got != 1 {
		t.Errorf("a received %d broadcasts, want 1", got)
	}
	// b's failure does not stop delivery; c is hidden and skipped.
	if got := pc.sendCount(); got != 0 {
		t.Errorf("hidden overlay received %d broadcasts, want 0", got)
	}
}

func TestChannelHandlers(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})
	r.RegisterChannelHandler("a", "echo", func(payload []byte) []byte {
		return append([]byte("re:"), payload...)
	})

	o, _ := r.Get("a")
	resp, ok := o.DispatchChannel("echo", []byte("ping"))
	if !ok {
		t.Fatal("channel handler should be installed")
	}
	if got := string(resp); got != "re:ping" {
		t.Errorf("response = %q, want %q", got, "re:ping")
	}

	if _, ok := o.DispatchChannel("other", nil); ok {
		t.Error("unregistered channel should not dispatch")
	}

	// Nil uninstalls.
	r.RegisterChannelHandler("a", "echo", nil)
	if _, ok := o.DispatchChannel("echo", nil); ok {
		t.Error("nil handler should uninstall the channel")
	}
}

func TestDimensionsAndDrawables(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{Width: 100, Height: 50})
	mustCreate(t, r, "b", CreateParams{Width: 60, Height: 40})
	r.SetVisibility("b", false)

	dims := r.Dimensions()
	if len(dims) != 2 {
		t.Fatalf("Dimensions() has %d entries, want 2", len(dims))
	}
	if d := dims["a"]; d.Width != 100 || d.Height != 50 {
		t.Errorf("a dims = %dx%d, want 100x50", d.Width, d.Height)
	}

	// Drawables lists only visible overlays.
	ds := r.Drawables()
	if len(ds) != 1 || ds[0].ID != "a" {
		t.Errorf("Drawables() = %v, want only a", ds)
	}
	if ds[0].Target == nil {
		t.Error("drawable target should not be nil")
	}
}

func TestComposite(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "back", CreateParams{X: 0, Y: 0, Width: 100, Height: 100})
	mustCreate(t, r, "front", CreateParams{X: 50, Y: 50, Width: 100, Height: 100})
	mustCreate(t, r, "hidden", CreateParams{X: 0, Y: 0, Width: 100, Height: 100})
	r.SetVisibility("hidden", false)

	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}

	ob, _ := r.Get("back")
	ob.Target().(*render.PixmapTarget).Fill(red)
	of, _ := r.Get("front")
	of.Target().(*render.PixmapTarget).Fill(blue)
	oh, _ := r.Get("hidden")
	oh.Target().(*render.PixmapTarget).Fill(green)

	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	if err := r.Composite(render.NewSoftwareDrawer(dst)); err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	// Back overlay alone at (10,10); front wins in the overlap at (75,75).
	if got := dst.RGBAAt(10, 10); got != red {
		t.Errorf("pixel (10,10) = %v, want red", got)
	}
	if got := dst.RGBAAt(75, 75); got != blue {
		t.Errorf("pixel (75,75) = %v, want blue", got)
	}
	// Hidden overlay is not drawn; (10,10) would be green otherwise.
	if got := dst.RGBAAt(120, 120); got != blue {
		t.Errorf("pixel (120,120) = %v, want blue", got)
	}
	if got := dst.RGBAAt(180, 180); (got != color.RGBA{}) {
		t.Errorf("pixel (180,180) = %v, want empty", got)
	}
}

func TestSchedulerPerOverlay(t *testing.T) {
	r := newTestRegistry()
	defer r.ShutdownAll()

	mustCreate(t, r, "a", CreateParams{})

	o, _ := r.Get("a")
	done := make(chan struct{})
	if !o.Scheduler().Post(func() { close(done) }, time.Now()) {
		t.Fatal("Post to overlay scheduler failed")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never ran")
	}
}
