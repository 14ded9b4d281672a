// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/overlay/render"
	"github.com/gogpu/overlay/semantics"
)

// Dimension is an overlay's size in pixels.
type Dimension struct {
	Width  int
	Height int
}

// Drawable pairs an overlay id with its render target, for hosts that
// composite overlay textures themselves.
type Drawable struct {
	ID     string
	Target render.Target
}

// CreateParams configures a new overlay surface.
type CreateParams struct {
	// X, Y is the screen-space origin.
	X, Y int

	// Width, Height are the surface dimensions in pixels. Required.
	Width, Height int

	// Hidden creates the overlay invisible. It still exists in the
	// Z-order and can be shown later with SetVisibility.
	Hidden bool

	// Backend names the render backend to use. Empty selects the best
	// available backend for the registry's render options.
	Backend string

	// Handler receives the overlay's input events. Optional.
	Handler Handler

	// Port receives one-shot messages posted to the overlay. Optional.
	Port Port
}

// Registry owns every overlay: the id map, the Z-order, keyboard focus,
// the host screen size, and a pausable clock.
//
// All methods are safe for concurrent use. The registry mutex guards only
// registry bookkeeping; calls into external collaborators (handlers,
// drawers, target backends) are made with the lock released, against a
// snapshot of the Z-order. An overlay removed mid-dispatch is skipped.
type Registry struct {
	mu       sync.Mutex
	surfaces map[string]*Overlay
	zorder   []string // last element is topmost
	focused  string   // empty means none
	screenW  int
	screenH  int
	clock    pausableClock

	renderOpts render.Options
	backend    string
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		surfaces: make(map[string]*Overlay),
		clock:    newPausableClock(time.Now()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len returns the number of active overlays.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.surfaces)
}

// ZOrder returns overlay ids back-to-front. The last element is topmost.
func (r *Registry) ZOrder() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.zorder))
	copy(out, r.zorder)
	return out
}

// Get returns the overlay with the given id.
func (r *Registry) Get(id string) (*Overlay, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.surfaces[id]
	return o, ok
}

// Create allocates a new overlay and places it on top of the Z-order.
// If the id already exists, Create is a bring-to-front and returns nil.
// The first overlay created receives keyboard focus automatically.
func (r *Registry) Create(id string, p CreateParams) error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, p.Width, p.Height)
	}

	r.mu.Lock()
	if _, ok := r.surfaces[id]; ok {
		r.bringToFrontLocked(id)
		r.mu.Unlock()
		Logger().Debug("overlay: create on existing id, brought to front", "id", id)
		return nil
	}
	r.mu.Unlock()

	target, err := r.newTarget(id, p)
	if err != nil {
		return fmt.Errorf("overlay: create %q: %w", id, err)
	}

	o := newOverlay(id, p, target)

	r.mu.Lock()
	if _, ok := r.surfaces[id]; ok {
		// Lost a create race; keep the winner.
		r.bringToFrontLocked(id)
		r.mu.Unlock()
		target.Destroy()
		return nil
	}
	r.insertLocked(id, o)
	r.mu.Unlock()

	Logger().Info("overlay: created", "id", id, "size", fmt.Sprintf("%dx%d", p.Width, p.Height))
	return nil
}

// Replace creates a new overlay under an existing id, shutting down the
// previous instance first. The replacement is appended at the top of the
// Z-order; focus is unchanged if the id was focused.
func (r *Registry) Replace(id string, p CreateParams) error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, p.Width, p.Height)
	}

	target, err := r.newTarget(id, p)
	if err != nil {
		return fmt.Errorf("overlay: replace %q: %w", id, err)
	}

	o := newOverlay(id, p, target)

	r.mu.Lock()
	old := r.surfaces[id]
	if old != nil {
		r.removeFromOrderLocked(id)
	}
	r.insertLocked(id, o)
	r.mu.Unlock()

	if old != nil {
		Logger().Warn("overlay: id already existed, replacing", "id", id)
		if err := old.shutdown(); err != nil {
			Logger().Error("overlay: shutdown of replaced instance failed", "id", id, "err", err)
		}
	}
	return nil
}

// newTarget allocates the render target for a new overlay.
func (r *Registry) newTarget(id string, p CreateParams) (render.Target, error) {
	r.mu.Lock()
	opts := r.renderOpts
	backend := p.Backend
	if backend == "" {
		backend = r.backend
	}
	r.mu.Unlock()

	opts.Width = p.Width
	opts.Height = p.Height
	opts.Label = id

	if backend != "" {
		return render.NewTargetByName(backend, opts)
	}
	return render.NewTarget(opts)
}

// insertLocked adds the overlay to the map and the top of the Z-order,
// and grants first focus. Caller must hold the registry mutex and must
// have removed any previous entry for the id from the Z-order.
func (r *Registry) insertLocked(id string, o *Overlay) {
	r.surfaces[id] = o
	r.zorder = append(r.zorder, id)
	if r.focused == "" {
		r.focused = id
	}
}

// removeFromOrderLocked drops the id from the Z-order slice.
func (r *Registry) removeFromOrderLocked(id string) {
	for i, zid := range r.zorder {
		if zid == id {
			r.zorder = append(r.zorder[:i], r.zorder[i+1:]...)
			return
		}
	}
}

// BringToFront moves the overlay to the top of the Z-order.
// Unknown ids are logged and ignored.
func (r *Registry) BringToFront(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.surfaces[id]; !ok {
		Logger().Warn("overlay: bring_to_front on unknown id", "id", id)
		return
	}
	r.bringToFrontLocked(id)
}

func (r *Registry) bringToFrontLocked(id string) {
	r.removeFromOrderLocked(id)
	r.zorder = append(r.zorder, id)
}

// SetFocus gives keyboard focus to the overlay and brings it to the front.
// An empty id targets the single active overlay. Unknown ids are logged
// and ignored.
func (r *Registry) SetFocus(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, err := r.resolveLocked(id)
	if err != nil {
		Logger().Warn("overlay: set_focus failed", "id", id, "err", err)
		return
	}
	r.focused = o.id
	r.bringToFrontLocked(o.id)
}

// Focused returns the focused overlay id, if any.
func (r *Registry) Focused() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focused, r.focused != ""
}

// IsFocused reports whether the overlay holds keyboard focus.
// An empty id targets the single active overlay.
func (r *Registry) IsFocused(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, err := r.resolveLocked(id)
	if err != nil {
		return false
	}
	return r.focused == o.id
}

// SetVisibility shows or hides an overlay. Hidden overlays keep their
// Z-order slot but are skipped by compositing and routing.
// An empty id targets the single active overlay.
func (r *Registry) SetVisibility(id string, visible bool) {
	o, err := r.resolve(id)
	if err != nil {
		Logger().Warn("overlay: set_visibility failed", "id", id, "err", err)
		return
	}
	o.setVisible(visible)
}

// SetPosition moves an overlay's screen-space origin.
// An empty id targets the single active overlay.
func (r *Registry) SetPosition(id string, x, y int) {
	o, err := r.resolve(id)
	if err != nil {
		Logger().Warn("overlay: set_position failed", "id", id, "err", err)
		return
	}
	o.setPosition(x, y)
}

// UpdateTree replaces an overlay's semantics snapshot. This is the entry
// point for the external tree producer; push-only.
func (r *Registry) UpdateTree(id string, nodes []semantics.Node) {
	o, err := r.resolve(id)
	if err != nil {
		Logger().Warn("overlay: update_tree failed", "id", id, "err", err)
		return
	}
	o.UpdateTree(nodes)
}

// RoutePointerEvent delivers a pointer event. Visible overlays are visited
// topmost-first and each one hit-tests the event against its semantics
// tree; the first overlay reporting an interactive hover consumes the
// event and is brought to the front. Every visible overlay above the
// consumer still observes the event, because an overlay's interactive
// region may be smaller than its bounding box.
//
// Returns true if some overlay consumed the event.
func (r *Registry) RoutePointerEvent(ev PointerEvent) bool {
	for _, o := range r.snapshotTopDown() {
		if !o.Visible() {
			continue
		}
		o.handlePointer(ev)
		if o.Hovered() {
			r.BringToFront(o.id)
			return true
		}
	}
	return false
}

// RouteKeyboardEvent delivers a keyboard event to the focused overlay, if
// it is visible. The handler's result is propagated unchanged.
func (r *Registry) RouteKeyboardEvent(ev KeyEvent) bool {
	r.mu.Lock()
	o := r.surfaces[r.focused]
	r.mu.Unlock()

	if o == nil || !o.Visible() {
		return false
	}
	return o.handleKey(ev)
}

// RouteSetCursor asks hovered overlays, topmost-first, to resolve the
// cursor shape. The first non-empty resolution wins.
func (r *Registry) RouteSetCursor(ev PointerEvent) (Cursor, bool) {
	for _, o := range r.snapshotTopDown() {
		if !o.Hovered() {
			continue
		}
		if c, ok := o.resolveCursor(ev); ok {
			return c, true
		}
	}
	return CursorDefault, false
}

// FindTopmostAt returns the topmost visible overlay whose bounding box
// contains the screen point. This is a cheap box query; it does not
// hit-test semantics trees.
func (r *Registry) FindTopmostAt(x, y int) (string, bool) {
	for _, o := range r.snapshotTopDown() {
		if !o.Visible() {
			continue
		}
		if o.contains(x, y) {
			return o.id, true
		}
	}
	return "", false
}

// Resize updates the host screen size and resizes every overlay's render
// target to the new bounds. A failing or missing target on one overlay is
// logged and skipped; the others are still resized. The combined error of
// the skipped overlays is returned.
func (r *Registry) Resize(width, height int) error {
	r.mu.Lock()
	r.screenW, r.screenH = width, height
	overlays := r.snapshotLocked()
	r.mu.Unlock()

	var errs []error
	for _, o := range overlays {
		if o.Target() == nil {
			Logger().Warn("overlay: no render target, cannot resize", "id", o.id)
			errs = append(errs, fmt.Errorf("%s: %w", o.id, ErrNoTarget))
			continue
		}
		if err := o.resize(width, height); err != nil {
			Logger().Warn("overlay: resize failed", "id", o.id, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", o.id, err))
		}
	}
	return errors.Join(errs...)
}

// ScreenSize returns the last known host viewport dimensions.
func (r *Registry) ScreenSize() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screenW, r.screenH
}

// Shutdown removes an overlay and releases its resources. If it was
// focused, focus moves to the new topmost overlay, or to none. Shutting
// down an unknown id is logged and returns nil.
func (r *Registry) Shutdown(id string) error {
	r.mu.Lock()
	o, ok := r.surfaces[id]
	if !ok {
		r.mu.Unlock()
		Logger().Warn("overlay: shutdown of unknown or already removed id", "id", id)
		return nil
	}
	delete(r.surfaces, id)
	r.removeFromOrderLocked(id)
	if r.focused == id {
		r.focused = ""
		if n := len(r.zorder); n > 0 {
			r.focused = r.zorder[n-1]
		}
	}
	r.mu.Unlock()

	Logger().Info("overlay: shutting down", "id", id)
	return o.shutdown()
}

// ShutdownAll removes every overlay and releases their resources in
// parallel. Per-overlay failures are logged; the first error is returned.
func (r *Registry) ShutdownAll() error {
	r.mu.Lock()
	overlays := r.snapshotLocked()
	r.surfaces = make(map[string]*Overlay)
	r.zorder = nil
	r.focused = ""
	r.mu.Unlock()

	var g errgroup.Group
	for _, o := range overlays {
		o := o
		g.Go(func() error {
			if err := o.shutdown(); err != nil {
				Logger().Error("overlay: shutdown failed", "id", o.id, "err", err)
				return fmt.Errorf("%s: %w", o.id, err)
			}
			return nil
		})
	}
	err := g.Wait()
	Logger().Info("overlay: all instances shut down")
	return err
}

// Pause freezes the compositor clock. Idempotent.
func (r *Registry) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock.pause(time.Now())
}

// Resume unfreezes the compositor clock; the paused interval is excluded
// from Elapsed. Idempotent.
func (r *Registry) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock.resume(time.Now())
}

// Elapsed returns the compositor clock: time since registry creation,
// excluding paused intervals.
func (r *Registry) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock.elapsed(time.Now())
}

// Dimensions returns the size of every active overlay, keyed by id.
func (r *Registry) Dimensions() map[string]Dimension {
	out := make(map[string]Dimension)
	for _, o := range r.snapshot() {
		w, h := o.Size()
		out[o.id] = Dimension{Width: w, Height: h}
	}
	return out
}

// Drawables returns (id, target) pairs for visible overlays back-to-front,
// for hosts that composite overlay textures themselves.
func (r *Registry) Drawables() []Drawable {
	var out []Drawable
	for _, o := range r.snapshot() {
		if !o.Visible() {
			continue
		}
		t := o.Target()
		if t == nil {
			continue
		}
		out = append(out, Drawable{ID: o.id, Target: t})
	}
	return out
}

// Composite draws every visible overlay back-to-front through the drawer.
// Hover flags are refreshed against each overlay's current semantics tree
// before drawing. Per-overlay draw failures are logged and do not stop the
// pass; the combined error is returned.
func (r *Registry) Composite(d render.Drawer) error {
	r.mu.Lock()
	frame := render.Frame{
		Elapsed:      r.clock.elapsed(time.Now()),
		ScreenWidth:  r.screenW,
		ScreenHeight: r.screenH,
	}
	overlays := r.snapshotLocked()
	r.mu.Unlock()

	if err := d.Begin(frame); err != nil {
		return err
	}

	var errs []error
	for _, o := range overlays {
		if !o.Visible() {
			continue
		}
		o.refreshHover()
		t := o.Target()
		if t == nil {
			continue
		}
		x, y := o.Position()
		if err := d.Draw(t, x, y); err != nil {
			Logger().Warn("overlay: draw failed", "id", o.id, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", o.id, err))
		}
	}

	if err := d.End(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Broadcast sends the same message to every visible overlay's port.
// Delivery failures are logged per overlay.
func (r *Registry) Broadcast(channel string, payload []byte) {
	for _, o := range r.snapshot() {
		if !o.Visible() {
			continue
		}
		port := o.getPort()
		if port == nil {
			continue
		}
		if err := port.Send(channel, payload); err != nil {
			Logger().Error("overlay: broadcast failed", "id", o.id, "channel", channel, "err", err)
		}
	}
}

// RegisterPort attaches a message port to an overlay.
// An empty id targets the single active overlay.
func (r *Registry) RegisterPort(id string, p Port) {
	o, err := r.resolve(id)
	if err != nil {
		Logger().Warn("overlay: register_port failed", "id", id, "err", err)
		return
	}
	o.RegisterPort(p)
}

// RegisterChannelHandler installs a channel handler on an overlay.
// An empty id targets the single active overlay.
func (r *Registry) RegisterChannelHandler(id, channel string, fn ChannelHandler) {
	o, err := r.resolve(id)
	if err != nil {
		Logger().Warn("overlay: register_channel_handler failed", "id", id, "err", err)
		return
	}
	o.RegisterChannelHandler(channel, fn)
}

// PostBool posts a boolean to the overlay's port. Returns false if the
// overlay or its port is missing, or delivery fails.
func (r *Registry) PostBool(id string, v bool) bool {
	return r.post(id, func(p Port) error { return p.PostBool(v) })
}

// PostInt posts an integer to the overlay's port.
func (r *Registry) PostInt(id string, v int64) bool {
	return r.post(id, func(p Port) error { return p.PostInt(v) })
}

// PostFloat posts a float to the overlay's port.
func (r *Registry) PostFloat(id string, v float64) bool {
	return r.post(id, func(p Port) error { return p.PostFloat(v) })
}

// PostString posts a string to the overlay's port.
func (r *Registry) PostString(id string, v string) bool {
	return r.post(id, func(p Port) error { return p.PostString(v) })
}

// PostBytes posts a byte buffer to the overlay's port.
func (r *Registry) PostBytes(id string, v []byte) bool {
	return r.post(id, func(p Port) error { return p.PostBytes(v) })
}

// post resolves the target overlay and delivers through its port. Unlike
// other unknown-id operations, posting reports delivery failure to the
// caller.
func (r *Registry) post(id string, send func(Port) error) bool {
	o, err := r.resolve(id)
	if err != nil {
		Logger().Warn("overlay: post failed", "id", id, "err", err)
		return false
	}
	port := o.getPort()
	if port == nil {
		Logger().Warn("overlay: post failed", "id", o.id, "err", ErrNoPort)
		return false
	}
	if err := send(port); err != nil {
		Logger().Warn("overlay: post delivery failed", "id", o.id, "err", err)
		return false
	}
	return true
}

// resolve looks up an overlay by id. An empty id targets the single
// active overlay; with zero or multiple overlays active an explicit id is
// required.
func (r *Registry) resolve(id string) (*Overlay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(id)
}

func (r *Registry) resolveLocked(id string) (*Overlay, error) {
	if id != "" {
		o, ok := r.surfaces[id]
		if !ok {
			return nil, &UnknownOverlayError{ID: id}
		}
		return o, nil
	}

	switch len(r.surfaces) {
	case 0:
		return nil, ErrNoOverlay
	case 1:
		for _, o := range r.surfaces {
			return o, nil
		}
	}
	return nil, ErrAmbiguousOverlay
}

// snapshotLocked copies the Z-order back-to-front. Caller holds the mutex.
func (r *Registry) snapshotLocked() []*Overlay {
	out := make([]*Overlay, 0, len(r.zorder))
	for _, id := range r.zorder {
		if o, ok := r.surfaces[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// snapshot copies the Z-order back-to-front.
func (r *Registry) snapshot() []*Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// snapshotTopDown copies the Z-order topmost-first for routing.
func (r *Registry) snapshotTopDown() []*Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Overlay, 0, len(r.zorder))
	for i := len(r.zorder) - 1; i >= 0; i-- {
		if o, ok := r.surfaces[r.zorder[i]]; ok {
			out = append(out, o)
		}
	}
	return out
}
