// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/overlay/geom"
	"github.com/gogpu/overlay/render"
	"github.com/gogpu/overlay/semantics"
	"github.com/gogpu/overlay/task"
)

// Handler receives input events forwarded to one overlay. It is implemented
// by the embedded UI runtime adapter, outside this package.
//
// A Handler that also implements io.Closer is closed when its overlay shuts
// down; the error is propagated to the Shutdown caller.
type Handler interface {
	// HandlePointer processes a pointer event already translated into the
	// overlay's local coordinate space. The return value reports whether
	// the runtime did anything with the event; routing consumption is
	// decided by the hover flag, not by this result.
	HandlePointer(ev PointerEvent) bool

	// HandleKey processes a keyboard event. The result is propagated
	// unchanged to the routing caller.
	HandleKey(ev KeyEvent) bool

	// ResolveCursor lets a hovered overlay pick the cursor shape.
	// The second result reports whether the overlay resolved one.
	ResolveCursor(ev PointerEvent) (Cursor, bool)
}

// Port delivers one-shot messages into an overlay's runtime. Implemented
// outside this package; nil ports make every post fail.
type Port interface {
	PostBool(v bool) error
	PostInt(v int64) error
	PostFloat(v float64) error
	PostString(v string) error
	PostBytes(v []byte) error

	// Send delivers a platform message on a named channel.
	Send(channel string, payload []byte) error
}

// ChannelHandler processes an inbound channel message and returns the
// response payload.
type ChannelHandler func(payload []byte) []byte

// Overlay is one independently rendered, positioned, focusable surface.
//
// Overlays are created and owned by a Registry. Geometry and visibility are
// guarded by the overlay's own mutex; the hover flag is the only field the
// hit-test writer and the input router share without a lock. The scheduler
// and the semantics tree have their own synchronization and never contend
// with the Registry.
type Overlay struct {
	id string

	mu      sync.Mutex
	visible bool
	x, y    int
	width   int
	height  int
	target  render.Target
	handler Handler
	port    Port

	// lastLocal is the most recent pointer position in local coordinates,
	// used to refresh hover when the semantics tree changes under a
	// stationary cursor.
	lastLocal geom.Point
	hasLocal  bool

	hover atomic.Bool

	scheduler *task.Scheduler
	tree      *semantics.Tree

	chmu     sync.RWMutex
	channels map[string]ChannelHandler
}

func newOverlay(id string, p CreateParams, target render.Target) *Overlay {
	return &Overlay{
		id:        id,
		visible:   !p.Hidden,
		x:         p.X,
		y:         p.Y,
		width:     p.Width,
		height:    p.Height,
		target:    target,
		handler:   p.Handler,
		port:      p.Port,
		scheduler: task.New(task.WithName(id)),
		tree:      semantics.NewTree(),
		channels:  make(map[string]ChannelHandler),
	}
}

// ID returns the overlay's identifier.
func (o *Overlay) ID() string { return o.id }

// Visible reports whether the overlay participates in compositing and
// routing.
func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Position returns the overlay's screen-space origin.
func (o *Overlay) Position() (x, y int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.x, o.y
}

// Size returns the overlay's dimensions in pixels.
func (o *Overlay) Size() (width, height int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.width, o.height
}

// Hovered reports whether the last hit-test found an interactive node
// under the pointer.
func (o *Overlay) Hovered() bool { return o.hover.Load() }

// Scheduler returns the overlay's task scheduler.
func (o *Overlay) Scheduler() *task.Scheduler { return o.scheduler }

// Tree returns the overlay's semantics tree.
func (o *Overlay) Tree() *semantics.Tree { return o.tree }

// Target returns the overlay's render target.
func (o *Overlay) Target() render.Target {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

// UpdateTree replaces the semantics snapshot and refreshes the hover flag
// against the last known pointer position. Called by the external tree
// producer whenever the runtime emits a new snapshot.
func (o *Overlay) UpdateTree(nodes []semantics.Node) {
	o.tree.Update(nodes)
	o.refreshHover()
}

// UpdateHover hit-tests the local-space point and stores the result in the
// hover flag.
func (o *Overlay) UpdateHover(local geom.Point) {
	_, hit := o.tree.HitTest(local)
	o.hover.Store(hit)
}

// refreshHover re-runs the hover hit-test against the last known pointer
// position, picking up semantics tree changes since the last event.
func (o *Overlay) refreshHover() {
	o.mu.Lock()
	local, ok := o.lastLocal, o.hasLocal
	o.mu.Unlock()
	if ok {
		o.UpdateHover(local)
	}
}

// contains reports whether the screen point lies in the overlay's bounding
// box. Left/top edges inclusive, right/bottom exclusive.
func (o *Overlay) contains(x, y int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return x >= o.x && x < o.x+o.width && y >= o.y && y < o.y+o.height
}

// setVisible is called by the Registry on behalf of the host.
func (o *Overlay) setVisible(v bool) {
	o.mu.Lock()
	o.visible = v
	o.mu.Unlock()
}

// setPosition is called by the Registry on behalf of the host.
func (o *Overlay) setPosition(x, y int) {
	o.mu.Lock()
	o.x, o.y = x, y
	o.mu.Unlock()
}

// handlePointer translates the event into local coordinates, forwards it
// to the overlay's handler, and refreshes the hover flag.
func (o *Overlay) handlePointer(ev PointerEvent) {
	o.mu.Lock()
	handler := o.handler
	local := geom.Pt(float64(ev.X-o.x), float64(ev.Y-o.y))
	o.lastLocal = local
	o.hasLocal = ev.Kind != PointerLeave
	o.mu.Unlock()

	if handler != nil {
		localEv := ev
		localEv.X = int(local.X)
		localEv.Y = int(local.Y)
		handler.HandlePointer(localEv)
	}

	if ev.Kind == PointerLeave {
		o.hover.Store(false)
		return
	}
	o.UpdateHover(local)
}

// handleKey forwards a keyboard event to the handler.
func (o *Overlay) handleKey(ev KeyEvent) bool {
	o.mu.Lock()
	handler := o.handler
	o.mu.Unlock()

	if handler == nil {
		return false
	}
	return handler.HandleKey(ev)
}

// resolveCursor asks the handler for a cursor shape.
func (o *Overlay) resolveCursor(ev PointerEvent) (Cursor, bool) {
	o.mu.Lock()
	handler := o.handler
	o.mu.Unlock()

	if handler == nil {
		return CursorDefault, false
	}
	return handler.ResolveCursor(ev)
}

// RegisterPort attaches a message port. A nil port detaches.
func (o *Overlay) RegisterPort(p Port) {
	o.mu.Lock()
	o.port = p
	o.mu.Unlock()
}

func (o *Overlay) getPort() Port {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.port
}

// RegisterChannelHandler installs a handler for a named message channel,
// replacing any previous handler for that channel.
func (o *Overlay) RegisterChannelHandler(channel string, fn ChannelHandler) {
	o.chmu.Lock()
	defer o.chmu.Unlock()
	if fn == nil {
		delete(o.channels, channel)
		return
	}
	o.channels[channel] = fn
}

// DispatchChannel invokes the handler registered for the channel.
// The second result reports whether a handler was installed.
func (o *Overlay) DispatchChannel(channel string, payload []byte) ([]byte, bool) {
	o.chmu.RLock()
	fn, ok := o.channels[channel]
	o.chmu.RUnlock()

	if !ok {
		return nil, false
	}
	return fn(payload), true
}

// resize recreates the render target at the new dimensions.
func (o *Overlay) resize(width, height int) error {
	o.mu.Lock()
	target := o.target
	o.mu.Unlock()

	if target == nil {
		return ErrNoTarget
	}
	if err := target.Resize(width, height); err != nil {
		return err
	}

	o.mu.Lock()
	o.width, o.height = width, height
	o.mu.Unlock()
	return nil
}

// shutdown stops the scheduler, releases the target, and closes the
// handler if it supports closing.
func (o *Overlay) shutdown() error {
	o.scheduler.Shutdown()

	o.mu.Lock()
	target := o.target
	handler := o.handler
	o.target = nil
	o.handler = nil
	o.port = nil
	o.mu.Unlock()

	if target != nil {
		target.Destroy()
	}
	if closer, ok := handler.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
