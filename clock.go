// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

import "time"

// pausableClock tracks elapsed time excluding paused intervals. It feeds
// the frame time handed to drawers, so time-driven effects freeze while
// the host is paused and resume without a jump.
//
// Not safe for concurrent use; the Registry guards it with its mutex.
type pausableClock struct {
	start   time.Time
	paused  bool
	atPause time.Duration
}

func newPausableClock(now time.Time) pausableClock {
	return pausableClock{start: now}
}

// elapsed returns the running time, frozen while paused.
func (c *pausableClock) elapsed(now time.Time) time.Duration {
	if c.paused {
		return c.atPause
	}
	return now.Sub(c.start)
}

// pause freezes the clock. Idempotent.
func (c *pausableClock) pause(now time.Time) {
	if c.paused {
		return
	}
	c.atPause = now.Sub(c.start)
	c.paused = true
}

// resume unfreezes the clock, rebasing start so the paused interval is
// excluded from elapsed time. Idempotent.
func (c *pausableClock) resume(now time.Time) {
	if !c.paused {
		return
	}
	c.start = now.Add(-c.atPause)
	c.paused = false
}
