// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package task

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
)

// goroutineID holds the worker goroutine's id. Zero means not started.
type goroutineID struct {
	v atomic.Uint64
}

func (g *goroutineID) store(id uint64) { g.v.Store(id) }
func (g *goroutineID) load() uint64    { return g.v.Load() }

// currentGoroutineID returns the calling goroutine's id, parsed from the
// stack trace header ("goroutine N [running]:"). The runtime offers no
// public accessor; keeping the parsed id in one place confines the
// dependence on the header format.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
