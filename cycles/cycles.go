// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package cycles provides the tick source profiling sessions stamp call
// events with. Ticks are readings of a monotonic, low overhead counter;
// they are relative values that only carry meaning within one session on
// one machine.
package cycles // import "github.com/scriptprof/hookprof/cycles"

import (
	_ "unsafe" // required to use //go:linkname for runtime.nanotime
)

// Cycles is one tick counter reading, or a difference of two readings.
type Cycles uint64

// Clock hands out tick readings. Implementations must be monotonic within
// a session; nothing else is assumed about their epoch or rate.
type Clock interface {
	Now() Cycles
}

// Now reads the runtime monotonic clock. Using the runtime internal is
// superior in performance, as it is able to use the vDSO to query the time
// without a syscall, which matters when every call event takes two readings.
//
//go:noescape
//go:linkname Now runtime.nanotime
func Now() Cycles

// MonotonicClock is the default Clock, backed by the runtime monotonic
// clock.
type MonotonicClock struct{}

func (MonotonicClock) Now() Cycles { return Now() }

// ManualClock is a Clock whose reading is set by hand. Capture playback and
// tests drive it, so that a session observes recorded time instead of its
// own.
type ManualClock struct {
	now Cycles
}

// Set moves the clock to v.
func (c *ManualClock) Set(v Cycles) { c.now = v }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d Cycles) { c.now += d }

func (c *ManualClock) Now() Cycles { return c.now }

// Sub returns a-b, clamped at zero. Tick arithmetic saturates instead of
// wrapping: trees from aborted runs can have frames whose accounted time is
// smaller than what is being deducted from it.
func Sub(a, b Cycles) Cycles {
	if a < b {
		return 0
	}
	return a - b
}
