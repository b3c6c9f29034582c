// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package cycles // import "github.com/scriptprof/hookprof/cycles"

import "golang.org/x/sys/unix"

// RawClock reads CLOCK_MONOTONIC_RAW, the kernel clock that is not subject
// to NTP rate adjustment. Readings go through the vDSO as well, but cost a
// bit more than the runtime clock.
type RawClock struct{}

func (RawClock) Now() Cycles {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		// The clock exists on every kernel this runs on. Fall back
		// rather than lose the event.
		return Now()
	}
	return Cycles(ts.Nano())
}
