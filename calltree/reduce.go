// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltree // import "github.com/scriptprof/hookprof/calltree"

import (
	"github.com/scriptprof/hookprof/cycles"
)

// reduceOverhead deducts the instrumentation ticks charged to each frame
// from its elapsed time, depth first. Saturating: a frame whose activation
// never completed can have charged overhead but no elapsed time at all.
func reduceOverhead(f *StackFrame) {
	f.inclusive = cycles.Sub(f.inclusive, f.overhead)
	for _, c := range f.children {
		reduceOverhead(c)
	}
}

// splitTimes derives childTime and self for every frame, children first.
// childTime sums the reduced inclusive time over all direct children; self
// is whatever remains of the frame's own reduced time.
func splitTimes(f *StackFrame) {
	var sum cycles.Cycles
	for _, c := range f.children {
		splitTimes(c)
		sum += c.inclusive
	}
	f.childTime = sum
	f.self = cycles.Sub(f.inclusive, sum)
}
