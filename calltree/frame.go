// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltree // import "github.com/scriptprof/hookprof/calltree"

import (
	"github.com/scriptprof/hookprof/cycles"
	"github.com/scriptprof/hookprof/libsp"
)

// StackFrame is one node of the call tree: a code location as observed at a
// particular call path, with the timing for all of its activations folded
// together. Frames are created on first observation and never removed.
type StackFrame struct {
	loc      libsp.CodeLocation
	parent   *StackFrame
	children map[libsp.CodeLocation]*StackFrame

	// entry is the tick stamp of the running activation.
	entry cycles.Cycles
	// inclusive accumulates elapsed ticks over completed activations.
	// Session.Finalize deducts the overhead share from it.
	inclusive cycles.Cycles
	// overhead accumulates the instrumentation ticks charged to this
	// frame: classification and tree bookkeeping on its own enter, and
	// stack ascension whenever one of its children leaves.
	overhead cycles.Cycles
	calls    uint64

	// Derived by Session.Finalize.
	childTime cycles.Cycles
	self      cycles.Cycles
}

// child returns the existing child frame for loc, or creates one. Anonymous
// script locations never compare equal, so they mint a new child on every
// observation; the folded report merges them back together.
func (f *StackFrame) child(loc libsp.CodeLocation) (*StackFrame, bool) {
	if c, ok := f.children[loc]; ok {
		return c, false
	}
	c := &StackFrame{loc: loc, parent: f}
	if f.children == nil {
		f.children = make(map[libsp.CodeLocation]*StackFrame)
	}
	f.children[loc] = c
	return c, true
}

// Location returns the call site identity the frame stands for.
func (f *StackFrame) Location() libsp.CodeLocation {
	return f.loc
}

// Children returns the direct child frames in unspecified order.
func (f *StackFrame) Children() []*StackFrame {
	if len(f.children) == 0 {
		return nil
	}
	out := make([]*StackFrame, 0, len(f.children))
	for _, c := range f.children {
		out = append(out, c)
	}
	return out
}

// Calls returns how many activations of this frame were started.
func (f *StackFrame) Calls() uint64 {
	return f.calls
}

// InclusiveTime returns the frame's elapsed ticks. After Finalize this is
// net of instrumentation overhead.
func (f *StackFrame) InclusiveTime() cycles.Cycles {
	return f.inclusive
}

// SelfTime returns the ticks spent in the frame itself, excluding its
// children. Only valid after Finalize.
func (f *StackFrame) SelfTime() cycles.Cycles {
	return f.self
}

// ChildrenTime returns the combined inclusive ticks of the frame's direct
// children. Only valid after Finalize.
func (f *StackFrame) ChildrenTime() cycles.Cycles {
	return f.childTime
}
