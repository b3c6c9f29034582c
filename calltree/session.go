// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package calltree builds the call tree a profiling session observes
// through its interpreter hook, and reduces it to per frame self times once
// the run is over.
package calltree // import "github.com/scriptprof/hookprof/calltree"

import (
	"github.com/google/uuid"

	"github.com/scriptprof/hookprof/cycles"
	"github.com/scriptprof/hookprof/libsp"
)

// Session owns one call tree under construction. It implements libsp.Hook
// and is driven from a single goroutine: the interpreter during a live run,
// or a capture player.
//
// The timing discipline follows the hook shape. On enter, the first tick
// stamp is taken before any classification or tree work so that this cost
// lands on the entered frame's overhead account rather than in its elapsed
// time. On leave, the elapsed stamp is taken first and the cost of
// ascending is charged to the parent the cursor returns to.
type Session struct {
	id    uuid.UUID
	clock cycles.Clock

	root    *StackFrame
	current *StackFrame

	events   uint64
	nodes    uint64
	depth    int
	maxDepth int

	finalized bool
}

// Stats describes a session for end of run logging.
type Stats struct {
	// Events counts delivered enter and leave events.
	Events uint64
	// Nodes counts distinct frames created in the tree.
	Nodes uint64
	// MaxDepth is the deepest call stack observed.
	MaxDepth int
}

// NewSession creates an empty session. A nil clock selects the runtime
// monotonic clock; replayed sessions pass the player's manual clock.
func NewSession(clock cycles.Clock) *Session {
	if clock == nil {
		clock = cycles.MonotonicClock{}
	}
	root := &StackFrame{}
	return &Session{
		id:      uuid.New(),
		clock:   clock,
		root:    root,
		current: root,
	}
}

// ID returns the session identity used in logs and report metadata.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Root returns the synthetic root frame. Its children are the top level
// frames of the profiled run; the root itself carries no code location.
func (s *Session) Root() *StackFrame {
	return s.root
}

// OnEnter implements libsp.Hook.
func (s *Session) OnEnter(call libsp.RawCall) {
	start := s.clock.Now()

	loc := libsp.Classify(call)
	child, created := s.current.child(loc)
	child.entry = start
	child.calls++
	s.current = child

	s.events++
	if created {
		s.nodes++
	}
	s.depth++
	if s.depth > s.maxDepth {
		s.maxDepth = s.depth
	}

	child.overhead += cycles.Sub(s.clock.Now(), start)
}

// OnLeave implements libsp.Hook. Leaving with nothing but the root on the
// stack means the event source delivered an unpaired return; no tree built
// past that point could be trusted, so this panics.
func (s *Session) OnLeave() {
	stop := s.clock.Now()

	if s.current == s.root {
		panic("calltree: leave event with no open frame")
	}
	f := s.current
	f.inclusive += cycles.Sub(stop, f.entry)
	s.current = f.parent

	s.events++
	s.depth--

	s.current.overhead += cycles.Sub(s.clock.Now(), stop)
}

// Depth returns the number of currently open frames.
func (s *Session) Depth() int {
	return s.depth
}

// Stats returns the session counters.
func (s *Session) Stats() Stats {
	return Stats{Events: s.events, Nodes: s.nodes, MaxDepth: s.maxDepth}
}

// Finalize reduces the tree: instrumentation overhead is deducted from
// every frame's elapsed time, then each frame's time is split into its own
// share and its children's. Finalize is idempotent and safe on trees with
// unfinished frames: when the profiled program aborted mid call, those
// frames carry only the activations that completed.
func (s *Session) Finalize() {
	if s.finalized {
		return
	}
	s.finalized = true
	reduceOverhead(s.root)
	splitTimes(s.root)
}
