// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package libsp holds the call site model shared by the call tree builder,
// the symbolizer and the reporters: raw hook events, their classification
// into comparable code location identities, and the hook interface a script
// interpreter drives.
package libsp // import "github.com/scriptprof/hookprof/libsp"

// Hook is the observer a script interpreter invokes while it executes.
// OnEnter fires right after the interpreter pushed a function, OnLeave right
// before it pops one. Events nest properly within one session; tail call
// returns are delivered as ordinary leaves.
type Hook interface {
	OnEnter(call RawCall)
	OnLeave()
}
