// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "github.com/scriptprof/hookprof/reporter"

import (
	"github.com/scriptprof/hookprof/calltree"
	"github.com/scriptprof/hookprof/libsp"
)

// TreeReporter turns a finalized call tree into one external report.
// Implementations must not mutate the tree; several reporters may consume
// the same tree, concurrently if the caller wants to.
type TreeReporter interface {
	ReportTree(root *calltree.StackFrame) error
}

// SymbolResolver names native entry addresses for report labels. A nil
// SymbolResolver is accepted everywhere in this package and leaves native
// frames labeled with their hex address.
type SymbolResolver interface {
	Resolve(addr libsp.Address) string
}
