// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package symbolizer // import "github.com/scriptprof/hookprof/symbolizer"

import (
	"github.com/scriptprof/hookprof/libsp"
)

// Table is an in-memory Source backed by a plain address to name map.
// Capture files embed their recorded symbol table as one of these.
type Table struct {
	names map[libsp.Address]string
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{names: make(map[libsp.Address]string)}
}

// Put records a name for addr. A later Put for the same address wins.
func (t *Table) Put(addr libsp.Address, name string) {
	t.names[addr] = name
}

// Len returns the number of recorded addresses.
func (t *Table) Len() int {
	return len(t.names)
}

// ResolveAddress implements Source. Table lookups are exact: there is no
// range information to attribute nearby addresses with.
func (t *Table) ResolveAddress(addr libsp.Address) (string, error) {
	name, ok := t.names[addr]
	if !ok {
		return "", ErrNoSymbol
	}
	return name, nil
}
