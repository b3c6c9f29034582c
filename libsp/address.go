// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libsp // import "github.com/scriptprof/hookprof/libsp"

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Address is the entry address of a native function inside the host process.
// It is only meaningful within the process (or capture) it was observed in.
type Address uintptr

// Hash32 returns a 32 bits hash of the address.
// Its main purpose is to be used as a key for caching.
func (a Address) Hash32() uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(a))
	return uint32(xxh3.Hash(buf[:]))
}

// String renders the address the way unresolved native frames are labeled
// in reports.
func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// MarshalJSON renders the address as a hex string, the form capture files
// store it in.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a hex string with or without the 0x prefix.
func (a *Address) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("address must be a hex string: %w", err)
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("malformed address %q: %w", s, err)
	}
	*a = Address(v)
	return nil
}
