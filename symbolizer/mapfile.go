// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package symbolizer // import "github.com/scriptprof/hookprof/symbolizer"

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/scriptprof/hookprof/libsp"
	"github.com/scriptprof/hookprof/stringutil"
)

// ErrEmptyMapFile means the file parsed, but not a single line of it looked
// like a symbol.
var ErrEmptyMapFile = errors.New("map file contains no symbols")

// mapSymbol is the per-symbol structure. The name lives in the shared names
// arena; map files for JIT heavy hosts run into six digit symbol counts.
type mapSymbol struct {
	start libsp.Address
	// size is the symbol length in bytes. Zero means open ended: the
	// symbol extends to the next one's start.
	size uint64
	// index is the offset of the name within the names arena.
	index uint32
}

// MapFile is a Source backed by a perf style map file: one
// "<start> <size> <name>" line per symbol, start and size in hex. The
// format is loose by tradition; lines that do not parse are skipped.
type MapFile struct {
	symbols []mapSymbol // sorted by start, descending
	names   []byte
}

// LoadMapFile reads and indexes the map file at path.
func LoadMapFile(path string) (*MapFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := parseMap(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	log.Debugf("Loaded %d symbols from %s", len(m.symbols), path)
	return m, nil
}

func parseMap(r io.Reader) (*MapFile, error) {
	m := &MapFile{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// The name column is the remainder of the line; demangled names
		// contain spaces.
		var fields [3]string
		if stringutil.FieldsN(scanner.Text(), fields[:]) < 3 {
			continue
		}
		start, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 64)
		if err != nil {
			continue
		}
		m.symbols = append(m.symbols, mapSymbol{
			start: libsp.Address(start),
			size:  size,
			index: m.addName(strings.TrimRight(fields[2], " \t")),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(m.symbols) == 0 {
		return nil, ErrEmptyMapFile
	}
	sort.Slice(m.symbols, func(i, j int) bool {
		return m.symbols[i].start >= m.symbols[j].start
	})
	return m, nil
}

// addName appends name to the arena and returns an index suitable for
// storing in the mapSymbol struct. Names are length prefixed; two bytes,
// demangled C++ names overrun one.
func (m *MapFile) addName(name string) uint32 {
	if len(name) > 0xffff {
		name = name[:0xffff]
	}
	index := len(m.names)
	m.names = binary.LittleEndian.AppendUint16(m.names, uint16(len(name)))
	m.names = append(m.names, name...)
	return uint32(index)
}

// stringAt recovers the name at an index received from a previous addName
// call. The returned string aliases the arena, which is immutable after
// parseMap.
func (m *MapFile) stringAt(index uint32) string {
	i := int(index)
	l := int(binary.LittleEndian.Uint16(m.names[i:]))
	return stringutil.ByteSlice2String(m.names[i+2 : i+2+l])
}

// ResolveAddress implements Source with nearest-below-within-range
// semantics: the matching symbol is the one with the greatest start not
// above addr, provided addr falls inside its extent.
func (m *MapFile) ResolveAddress(addr libsp.Address) (string, error) {
	idx := sort.Search(len(m.symbols), func(i int) bool {
		return m.symbols[i].start <= addr
	})
	if idx == len(m.symbols) {
		return "", ErrNoSymbol
	}
	sym := &m.symbols[idx]
	// A zero size symbol is open ended; the search above already bounds
	// it by the next symbol's start.
	if sym.size != 0 && uint64(addr-sym.start) >= sym.size {
		return "", ErrNoSymbol
	}
	return m.stringAt(sym.index), nil
}
