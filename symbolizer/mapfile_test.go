// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package symbolizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptprof/hookprof/libsp"
)

func writeMapFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "host.map")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMapFile(t *testing.T) {
	path := writeMapFile(t, `
0x1000 20 os_match
2000 10 str_hash
3000 0 jit_trampoline
4000 8 premake::action::call(char const*)
this line is junk
50zz 10 bad_start
6000 zz bad_size
`)
	m, err := LoadMapFile(path)
	require.NoError(t, err)
	require.Len(t, m.symbols, 4)

	tests := map[string]struct {
		addr   libsp.Address
		result string
		found  bool
	}{
		"exact start":              {addr: 0x1000, result: "os_match", found: true},
		"last byte inside":         {addr: 0x101f, result: "os_match", found: true},
		"one past the end":         {addr: 0x1020, found: false},
		"gap between symbols":      {addr: 0x1fff, found: false},
		"inside sized symbol":      {addr: 0x2008, result: "str_hash", found: true},
		"open ended symbol":        {addr: 0x3abc, result: "jit_trampoline", found: true},
		"open ended stops at next": {addr: 0x3fff, result: "jit_trampoline", found: true},
		"name with spaces":         {addr: 0x4004, result: "premake::action::call(char const*)", found: true},
		"past the last symbol":     {addr: 0x9000, found: false},
		"below the first symbol":   {addr: 0x500, found: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := m.ResolveAddress(test.addr)
			if !test.found {
				assert.ErrorIs(t, err, ErrNoSymbol)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.result, result)
		})
	}
}

func TestLoadMapFileEmpty(t *testing.T) {
	path := writeMapFile(t, "no symbols here\n")
	_, err := LoadMapFile(path)
	assert.ErrorIs(t, err, ErrEmptyMapFile)
}

func TestLoadMapFileMissing(t *testing.T) {
	_, err := LoadMapFile(filepath.Join(t.TempDir(), "nope.map"))
	assert.Error(t, err)
}

func TestMapFileAsResolverSource(t *testing.T) {
	path := writeMapFile(t, "1000 10 _Z4tickv\n")
	m, err := LoadMapFile(path)
	require.NoError(t, err)

	resolver := NewResolver(m)
	assert.Equal(t, "tick()", resolver.Resolve(0x1008))
	assert.Equal(t, "0x2000", resolver.Resolve(0x2000))
}
