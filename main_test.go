// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptprof/hookprof/capture"
	"github.com/scriptprof/hookprof/libsp"
)

// writeCapture records the canonical test run to path: a named script
// function "f" spending 20 of its 50 ticks in a native callee. Incomplete
// captures stop after the native return, with "f" still on the stack.
func writeCapture(t *testing.T, path string, complete bool) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := capture.NewWriter(f, "premake gmake")
	require.NoError(t, err)

	require.NoError(t, w.Symbol(0x1000, "os_clock"))
	require.NoError(t, w.Call(libsp.RawCall{Kind: libsp.ScriptCall, Name: "f"}, 0))
	require.NoError(t, w.Call(libsp.RawCall{Kind: libsp.NativeCall, Entry: 0x1000}, 10))
	require.NoError(t, w.Return(30))
	if complete {
		require.NoError(t, w.TailReturn(50))
		require.NoError(t, w.Exit(3))
	}
	require.NoError(t, f.Close())
}

func TestParseArgs(t *testing.T) {
	tests := map[string]struct {
		argv []string
		want arguments
	}{
		"defaults": {
			argv: []string{},
			want: arguments{output: defaultArgOutput},
		},
		"all flags": {
			argv: []string{
				"-capture", "run.jsonl",
				"-output", "out.folded",
				"-pprof", "cpu.pb.gz",
				"-symbols", "host.map",
				"-verbose",
			},
			want: arguments{
				capture:     "run.jsonl",
				output:      "out.folded",
				pprofPath:   "cpu.pb.gz",
				symbolsPath: "host.map",
				verboseMode: true,
			},
		},
		"shorthands": {
			argv: []string{"-capture", "run.jsonl", "-o", "short.folded", "-v"},
			want: arguments{
				capture:     "run.jsonl",
				output:      "short.folded",
				verboseMode: true,
			},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			args, err := parseArgs(tc.argv)
			require.NoError(t, err)

			assert.Equal(t, tc.want.capture, args.capture)
			assert.Equal(t, tc.want.output, args.output)
			assert.Equal(t, tc.want.pprofPath, args.pprofPath)
			assert.Equal(t, tc.want.symbolsPath, args.symbolsPath)
			assert.Equal(t, tc.want.verboseMode, args.verboseMode)
		})
	}
}

func TestParseArgsFromEnvironment(t *testing.T) {
	t.Setenv("HOOKPROF_OUTPUT", "env.folded")

	args, err := parseArgs([]string{})
	require.NoError(t, err)
	assert.Equal(t, "env.folded", args.output)

	// Command line flags take precedence over the environment.
	args, err = parseArgs([]string{"-output", "flag.folded"})
	require.NoError(t, err)
	assert.Equal(t, "flag.folded", args.output)
}

func TestParseArgsFromConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "hookprof.cfg")
	cfg := "capture run.jsonl\noutput cfg.folded\nno-such-option ignored\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	args, err := parseArgs([]string{"-config", cfgPath})
	require.NoError(t, err)
	assert.Equal(t, "run.jsonl", args.capture)
	assert.Equal(t, "cfg.folded", args.output)
}

func TestSanityCheck(t *testing.T) {
	tests := map[string]struct {
		args arguments
		want exitCode
	}{
		"valid":           {arguments{capture: "run.jsonl", output: "o.folded"}, exitSuccess},
		"missing capture": {arguments{output: "o.folded"}, exitParseError},
		"empty output":    {arguments{capture: "run.jsonl"}, exitParseError},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanityCheck(&tc.args))
		})
	}
}

func TestRunWritesReports(t *testing.T) {
	dir := t.TempDir()
	capPath := filepath.Join(dir, "run.jsonl")
	outPath := filepath.Join(dir, "stacks.folded")
	pprofPath := filepath.Join(dir, "cpu.pb.gz")
	writeCapture(t, capPath, true)

	args, err := parseArgs([]string{
		"-capture", capPath,
		"-o", outPath,
		"-pprof", pprofPath,
	})
	require.NoError(t, err)
	require.Equal(t, exitSuccess, sanityCheck(args))

	// The process reports the profiled run's own exit code.
	assert.Equal(t, exitCode(3), run(context.Background(), args))

	folded, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "root;LUA:f 30\nroot;LUA:f;C:os_clock 20\n", string(folded))

	data, err := os.ReadFile(pprofPath)
	require.NoError(t, err)
	p, err := profile.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, p.CheckValid())
	assert.Contains(t, strings.Join(p.Comments, "\n"), "run label premake gmake")
}

func TestRunAbortedCapture(t *testing.T) {
	dir := t.TempDir()
	capPath := filepath.Join(dir, "aborted.jsonl")
	outPath := filepath.Join(dir, "stacks.folded")
	writeCapture(t, capPath, false)

	args, err := parseArgs([]string{"-capture", capPath, "-o", outPath})
	require.NoError(t, err)
	assert.Equal(t, exitFailure, run(context.Background(), args))

	// The partial tree is still reported: "f" never returned, so only its
	// native callee accumulated time.
	folded, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "root;LUA:f 0\nroot;LUA:f;C:os_clock 20\n", string(folded))
}

func TestRunMissingCapture(t *testing.T) {
	args, err := parseArgs([]string{
		"-capture", filepath.Join(t.TempDir(), "no-such.jsonl"),
	})
	require.NoError(t, err)
	assert.Equal(t, exitFailure, run(context.Background(), args))
}

func TestRunMapFileOverridesCaptureSymbols(t *testing.T) {
	dir := t.TempDir()
	capPath := filepath.Join(dir, "run.jsonl")
	outPath := filepath.Join(dir, "stacks.folded")
	mapPath := filepath.Join(dir, "host.map")
	writeCapture(t, capPath, true)
	require.NoError(t, os.WriteFile(mapPath, []byte("1000 10 clock_native\n"), 0o600))

	args, err := parseArgs([]string{
		"-capture", capPath,
		"-o", outPath,
		"-symbols", mapPath,
	})
	require.NoError(t, err)
	assert.Equal(t, exitCode(3), run(context.Background(), args))

	folded, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "root;LUA:f 30\nroot;LUA:f;C:clock_native 20\n", string(folded))
}
