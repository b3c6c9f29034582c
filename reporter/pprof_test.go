// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptprof/hookprof/calltree"
	"github.com/scriptprof/hookprof/cycles"
	"github.com/scriptprof/hookprof/libsp"
)

func sampleByLeaf(p *profile.Profile, leaf string) *profile.Sample {
	for _, s := range p.Sample {
		if len(s.Location) > 0 && s.Location[0].Line[0].Function.Name == leaf {
			return s
		}
	}
	return nil
}

func TestBuildProfile(t *testing.T) {
	s := scriptedSession()
	p := buildProfile(s.Root(), testResolver(), []string{"session test"})

	require.Len(t, p.SampleType, 2)
	assert.Equal(t, "calls", p.SampleType[0].Type)
	assert.Equal(t, "self", p.SampleType[1].Type)
	assert.Equal(t, []string{"session test"}, p.Comments)

	require.Len(t, p.Sample, 2)

	f := sampleByLeaf(p, "LUA:f")
	require.NotNil(t, f)
	assert.Equal(t, []int64{1, 30}, f.Value)
	require.Len(t, f.Location, 1)

	native := sampleByLeaf(p, "C:os_clock")
	require.NotNil(t, native)
	assert.Equal(t, []int64{1, 20}, native.Value)
	// Leaf first, caller below.
	require.Len(t, native.Location, 2)
	assert.Equal(t, "LUA:f", native.Location[1].Line[0].Function.Name)

	// The same function must not be registered twice.
	assert.Len(t, p.Function, 2)
	assert.Len(t, p.Location, 2)
}

func TestBuildProfileMergesAnonymousFrames(t *testing.T) {
	clock := &cycles.ManualClock{}
	s := calltree.NewSession(clock)

	for i := 0; i < 2; i++ {
		clock.Advance(1)
		s.OnEnter(libsp.RawCall{Kind: libsp.ScriptCall, Source: "init.lua", Line: 7})
		clock.Advance(5)
		s.OnLeave()
	}
	s.Finalize()

	p := buildProfile(s.Root(), nil, nil)
	require.Len(t, p.Sample, 1)
	assert.Equal(t, []int64{2, 10}, p.Sample[0].Value)
}

func TestPprofReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.pb.gz")
	r := NewPprof(path, testResolver(), "run abc")
	require.NoError(t, r.ReportTree(scriptedSession().Root()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	parsed, err := profile.Parse(bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, parsed.CheckValid())
	assert.Len(t, parsed.Sample, 2)
	assert.Contains(t, parsed.Comments, "run abc")
}

func TestPprofReportBadDestination(t *testing.T) {
	r := NewPprof(filepath.Join(t.TempDir(), "missing", "p.pb.gz"), nil)
	assert.Error(t, r.ReportTree(scriptedSession().Root()))
}
