// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "github.com/scriptprof/hookprof/reporter"

import (
	"fmt"
	"os"
	"time"

	"github.com/google/pprof/profile"
	log "github.com/sirupsen/logrus"

	"github.com/scriptprof/hookprof/calltree"
)

// PprofReporter writes the finalized tree as a gzipped pprof profile with
// two values per call path: activation count and self ticks. Callers can
// attach free form comments (session id, capture digest, build info) that
// pprof tooling surfaces verbatim.
type PprofReporter struct {
	path     string
	resolver SymbolResolver
	comments []string
}

// NewPprof returns a PprofReporter writing to path.
func NewPprof(path string, resolver SymbolResolver, comments ...string) *PprofReporter {
	return &PprofReporter{path: path, resolver: resolver, comments: comments}
}

// ReportTree implements TreeReporter.
func (r *PprofReporter) ReportTree(root *calltree.StackFrame) error {
	p := buildProfile(root, r.resolver, r.comments)

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	if err = p.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing profile: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing profile: %w", err)
	}
	log.Debugf("Wrote %d pprof samples to %s", len(p.Sample), r.path)
	return nil
}

// buildProfile converts the tree into the pprof data model. Functions and
// locations are deduplicated by label, samples by full call path, so the
// anonymous script frames the tree keeps apart merge here exactly like the
// folded text format merges them.
func buildProfile(root *calltree.StackFrame, resolver SymbolResolver,
	comments []string) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "calls", Unit: "count"},
			{Type: "self", Unit: "cycles"},
		},
		PeriodType: &profile.ValueType{Type: "self", Unit: "cycles"},
		Period:     1,
		TimeNanos:  time.Now().UnixNano(),
		Comments:   comments,
	}

	locations := make(map[string]*profile.Location)
	samples := make(map[string]*profile.Sample)

	locationFor := func(name string) *profile.Location {
		if loc, ok := locations[name]; ok {
			return loc
		}
		fn := &profile.Function{
			ID:   uint64(len(p.Function)) + 1,
			Name: name,
		}
		p.Function = append(p.Function, fn)
		loc := &profile.Location{
			ID:   uint64(len(p.Location)) + 1,
			Line: []profile.Line{{Function: fn}},
		}
		p.Location = append(p.Location, loc)
		locations[name] = loc
		return loc
	}

	var walk func(f *calltree.StackFrame, chain []*profile.Location, path string)
	walk = func(f *calltree.StackFrame, chain []*profile.Location, path string) {
		for _, c := range f.Children() {
			name := label(c.Location(), resolver)
			cpath := path + ";" + name

			cchain := make([]*profile.Location, 0, len(chain)+1)
			cchain = append(cchain, locationFor(name))
			cchain = append(cchain, chain...) // pprof wants the leaf first

			if s, ok := samples[cpath]; ok {
				s.Value[0] += int64(c.Calls())
				s.Value[1] += int64(c.SelfTime())
			} else {
				s = &profile.Sample{
					Location: cchain,
					Value:    []int64{int64(c.Calls()), int64(c.SelfTime())},
				}
				p.Sample = append(p.Sample, s)
				samples[cpath] = s
			}
			walk(c, cchain, cpath)
		}
	}
	walk(root, nil, rootLabel)
	return p
}
