// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package reporter turns finalized call trees into their external report
// formats: the folded stack text consumed by flame graph tooling, and
// pprof profiles.
package reporter // import "github.com/scriptprof/hookprof/reporter"

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"github.com/scriptprof/hookprof/calltree"
	"github.com/scriptprof/hookprof/cycles"
	"github.com/scriptprof/hookprof/libsp"
)

// rootLabel anchors every report path.
const rootLabel = "root"

// FlatStack is one flattened call path with the self time attributed to its
// leaf frame.
type FlatStack struct {
	Path string
	Self cycles.Cycles
}

// label renders one path segment: the location kind tag plus the display
// identity, with native addresses going through the symbol resolver.
func label(loc libsp.CodeLocation, resolver SymbolResolver) string {
	if addr, ok := loc.NativeAddress(); ok && resolver != nil {
		return loc.Kind().Tag() + resolver.Resolve(addr)
	}
	return loc.Kind().Tag() + loc.Display()
}

// Flatten walks a finalized tree and emits one FlatStack per frame, parents
// before their children. Sibling order is unspecified; SortStacks takes
// care of it.
func Flatten(root *calltree.StackFrame, resolver SymbolResolver) []FlatStack {
	var out []FlatStack
	var walk func(f *calltree.StackFrame, prefix string)
	walk = func(f *calltree.StackFrame, prefix string) {
		for _, c := range f.Children() {
			path := prefix + ";" + label(c.Location(), resolver)
			out = append(out, FlatStack{Path: path, Self: c.SelfTime()})
			walk(c, path)
		}
	}
	walk(root, rootLabel)
	return out
}

// SortStacks orders stacks lexicographically by path. Sorting lines up
// textually identical paths for FoldStacks, and makes report output
// reproducible for identical inputs.
func SortStacks(stacks []FlatStack) {
	sort.Slice(stacks, func(i, j int) bool {
		return stacks[i].Path < stacks[j].Path
	})
}

// FoldStacks merges adjacent entries with equal paths, summing their self
// times. The input must be sorted. Anonymous script frames rely on this:
// the tree keeps every observation apart, the report does not.
func FoldStacks(stacks []FlatStack) []FlatStack {
	if len(stacks) == 0 {
		return stacks
	}
	folded := stacks[:1]
	for _, st := range stacks[1:] {
		last := &folded[len(folded)-1]
		if st.Path == last.Path {
			last.Self += st.Self
			continue
		}
		folded = append(folded, st)
	}
	return folded
}

// FoldedReporter writes the folded stack text format: one
// "<path> <self ticks>" line per distinct call path, sorted. Destinations
// ending in .gz are compressed on the fly.
type FoldedReporter struct {
	path        string
	resolver    SymbolResolver
	fingerprint uint64
}

// NewFolded returns a FoldedReporter writing to path.
func NewFolded(path string, resolver SymbolResolver) *FoldedReporter {
	return &FoldedReporter{path: path, resolver: resolver}
}

// ReportTree implements TreeReporter.
func (r *FoldedReporter) ReportTree(root *calltree.StackFrame) error {
	stacks := Flatten(root, r.resolver)
	SortStacks(stacks)
	stacks = FoldStacks(stacks)

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(r.path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	// The fingerprint hashes the uncompressed byte stream, so a .gz
	// report and its plain twin fingerprint identically.
	digest := xxh3.New()
	bw := bufio.NewWriter(io.MultiWriter(w, digest))
	for _, st := range stacks {
		fmt.Fprintf(bw, "%s %d\n", st.Path, uint64(st.Self))
	}

	if err = bw.Flush(); err == nil && gz != nil {
		err = gz.Close()
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}

	r.fingerprint = digest.Sum64()
	log.Debugf("Wrote %d folded stacks to %s (fingerprint %016x)",
		len(stacks), r.path, r.fingerprint)
	return nil
}

// Fingerprint returns the xxh3 hash of the report content produced by the
// last ReportTree call.
func (r *FoldedReporter) Fingerprint() uint64 {
	return r.fingerprint
}
